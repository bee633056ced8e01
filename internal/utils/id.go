package utils

import "github.com/google/uuid"

// GenerateID returns a new random identifier for ledger records.
func GenerateID() string {
	return uuid.NewString()
}

// StableID derives a deterministic identifier from an external subject, so
// the same OAuth account always maps to the same user id.
func StableID(subject string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(subject)).String()
}
