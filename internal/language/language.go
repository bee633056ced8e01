// Package language holds the single table of languages the app can summarize,
// chat and speak in.
package language

import "strings"

type Code string

const (
	English  Code = "english"
	Hindi    Code = "hindi"
	Tamil    Code = "tamil"
	Telugu   Code = "telugu"
	Bengali  Code = "bengali"
	Marathi  Code = "marathi"
	Gujarati Code = "gujarati"
	Kannada  Code = "kannada"
)

// Default is used whenever a language is missing or unknown.
const Default = English

const DefaultLocale = "en-US"

type entry struct {
	code   Code
	locale string
	name   string
}

// Order here is the order shown to users.
var table = []entry{
	{English, "en-US", "English"},
	{Hindi, "hi-IN", "हिंदी"},
	{Tamil, "ta-IN", "தமிழ்"},
	{Telugu, "te-IN", "తెలుగు"},
	{Bengali, "bn-IN", "বাংলা"},
	{Marathi, "mr-IN", "मराठी"},
	{Gujarati, "gu-IN", "ગુજરાતી"},
	{Kannada, "kn-IN", "ಕನ್ನಡ"},
}

func lookup(c Code) (entry, bool) {
	for _, e := range table {
		if e.code == c {
			return e, true
		}
	}
	return entry{}, false
}

// All returns every supported code in display order.
func All() []Code {
	codes := make([]Code, len(table))
	for i, e := range table {
		codes[i] = e.code
	}
	return codes
}

// Parse accepts a code ("hindi"), a locale ("hi-IN") or a native name, case
// insensitively.
func Parse(s string) (Code, bool) {
	s = strings.TrimSpace(s)
	for _, e := range table {
		if strings.EqualFold(s, string(e.code)) || strings.EqualFold(s, e.locale) || s == e.name {
			return e.code, true
		}
	}
	return "", false
}

// Normalize returns c if it is supported and Default otherwise.
func Normalize(c Code) Code {
	if _, ok := lookup(c); ok {
		return c
	}
	return Default
}

func (c Code) Valid() bool {
	_, ok := lookup(c)
	return ok
}

// Locale returns the BCP-47 tag for c, en-US for anything unknown.
func Locale(c Code) string {
	if e, ok := lookup(c); ok {
		return e.locale
	}
	return DefaultLocale
}

// Name returns the native display name for c.
func Name(c Code) string {
	if e, ok := lookup(c); ok {
		return e.name
	}
	return "English"
}

func (c Code) String() string { return string(c) }
