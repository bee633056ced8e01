package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/BerylCAtieno/loanmitra/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried in a bearer token.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
	Iat   int64  `json:"iat,omitempty"`
}

// Signer issues and checks HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if secret == "" {
		secret = "dev-secret"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Signer) Sign(user models.User) (string, error) {
	if user.ID == "" {
		return "", errors.New("user id is required")
	}

	now := s.now().UTC()
	claims := Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
		Iat:   now.Unix(),
		Exp:   now.Add(s.ttl).Unix(),
	}

	headerJSON, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(payloadJSON)

	return signingInput + "." + s.sign(signingInput), nil
}

func (s *Signer) Verify(token string) (models.User, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return models.User{}, ErrInvalidToken
	}

	expected := s.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return models.User{}, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return models.User{}, ErrInvalidToken
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return models.User{}, ErrInvalidToken
	}

	if claims.Exp > 0 && s.now().UTC().Unix() > claims.Exp {
		return models.User{}, ErrInvalidToken
	}

	return models.User{ID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

func (s *Signer) sign(input string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
