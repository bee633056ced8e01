package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/BerylCAtieno/loanmitra/internal/models"
	"github.com/BerylCAtieno/loanmitra/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleProvider struct {
	oauthConfig *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider returns nil when the client credentials are missing.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) Provider {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &googleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *googleProvider) Identify(ctx context.Context, code string) (models.User, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return models.User{}, fmt.Errorf("exchange code: %w", err)
	}

	resp, err := p.oauthConfig.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return models.User{}, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.User{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.User{}, fmt.Errorf("decode user info: %w", err)
	}

	// v2 userinfo returns "id" rather than "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	if info.Sub == "" {
		return models.User{}, fmt.Errorf("user info has no subject")
	}

	return models.User{
		ID:    utils.StableID("google:" + info.Sub),
		Email: info.Email,
		Name:  info.Name,
	}, nil
}
