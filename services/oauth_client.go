// services/oauth_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"benefit-distribution-system/utils"
)

// ForumProfile is the profile the forum returns for an authenticated user.
type ForumProfile struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
	TrustLevel     int    `json:"trust_level"`
	Silenced       bool   `json:"silenced"`
	AvatarTemplate string `json:"avatar_template"`
}

// AvatarURL resolves the forum's avatar template to a concrete URL.
func (p *ForumProfile) AvatarURL(forumBaseURL string) string {
	if p.AvatarTemplate == "" {
		return ""
	}
	avatar := strings.ReplaceAll(p.AvatarTemplate, "{size}", "64")
	if strings.HasPrefix(avatar, "/") {
		return forumBaseURL + avatar
	}
	if !strings.HasPrefix(avatar, "http") {
		return forumBaseURL + "/" + avatar
	}
	return avatar
}

// OAuthClient exchanges authorization codes for tokens and fetches the
// caller's forum profile. The handshake itself is opaque to the rest of
// the system: code in, token out, profile fields out.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string

	Client *http.Client
}

func NewOAuthClient(clientID, clientSecret, redirectURI, authorizeURL, tokenURL, userInfoURL string) *OAuthClient {
	return &OAuthClient{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		AuthorizeURL: authorizeURL,
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
		Client:       utils.HTTPClient,
	}
}

// AuthorizationURL builds the URL the browser is sent to, carrying our
// single-use state token.
func (c *OAuthClient) AuthorizationURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", c.RedirectURI)
	params.Set("state", state)
	return c.AuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[OAUTH] token endpoint returned %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("token exchange failed: %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return out.AccessToken, nil
}

// FetchProfile retrieves the authenticated user's forum profile.
func (c *OAuthClient) FetchProfile(ctx context.Context, accessToken string) (*ForumProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("[OAUTH] profile endpoint returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("profile fetch failed: %d", resp.StatusCode)
	}

	var profile ForumProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}
