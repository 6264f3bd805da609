// services/auth_service.go
package services

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// AuthService drives the OAuth login flow: handshake state issue, code
// exchange, account upsert and bearer token minting.
type AuthService struct {
	OAuth        *OAuthClient
	States       *LoginStateStore
	Users        *UserService
	Tokens       *TokenIssuer
	ForumBaseURL string
}

func NewAuthService(oauth *OAuthClient, states *LoginStateStore, users *UserService, tokens *TokenIssuer, forumBaseURL string) *AuthService {
	return &AuthService{
		OAuth:        oauth,
		States:       states,
		Users:        users,
		Tokens:       tokens,
		ForumBaseURL: forumBaseURL,
	}
}

// Login starts the handshake and hands the client the authorization URL.
func (s *AuthService) Login(c *fiber.Ctx) error {
	redirectURL := c.Query("redirect_url")
	state := s.States.Issue(redirectURL)

	return c.JSON(fiber.Map{
		"auth_url": s.OAuth.AuthorizationURL(state),
		"state":    state,
	})
}

// Callback finishes the handshake: single-use state, code for token,
// profile fetch, account upsert, bearer token.
func (s *AuthService) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code and state are required"})
	}

	redirectURL, ok := s.States.Take(state)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired state parameter"})
	}

	accessToken, err := s.OAuth.ExchangeCode(c.UserContext(), code)
	if err != nil {
		log.Printf("[AUTH] code exchange failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to exchange code for token"})
	}

	profile, err := s.OAuth.FetchProfile(c.UserContext(), accessToken)
	if err != nil {
		log.Printf("[AUTH] profile fetch failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to fetch user profile"})
	}

	user, err := s.Users.UpsertFromProfile(profile, s.ForumBaseURL)
	if err != nil {
		log.Printf("[AUTH] account upsert failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store user"})
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		log.Printf("[AUTH] token mint failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue token"})
	}

	if redirectURL != "" {
		return c.Redirect(redirectURL+"?token="+token, fiber.StatusFound)
	}
	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(s.Tokens.TTL().Seconds()),
	})
}
