package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

const RedirectURL = "http://localhost:8085/callback"

var scopes = []string{
	youtube.YoutubeUploadScope,
	youtube.YoutubeScope,
}

// Auth holds the installed-app OAuth configuration and the cached token.
// Refreshed tokens are written back to tokenPath.
type Auth struct {
	mu        sync.Mutex
	config    *oauth2.Config
	token     *oauth2.Token
	tokenPath string
}

func NewAuth(clientID, clientSecret, tokenPath string) *Auth {
	return &Auth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       scopes,
			RedirectURL:  RedirectURL,
		},
		tokenPath: tokenPath,
	}
}

// NewAuthFromFile reads a client secrets JSON downloaded from the Google
// Cloud console.
func NewAuthFromFile(clientSecretsFile, tokenPath string) (*Auth, error) {
	data, err := os.ReadFile(clientSecretsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets: %w", err)
	}

	config, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}
	config.RedirectURL = RedirectURL

	return &Auth{config: config, tokenPath: tokenPath}, nil
}

func (a *Auth) TokenPath() string {
	return a.tokenPath
}

func (a *Auth) loadToken() error {
	data, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}

	a.token = &token
	return nil
}

func (a *Auth) saveToken() error {
	data, err := json.MarshalIndent(a.token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := os.WriteFile(a.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

func (a *Auth) GetAuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (a *Auth) Exchange(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
	return a.saveToken()
}

// Client returns an authorised HTTP client. A base client stored in ctx
// under oauth2.HTTPClient is used as the underlying transport.
func (a *Auth) Client(ctx context.Context) (*http.Client, error) {
	a.mu.Lock()
	if a.token == nil {
		if err := a.loadToken(); err != nil {
			a.mu.Unlock()
			return nil, err
		}
	}
	token := a.token
	a.mu.Unlock()

	ts := &savingTokenSource{
		base: a.config.TokenSource(ctx, token),
		auth: a,
		last: token.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, ts)), nil
}

// IsAuthenticated reports whether a usable token exists: either still valid
// or refreshable.
func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token == nil {
		if err := a.loadToken(); err != nil {
			return false
		}
	}
	return a.token.Valid() || a.token.RefreshToken != ""
}

type savingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	auth *Auth
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken

	s.auth.mu.Lock()
	defer s.auth.mu.Unlock()
	s.auth.token = token
	if err := s.auth.saveToken(); err != nil {
		return nil, err
	}
	return token, nil
}
