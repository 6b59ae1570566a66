package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// expirySkew refreshes tokens that are about to expire.
const expirySkew = 10 * time.Second

type Config struct {
	// BaseURL is the project URL; the auth API lives under /auth/v1.
	BaseURL    string
	AnonKey    string
	ServiceKey string
	// Timeout of zero keeps the transport default (no deadline).
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements Provider against a GoTrue-compatible HTTP API.
type Client struct {
	authURL    string
	anonKey    string
	serviceKey string
	httpClient *http.Client
	now        func() time.Time
}

var _ Provider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		authURL:    strings.TrimRight(cfg.BaseURL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		serviceKey: cfg.ServiceKey,
		httpClient: client,
		now:        time.Now,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (r tokenResponse) session(now time.Time) *Session {
	s := &Session{
		Tokens: Tokens{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken},
		User:   r.User,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return s
}

func (c *Client) SignUp(ctx context.Context, email, password string, profile Profile) error {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     profile,
	}
	if err := c.do(ctx, "sign_up", http.MethodPost, "/signup", nil, c.anonKey, body, nil); err != nil {
		return wrapAs(err, ErrSignUpFailed)
	}
	return nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	query := url.Values{"grant_type": {"password"}}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "sign_in", http.MethodPost, "/token", query, c.anonKey, body, &resp); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && perr.Status >= 400 && perr.Status < 500 {
			return nil, wrapAs(err, ErrInvalidCredentials)
		}
		return nil, err
	}
	return resp.session(c.now()), nil
}

func (c *Client) BeginOAuth(ctx context.Context, provider, redirectTo string) (*OAuthRedirect, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, fmt.Errorf("%w: provider is required", ErrOAuthFailed)
	}
	if _, err := url.ParseRequestURI(redirectTo); err != nil {
		return nil, fmt.Errorf("%w: invalid redirect: %v", ErrOAuthFailed, err)
	}

	verifier := oauth2.GenerateVerifier()
	params := url.Values{
		"provider":              {provider},
		"redirect_to":           {redirectTo},
		"code_challenge":        {oauth2.S256ChallengeFromVerifier(verifier)},
		"code_challenge_method": {"s256"},
	}

	return &OAuthRedirect{
		URL:          c.authURL + "/authorize?" + params.Encode(),
		CodeVerifier: verifier,
	}, nil
}

func (c *Client) ExchangeCodeForSession(ctx context.Context, code, codeVerifier string) (*Session, error) {
	if strings.TrimSpace(code) == "" || strings.TrimSpace(codeVerifier) == "" {
		return nil, fmt.Errorf("%w: code and verifier are required", ErrOAuthFailed)
	}

	var resp tokenResponse
	query := url.Values{"grant_type": {"pkce"}}
	body := map[string]string{"auth_code": code, "code_verifier": codeVerifier}
	if err := c.do(ctx, "exchange", http.MethodPost, "/token", query, c.anonKey, body, &resp); err != nil {
		return nil, wrapAs(err, ErrOAuthFailed)
	}
	if resp.AccessToken == "" {
		return nil, &ProviderError{Op: "exchange", Status: http.StatusOK, Message: "missing access token", Err: ErrOAuthFailed}
	}
	return resp.session(c.now()), nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, ErrNoUser
	}
	var user User
	if err := c.do(ctx, "get_user", http.MethodGet, "/user", nil, accessToken, nil, &user); err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden || perr.Status == http.StatusNotFound) {
			return nil, wrapAs(err, ErrNoUser)
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrNoUser
	}
	return &user, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}
	var resp tokenResponse
	query := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, "refresh", http.MethodPost, "/token", query, c.anonKey, body, &resp); err != nil {
		return nil, wrapAs(err, ErrSessionExpired)
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, &ProviderError{Op: "refresh", Status: http.StatusOK, Message: "incomplete session", Err: ErrSessionExpired}
	}
	return resp.session(c.now()), nil
}

func (c *Client) SetSession(ctx context.Context, tokens Tokens) (*Session, error) {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return nil, ErrSessionExpired
	}

	expiresAt, ok := accessTokenExpiry(tokens.AccessToken)
	if !ok || !c.now().Add(expirySkew).Before(expiresAt) {
		return c.RefreshSession(ctx, tokens.RefreshToken)
	}

	user, err := c.GetUser(ctx, tokens.AccessToken)
	if errors.Is(err, ErrNoUser) {
		return c.RefreshSession(ctx, tokens.RefreshToken)
	}
	if err != nil {
		return nil, err
	}
	return &Session{Tokens: tokens, User: user, ExpiresAt: expiresAt}, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.do(ctx, "sign_out", http.MethodPost, "/logout", nil, accessToken, nil, nil)
}

// UpdateUserMetadata replaces user_metadata keys through the admin API.
func (c *Client) UpdateUserMetadata(ctx context.Context, userID string, metadata map[string]any) error {
	if c.serviceKey == "" {
		return errors.New("identity: service key not configured")
	}
	body := map[string]any{"user_metadata": metadata}
	return c.do(ctx, "update_metadata", http.MethodPut, "/admin/users/"+url.PathEscape(userID), nil, c.serviceKey, body, nil)
}

// accessTokenExpiry reads exp without verifying the signature; the provider
// stays the judge of validity.
func accessTokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, bearer string, in, out any) error {
	endpoint := c.authURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("identity %s: encode: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("identity %s: %w", op, err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[IDP] [ERROR] %s transport error: %v", op, err)
		return fmt.Errorf("identity %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("identity %s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code, message := parseErrorBody(body)
		log.Printf("[IDP] [ERROR] %s status=%d code=%s", op, resp.StatusCode, code)
		return &ProviderError{Op: op, Status: resp.StatusCode, Code: code, Message: message, Err: ErrProvider}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ProviderError{Op: op, Status: resp.StatusCode, Code: "invalid_response", Message: err.Error(), Err: ErrProvider}
	}
	return nil
}

// parseErrorBody understands both the {error_code,msg} and the OAuth-style
// {error,error_description} shapes.
func parseErrorBody(body []byte) (string, string) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", strings.TrimSpace(string(body))
	}

	code := firstString(raw, "error_code", "error", "code")
	message := firstString(raw, "msg", "message", "error_description")
	if message == "" {
		message = code
	}
	return code, message
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// wrapAs re-tags a ProviderError with a more specific sentinel.
func wrapAs(err error, sentinel error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		clone := *perr
		clone.Err = sentinel
		return &clone
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
