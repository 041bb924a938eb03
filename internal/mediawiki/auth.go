package mediawiki

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/dghubble/oauth1"
	"golang.org/x/net/publicsuffix"
)

// Credentials holds the secrets used to authenticate against the wiki.
// OAuth takes precedence when all four tokens are set.
type Credentials struct {
	ConsumerToken  string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string

	// Username and Password are a bot password pair, used when OAuth
	// tokens are missing. Username is also the expected account name.
	Username string
	Password string
}

// HasOAuth reports whether all four OAuth tokens are set.
func (c Credentials) HasOAuth() bool {
	return c.ConsumerToken != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// HasPassword reports whether a bot password pair is set.
func (c Credentials) HasPassword() bool {
	return c.Username != "" && c.Password != ""
}

// newHTTPClient returns an OAuth-signing client, or a plain client with a
// cookie jar for bot password sessions.
func newHTTPClient(ctx context.Context, creds Credentials, base *http.Client) (*http.Client, error) {
	if base == nil {
		base = &http.Client{}
	}

	switch {
	case creds.HasOAuth():
		ctx = context.WithValue(ctx, oauth1.HTTPClient, base)
		config := oauth1.NewConfig(creds.ConsumerToken, creds.ConsumerSecret)
		return config.Client(ctx, oauth1.NewToken(creds.AccessToken, creds.AccessSecret)), nil
	case creds.HasPassword():
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc := *base
		hc.Jar = jar
		return &hc, nil
	default:
		return nil, ErrNoCredentials
	}
}

type userInfoResponse struct {
	Query struct {
		UserInfo struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Anon bool   `json:"anon"`
		} `json:"userinfo"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result     string `json:"result"`
		Reason     string `json:"reason"`
		LgUsername string `json:"lgusername"`
	} `json:"login"`
}

// Login authenticates the session and records the user name. With OAuth
// the signed session is only verified; with a bot password the login
// handshake runs first.
func (c *Client) Login(ctx context.Context) error {
	if !c.creds.HasOAuth() {
		if err := c.passwordLogin(ctx); err != nil {
			return err
		}
	}

	var info userInfoResponse
	if err := c.get(ctx, map[string]string{"action": "query", "meta": "userinfo"}, &info); err != nil {
		return fmt.Errorf("fetch user info: %w", err)
	}
	if info.Query.UserInfo.Anon || info.Query.UserInfo.Name == "" {
		return ErrNotLoggedIn
	}

	c.username = info.Query.UserInfo.Name
	c.http.SetHeader("User-Agent", c.userAgent(c.username))

	c.logger.Info("logged in", "user", c.username, "oauth", c.creds.HasOAuth())
	return nil
}

func (c *Client) passwordLogin(ctx context.Context) error {
	token, err := c.token(ctx, "login")
	if err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}

	var resp loginResponse
	err = c.post(ctx, map[string]string{
		"action":     "login",
		"lgname":     c.creds.Username,
		"lgpassword": c.creds.Password,
		"lgtoken":    token,
	}, &resp)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.Login.Result != "Success" {
		return fmt.Errorf("%w: %s %s", ErrLoginFailed, resp.Login.Result, resp.Login.Reason)
	}
	return nil
}

type tokensResponse struct {
	Query struct {
		Tokens map[string]string `json:"tokens"`
	} `json:"query"`
}

func (c *Client) token(ctx context.Context, kind string) (string, error) {
	var resp tokensResponse
	if err := c.get(ctx, map[string]string{"action": "query", "meta": "tokens", "type": kind}, &resp); err != nil {
		return "", err
	}
	token := resp.Query.Tokens[kind+"token"]
	if token == "" {
		return "", fmt.Errorf("no %s token in response", kind)
	}
	return token, nil
}

// CSRFToken returns the edit token, fetching it on first use.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrf != "" {
		return c.csrf, nil
	}
	token, err := c.token(ctx, "csrf")
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	c.csrf = token
	return token, nil
}

func (c *Client) resetCSRFToken() {
	c.mu.Lock()
	c.csrf = ""
	c.mu.Unlock()
}
