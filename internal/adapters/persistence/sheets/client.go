package sheets

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"bgclub-bot/internal/core/domain"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"
	tokenURL      = "https://oauth2.googleapis.com/token"
	sheetsScope   = "https://www.googleapis.com/auth/spreadsheets"

	// Access tokens last an hour; refresh a bit early.
	tokenSlack = 2 * time.Minute
)

// Config holds the Google service-account credentials for the Sheets API.
type Config struct {
	ServiceAccountEmail string
	PrivateKeyPEM       string
}

// Client talks to the Google Sheets values API. It is safe for concurrent
// use; the OAuth token is cached and refreshed lazily.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
	email  string
	key    *rsa.PrivateKey

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a Sheets client from service-account credentials.
// Env files usually carry the private key with literal \n sequences, so
// those are unescaped before parsing.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	pem := strings.ReplaceAll(cfg.PrivateKeyPEM, `\n`, "\n")
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	return &Client{
		http:   resty.New().SetTimeout(10 * time.Second),
		logger: logger,
		email:  cfg.ServiceAccountEmail,
		key:    key,
	}, nil
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// GetRange fetches a whole A1 range as a grid of cell strings.
func (c *Client) GetRange(ctx context.Context, spreadsheetID, a1Range string) ([][]string, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var body valueRange
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&body).
		Get(fmt.Sprintf("%s/%s/values/%s", sheetsBaseURL, spreadsheetID, a1Range))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: values.get status %d", domain.ErrStoreUnavailable, resp.StatusCode())
	}
	return body.Values, nil
}

// UpdateRange overwrites a whole A1 range with the given grid, RAW input.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, a1Range string, values [][]string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(valueRange{Values: values}).
		Put(fmt.Sprintf("%s/%s/values/%s", sheetsBaseURL, spreadsheetID, a1Range))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: values.update status %d", domain.ErrStoreUnavailable, resp.StatusCode())
	}
	return nil
}

// AppendRange appends rows after the last non-empty row of the range.
func (c *Client) AppendRange(ctx context.Context, spreadsheetID, a1Range string, values [][]string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(valueRange{Values: values}).
		Post(fmt.Sprintf("%s/%s/values/%s:append", sheetsBaseURL, spreadsheetID, a1Range))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: values.append status %d", domain.ErrStoreUnavailable, resp.StatusCode())
	}
	return nil
}

// token returns a cached access token, minting a new one through the
// service-account JWT grant when the cache is stale.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	now := time.Now()
	assertion := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   c.email,
		"scope": sheetsScope,
		"aud":   tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	signed, err := assertion.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign service account assertion: %w", err)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": "urn:ietf:params:oauth:grant-type:jwt-bearer",
			"assertion":  signed,
		}).
		SetResult(&body).
		Post(tokenURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: token exchange status %d", domain.ErrStoreUnavailable, resp.StatusCode())
	}

	c.accessToken = body.AccessToken
	c.tokenExpiry = now.Add(time.Duration(body.ExpiresIn)*time.Second - tokenSlack)
	c.logger.Debug("🔑 refreshed sheets access token", zap.Time("expiry", c.tokenExpiry))
	return c.accessToken, nil
}
