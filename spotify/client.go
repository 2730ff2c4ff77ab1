package spotify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/xeptore/musicflow/config"
	"github.com/xeptore/musicflow/httputil"
	"github.com/xeptore/musicflow/ratelimit"
)

const (
	tokenURL       = "https://accounts.spotify.com/api/token" //nolint:gosec
	catalogBaseURL = "https://api.spotify.com/v1"
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Client is a Spotify Web API catalog client using the client credentials
// flow. It only reads public catalog metadata and never touches user data.
type Client struct {
	clientID     string
	clientSecret string
	limiter      *rate.Limiter
	http         *http.Client

	mu             sync.Mutex
	token          string
	tokenExpiresAt time.Time
}

func NewClient(conf config.Spotify) *Client {
	return &Client{
		clientID:       conf.ClientID,
		clientSecret:   conf.ClientSecret,
		limiter:        ratelimit.NewCatalogLimiter(),
		http:           &http.Client{Timeout: 30 * time.Second}, //nolint:exhaustruct
		mu:             sync.Mutex{},
		token:          "",
		tokenExpiresAt: time.Time{},
	}
}

func (c *Client) accessToken(ctx context.Context) (_ string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Refresh slightly before the advertised expiry so in-flight requests
	// never carry a token that expires mid-call.
	if c.token != "" && time.Now().Add(time.Minute).Before(c.tokenExpiresAt) {
		return c.token, nil
	}

	form := url.Values{"grant_type": []string{"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if nil != err {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Add("Authorization", "Basic "+basic)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if nil != err {
		return "", fmt.Errorf("failed to send token request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close token response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusBadRequest:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			return "", fmt.Errorf("failed to read %d token response body: %w", code, err)
		}

		return "", fmt.Errorf("%w: token request rejected: %s", ErrUnauthorized, httputil.ErrorMessage(respBytes))
	case http.StatusTooManyRequests:
		return "", ErrTooManyRequests
	default:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			return "", fmt.Errorf("failed to read token response body: %w", err)
		}

		return "", fmt.Errorf("unexpected token response status code %d with body: %s", code, string(respBytes))
	}

	var respBody struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); nil != err {
		return "", fmt.Errorf("failed to decode token response body: %w", err)
	}

	c.token = respBody.AccessToken
	c.tokenExpiresAt = time.Now().Add(time.Duration(respBody.ExpiresIn) * time.Second)

	return c.token, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiresAt = time.Time{}
}

// get fetches one catalog URL, retrying rate-limited calls with backoff and
// re-acquiring the access token once when it is rejected mid-lifetime.
func (c *Client) get(ctx context.Context, logger zerolog.Logger, reqURL string) ([]byte, error) {
	var respBytes []byte
	err := retry.Do(
		ctx,
		retry.WithMaxRetries(4, retry.NewFibonacci(500*time.Millisecond)),
		func(ctx context.Context) error {
			b, err := c.getOnce(ctx, reqURL)
			if nil != err {
				if errors.Is(err, ErrTooManyRequests) {
					logger.Warn().Str("url", reqURL).Msg("Catalog API rate limited, backing off")
					return retry.RetryableError(err)
				}

				if errors.Is(err, ErrUnauthorized) {
					c.invalidateToken()
					return retry.RetryableError(err)
				}

				return err
			}

			respBytes = b

			return nil
		},
	)
	if nil != err {
		return nil, err
	}

	return respBytes, nil
}

func (c *Client) getOnce(ctx context.Context, reqURL string) (b []byte, err error) {
	token, err := c.accessToken(ctx)
	if nil != err {
		return nil, fmt.Errorf("failed to acquire access token: %w", err)
	}

	if err := c.limiter.Wait(ctx); nil != err {
		return nil, fmt.Errorf("failed to wait for catalog rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		return nil, fmt.Errorf("failed to create catalog request: %w", err)
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if nil != err {
		return nil, fmt.Errorf("failed to send catalog request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close catalog response body: %v", closeErr))
		}
	}()

	switch code := resp.StatusCode; code {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrTooManyRequests
	case http.StatusForbidden:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			return nil, fmt.Errorf("failed to read 403 response body: %w", err)
		}

		if httputil.IsRateLimitedResponse(respBytes) {
			return nil, ErrTooManyRequests
		}

		return nil, fmt.Errorf("unexpected 403 response with body: %s", string(respBytes))
	default:
		respBytes, err := httputil.ReadResponseBody(resp)
		if nil != err {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if httputil.IsNotFoundResponse(respBytes) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("unexpected status code %d: %s", code, httputil.ErrorMessage(respBytes))
	}

	respBytes, err := httputil.ReadResponseBody(resp)
	if nil != err {
		return nil, fmt.Errorf("failed to read 200 response body: %w", err)
	}

	return respBytes, nil
}
