package apiclient

// Package apiclient wraps outbound calls to protected resources with a
// bearer token obtained silently from the session's token cache.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

// TokenAcquirer is the slice of the auth service the client depends on.
type TokenAcquirer interface {
	AcquireToken(ctx context.Context, sessionID string, scopes []string) (*oauth2.Token, error)
}

// Client issues bearer-authenticated GET requests. It fails fast: silent
// acquisition failures and non-2xx responses propagate without retry.
type Client struct {
	tokens     TokenAcquirer
	httpClient *http.Client
	scopes     []string
}

// Options groups construction inputs for Client.
type Options struct {
	Tokens TokenAcquirer

	// Timeout covers connect and read for each request; default 3m.
	Timeout time.Duration

	// Scopes for silent acquisition; defaults to the auth service's own.
	Scopes []string

	// HTTPClient overrides the default cleanhttp client (tests).
	HTTPClient *http.Client
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("token acquirer is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	var httpClient *http.Client
	if opts.HTTPClient != nil {
		// Work on a shallow copy; the injected client stays untouched.
		clone := *opts.HTTPClient
		httpClient = &clone
	} else {
		httpClient = cleanhttp.DefaultClient()
	}
	httpClient.Timeout = timeout
	return &Client{tokens: opts.Tokens, httpClient: httpClient, scopes: opts.Scopes}, nil
}

// Get acquires a token silently, attaches it as a bearer header, and
// issues the GET. A non-2xx status closes the body and returns
// *domainauth.UpstreamHTTPError. The caller owns the body on success.
func (c *Client) Get(ctx context.Context, sessionID, url string) (*http.Response, error) {
	tok, err := c.tokens.AcquireToken(ctx, sessionID, c.scopes)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if closeErr := resp.Body.Close(); closeErr != nil {
			return nil, errors.Join(
				&domainauth.UpstreamHTTPError{StatusCode: resp.StatusCode, URL: url},
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return nil, &domainauth.UpstreamHTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	return resp, nil
}
