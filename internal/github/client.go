// internal/github/client.go
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	graphql "github.com/hasura/go-graphql-client"
	"golang.org/x/oauth2"

	custom_errors "github-commit-sync/internal/errors"
)

// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
const DefaultGraphQLURL = "https://api.github.com/graphql"

// Client talks to the GitHub GraphQL API and, through go-github, to the REST API.
type Client struct {
	httpClient *http.Client
	gql        *graphql.Client
	gh         *github.Client
	logger     *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is sent as a bearer token on every request.
func NewClient(token string, logger *slog.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		httpClient: tc,
		gql:        graphql.NewClient(DefaultGraphQLURL, tc),
		gh:         github.NewClient(tc),
		logger:     logger,
	}
}

// WithEndpoints returns a copy of the client pointed at other endpoints, for
// GitHub Enterprise or tests. An empty value keeps the current endpoint.
func (c *Client) WithEndpoints(graphqlURL, restURL string) (*Client, error) {
	cp := *c
	if graphqlURL != "" {
		cp.gql = graphql.NewClient(graphqlURL, c.httpClient)
	}
	if restURL != "" {
		u, err := url.Parse(strings.TrimSuffix(restURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", restURL, err)
		}
		cp.gh = github.NewClient(c.httpClient)
		cp.gh.BaseURL = u
	}
	return &cp, nil
}

// Execute posts a GraphQL query and decodes its data member into out.
// Any transport failure, non-2xx status, GraphQL error or missing data is
// reported as a *errors.RequestError.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any, out any) error {
	c.logger.Debug("Executing GitHub GraphQL query", "variables", variables)

	data, err := c.gql.ExecRaw(ctx, query, variables)
	if err != nil {
		return c.requestError(err)
	}
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		c.logger.Warn("GitHub answered without data")
		return &custom_errors.RequestError{Detail: "got response without data"}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &custom_errors.RequestError{Detail: "unexpected response shape", Err: err}
	}
	return nil
}

// requestError maps a graphql client failure to a RequestError, keeping the
// HTTP status when GitHub answered with a non-2xx response.
func (c *Client) requestError(err error) error {
	var netErr graphql.NetworkError
	if errors.As(err, &netErr) {
		c.logger.Error("Could not get response from GitHub", "status", netErr.StatusCode())
		return &custom_errors.RequestError{
			StatusCode: netErr.StatusCode(),
			Detail:     fmt.Sprintf("could not get response from GitHub: %s", strings.TrimSpace(netErr.Body())),
			Err:        err,
		}
	}
	c.logger.Warn("GitHub request failed", "error", err)
	return &custom_errors.RequestError{Detail: err.Error(), Err: err}
}
