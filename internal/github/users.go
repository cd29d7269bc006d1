// internal/github/users.go
package github

import (
	"context"
	"fmt"

	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

const userNodeQuery = `
query UserNode($id: ID!) {
  node(id: $id) {
    ... on User {
      avatarUrl
      email
      name
      login
    }
  }
}`

type userNodeResponse struct {
	Node *struct {
		AvatarURL string  `json:"avatarUrl"`
		Email     string  `json:"email"`
		Name      *string `json:"name"`
		Login     string  `json:"login"`
	} `json:"node"`
}

// FetchUser looks up a single user by GraphQL node id.
func (c *Client) FetchUser(ctx context.Context, id string) (model.GitUser, error) {
	var resp userNodeResponse
	if err := c.Execute(ctx, userNodeQuery, map[string]any{"id": id}, &resp); err != nil {
		return model.GitUser{}, err
	}
	if resp.Node == nil {
		return model.GitUser{}, &custom_errors.RequestError{Detail: fmt.Sprintf("node %s not found", id)}
	}
	if resp.Node.Login == "" {
		return model.GitUser{}, &custom_errors.RequestError{Detail: fmt.Sprintf("node %s is not a user", id)}
	}

	return model.GitUser{
		ID:        id,
		Login:     resp.Node.Login,
		Name:      resp.Node.Name,
		Email:     resp.Node.Email,
		AvatarURL: resp.Node.AvatarURL,
	}, nil
}
