// internal/github/rest.go
package github

import (
	"context"

	"github.com/google/go-github/v62/github"

	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/model"
)

// RepositoryInfo is what registration needs to know about a repository.
type RepositoryInfo struct {
	NodeID        string
	Name          string
	DefaultBranch string
	Owner         OwnerInfo
}

// OwnerInfo identifies the account owning a repository.
type OwnerInfo struct {
	NodeID         string
	Login          string
	IsOrganization bool
}

// GetRepository fetches repository details and translates them to RepositoryInfo.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*RepositoryInfo, error) {
	repo, resp, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, restError(resp, err)
	}
	return toRepositoryInfo(repo), nil
}

// GetOrganization fetches an organization by login.
func (c *Client) GetOrganization(ctx context.Context, login string) (model.GitOrganization, error) {
	org, resp, err := c.gh.Organizations.Get(ctx, login)
	if err != nil {
		return model.GitOrganization{}, restError(resp, err)
	}
	return model.GitOrganization{
		ID:    org.GetNodeID(),
		Login: org.GetLogin(),
		Name:  org.Name,
	}, nil
}

// GetUser fetches a user by login.
func (c *Client) GetUser(ctx context.Context, login string) (model.GitUser, error) {
	user, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		return model.GitUser{}, restError(resp, err)
	}
	return model.GitUser{
		ID:        user.GetNodeID(),
		Login:     user.GetLogin(),
		Name:      user.Name,
		Email:     user.GetEmail(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

// toRepositoryInfo translates a github.Repository object to RepositoryInfo.
func toRepositoryInfo(r *github.Repository) *RepositoryInfo {
	return &RepositoryInfo{
		NodeID:        r.GetNodeID(),
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		Owner: OwnerInfo{
			NodeID:         r.GetOwner().GetNodeID(),
			Login:          r.GetOwner().GetLogin(),
			IsOrganization: r.GetOwner().GetType() == "Organization",
		},
	}
}

func restError(resp *github.Response, err error) error {
	reqErr := &custom_errors.RequestError{Detail: err.Error(), Err: err}
	if resp != nil && resp.Response != nil {
		reqErr.StatusCode = resp.StatusCode
	}
	return reqErr
}
