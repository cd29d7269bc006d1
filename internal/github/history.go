// internal/github/history.go
package github

import (
	"context"
	"fmt"

	custom_errors "github-commit-sync/internal/errors"
)

// HistoryPageSize is the number of commits requested per history page.
const HistoryPageSize = 10

const historyQuery = `
query CommitHistory($owner: String!, $name: String!, $ref: String!, $first: Int!, $cursor: String, $since: GitTimestamp, $until: GitTimestamp) {
  repository(owner: $owner, name: $name) {
    ref(qualifiedName: $ref) {
      target {
        ... on Commit {
          history(first: $first, after: $cursor, since: $since, until: $until) {
            pageInfo {
              hasNextPage
              endCursor
            }
            nodes {
              id
              additions
              deletions
              author {
                avatarUrl
                email
                name
                user {
                  id
                }
              }
              authoredDate
              committer {
                avatarUrl
                email
                name
                user {
                  id
                }
              }
              committedDate
            }
          }
        }
      }
    }
  }
}`

// HistoryRequest selects one page of a branch history. Cursor is empty on the
// first call. Since and Until are optional GitHub timestamps.
type HistoryRequest struct {
	Owner  string
	Name   string
	Ref    string
	Cursor string
	Since  string
	Until  string
}

// Page is one page of commits, newest first.
type Page struct {
	Commits     []RawCommit
	EndCursor   string
	HasNextPage bool
}

// RawCommit is a commit as returned by the history query.
type RawCommit struct {
	ID            string    `json:"id"`
	Additions     int       `json:"additions"`
	Deletions     int       `json:"deletions"`
	AuthoredDate  string    `json:"authoredDate"`
	Author        *GitActor `json:"author"`
	CommittedDate string    `json:"committedDate"`
	Committer     *GitActor `json:"committer"`
}

// GitActor is the author or committer block of a commit. User is nil when the
// e-mail is not linked to a GitHub account.
type GitActor struct {
	AvatarURL string     `json:"avatarUrl"`
	Email     *string    `json:"email"`
	Name      *string    `json:"name"`
	User      *ActorUser `json:"user"`
}

// ActorUser is the GitHub account linked to a GitActor.
type ActorUser struct {
	ID string `json:"id"`
}

// UserID returns the linked account id, or "" when there is none.
func (a *GitActor) UserID() string {
	if a == nil || a.User == nil {
		return ""
	}
	return a.User.ID
}

type pageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

type historyResponse struct {
	Repository *struct {
		Ref *struct {
			Target *struct {
				History *struct {
					PageInfo pageInfo    `json:"pageInfo"`
					Nodes    []RawCommit `json:"nodes"`
				} `json:"history"`
			} `json:"target"`
		} `json:"ref"`
	} `json:"repository"`
}

// NextPage fetches one page of the history of req.Ref.
func (c *Client) NextPage(ctx context.Context, req HistoryRequest) (Page, error) {
	vars := map[string]any{
		"owner":  req.Owner,
		"name":   req.Name,
		"ref":    req.Ref,
		"first":  HistoryPageSize,
		"cursor": nullable(req.Cursor),
		"since":  nullable(req.Since),
		"until":  nullable(req.Until),
	}

	var resp historyResponse
	if err := c.Execute(ctx, historyQuery, vars, &resp); err != nil {
		return Page{}, err
	}

	switch {
	case resp.Repository == nil:
		return Page{}, &custom_errors.RequestError{Detail: fmt.Sprintf("repository %s/%s not found", req.Owner, req.Name)}
	case resp.Repository.Ref == nil:
		return Page{}, &custom_errors.RequestError{Detail: fmt.Sprintf("ref %s not found in %s/%s", req.Ref, req.Owner, req.Name)}
	case resp.Repository.Ref.Target == nil || resp.Repository.Ref.Target.History == nil:
		return Page{}, &custom_errors.RequestError{Detail: fmt.Sprintf("ref %s of %s/%s does not point to a commit", req.Ref, req.Owner, req.Name)}
	}

	history := resp.Repository.Ref.Target.History
	page := Page{
		Commits:     history.Nodes,
		HasNextPage: history.PageInfo.HasNextPage,
	}
	if history.PageInfo.EndCursor != nil {
		page.EndCursor = *history.PageInfo.EndCursor
	}
	if page.HasNextPage && page.EndCursor == "" {
		return Page{}, &custom_errors.RequestError{Detail: "hasNextPage without endCursor"}
	}
	return page, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
