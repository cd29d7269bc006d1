// internal/syncer/normalize.go
package syncer

import (
	"github-commit-sync/internal/datetime"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/github"
	"github-commit-sync/internal/model"
)

// extractUserIDs collects the GitHub accounts linked to authors and committers.
func extractUserIDs(commits []github.RawCommit) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, c := range commits {
		if id := c.Author.UserID(); id != "" {
			ids[id] = struct{}{}
		}
		if id := c.Committer.UserID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

type identity struct {
	id        *string
	name      *string
	email     *string
	avatarURL *string
}

// resolveIdentity prefers the stored GitHub user over the per-commit actor
// block, and falls back to nulls when the commit has no actor at all.
func resolveIdentity(actor *github.GitActor, users map[string]model.GitUser) (identity, error) {
	if actor == nil {
		return identity{}, nil
	}

	ident := identity{
		name:      actor.Name,
		email:     actor.Email,
		avatarURL: strPtr(actor.AvatarURL),
	}

	id := actor.UserID()
	if id == "" {
		return ident, nil
	}
	user, ok := users[id]
	if !ok {
		return identity{}, &custom_errors.MissingUserError{UserID: id}
	}

	ident.id = &id
	ident.name = user.DisplayName()
	ident.email = strPtr(user.Email)
	ident.avatarURL = strPtr(user.AvatarURL)
	return ident, nil
}

func normalize(repoID string, raw github.RawCommit, users map[string]model.GitUser) (model.Commit, error) {
	authored, err := datetime.ParseGitHub(raw.AuthoredDate)
	if err != nil {
		return model.Commit{}, err
	}
	committed, err := datetime.ParseGitHub(raw.CommittedDate)
	if err != nil {
		return model.Commit{}, err
	}

	author, err := resolveIdentity(raw.Author, users)
	if err != nil {
		return model.Commit{}, err
	}
	committer, err := resolveIdentity(raw.Committer, users)
	if err != nil {
		return model.Commit{}, err
	}

	return model.Commit{
		ID:                 raw.ID,
		RepositoryID:       repoID,
		Additions:          raw.Additions,
		Deletions:          raw.Deletions,
		AuthoredDate:       datetime.ToStorage(authored),
		AuthorID:           author.id,
		AuthorName:         author.name,
		AuthorEmail:        author.email,
		AuthorAvatarURL:    author.avatarURL,
		CommittedDate:      datetime.ToStorage(committed),
		CommitterID:        committer.id,
		CommitterName:      committer.name,
		CommitterEmail:     committer.email,
		CommitterAvatarURL: committer.avatarURL,
	}, nil
}

// storageDate renders a GitHub timestamp the way it is stored, for logs.
// Unparseable values are returned unchanged.
func storageDate(value string) string {
	out, err := datetime.Transform(value, datetime.LayoutGitHub, datetime.LayoutStorage)
	if err != nil {
		return value
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
