// internal/model/models.go
package model

import "time"

// Repository is a tracked GitHub repository.
type Repository struct {
	ID                  string `db:"id"`
	Name                string `db:"name"`
	OwnerID             string `db:"owner_id"`
	OwnerIsOrganization bool   `db:"owner_is_organization"`
	// OwnerLogin is resolved from git_user or git_organization and never persisted.
	OwnerLogin          string `db:"-"`
	TrackedBranchRef    string `db:"tracked_branch_ref"`
	RootCommitIsReached bool   `db:"root_commit_is_reached"`
}

// Commit is a stored commit of a tracked branch. Rows are never updated.
type Commit struct {
	ID                 string    `db:"id"`
	RepositoryID       string    `db:"repository_id"`
	Additions          int       `db:"additions"`
	Deletions          int       `db:"deletions"`
	AuthoredDate       time.Time `db:"authored_date"`
	AuthorID           *string   `db:"author_id"`
	AuthorName         *string   `db:"author_name"`
	AuthorEmail        *string   `db:"author_email"`
	AuthorAvatarURL    *string   `db:"author_avatar_url"`
	CommittedDate      time.Time `db:"committed_date"`
	CommitterID        *string   `db:"committer_id"`
	CommitterName      *string   `db:"committer_name"`
	CommitterEmail     *string   `db:"committer_email"`
	CommitterAvatarURL *string   `db:"committer_avatar_url"`
}

// CommitRef is the part of a stored commit needed to bound a history walk.
type CommitRef struct {
	ID            string    `db:"id"`
	CommittedDate time.Time `db:"committed_date"`
}

// GitUser is a snapshot of a GitHub user taken the first time it was seen.
type GitUser struct {
	ID        string  `db:"id"`
	Login     string  `db:"login"`
	Name      *string `db:"name"`
	Email     string  `db:"email"`
	AvatarURL string  `db:"avatar_url"`
}

// DisplayName returns the login, or the free-text name when the login is empty.
func (u GitUser) DisplayName() *string {
	if u.Login != "" {
		login := u.Login
		return &login
	}
	return u.Name
}

// GitOrganization is a GitHub organization owning tracked repositories.
type GitOrganization struct {
	ID    string  `db:"id"`
	Login string  `db:"login"`
	Name  *string `db:"name"`
}
