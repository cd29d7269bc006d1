// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when an insert violates a unique constraint.
	ErrConflict = errors.New("row insertion conflict")

	// ErrRowsAffected is returned when a mutation changed an unexpected number of rows.
	ErrRowsAffected = errors.New("db RowsAffected was not correct")

	// ErrPageLimit is returned when a history walk exceeds the configured page cap.
	ErrPageLimit = errors.New("pagination page limit exceeded")

	// ErrRunInProgress is returned when a sync run is requested while another one holds the lock.
	ErrRunInProgress = errors.New("a sync run is already in progress")

	// ErrAlreadyTracked is returned when registering a repository that is already stored.
	ErrAlreadyTracked = errors.New("repository is already tracked")
)

// ErrInvalidRepoFormat is returned when a repository string is not in 'owner/name' format.
type ErrInvalidRepoFormat struct {
	Repo string
}

func (e *ErrInvalidRepoFormat) Error() string {
	return fmt.Sprintf("invalid repository format: %q, expected 'owner/name'", e.Repo)
}

// RequestError is returned when the GitHub API cannot be reached or answers
// with something that is not a usable response.
type RequestError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("error when requesting GitHub API (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("error when requesting GitHub API: %s", e.Detail)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DataFetchError wraps a storage failure with the operation and table involved.
type DataFetchError struct {
	Op    string
	Table string
	Err   error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("could not %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *DataFetchError) Unwrap() error {
	return e.Err
}

// UnknownOwnerError is returned when a repository points at an owner that is
// neither a stored user nor a stored organization.
type UnknownOwnerError struct {
	RepositoryID string
	OwnerID      string
}

func (e *UnknownOwnerError) Error() string {
	return fmt.Sprintf("repository %s references unknown owner %s", e.RepositoryID, e.OwnerID)
}

// MissingUserError is returned when a commit references a user id that was not resolved.
type MissingUserError struct {
	UserID string
}

func (e *MissingUserError) Error() string {
	return fmt.Sprintf("git user %s was not resolved", e.UserID)
}
