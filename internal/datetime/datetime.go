// internal/datetime/datetime.go

// Package datetime converts timestamps between the GitHub wire format and the
// format commits are stored with.
package datetime

import (
	"fmt"
	"time"
)

// Layout names a textual timestamp format.
type Layout string

const (
	// LayoutGitHub is the format GitHub accepts for since/until history filters.
	LayoutGitHub Layout = "2006-01-02T15:04:05Z"
	// LayoutStorage is the textual form of a stored timestamp.
	LayoutStorage Layout = "2006-01-02 15:04:05"
)

// Epoch is the lower bound used when a repository has no stored commit yet.
const Epoch = "1970-01-01T00:00:00Z"

// ParseGitHub parses a GitHub timestamp. GitHub renders GitTimestamp values
// with or without a UTC offset, so any RFC 3339 value is accepted.
func ParseGitHub(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid GitHub timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}

// FormatGitHub renders t in UTC the way GitHub history filters expect it.
func FormatGitHub(t time.Time) string {
	return t.UTC().Format(string(LayoutGitHub))
}

// ToStorage normalizes t to the precision kept in storage.
func ToStorage(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Transform converts a textual timestamp from one layout to another.
func Transform(value string, from, to Layout) (string, error) {
	var (
		t   time.Time
		err error
	)
	switch from {
	case LayoutGitHub:
		t, err = ParseGitHub(value)
	case LayoutStorage:
		t, err = time.ParseInLocation(string(LayoutStorage), value, time.UTC)
	default:
		return "", fmt.Errorf("unknown layout %q", from)
	}
	if err != nil {
		return "", err
	}

	switch to {
	case LayoutGitHub:
		return FormatGitHub(t), nil
	case LayoutStorage:
		return ToStorage(t).Format(string(LayoutStorage)), nil
	default:
		return "", fmt.Errorf("unknown layout %q", to)
	}
}
