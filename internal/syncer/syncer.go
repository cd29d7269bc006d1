// internal/syncer/syncer.go
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github-commit-sync/internal/database"
	"github-commit-sync/internal/datetime"
	custom_errors "github-commit-sync/internal/errors"
	"github-commit-sync/internal/github"
	"github-commit-sync/internal/model"
)

// DefaultMaxPages bounds a single history walk.
const DefaultMaxPages = 10000

// Paginator returns one page of a branch history.
type Paginator interface {
	NextPage(ctx context.Context, req github.HistoryRequest) (github.Page, error)
}

// Catalog lists the tracked repositories with their owner login resolved.
type Catalog interface {
	Load(ctx context.Context) ([]model.Repository, error)
}

// UserResolver maps referenced GitHub user ids to stored users.
type UserResolver interface {
	Resolve(ctx context.Context, ids map[string]struct{}) (map[string]model.GitUser, error)
}

// Options tune a Syncer.
type Options struct {
	// DefaultSince bounds the forward walk of a repository without stored commits.
	DefaultSince time.Time
	// MaxPages caps every history walk. Zero means DefaultMaxPages.
	MaxPages int
}

// Syncer pulls the missing commit history of every tracked repository.
type Syncer struct {
	db        database.Querier
	catalog   Catalog
	paginator Paginator
	users     UserResolver
	logger    *slog.Logger

	defaultSince string
	maxPages     int
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(db database.Querier, catalog Catalog, paginator Paginator, users UserResolver, logger *slog.Logger, opts Options) *Syncer {
	defaultSince := datetime.Epoch
	if !opts.DefaultSince.IsZero() {
		defaultSince = datetime.FormatGitHub(opts.DefaultSince)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Syncer{
		db:           db,
		catalog:      catalog,
		paginator:    paginator,
		users:        users,
		logger:       logger,
		defaultSince: defaultSince,
		maxPages:     maxPages,
	}
}

// Run synchronizes every tracked repository, one after the other, and returns
// the number of inserted commits. The first error stops the run and 0 is
// returned; commits inserted before the failure stay stored.
func (s *Syncer) Run(ctx context.Context) (int, error) {
	repos, err := s.catalog.Load(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, repo := range repos {
		n, err := s.syncRepo(ctx, repo)
		if err != nil {
			s.logger.Error("Failed to sync repository", "repo_id", repo.ID, "owner", repo.OwnerLogin, "repo", repo.Name, "inserted_before_failure", total+n, "error", err)
			return 0, fmt.Errorf("sync repository %s/%s: %w", repo.OwnerLogin, repo.Name, err)
		}
		total += n
	}

	s.logger.Info("Sync finished", "repositories", len(repos), "inserted", total)
	return total, nil
}

// syncRepo handles the full synchronization logic for a single repository.
func (s *Syncer) syncRepo(ctx context.Context, repo model.Repository) (int, error) {
	logger := s.logger.With("repo_id", repo.ID, "owner", repo.OwnerLogin, "repo", repo.Name)
	logger.Info("Syncing repository", "ref", repo.TrackedBranchRef)

	commits, reachesRoot, err := s.fetchCommits(ctx, logger, repo)
	if err != nil {
		return 0, err
	}

	users, err := s.users.Resolve(ctx, extractUserIDs(commits))
	if err != nil {
		return 0, err
	}

	n, err := s.storeCommits(ctx, logger, repo.ID, commits, users)
	if err != nil {
		return n, err
	}

	// A first walk bounded by a configured since date leaves older history
	// behind; the next run walks backward from the oldest stored commit.
	if !reachesRoot {
		logger.Info("History before the default since date is not stored yet", "since", s.defaultSince)
		return n, nil
	}
	if err := s.db.MarkRootCommitReached(ctx, repo.ID); err != nil {
		return n, err
	}
	return n, nil
}

// fetchCommits walks forward from the newest stored commit to the branch head
// and, while the root has not been reached, backward from the oldest one.
// It reports false when the walks cannot have covered the history down to
// the root commit.
func (s *Syncer) fetchCommits(ctx context.Context, logger *slog.Logger, repo model.Repository) ([]github.RawCommit, bool, error) {
	latest, hasLatest, err := s.boundary(ctx, repo.ID, s.db.GetLatestCommit)
	if err != nil {
		return nil, false, err
	}
	oldest, hasOldest, err := s.boundary(ctx, repo.ID, s.db.GetOldestCommit)
	if err != nil {
		return nil, false, err
	}
	if hasLatest && hasOldest {
		logger.Info("Found stored commit range",
			"most_recent", latest.CommittedDate.Format(string(datetime.LayoutStorage)),
			"oldest", oldest.CommittedDate.Format(string(datetime.LayoutStorage)))
	} else {
		logger.Info("No stored commits found for repository")
	}

	req := github.HistoryRequest{Owner: repo.OwnerLogin, Name: repo.Name, Ref: repo.TrackedBranchRef}

	forward := req
	forward.Since = s.defaultSince
	if hasLatest {
		forward.Since = datetime.FormatGitHub(latest.CommittedDate)
	}
	commits, err := s.fetchAll(ctx, logger, forward)
	if err != nil {
		return nil, false, err
	}
	logger.Info("Fetched until the most recent commit", "since", forward.Since, "count", len(commits))

	if hasOldest && !repo.RootCommitIsReached {
		backward := req
		backward.Until = datetime.FormatGitHub(oldest.CommittedDate)
		older, err := s.fetchAll(ctx, logger, backward)
		if err != nil {
			return nil, false, err
		}
		logger.Info("Fetched until root", "until", backward.Until, "count", len(older))
		commits = append(commits, older...)
	}

	if len(commits) > 0 {
		logger.Info("Fetched commits", "total", len(commits),
			"newest", storageDate(commits[0].CommittedDate),
			"oldest", storageDate(commits[len(commits)-1].CommittedDate))
	} else {
		logger.Info("Fetched commits", "total", 0)
	}
	return commits, hasLatest || s.defaultSince == datetime.Epoch, nil
}

func (s *Syncer) boundary(ctx context.Context, repoID string, get func(context.Context, string) (model.CommitRef, error)) (model.CommitRef, bool, error) {
	ref, err := get(ctx, repoID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CommitRef{}, false, nil
	}
	if err != nil {
		return model.CommitRef{}, false, err
	}
	return ref, true, nil
}

// fetchAll follows the cursor until the last page or the page cap.
func (s *Syncer) fetchAll(ctx context.Context, logger *slog.Logger, req github.HistoryRequest) ([]github.RawCommit, error) {
	var all []github.RawCommit
	req.Cursor = ""

	for pages := 0; ; pages++ {
		if pages == s.maxPages {
			return nil, fmt.Errorf("%w: %d pages walked on %s/%s %s, raise MAX_PAGES for this history", custom_errors.ErrPageLimit, pages, req.Owner, req.Name, req.Ref)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.paginator.NextPage(ctx, req)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Commits...)
		logger.Debug("Fetched commits page", "count", len(page.Commits), "end_cursor", page.EndCursor, "has_next_page", page.HasNextPage)

		if !page.HasNextPage {
			return all, nil
		}
		req.Cursor = page.EndCursor
	}
}

// storeCommits inserts the commits that are not stored yet and returns how many were written.
func (s *Syncer) storeCommits(ctx context.Context, logger *slog.Logger, repoID string, commits []github.RawCommit, users map[string]model.GitUser) (int, error) {
	inserted := 0
	for _, raw := range commits {
		exists, err := s.db.CommitExists(ctx, raw.ID)
		if err != nil {
			return inserted, err
		}
		if exists {
			logger.Debug("Found already existing commit", "commit_id", raw.ID, "committed", storageDate(raw.CommittedDate))
			continue
		}

		commit, err := normalize(repoID, raw, users)
		if err != nil {
			return inserted, err
		}
		ok, err := s.db.CreateCommit(ctx, commit)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}

	logger.Info("Inserted commits into database", "count", inserted, "fetched", len(commits))
	return inserted, nil
}
