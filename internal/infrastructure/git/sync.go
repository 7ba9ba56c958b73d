package git

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/config"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

// Sync implements ports.RemoteArtifactSync: configure identity, stage,
// commit, push to HEAD:<branch>. The first failing step aborts the rest.
type Sync struct {
	cfg    config.GitConfig
	remote string
	logger *slog.Logger
}

var _ ports.RemoteArtifactSync = (*Sync)(nil)

// NewSync validates the remote URL and embeds the token as URL user info.
// An empty RepoURL pushes to the working tree's configured upstream.
func NewSync(cfg config.GitConfig, logger *slog.Logger) (*Sync, error) {
	remote, err := RemoteWithToken(cfg.RepoURL, cfg.Token)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	return &Sync{cfg: cfg, remote: remote, logger: logger}, nil
}

// RemoteWithToken returns repoURL with token set as its user info.
func RemoteWithToken(repoURL, token string) (string, error) {
	if repoURL == "" || token == "" {
		return repoURL, nil
	}
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", fmt.Errorf("invalid repo url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("repo url %s: token auth requires http(s)", u.Redacted())
	}
	u.User = url.User(token)
	return u.String(), nil
}

type step struct {
	name string
	args []string
	// skip reports whether the step has nothing to do.
	skip func(ctx context.Context, repo *Repository) bool
}

// Sync publishes req.File. Errors are *apperr.RemoteSyncError naming the step.
func (s *Sync) Sync(ctx context.Context, req ports.SyncRequest) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	file, err := filepath.Rel(req.Dir, req.File)
	if err != nil {
		file = req.File
	}

	repo := NewRepository(req.Dir, s.cfg.Token)
	for _, st := range s.steps(file, req.CommitMessage) {
		if st.skip != nil && st.skip(ctx, repo) {
			s.logger.Debug("git step skipped", "step", st.name)
			continue
		}
		started := time.Now()
		if _, err := repo.Run(ctx, st.args...); err != nil {
			return apperr.NewRemoteSync(st.name, err)
		}
		s.logger.Debug("git step done", "step", st.name, "latency", time.Since(started))
	}

	return nil
}

func (s *Sync) steps(file, message string) []step {
	push := []string{"push"}
	if s.remote != "" {
		push = append(push, s.remote)
	} else {
		push = append(push, "origin")
	}
	push = append(push, "HEAD:"+s.cfg.Branch)

	var steps []step
	if s.cfg.UserName != "" {
		steps = append(steps, step{name: "config user.name", args: []string{"config", "user.name", s.cfg.UserName}})
	}
	if s.cfg.UserEmail != "" {
		steps = append(steps, step{name: "config user.email", args: []string{"config", "user.email", s.cfg.UserEmail}})
	}

	return append(steps,
		step{name: "add", args: []string{"add", "--", file}},
		step{name: "commit", args: []string{"commit", "-m", message, "--", file}, skip: nothingStaged(file)},
		step{name: "push", args: push},
	)
}

// nothingStaged lets a retried sync skip the commit when an earlier attempt
// already committed the file and only the push failed.
func nothingStaged(file string) func(context.Context, *Repository) bool {
	return func(ctx context.Context, repo *Repository) bool {
		_, err := repo.Run(ctx, "diff", "--cached", "--quiet", "--", file)
		return err == nil
	}
}
