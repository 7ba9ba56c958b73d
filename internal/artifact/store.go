package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"BlogPublisher/internal/apperr"
	"BlogPublisher/internal/domain"
	"BlogPublisher/internal/logging"
	"BlogPublisher/internal/ports"
)

const (
	filenamePrefix = "blog-"
	filenameExt    = ".md"
	timestampSep   = "_"
	timestampFmt   = "2006-01-02-15-04-05"
	maxCollisions  = 99
	filePerm       = 0o644
	dirPerm        = 0o755
)

// Store persists articles as timestamped markdown files and publishes them
// through a RemoteArtifactSync.
type Store struct {
	root    string
	baseURL string
	sync    ports.RemoteArtifactSync
	ledger  ports.ArtifactLedger
	now     func() time.Time
	logger  *slog.Logger
}

// StoreDeps wires the store's collaborators.
type StoreDeps struct {
	Root    string
	BaseURL string
	Sync    ports.RemoteArtifactSync
	Ledger  ports.ArtifactLedger
	Logger  *slog.Logger
}

// New validates that Root exists and is writable, creating it if needed.
// Failure here is a *apperr.StorageWriteError and should stop the process.
func New(deps StoreDeps) (*Store, error) {
	root, err := filepath.Abs(deps.Root)
	if err != nil {
		return nil, apperr.NewStorageWrite(deps.Root, err)
	}
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, apperr.NewStorageWrite(root, err)
	}
	probe, err := os.CreateTemp(root, ".write-probe-*")
	if err != nil {
		return nil, apperr.NewStorageWrite(root, fmt.Errorf("directory not writable: %w", err))
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Store{
		root:    root,
		baseURL: deps.BaseURL,
		sync:    deps.Sync,
		ledger:  deps.Ledger,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Root returns the absolute artifact directory.
func (s *Store) Root() string {
	return s.root
}

// Filename derives the artifact name from the creation time alone. Names
// sort lexically in chronological order at second resolution.
func Filename(createdAt time.Time) string {
	return filenamePrefix + createdAt.UTC().Format(timestampFmt) + filenameExt
}

// collisionName is the n-th alternative for a second that already has a
// file. "_" sorts after "." so every variant follows the bare name and
// precedes the next second.
func collisionName(createdAt time.Time, n int) string {
	if n == 0 {
		return Filename(createdAt)
	}
	return fmt.Sprintf("%s%s%s%02d%s", filenamePrefix, createdAt.UTC().Format(timestampFmt), timestampSep, n, filenameExt)
}

// Persist writes the article and pushes it. A local write failure returns
// *apperr.StorageWriteError and no record. A push failure returns the record
// marked failed together with *apperr.RemoteSyncError; the local file is kept.
// Persisting the same article again reuses the existing file.
func (s *Store) Persist(ctx context.Context, article domain.Article) (domain.ArtifactRecord, error) {
	name, path, err := s.write(article)
	if err != nil {
		return domain.ArtifactRecord{}, err
	}

	record := domain.ArtifactRecord{
		Filename:   name,
		Path:       path,
		Topic:      article.Topic,
		CreatedAt:  article.CreatedAt.UTC(),
		SyncStatus: domain.SyncPending,
		UpdatedAt:  s.now().UTC(),
	}
	s.save(ctx, record)

	return s.push(ctx, record)
}

// Resync retries the push step for a record whose push failed.
func (s *Store) Resync(ctx context.Context, record domain.ArtifactRecord) (domain.ArtifactRecord, error) {
	if _, err := os.Stat(record.Path); err != nil {
		return record, apperr.NewStorageWrite(record.Path, fmt.Errorf("artifact missing: %w", err))
	}
	return s.push(ctx, record)
}

func (s *Store) push(ctx context.Context, record domain.ArtifactRecord) (domain.ArtifactRecord, error) {
	if s.sync == nil {
		err := apperr.NewRemoteSync("configure", errors.New("no remote sync configured"))
		return s.markFailed(ctx, record, err), err
	}

	err := s.sync.Sync(ctx, ports.SyncRequest{
		Dir:           s.root,
		File:          record.Path,
		CommitMessage: "Add blog: " + string(record.Topic),
	})
	if err != nil {
		var rse *apperr.RemoteSyncError
		if !errors.As(err, &rse) {
			err = apperr.NewRemoteSync("sync", err)
		}
		return s.markFailed(ctx, record, err), err
	}

	record.SyncStatus = domain.SyncSucceeded
	record.SyncError = ""
	record.URL = s.publicURL(record.Filename)
	record.UpdatedAt = s.now().UTC()
	s.save(ctx, record)
	s.logger.Info("artifact published", "file", record.Filename, "url", record.URL)

	return record, nil
}

func (s *Store) markFailed(ctx context.Context, record domain.ArtifactRecord, err error) domain.ArtifactRecord {
	record.SyncStatus = domain.SyncFailed
	record.SyncError = err.Error()
	record.URL = ""
	record.UpdatedAt = s.now().UTC()
	s.save(ctx, record)
	s.logger.Error("artifact push failed", "file", record.Filename, "error", err)
	return record
}

func (s *Store) save(ctx context.Context, record domain.ArtifactRecord) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Save(ctx, record); err != nil {
		s.logger.Warn("ledger save failed", "file", record.Filename, "error", err)
	}
}

// write creates the file with O_EXCL, moving to the next collision name when
// a different article already owns the second. An existing file with the same
// bytes is treated as this article's earlier write.
func (s *Store) write(article domain.Article) (string, string, error) {
	body := []byte(article.Body)

	for n := 0; n <= maxCollisions; n++ {
		name := collisionName(article.CreatedAt, n)
		path := filepath.Join(s.root, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
		if errors.Is(err, fs.ErrExist) {
			existing, readErr := os.ReadFile(path)
			if readErr != nil {
				return "", "", apperr.NewStorageWrite(path, readErr)
			}
			if bytes.Equal(existing, body) {
				s.logger.Debug("artifact already written", "file", name)
				return name, path, nil
			}
			continue
		}
		if err != nil {
			return "", "", apperr.NewStorageWrite(path, err)
		}

		if _, err := f.Write(body); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", "", apperr.NewStorageWrite(path, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", "", apperr.NewStorageWrite(path, err)
		}

		s.logger.Debug("artifact written", "file", name, "bytes", len(body))
		return name, path, nil
	}

	return "", "", apperr.NewStorageWrite(s.root, fmt.Errorf("more than %d artifacts for %s", maxCollisions, Filename(article.CreatedAt)))
}

func (s *Store) publicURL(filename string) string {
	if s.baseURL == "" {
		return ""
	}
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return strings.TrimSuffix(s.baseURL, "/") + "/" + filename
	}
	return u.JoinPath(filename).String()
}
