package apperr

import "errors"

var (
	// ErrCycleInFlight is returned when a timer tick arrives while a cycle is running.
	ErrCycleInFlight = errors.New("publish cycle already in flight")
	// ErrArtifactNotFound is returned when the ledger has no record for a filename.
	ErrArtifactNotFound = errors.New("artifact not found")
)

// GenerationError reports a provider, network, timeout or empty-content failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string { return format("generation", e.Op, e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// StorageWriteError reports a local filesystem failure.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string { return format("storage write", e.Path, e.Err) }
func (e *StorageWriteError) Unwrap() error { return e.Err }

// RemoteSyncError reports a failed version-control step. Step names the
// command that exited non-zero.
type RemoteSyncError struct {
	Step string
	Err  error
}

func (e *RemoteSyncError) Error() string { return format("remote sync", e.Step, e.Err) }
func (e *RemoteSyncError) Unwrap() error { return e.Err }

// DistributionError reports a failed announcement on one channel.
type DistributionError struct {
	Channel string
	Err     error
}

func (e *DistributionError) Error() string { return format("distribution", e.Channel, e.Err) }
func (e *DistributionError) Unwrap() error { return e.Err }

func NewGeneration(op string, err error) *GenerationError {
	return &GenerationError{Op: op, Err: err}
}

func NewStorageWrite(path string, err error) *StorageWriteError {
	return &StorageWriteError{Path: path, Err: err}
}

func NewRemoteSync(step string, err error) *RemoteSyncError {
	return &RemoteSyncError{Step: step, Err: err}
}

func NewDistribution(channel string, err error) *DistributionError {
	return &DistributionError{Channel: channel, Err: err}
}

func format(kind, subject string, err error) string {
	msg := kind
	if subject != "" {
		msg += " " + subject
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	return msg
}
