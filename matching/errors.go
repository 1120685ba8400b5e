package matching

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRepository marks failures reading duos, surveys or history
	ErrRepository = errors.New("repository error")
	// ErrPersistence marks failures writing match records
	ErrPersistence = errors.New("persistence error")
	// ErrWeekAlreadyMatched is returned by a non-forced run on a week that already has records
	ErrWeekAlreadyMatched = errors.New("matches already exist for this week")
)

// RepositoryError wraps a storage read failure. The run is aborted and nothing is written.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func (e *RepositoryError) Is(target error) bool { return target == ErrRepository }

// PersistenceError wraps a storage write failure. Failed lists the match ids the
// storage layer reported as not written, when it can tell.
type PersistenceError struct {
	Failed []string
	Err    error
}

func (e *PersistenceError) Error() string {
	if len(e.Failed) == 0 {
		return fmt.Sprintf("failed to save matches: %v", e.Err)
	}
	return fmt.Sprintf("failed to save matches [%s]: %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
