package failsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// File appends one JSON Record per line and syncs after every write.
type File struct {
	mu  sync.Mutex
	f   *os.File
	now func() time.Time
}

// OpenFile opens path for appending, creating it with mode 0600 if needed.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", berr.ErrSinkFailed, path, err)
	}

	return &File{f: f, now: time.Now}, nil
}

func (s *File) Sink(_ context.Context, msg event.Message, cause error) error {
	b, err := json.Marshal(newRecord(s.now(), msg, cause))
	if err != nil {
		return errors.Join(berr.ErrSerializationFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return fmt.Errorf("file sink: %w", berr.ErrNotConnected)
	}

	if _, err := s.f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("file sink write: %w", errors.Join(berr.ErrSinkFailed, err))
	}

	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("file sink sync: %w", errors.Join(berr.ErrSinkFailed, err))
	}

	return nil
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.f == nil {
		return nil
	}

	err := s.f.Close()
	s.f = nil

	return err
}
