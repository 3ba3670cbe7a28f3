package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Channel is one authenticated session to the archive host.
type Channel interface {
	// EnsureDir creates path. An existing directory is reported as
	// created == false with a nil error.
	EnsureDir(path string) (created bool, err error)
	// Stat reports found == false with a nil error when path does not exist.
	Stat(path string) (info fs.FileInfo, found bool, err error)
	Open(path string) (io.ReadCloser, error)
	Upload(r io.Reader, path string) error
	// Close must be safe to call more than once and on partial sessions.
	Close() error
}

type Opener interface {
	Open(ctx context.Context) (Channel, error)
}

var ErrAuth = errors.New("all candidate keys were rejected")

type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

type KeyLoadError struct {
	Path string
	Err  error
}

func (e *KeyLoadError) Error() string {
	return fmt.Sprintf("failed to load private key %s: %v", e.Path, e.Err)
}

func (e *KeyLoadError) Unwrap() error {
	return e.Err
}
