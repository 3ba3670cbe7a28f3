package remote

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/pkg/sftp"
)

type Session struct {
	sftp *sftp.Client
	conn io.Closer

	once     sync.Once
	closeErr error
}

func newSession(client *sftp.Client, conn io.Closer) *Session {
	return &Session{sftp: client, conn: conn}
}

func (s *Session) EnsureDir(path string) (bool, error) {
	err := s.sftp.Mkdir(path)
	if err == nil {
		return true, nil
	}

	if info, statErr := s.sftp.Stat(path); statErr == nil && info.IsDir() {
		return false, nil
	}

	return false, fmt.Errorf("failed to create %s: %w", path, err)
}

func (s *Session) Stat(path string) (fs.FileInfo, bool, error) {
	info, err := s.sftp.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info, true, nil
}

func (s *Session) Open(path string) (io.ReadCloser, error) {
	f, err := s.sftp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return f, nil
}

func (s *Session) Upload(r io.Reader, path string) error {
	f, err := s.sftp.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}

func (s *Session) Close() error {
	s.once.Do(func() {
		var errs []error
		if s.sftp != nil {
			errs = append(errs, s.sftp.Close())
		}
		if s.conn != nil {
			errs = append(errs, s.conn.Close())
		}
		s.closeErr = errors.Join(errs...)
	})

	return s.closeErr
}

var _ Channel = (*Session)(nil)
