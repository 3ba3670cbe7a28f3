package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"sync"
	"testing"
	"time"

	"reportship/internal/clock"
	"reportship/internal/model"
	"reportship/internal/remote"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeInfo struct {
	fs.FileInfo
}

type fakeRemote struct {
	mu      sync.Mutex
	files   map[string][]byte
	dirs    map[string]bool
	uploads int
	closes  int

	mkdirErr  error
	statErr   error
	openErr   error
	uploadErr error
	hang      bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

type fakeChannel struct {
	r      *fakeRemote
	once   sync.Once
	closed chan struct{}
}

func (c *fakeChannel) EnsureDir(path string) (bool, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	if c.r.mkdirErr != nil {
		return false, c.r.mkdirErr
	}
	if c.r.dirs[path] {
		return false, nil
	}
	c.r.dirs[path] = true
	return true, nil
}

func (c *fakeChannel) Stat(path string) (fs.FileInfo, bool, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	if c.r.statErr != nil {
		return nil, false, c.r.statErr
	}
	if _, ok := c.r.files[path]; !ok {
		return nil, false, nil
	}
	return fakeInfo{}, true, nil
}

func (c *fakeChannel) Open(path string) (io.ReadCloser, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	if c.r.openErr != nil {
		return nil, c.r.openErr
	}
	return io.NopCloser(bytes.NewReader(c.r.files[path])), nil
}

func (c *fakeChannel) Upload(r io.Reader, path string) error {
	if c.r.hang {
		<-c.closed
		return errors.New("use of closed connection")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	c.r.uploads++
	if c.r.uploadErr != nil {
		return c.r.uploadErr
	}
	c.r.files[path] = data
	return nil
}

func (c *fakeChannel) Close() error {
	c.once.Do(func() {
		close(c.closed)
		c.r.mu.Lock()
		c.r.closes++
		c.r.mu.Unlock()
	})
	return nil
}

type fakeOpener struct {
	r     *fakeRemote
	err   error
	opens int
}

func (o *fakeOpener) Open(context.Context) (remote.Channel, error) {
	o.opens++
	if o.err != nil {
		return nil, o.err
	}
	return &fakeChannel{r: o.r, closed: make(chan struct{})}, nil
}

type fixture struct {
	fs     afero.Fs
	remote *fakeRemote
	opener *fakeOpener
	logs   *observer.ObservedLogs
	coord  *Coordinator
}

const (
	localPath  = "/reports/clientA/q1.xlsx"
	reportName = "clientA-04091305.xlsx"
	dateDir    = "/archive/2024-04-09"
	remotePath = "/archive/2024-04-09/clientA-04091305.xlsx"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	memFs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(memFs, localPath, []byte("quarterly numbers"), 0644))

	r := newFakeRemote()
	opener := &fakeOpener{r: r}

	core, logs := observer.New(zapcore.DebugLevel)
	fixed := time.Date(2024, time.April, 9, 17, 5, 0, 0, time.UTC)
	zone := clock.NewZone("EST", -5, true).WithSource(func() time.Time { return fixed })

	coord := New(memFs, opener, zone, Options{RemoteRoot: "/archive", Timeout: time.Second}, zap.New(core))

	return &fixture{fs: memFs, remote: r, opener: opener, logs: logs, coord: coord}
}

func (f *fixture) transfer() model.TransferResult {
	return f.coord.Transfer(context.Background(), model.TransferRequest{
		LocalPath:  localPath,
		ReportName: reportName,
	})
}

func (f *fixture) localExists(t *testing.T) bool {
	t.Helper()

	ok, err := afero.Exists(f.fs, localPath)
	require.NoError(t, err)
	return ok
}

func TestDestination(t *testing.T) {
	f := newFixture(t)

	dst := f.coord.Destination(reportName)
	assert.Equal(t, dateDir, dst.DateDir)
	assert.Equal(t, remotePath, dst.RemotePath)
}

func TestTransfer_NewFile(t *testing.T) {
	f := newFixture(t)

	result := f.transfer()

	require.NoError(t, result.Err)
	assert.Equal(t, model.OutcomeShipped, result.Outcome)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, remotePath, result.Destination.RemotePath)
	assert.Equal(t, []byte("quarterly numbers"), f.remote.files[remotePath])
	assert.True(t, f.remote.dirs[dateDir])
	assert.Equal(t, 1, f.remote.uploads)
	assert.Equal(t, 1, f.remote.closes)
	assert.False(t, f.localExists(t))
	assert.Equal(t, 1, f.logs.FilterMessage("NEW").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("ensured remote directory exists").Len())
}

func TestTransfer_Unchanged(t *testing.T) {
	f := newFixture(t)
	f.remote.dirs[dateDir] = true
	f.remote.files[remotePath] = []byte("quarterly numbers")

	result := f.transfer()

	require.NoError(t, result.Err)
	assert.Equal(t, model.OutcomeUnchanged, result.Outcome)
	assert.Equal(t, 0, f.remote.uploads, "identical content must not be uploaded")
	assert.Equal(t, []byte("quarterly numbers"), f.remote.files[remotePath])
	assert.False(t, f.localExists(t))
	assert.Equal(t, 1, f.remote.closes)
	assert.Equal(t, 1, f.logs.FilterMessage("UNCHANGED").Len())
	assert.Equal(t, 1, f.logs.FilterMessage("assuming remote directory exists").Len())
}

func TestTransfer_Modified(t *testing.T) {
	f := newFixture(t)
	f.remote.files[remotePath] = []byte("stale numbers")

	result := f.transfer()

	require.NoError(t, result.Err)
	assert.Equal(t, model.OutcomeShipped, result.Outcome)
	assert.Equal(t, 1, f.remote.uploads)
	assert.Equal(t, []byte("quarterly numbers"), f.remote.files[remotePath])
	assert.False(t, f.localExists(t))
	assert.Equal(t, 1, f.logs.FilterMessage("MODIFIED").Len())
}

func TestTransfer_AuthFailure(t *testing.T) {
	f := newFixture(t)
	f.opener.err = remote.ErrAuth

	result := f.transfer()

	assert.ErrorIs(t, result.Err, remote.ErrAuth)
	assert.Equal(t, model.OutcomeAuthFailed, result.Outcome)
	assert.True(t, f.localExists(t))
	assert.Equal(t, 0, f.remote.uploads)
	assert.Empty(t, f.remote.files)

	entries := f.logs.FilterMessage("key auth failed, local file retained").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestTransfer_ConnectFailure(t *testing.T) {
	f := newFixture(t)
	f.opener.err = &remote.ConnectError{Addr: "archive:22", Err: errors.New("connection refused")}

	result := f.transfer()

	require.Error(t, result.Err)
	_, ok := errors.AsType[*remote.ConnectError](result.Err)
	assert.True(t, ok)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)
	assert.True(t, f.localExists(t))

	entries := f.logs.FilterMessage("unknown state, file transfer likely failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "*errors.errorString", entries[0].ContextMap()["error_type"])
}

func TestTransfer_UploadFailureKeepsLocal(t *testing.T) {
	f := newFixture(t)
	f.remote.uploadErr = errors.New("disk full")

	result := f.transfer()

	require.Error(t, result.Err)
	assert.Equal(t, model.OutcomeFailed, result.Outcome)
	assert.True(t, f.localExists(t))
	assert.Equal(t, 1, f.remote.closes, "session is released on failure")
}

func TestTransfer_CompareErrorsTreatedAsNew(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *fakeRemote)
	}{
		{name: "stat_error", setup: func(r *fakeRemote) { r.statErr = errors.New("permission denied") }},
		{name: "read_error", setup: func(r *fakeRemote) { r.openErr = errors.New("read failed") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.remote.files[remotePath] = []byte("quarterly numbers")
			tt.setup(f.remote)

			result := f.transfer()

			require.NoError(t, result.Err)
			assert.Equal(t, model.OutcomeShipped, result.Outcome)
			assert.Equal(t, 1, f.remote.uploads)
			assert.False(t, f.localExists(t))
			assert.Equal(t, 1, f.logs.FilterMessage("NEW").Len())
		})
	}
}

func TestTransfer_EnsureDirFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.remote.mkdirErr = errors.New("permission denied")

	result := f.transfer()

	require.NoError(t, result.Err)
	assert.Equal(t, model.OutcomeShipped, result.Outcome)
	assert.Equal(t, 1, f.logs.FilterMessage("could not ensure remote directory").Len())
}

func TestTransfer_MissingSourceTwice(t *testing.T) {
	f := newFixture(t)

	first := f.transfer()
	require.Equal(t, model.OutcomeShipped, first.Outcome)
	require.Equal(t, 1, f.opener.opens)

	var second model.TransferResult
	assert.NotPanics(t, func() {
		second = f.transfer()
	})

	assert.ErrorIs(t, second.Err, ErrSourceMissing)
	assert.Equal(t, model.OutcomeSourceMissing, second.Outcome)
	assert.Equal(t, 1, f.opener.opens, "no session is opened for a missing source")
	assert.Equal(t, 1, f.remote.uploads)
}

func TestTransfer_TimeoutReleasesHungSession(t *testing.T) {
	f := newFixture(t)
	f.remote.hang = true
	f.coord.opts.Timeout = 50 * time.Millisecond

	done := make(chan model.TransferResult, 1)
	go func() {
		done <- f.transfer()
	}()

	select {
	case result := <-done:
		assert.Equal(t, model.OutcomeFailed, result.Outcome)
		assert.True(t, f.localExists(t))
	case <-time.After(5 * time.Second):
		t.Fatal("transfer did not return after its timeout")
	}
}

func TestComparison_String(t *testing.T) {
	assert.Equal(t, "NEW", Absent.String())
	assert.Equal(t, "MODIFIED", Different.String())
	assert.Equal(t, "UNCHANGED", Identical.String())
}
