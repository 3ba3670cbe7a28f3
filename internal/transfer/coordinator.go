package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"reportship/internal/clock"
	"reportship/internal/model"
	"reportship/internal/pipeline"
	"reportship/internal/remote"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var ErrSourceMissing = errors.New("local source file does not exist")

type Comparison int

const (
	Absent Comparison = iota
	Different
	Identical
)

func (c Comparison) String() string {
	switch c {
	case Identical:
		return "UNCHANGED"
	case Different:
		return "MODIFIED"
	default:
		return "NEW"
	}
}

type Options struct {
	RemoteRoot string
	Timeout    time.Duration
}

type Coordinator struct {
	fs     afero.Fs
	opener remote.Opener
	zone   *clock.Zone
	opts   Options
	log    *zap.Logger
}

func New(fs afero.Fs, opener remote.Opener, zone *clock.Zone, opts Options, log *zap.Logger) *Coordinator {
	return &Coordinator{
		fs:     fs,
		opener: opener,
		zone:   zone,
		opts:   opts,
		log:    log,
	}
}

// Destination resolves the dated remote directory and path at call time.
func (c *Coordinator) Destination(reportName string) model.RemoteDestination {
	dateDir := path.Join(c.opts.RemoteRoot, c.zone.Now().Date())

	return model.RemoteDestination{
		DateDir:    dateDir,
		RemotePath: path.Join(dateDir, reportName),
	}
}

// Transfer ships one local file. It never panics or returns an error to the
// caller; every failure is reflected in the result and the log. The local
// file is removed only when the remote copy is known to match it.
func (c *Coordinator) Transfer(ctx context.Context, req model.TransferRequest) model.TransferResult {
	result := model.TransferResult{
		ID:        uuid.NewString(),
		Request:   req,
		StartedAt: time.Now(),
	}

	log := c.log.With(
		zap.String("attempt", result.ID),
		zap.String("report", req.ReportName))

	if _, err := c.fs.Stat(req.LocalPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrSourceMissing, req.LocalPath)
			result.Outcome = model.OutcomeSourceMissing
		} else {
			result.Outcome = model.OutcomeFailed
		}

		log.Warn("skipping transfer",
			zap.String("local", req.LocalPath),
			zap.Error(err))

		return c.finish(result, err)
	}

	result.Destination = c.Destination(req.ReportName)

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	outcome, err := c.run(ctx, log, req, result.Destination)
	if err != nil {
		if errors.Is(err, remote.ErrAuth) {
			log.Error("key auth failed, local file retained",
				zap.String("local", req.LocalPath))
		} else {
			log.Error("unknown state, file transfer likely failed",
				zap.String("local", req.LocalPath),
				zap.String("error_type", rootType(err)),
				zap.Error(err))
		}
	}

	result.Outcome = outcome
	return c.finish(result, err)
}

func (c *Coordinator) run(ctx context.Context, log *zap.Logger, req model.TransferRequest, dst model.RemoteDestination) (model.Outcome, error) {
	ch, err := c.opener.Open(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrAuth) {
			return model.OutcomeAuthFailed, err
		}
		return model.OutcomeFailed, fmt.Errorf("failed to open session: %w", err)
	}

	// Closing the channel aborts any SFTP call still blocked on a hung host.
	stop := context.AfterFunc(ctx, func() {
		_ = ch.Close()
	})
	defer func() {
		stop()
		if err := ch.Close(); err != nil {
			log.Debug("session close", zap.Error(err))
		}
	}()

	created, err := ch.EnsureDir(dst.DateDir)
	switch {
	case err != nil:
		log.Warn("could not ensure remote directory",
			zap.String("dir", dst.DateDir),
			zap.Error(err))
	case created:
		log.Info("ensured remote directory exists",
			zap.String("dir", dst.DateDir))
	default:
		log.Info("assuming remote directory exists",
			zap.String("dir", dst.DateDir))
	}

	cmp := c.compare(ch, log, req.LocalPath, dst.RemotePath)
	log.Info(cmp.String(),
		zap.String("remote", dst.RemotePath))

	if cmp == Identical {
		if err := c.removeLocal(log, req.LocalPath); err != nil {
			return model.OutcomeFailed, err
		}
		return model.OutcomeUnchanged, nil
	}

	if err := c.upload(ch, log, req.LocalPath, dst.RemotePath); err != nil {
		return model.OutcomeFailed, err
	}

	if err := c.removeLocal(log, req.LocalPath); err != nil {
		return model.OutcomeFailed, err
	}

	return model.OutcomeShipped, nil
}

// compare never fails: any stat or read error is treated as Absent.
func (c *Coordinator) compare(ch remote.Channel, log *zap.Logger, localPath, remotePath string) Comparison {
	_, found, err := ch.Stat(remotePath)
	if err != nil {
		log.Warn("remote stat failed, treating as new",
			zap.String("remote", remotePath),
			zap.Error(err))
		return Absent
	}
	if !found {
		return Absent
	}

	localSum, err := c.localDigest(localPath)
	if err != nil {
		log.Warn("local digest failed, treating as new",
			zap.String("local", localPath),
			zap.Error(err))
		return Absent
	}

	remoteSum, err := remoteDigest(ch, remotePath)
	if err != nil {
		log.Warn("remote digest failed, treating as new",
			zap.String("remote", remotePath),
			zap.Error(err))
		return Absent
	}

	if localSum == remoteSum {
		return Identical
	}

	return Different
}

func (c *Coordinator) localDigest(localPath string) (string, error) {
	f, err := c.fs.Open(localPath)
	if err != nil {
		return "", err
	}

	defer func(f afero.File) {
		_ = f.Close()
	}(f)

	return pipeline.Digest(f)
}

func remoteDigest(ch remote.Channel, remotePath string) (string, error) {
	rc, err := ch.Open(remotePath)
	if err != nil {
		return "", err
	}

	defer func(rc io.ReadCloser) {
		_ = rc.Close()
	}(rc)

	return pipeline.Digest(rc)
}

func (c *Coordinator) upload(ch remote.Channel, log *zap.Logger, localPath, remotePath string) error {
	f, err := c.fs.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}

	defer func(f afero.File) {
		_ = f.Close()
	}(f)

	log.Info("copying to remote",
		zap.String("remote", remotePath))

	if err := ch.Upload(f, remotePath); err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}

	log.Info("completed copy of file",
		zap.String("remote", remotePath))

	return nil
}

func (c *Coordinator) removeLocal(log *zap.Logger, localPath string) error {
	log.Info("removing local file",
		zap.String("local", localPath))

	if err := c.fs.Remove(localPath); err != nil {
		return fmt.Errorf("failed to remove local file: %w", err)
	}

	return nil
}

// rootType names the innermost wrapped error's type.
func rootType(err error) string {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return fmt.Sprintf("%T", err)
		}
		err = inner
	}
}

func (c *Coordinator) finish(result model.TransferResult, err error) model.TransferResult {
	result.Err = err
	result.FinishedAt = time.Now()
	return result
}
