package cmd

import (
	"reportship/internal/clock"
	"reportship/internal/remote"
	"reportship/internal/transfer"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// newCoordinator wires the SFTP dialer and the transfer coordinator from the
// loaded config. The returned func releases the ssh-agent connection.
func newCoordinator() (*transfer.Coordinator, *clock.Zone, func()) {
	opts := remote.Options{
		Addr:           cfg.RemoteAddr(),
		User:           cfg.Remote.User,
		KeyPath:        cfg.Remote.KeyPath,
		KnownHosts:     cfg.Remote.KnownHosts,
		ConnectTimeout: cfg.Remote.ConnectTimeout,
	}

	release := func() {}
	if cfg.Remote.UseAgent {
		ag, closer, err := remote.ConnectAgent()
		switch {
		case err != nil:
			log.Warn("ssh-agent unavailable, using key file only",
				zap.Error(err))
		case ag != nil:
			opts.Agent = ag
			release = func() {
				_ = closer.Close()
			}
		}
	}

	zone := clock.NewZone(cfg.TimeZone.Name, cfg.TimeZone.OffsetHours, cfg.TimeZone.DST)
	dialer := remote.NewDialer(opts, log)

	coord := transfer.New(afero.NewOsFs(), dialer, zone, transfer.Options{
		RemoteRoot: cfg.Remote.Dir,
		Timeout:    cfg.TransferTimeout,
	}, log)

	return coord, zone, release
}
