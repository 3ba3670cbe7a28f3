package remote

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

type Options struct {
	Addr           string
	User           string
	KeyPath        string
	KnownHosts     string
	ConnectTimeout time.Duration
	Agent          agent.Agent
}

// Dialer opens SFTP sessions with public-key authentication.
type Dialer struct {
	opts Options
	log  *zap.Logger
}

func NewDialer(opts Options, log *zap.Logger) *Dialer {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	if opts.KnownHosts == "" {
		log.Warn("no known_hosts configured, remote host key will not be verified",
			zap.String("addr", opts.Addr))
	}

	return &Dialer{opts: opts, log: log}
}

// Open tries every candidate key on its own handshake until one is accepted.
// A rejected key is logged and the next one is tried; ErrAuth is returned
// only after all of them were refused.
func (d *Dialer) Open(ctx context.Context) (Channel, error) {
	hostKey, err := d.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	signers := d.candidates()
	if len(signers) == 0 {
		d.log.Error("no ssh keys available for authentication")
		return nil, ErrAuth
	}

	d.log.Info("establishing ssh connection",
		zap.String("addr", d.opts.Addr),
		zap.String("user", d.opts.User))

	for _, signer := range signers {
		pub := signer.PublicKey()
		d.log.Info("trying ssh key",
			zap.String("type", pub.Type()),
			zap.String("fingerprint", ssh.FingerprintSHA256(pub)))

		client, err := d.handshake(ctx, signer, hostKey)
		if err != nil {
			if !isAuthRejection(err) {
				return nil, err
			}

			d.log.Error("ssh key rejected",
				zap.String("fingerprint", ssh.FingerprintSHA256(pub)),
				zap.Error(err))
			continue
		}

		d.log.Info("ssh key accepted",
			zap.String("fingerprint", ssh.FingerprintSHA256(pub)))

		sftpClient, err := sftp.NewClient(client)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
		}

		return newSession(sftpClient, client), nil
	}

	d.log.Error("key auth failed",
		zap.String("addr", d.opts.Addr),
		zap.Int("candidates", len(signers)))

	return nil, ErrAuth
}

func (d *Dialer) handshake(ctx context.Context, signer ssh.Signer, hostKey ssh.HostKeyCallback) (*ssh.Client, error) {
	nd := net.Dialer{Timeout: d.opts.ConnectTimeout}
	conn, err := nd.DialContext(ctx, "tcp", d.opts.Addr)
	if err != nil {
		return nil, &ConnectError{Addr: d.opts.Addr, Err: err}
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	_ = conn.SetDeadline(time.Now().Add(d.opts.ConnectTimeout))

	cfg := &ssh.ClientConfig{
		User:            d.opts.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKey,
		Timeout:         d.opts.ConnectTimeout,
	}

	c, chans, reqs, err := ssh.NewClientConn(conn, d.opts.Addr, cfg)
	if err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &ConnectError{Addr: d.opts.Addr, Err: ctxErr}
		}
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(c, chans, reqs), nil
}

func (d *Dialer) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if d.opts.KnownHosts == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	cb, err := knownhosts.New(d.opts.KnownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts: %w", err)
	}

	return cb, nil
}

// x/crypto/ssh reports exhausted auth methods only as a formatted error.
func isAuthRejection(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}
