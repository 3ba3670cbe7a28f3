package remote

import (
	"fmt"
	"io"
	"net"
	"os"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

func LoadKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &KeyLoadError{Path: path, Err: err}
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, &KeyLoadError{Path: path, Err: err}
	}

	return signer, nil
}

// ConnectAgent dials the ssh-agent behind SSH_AUTH_SOCK. It returns a nil
// agent and nil error when no agent socket is advertised.
func ConnectAgent() (agent.ExtendedAgent, io.Closer, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, nil
	}

	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach ssh-agent: %w", err)
	}

	return agent.NewClient(conn), conn, nil
}

// candidates lists agent keys first and the configured key last. A key that
// cannot be loaded is logged and skipped.
func (d *Dialer) candidates() []ssh.Signer {
	var signers []ssh.Signer

	if d.opts.Agent != nil {
		agentSigners, err := d.opts.Agent.Signers()
		if err != nil {
			d.log.Warn("failed to list ssh-agent keys",
				zap.Error(err))
		} else {
			signers = append(signers, agentSigners...)
		}
	}

	if d.opts.KeyPath != "" {
		signer, err := LoadKey(d.opts.KeyPath)
		if err != nil {
			d.log.Error("failed loading private key",
				zap.String("path", d.opts.KeyPath),
				zap.Error(err))
		} else {
			signers = append(signers, signer)
		}
	}

	return signers
}
