package autostart

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

const serviceName = "reportship.service"

const serviceTemplate = `[Unit]
Description=Reportship Report Shipping Daemon
After=network-online.target
Wants=network-online.target

[Service]
ExecStart={{.Command}}
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`

var serviceTmpl = template.Must(template.New("service").Parse(serviceTemplate))

type LinuxAutoStarter struct {
	// Dir overrides the systemd user unit directory.
	Dir string
}

func (l *LinuxAutoStarter) servicePath() (string, error) {
	dir := l.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config", "systemd", "user")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(dir, serviceName), nil
}

func writeUnit(w io.Writer, execPath string, args []string) error {
	parts := make([]string, 0, len(args)+1)
	for _, p := range append([]string{execPath}, args...) {
		if strings.ContainsAny(p, " \t\"") {
			p = strconv.Quote(p)
		}
		parts = append(parts, p)
	}

	return serviceTmpl.Execute(w, map[string]string{"Command": strings.Join(parts, " ")})
}

func (l *LinuxAutoStarter) Install(execPath string, args []string) error {
	path, err := l.servicePath()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create service file: %w", err)
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	if err := writeUnit(f, execPath, args); err != nil {
		return fmt.Errorf("failed to write service file: %w", err)
	}

	cmds := [][]string{
		{"systemctl", "--user", "daemon-reload"},
		{"systemctl", "--user", "enable", serviceName},
		{"systemctl", "--user", "start", serviceName},
	}

	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("failed to run %v: %w\n%s", args, err, out)
		}
	}

	return nil
}

func (l *LinuxAutoStarter) Uninstall() error {
	cmds := [][]string{
		{"systemctl", "--user", "stop", serviceName},
		{"systemctl", "--user", "disable", serviceName},
	}

	for _, args := range cmds {
		cmd := exec.Command(args[0], args[1:]...)
		_ = cmd.Run()
	}

	path, err := l.servicePath()
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove service file: %w", err)
	}

	return nil
}

func (l *LinuxAutoStarter) IsInstalled() (bool, error) {
	path, err := l.servicePath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	return err == nil, nil
}
