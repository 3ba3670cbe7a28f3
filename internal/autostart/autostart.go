package autostart

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var ErrUnsupported = errors.New("autostart is not supported on this platform")

type AutoStarter interface {
	Install(execPath string, args []string) error
	Uninstall() error
	IsInstalled() (bool, error)
}

func New() AutoStarter {
	switch runtime.GOOS {
	case "windows":
		return &WindowsAutoStarter{}
	case "linux":
		return &LinuxAutoStarter{}
	default:
		return &UnsupportedAutoStarter{OS: runtime.GOOS}
	}
}

// DaemonArgs is the command line the service manager runs. A config path is
// made absolute because services do not start in the caller's directory.
func DaemonArgs(configPath string) ([]string, error) {
	args := []string{"watch"}
	if configPath == "" {
		return args, nil
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	return append(args, "--config", abs), nil
}

type UnsupportedAutoStarter struct {
	OS string
}

func (u *UnsupportedAutoStarter) Install(string, []string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, u.OS)
}

func (u *UnsupportedAutoStarter) Uninstall() error {
	return fmt.Errorf("%w: %s", ErrUnsupported, u.OS)
}

func (u *UnsupportedAutoStarter) IsInstalled() (bool, error) {
	return false, nil
}
