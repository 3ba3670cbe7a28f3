package autostart

import (
	"fmt"
	"os/exec"
	"strings"
)

const taskName = "ReportshipDaemon"

type WindowsAutoStarter struct{}

func taskCommand(execPath string, args []string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			a = `"` + a + `"`
		}
		quoted = append(quoted, a)
	}

	return strings.TrimSpace(fmt.Sprintf(`"%s" %s`, execPath, strings.Join(quoted, " ")))
}

func (w *WindowsAutoStarter) Install(execPath string, args []string) error {
	cmd := exec.Command("schtasks", "/create",
		"/TN", taskName,
		"/TR", taskCommand(execPath, args),
		"/SC", "ONLOGON",
		"/RL", "HIGHEST",
		"/F")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to register task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) Uninstall() error {
	cmd := exec.Command("schtasks", "/DELETE", "/TN", taskName, "/F")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to remove task: %w\n%s", err, out)
	}

	return nil
}

func (w *WindowsAutoStarter) IsInstalled() (bool, error) {
	cmd := exec.Command("schtasks", "/Query", "/TN", taskName)
	if err := cmd.Run(); err != nil {
		return false, nil
	}

	return true, nil
}
