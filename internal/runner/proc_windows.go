//go:build windows

package runner

import (
	"context"
	"os/exec"
	"syscall"
)

// ShellCommand runs line through cmd.exe verbatim. The default argument
// escaping would turn cmd-style "" quoting into \" which cmd does not read.
func ShellCommand(ctx context.Context, line string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "cmd")
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: `cmd /S /C "` + line + `"`}
	return cmd
}

func setProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return cmd.Process.Kill()
	}
}
