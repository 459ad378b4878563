//go:build !windows

package runner

import (
	"context"
	"os/exec"
	"syscall"
)

// ShellCommand runs line through sh -c.
func ShellCommand(ctx context.Context, line string) *exec.Cmd {
	return exec.CommandContext(ctx, "sh", "-c", line)
}

// setProcessGroup starts the child in its own group and kills the group on cancel,
// so shells and npx wrappers do not leave orphaned grandchildren behind.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
