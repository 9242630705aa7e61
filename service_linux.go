//go:build linux
// +build linux

package edgedriver

import (
	"os"
	"os/exec"
	"syscall"
)

func serviceCmdOptions(cmd *exec.Cmd) {
	_, isLambda := os.LookupEnv("LAMBDA_TASK_ROOT")
	if isLambda {
		// do nothing on AWS Lambda
		return
	}

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = new(syscall.SysProcAttr)
	}
	// When the parent process dies (Go), kill the driver as well.
	cmd.SysProcAttr.Pdeathsig = syscall.SIGKILL
}
