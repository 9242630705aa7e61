//go:build !linux
// +build !linux

package edgedriver

import "os/exec"

func serviceCmdOptions(cmd *exec.Cmd) {}
