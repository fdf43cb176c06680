package installer

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// setUpdaterProcAttr detaches the installer from the console and process group of the caller
func setUpdaterProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.DETACHED_PROCESS,
	}
}
