package proc

import (
	"os/exec"
	"runtime"

	"github.com/forjbuild/forj/pkg/errors"
)

// ShellCommand resolves the platform shell and the argument vector that
// runs cmd through it.
func ShellCommand(cmd string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/c", cmd}
	}
	return "/bin/sh", []string{"-c", cmd}
}

// BashCommand resolves bash and the argument vector that runs cmd with
// fail-fast semantics: stop on the first error, treat unset variables as
// errors, and fail when any stage of a pipeline fails.
func BashCommand(cmd string) (string, []string, error) {
	bash, err := exec.LookPath("bash")
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrProgramNotFound, "bash not found in PATH")
	}
	return bash, []string{"-e", "-u", "-o", "pipefail", "-c", cmd}, nil
}
