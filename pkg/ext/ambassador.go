package ext

import (
	"os"
	"os/exec"
	"time"
)

var (
	DefaultAmbassador = &ambassador{}
)

// Ambassador the ambassador to the outside "world". Wraps methods that modify global state and hence make the code that
// use them very hard to test.
type Ambassador interface {
	Environ() []string
	LookPath(string) (string, error)
	MkdirAll(string, os.FileMode) error
	RunCmd(cmd *exec.Cmd) ([]byte, error)
	Now() time.Time
}

type ambassador struct {
}

func (a *ambassador) Environ() []string {
	return os.Environ()
}

func (a *ambassador) RunCmd(cmd *exec.Cmd) ([]byte, error) {
	return cmd.CombinedOutput()
}

func (a *ambassador) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (a *ambassador) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (a *ambassador) Now() time.Time {
	return time.Now()
}
