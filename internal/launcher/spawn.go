package launcher

import (
	"os/exec"
)

// ExecSpawner starts processes with os/exec and detaches from them; the
// console never waits on the game process.
type ExecSpawner struct{}

func (ExecSpawner) Spawn(path, dir string, args ...string) (int, error) {
	cmd := exec.Command(path, args...) //nolint:gosec // G204: operator-supplied game path
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}
