package daemon

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/process"
)

// ChildEnv marks the re-executed, detached child process.
const ChildEnv = "PROCTRACK_DAEMON_CHILD"

// ErrNotRunning is returned by Stop when no live daemon owns the PID file.
var ErrNotRunning = errors.New("daemon is not running or PID file is stale")

type Daemon struct {
	pidFile string
}

func New(pidFile string) *Daemon {
	return &Daemon{pidFile: pidFile}
}

// IsChild reports whether this process is the detached daemon child.
func IsChild() bool {
	return os.Getenv(ChildEnv) == "1"
}

// LogPath is where the detached child writes its log.
func LogPath() string {
	return fmt.Sprintf("/tmp/proctrack-%d.log", os.Getuid())
}

func (d *Daemon) PIDFile() string {
	return d.pidFile
}

func (d *Daemon) WritePID() error {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidFile, fmt.Appendf([]byte{}, "%d", pid), 0644); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrap(err, "invalid PID in file")
	}

	return pid, nil
}

func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning reports whether the PID file names a live process. A stale PID
// file is removed.
func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil {
		return false, 0, err
	}

	if pid == 0 {
		return false, 0, nil
	}

	alive, err := process.PidExistsWithContext(context.Background(), int32(pid))
	if err != nil || !alive {
		d.RemovePID()
		return false, 0, nil
	}

	return true, pid, nil
}

func (d *Daemon) Stop() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "error checking daemon status")
	}

	if !running {
		return ErrNotRunning
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrap(err, "failed to find process")
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			_ = d.RemovePID()
			return errors.New("daemon process already terminated")
		}
		return errors.Wrap(err, "failed to send SIGTERM")
	}

	if err := d.RemovePID(); err != nil {
		return err
	}

	return nil
}

// Spawn re-executes the current binary with args as a detached session
// leader, marked with ChildEnv.
func Spawn(args []string) (*os.Process, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve executable")
	}

	env := append(os.Environ(), ChildEnv+"=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	proc, err := os.StartProcess(exe, append([]string{exe}, args...), procAttr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start daemon process")
	}
	return proc, nil
}

// WaitForPID polls the PID file until it names a live process or ctx ends.
func (d *Daemon) WaitForPID(ctx context.Context, every time.Duration) (int, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if running, pid, err := d.IsRunning(); err == nil && running {
			return pid, nil
		}

		select {
		case <-ctx.Done():
			return 0, errors.Wrap(ctx.Err(), "daemon did not write its PID file")
		case <-ticker.C:
		}
	}
}
