package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/pkg/logger"
)

// ExecDevice captures audio by running an external recorder command (arecord
// by default) and reading its stdout. Stop interrupts the process so the
// recorder can finalize its container format before exiting.
type ExecDevice struct {
	command string
	args    []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	chunks chan []byte
}

func NewExecDevice(command string, args []string) *ExecDevice {
	return &ExecDevice{
		command: command,
		args:    args,
	}
}

func (d *ExecDevice) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd != nil {
		return errors.New("capture device already started")
	}

	cmd := exec.CommandContext(ctx, d.command, d.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open capture pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start capture command: %w", err)
	}

	d.cmd = cmd
	d.chunks = make(chan []byte, 16)

	go d.read(stdout)

	logger.Debug("Capture command started",
		zap.String("command", d.command),
		zap.Int("pid", cmd.Process.Pid),
	)

	return nil
}

func (d *ExecDevice) read(stdout io.Reader) {
	defer close(d.chunks)

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.chunks <- chunk
		}
		if err != nil {
			return
		}
	}
}

func (d *ExecDevice) Chunks() <-chan []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.chunks
}

func (d *ExecDevice) Stop() error {
	d.mu.Lock()
	cmd := d.cmd
	d.cmd = nil
	d.mu.Unlock()

	if cmd == nil {
		return errors.New("capture device not started")
	}

	// Interrupt lets arecord write the final WAV header; the exit error after
	// a signal is expected and not surfaced.
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		cmd.Process.Kill()
	}
	cmd.Wait()

	return nil
}
