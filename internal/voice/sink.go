package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// ExecSink plays a spoken reply by piping it into an external player command
// (aplay by default).
type ExecSink struct {
	command string
	args    []string
}

func NewExecSink(command string, args []string) *ExecSink {
	return &ExecSink{
		command: command,
		args:    args,
	}
}

func (s *ExecSink) Play(ctx context.Context, audio []byte) error {
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Stdin = bytes.NewReader(audio)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to play audio: %w", err)
	}
	return nil
}
