package capability

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"tcpsock/internal/session"
)

// Exec connects a child process's stdio to the connection.  Exactly one
// of Program (-e) or Command (-c, run by the shell) is used.
type Exec struct {
	Program string
	Command string
}

// Handle runs the child and returns once it exits.
func (e *Exec) Handle(ctx context.Context, sess *session.Session) error {
	cmd, err := e.command(ctx)
	if err != nil {
		return err
	}
	cmd.Stdin = sess.Conn
	cmd.Stdout = sess.Conn
	cmd.Stderr = sess.Conn

	sess.Logger.Debug("exec: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exec %q: %w", cmd.Path, err)
	}
	return nil
}

func (e *Exec) command(ctx context.Context) (*exec.Cmd, error) {
	switch {
	case e.Command != "" && runtime.GOOS == "windows":
		return exec.CommandContext(ctx, "cmd.exe", "/C", e.Command), nil
	case e.Command != "":
		return exec.CommandContext(ctx, "/bin/sh", "-c", e.Command), nil
	case e.Program != "":
		return exec.CommandContext(ctx, e.Program), nil
	}
	return nil, errors.New("exec: no program or command given")
}
