package mediaimport

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/rs/zerolog"

	"mediavault/vaulterr"
)

// runTool invokes an external binary, feeding it stdin (if non-nil) and
// collecting stdout. A missing binary surfaces as vaulterr.MissingProgram —
// a hard configuration failure, not a per-call error to retry.
func runTool(ctx context.Context, log zerolog.Logger, name string, args []string, stdin io.Reader) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, vaulterr.MissingProgram.New("%s not found on PATH", name)
	}

	log.Debug().Str("tool", name).Strs("args", args).Msg("running external tool")

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Debug().Str("tool", name).Str("stderr", stderr.String()).Err(err).Msg("external tool failed")
		return nil, vaulterr.UnexpectedOutput.New("%s: %v: %s", name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// pipeTools runs first | second, connecting first's stdout to second's
// stdin via an in-memory pipe, the two-process stream graph §9 Design Notes
// calls for (unoconv | pdfinfo -). Errors from either process surface as
// vaulterr.UnexpectedOutput.
func pipeTools(ctx context.Context, log zerolog.Logger, first, second toolInvocation) ([]byte, error) {
	if _, err := exec.LookPath(first.name); err != nil {
		return nil, vaulterr.MissingProgram.New("%s not found on PATH", first.name)
	}
	if _, err := exec.LookPath(second.name); err != nil {
		return nil, vaulterr.MissingProgram.New("%s not found on PATH", second.name)
	}

	r, w := io.Pipe()

	firstCmd := exec.CommandContext(ctx, first.name, first.args...)
	if first.stdin != nil {
		firstCmd.Stdin = first.stdin
	}
	firstCmd.Stdout = w
	var firstErr bytes.Buffer
	firstCmd.Stderr = &firstErr

	secondCmd := exec.CommandContext(ctx, second.name, second.args...)
	secondCmd.Stdin = r
	var secondOut, secondErr bytes.Buffer
	secondCmd.Stdout = &secondOut
	secondCmd.Stderr = &secondErr

	if err := firstCmd.Start(); err != nil {
		return nil, vaulterr.UnexpectedOutput.New("%s: %v", first.name, err)
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- secondCmd.Run()
	}()

	waitErr := firstCmd.Wait()
	w.Close()
	err := <-runErr

	if waitErr != nil {
		return nil, vaulterr.UnexpectedOutput.New("%s: %v: %s", first.name, waitErr, firstErr.String())
	}
	if err != nil {
		return nil, vaulterr.UnexpectedOutput.New("%s: %v: %s", second.name, err, secondErr.String())
	}
	return secondOut.Bytes(), nil
}

type toolInvocation struct {
	name  string
	args  []string
	stdin io.Reader
}
