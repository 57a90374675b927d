package install

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/progress"
)

// Runner executes a shell command, streaming its output as Log events.
// A non-zero exit is reported through the exit code, not the error.
type Runner interface {
	Run(ctx context.Context, command string, emit progress.Emitter) (int, error)
}

// ShellRunner runs commands through `sh -c`. Stdout and stderr are merged
// line by line; stderr lines carry a "[stderr] " prefix. The shell and every
// process it started are killed when ctx is cancelled.
type ShellRunner struct {
	// Shell defaults to "sh".
	Shell string
}

func (r ShellRunner) Run(ctx context.Context, command string, emit progress.Emitter) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, errs.Cancelled(err)
	}
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	killProcessGroup(cmd)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, errs.Wrap(err, errs.CodeExecution, "failed to spawn command")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, errs.Wrap(err, errs.CodeExecution, "failed to spawn command")
	}
	if err := cmd.Start(); err != nil {
		return -1, errs.Wrapf(err, errs.CodeExecution, "failed to spawn command %q", command)
	}

	lines := make(chan string)
	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, "", lines, &wg)
	go scanLines(stderr, "[stderr] ", lines, &wg)
	go func() {
		wg.Wait()
		close(lines)
	}()

	streamLines(ctx, lines, emit)

	waitErr := cmd.Wait()
	if err := ctx.Err(); err != nil {
		return -1, errs.Cancelled(err)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, errs.Wrap(waitErr, errs.CodeExecution, "failed to wait for command")
	}
	return 0, nil
}

// streamLines forwards lines until the readers finish or ctx is cancelled.
// After cancellation the remaining lines are discarded so the scanners can
// exit once the pipes close.
func streamLines(ctx context.Context, lines <-chan string, emit progress.Emitter) {
	for {
		select {
		case <-ctx.Done():
			go func() {
				for range lines {
				}
			}()
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			emit.Emit(progress.Log{Line: line})
		}
	}
}

func scanLines(r io.Reader, prefix string, out chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- prefix + scanner.Text()
	}
}

var _ Runner = ShellRunner{}
