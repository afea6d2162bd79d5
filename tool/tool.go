// Package tool drives the external text gather/compile tool. The tool is a
// black box: it is handed a semicolon-joined list of localization config
// files plus flags, and reports success or failure through its exit code.
package tool

import (
	"context"
	"os"
	"os/exec"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("tool")

// Options describe one tool invocation.
type Options struct {
	// Binary is the tool executable path.
	Binary string
	// ProjectFile is the optional project file passed as the first argument.
	ProjectFile string
	// ConfigFiles is the ordered list of step config files; joined with
	// semicolons on the command line.
	ConfigFiles []string

	// EnableSCC attaches the tool to version control so that files it
	// rewrites are checked out into the pending change.
	EnableSCC   bool
	SCCProvider string
	SCCArgs     []string

	// Unattended suppresses all interactive prompts.
	Unattended bool
	// LogConflicts asks the tool to write a gather-conflict report.
	LogConflicts bool
	// MultiProcess enables the tool's own cross-process coordination; set
	// when several invocations run concurrently.
	MultiProcess bool

	ExtraArgs []string
}

// Args builds the tool command line.
func (o Options) Args() []string {
	var args []string
	if o.ProjectFile != "" {
		args = append(args, o.ProjectFile)
	}
	args = append(args, "-run=GatherText")
	args = append(args, "-config="+strings.Join(o.ConfigFiles, ";"))
	if o.EnableSCC {
		args = append(args, "-EnableSCC", "-SCCProvider="+o.SCCProvider)
		args = append(args, o.SCCArgs...)
	} else {
		args = append(args, "-DisableSCCSubmit")
	}
	if o.Unattended {
		args = append(args, "-Unattended")
	}
	if o.LogConflicts {
		args = append(args, "-LogLocalizationConflicts")
	}
	if o.MultiProcess {
		args = append(args, "-MultiProcess")
	}
	args = append(args, o.ExtraArgs...)
	return args
}

// Proc is a launched tool invocation. Wait is idempotent, so the scheduler
// can wait inline in sequential mode and still run the common wait-all pass
// afterwards.
type Proc interface {
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
	// Release frees the OS process handle. Safe to call more than once.
	Release()
}

// Launcher starts tool invocations. The scheduler depends on this interface
// so tests can substitute a fake.
type Launcher interface {
	Launch(ctx context.Context, workDir string, opts Options) (Proc, error)
}

// CommandLauncher launches the real tool via exec.
type CommandLauncher struct{}

func (CommandLauncher) Launch(ctx context.Context, workDir string, opts Options) (Proc, error) {
	args := opts.Args()
	log.Infow("launching gather tool", "binary", opts.Binary, "args", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, opts.Binary, args...)
	cmd.Dir = workDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, xerrors.Errorf("starting %s: %w", opts.Binary, err)
	}
	return &proc{cmd: cmd}, nil
}

type proc struct {
	cmd      *exec.Cmd
	waited   bool
	exitCode int
	waitErr  error
	released bool
}

func (p *proc) Wait() (int, error) {
	if p.waited {
		return p.exitCode, p.waitErr
	}
	p.waited = true

	err := p.cmd.Wait()
	if err == nil {
		p.exitCode = 0
		return 0, nil
	}
	var exitErr *exec.ExitError
	if xerrors.As(err, &exitErr) {
		p.exitCode = exitErr.ExitCode()
		return p.exitCode, nil
	}
	p.exitCode = -1
	p.waitErr = err
	return -1, err
}

func (p *proc) Release() {
	if p.released {
		return
	}
	p.released = true
	if !p.waited && p.cmd.Process != nil {
		// Should not happen: the scheduler always waits before release. Make
		// sure we never leak a running child regardless.
		_ = p.cmd.Process.Release()
	}
}
