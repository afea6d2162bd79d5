package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/multierr"
	"golang.org/x/xerrors"
)

var log = logging.Logger("vcs")

// Perforce talks to a Perforce server through the p4 command-line client.
type Perforce struct {
	// Port is the P4PORT server address. Empty values fall back to the
	// client's own environment.
	Port   string
	Client string
	User   string
	// Branch is the depot path prefix that relative path patterns are
	// resolved against, e.g. //depot/main.
	Branch string
}

var _ Provider = (*Perforce)(nil)

var changeCreatedRe = regexp.MustCompile(`Change (\d+) created`)
var changeSubmittedRe = regexp.MustCompile(`Change (\d+) submitted`)

func (p *Perforce) baseArgs() []string {
	var args []string
	if p.Port != "" {
		args = append(args, "-p", p.Port)
	}
	if p.Client != "" {
		args = append(args, "-c", p.Client)
	}
	if p.User != "" {
		args = append(args, "-u", p.User)
	}
	return args
}

// depotPattern resolves a branch-relative forward-slash pattern to a depot
// path pattern.
func (p *Perforce) depotPattern(pattern string) string {
	if strings.HasPrefix(pattern, "//") {
		return pattern
	}
	return strings.TrimSuffix(p.Branch, "/") + "/" + strings.TrimPrefix(pattern, "/")
}

func (p *Perforce) run(ctx context.Context, stdin string, args ...string) (string, error) {
	full := append(p.baseArgs(), args...)
	log.Debugf("p4 %s", strings.Join(full, " "))

	cmd := exec.CommandContext(ctx, "p4", full...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	if err := cmd.Run(); err != nil {
		return out.String(), xerrors.Errorf("p4 %s: %w: %s", args[0], err, strings.TrimSpace(errb.String()))
	}
	return out.String(), nil
}

func (p *Perforce) CreateChange(ctx context.Context, description string) (string, error) {
	spec := fmt.Sprintf("Change: new\n\nDescription:\n\t%s\n", strings.ReplaceAll(description, "\n", "\n\t"))
	out, err := p.run(ctx, spec, "change", "-i")
	if err != nil {
		return "", err
	}
	m := changeCreatedRe.FindStringSubmatch(out)
	if m == nil {
		return "", xerrors.Errorf("p4 change -i: no change id in output %q", strings.TrimSpace(out))
	}
	log.Infof("created pending changelist %s", m[1])
	return m[1], nil
}

func (p *Perforce) Sync(ctx context.Context, pattern string) error {
	_, err := p.run(ctx, "", "sync", p.depotPattern(pattern))
	return err
}

func (p *Perforce) PreviewSync(ctx context.Context, pattern string) ([]string, error) {
	out, err := p.run(ctx, "", "sync", "-n", p.depotPattern(pattern))
	if err != nil {
		// p4 sync -n errors when nothing matches; treat as up to date.
		if strings.Contains(out, "up-to-date") || strings.Contains(err.Error(), "no such file") {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.Contains(line, "up-to-date") {
			files = append(files, line)
		}
	}
	return files, nil
}

func (p *Perforce) Edit(ctx context.Context, change, pattern string) error {
	_, err := p.run(ctx, "", "edit", "-c", change, p.depotPattern(pattern))
	return err
}

func (p *Perforce) Revert(ctx context.Context, change, pattern string) error {
	_, err := p.run(ctx, "", "revert", "-c", change, p.depotPattern(pattern))
	return err
}

func (p *Perforce) RevertFiles(ctx context.Context, change string, files []string) error {
	// p4 command lines have a length limit; revert in chunks, and keep going
	// past a failed chunk so one bad path doesn't leave everything opened.
	const chunk = 32
	var errs []error
	for len(files) > 0 {
		n := min(chunk, len(files))
		args := append([]string{"revert", "-c", change}, files[:n]...)
		if _, err := p.run(ctx, "", args...); err != nil {
			errs = append(errs, err)
		}
		files = files[n:]
	}
	return multierr.Combine(errs...)
}

func (p *Perforce) RevertUnchanged(ctx context.Context, change string) error {
	_, err := p.run(ctx, "", "revert", "-a", "-c", change)
	return err
}

func (p *Perforce) Submit(ctx context.Context, change string) (string, error) {
	out, err := p.run(ctx, "", "submit", "-c", change)
	if err != nil {
		if strings.Contains(out, "No files to submit") {
			log.Infof("changelist %s is empty, nothing to submit", change)
			return "", nil
		}
		return "", err
	}
	if m := changeSubmittedRe.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	return change, nil
}

func (p *Perforce) DeleteChange(ctx context.Context, change string) error {
	_, err := p.run(ctx, "", "change", "-d", change)
	return err
}
