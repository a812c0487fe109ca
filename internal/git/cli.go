package git

import (
	"context"

	"github.com/NicabarNimble/go-gitsync/internal/errors"
	"github.com/NicabarNimble/go-gitsync/internal/gitconfig"
	"github.com/NicabarNimble/go-gitsync/internal/process"
	"k8s.io/klog/v2"
)

// CLI synchronizes by running the git executable.
type CLI struct {
	Git    string
	Runner process.Runner
}

// NewCLI returns a CLI backend running git, or "git" from PATH when empty.
func NewCLI(git string, runner process.Runner) *CLI {
	if git == "" {
		git = "git"
	}
	if runner == nil {
		runner = process.NewExecRunner()
	}
	return &CLI{Git: git, Runner: runner}
}

func (c *CLI) Name() string { return BackendCLI }

// Retrieve runs, in order, `fetch origin` or `clone`, `checkout --force` and
// `reset --hard`. The first failing command stops the sequence.
func (c *CLI) Retrieve(ctx context.Context, req Request) error {
	dst := req.Destination
	parent, err := prepareParent(dst)
	if err != nil {
		return err
	}
	exists, err := destinationExists(dst)
	if err != nil {
		return err
	}

	if exists {
		if err := c.run(ctx, dst, "fetch", "origin"); err != nil {
			return err
		}
	} else {
		if err := c.run(ctx, parent, "clone", req.URL, dst); err != nil {
			return err
		}
	}

	rev := req.Revision
	if rev == "" {
		rev = "HEAD"
	}
	if err := c.run(ctx, dst, "checkout", "--force", rev); err != nil {
		return err
	}
	target, err := c.resetTarget(ctx, dst, rev)
	if err != nil {
		return err
	}
	return c.run(ctx, dst, "reset", "--hard", target)
}

// resetTarget is origin/<rev> when rev names a remote branch, rev otherwise.
func (c *CLI) resetTarget(ctx context.Context, dir, rev string) (string, error) {
	remote := "origin/" + rev
	_, err := c.Runner.Run(ctx, dir, c.Git, "rev-parse", "--verify", "--quiet", remote)
	switch {
	case err == nil:
		return remote, nil
	case errors.IsKind(err, errors.ProcessExit):
		klog.V(2).Infof("%s is not a remote branch, resetting to %s", remote, rev)
		return rev, nil
	}
	return "", errors.New("cli.rev-parse", err)
}

func (c *CLI) run(ctx context.Context, dir string, args ...string) error {
	if _, err := c.Runner.Run(ctx, dir, c.Git, args...); err != nil {
		return errors.New("cli."+args[0], err)
	}
	return nil
}

// FindCmdTool looks the tool up with `git config`.
func (c *CLI) FindCmdTool(ctx context.Context, kind string) (string, error) {
	return gitconfig.FindCmdTool(ctx, &gitconfig.CLIGetter{Runner: c.Runner, Git: c.Git}, kind)
}
