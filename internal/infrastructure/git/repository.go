// Package git publishes artifact files by shelling out to the git CLI.
// Every command targets the artifact directory via "git -C <dir>".
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git working tree at a specific directory.
type Repository struct {
	dir     string
	binary  string
	redact  []string
	environ []string
}

// NewRepository returns a Repository targeting dir. Any string in redact is
// masked in error messages, so tokens embedded in remote URLs never leak.
func NewRepository(dir string, redact ...string) *Repository {
	return &Repository{
		dir:     dir,
		binary:  "git",
		redact:  nonEmpty(redact),
		environ: []string{"GIT_TERMINAL_PROMPT=0"},
	}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command and returns stdout. Stderr is captured and
// included in the error on non-zero exit.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, r.binary, fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	command.Env = append(command.Environ(), r.environ...)

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			r.mask(strings.Join(args, " ")), r.dir, err, r.mask(strings.TrimSpace(stderr.String())))
	}
	return stdout.String(), nil
}

func (r *Repository) mask(s string) string {
	for _, secret := range r.redact {
		s = strings.ReplaceAll(s, secret, "***")
	}
	return s
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
