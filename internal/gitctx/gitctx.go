package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultDiffFilter selects added, copied, and modified files.
const DefaultDiffFilter = "ACM"

// DefaultBranch compares against the current commit.
const DefaultBranch = "HEAD"

// Client runs git in Dir, or the working directory when Dir is empty.
type Client struct {
	Dir string
}

// RepoRoot returns the absolute path of the repository's top-level directory.
func (c Client) RepoRoot(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", errors.New("git rev-parse --show-toplevel returned no path")
	}
	return root, nil
}

// GitDir returns the repository's git directory (usually .git).
func (c Client) GitDir(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	dir := strings.TrimSpace(out)
	if !filepath.IsAbs(dir) && c.Dir != "" {
		dir = filepath.Join(c.Dir, dir)
	}
	return dir, nil
}

// ChangedFiles lists the files that differ from branch, filtered by
// diffFilter, as absolute paths under root.
func (c Client) ChangedFiles(ctx context.Context, root, branch, diffFilter string) ([]string, error) {
	if branch == "" {
		branch = DefaultBranch
	}
	if diffFilter == "" {
		diffFilter = DefaultDiffFilter
	}
	// Unquoted so non-ASCII names come back as the bytes on disk.
	out, err := c.output(ctx, "-c", "core.quotePath=false", "diff", branch, "--name-only", "--diff-filter="+diffFilter)
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", branch, err)
	}
	return ParseNameOnly(out, root), nil
}

// ParseNameOnly splits `git diff --name-only` output into absolute paths,
// dropping blank lines.
func ParseNameOnly(out, root string) []string {
	files := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		files = append(files, filepath.Join(root, line))
	}
	return files
}

func (c Client) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
