// Package fetcher clones source repositories and enumerates their
// analyzable files. Clones are shallow and land under a per-job
// directory inside the configured work dir; removal clears read-only
// bits first so version-control metadata does not survive deletion.
package fetcher

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CloneError wraps a failed clone with the raw git output for logs.
type CloneError struct {
	Message string
	Err     error
}

func (e *CloneError) Error() string {
	return e.Message
}

func (e *CloneError) Unwrap() error {
	return e.Err
}

// Fetcher clones repositories and reads their files.
type Fetcher struct {
	workDir      string
	cloneTimeout time.Duration
	allowedExts  map[string]bool
	skipDirs     map[string]bool
}

// New creates a Fetcher. allowedExts entries are lowercased extensions
// with a leading dot; skipDirs are directory basenames pruned during
// enumeration.
func New(workDir string, cloneTimeout time.Duration, allowedExts, skipDirs []string) *Fetcher {
	f := &Fetcher{
		workDir:      workDir,
		cloneTimeout: cloneTimeout,
		allowedExts:  make(map[string]bool, len(allowedExts)),
		skipDirs:     make(map[string]bool, len(skipDirs)),
	}
	for _, ext := range allowedExts {
		f.allowedExts[strings.ToLower(ext)] = true
	}
	for _, dir := range skipDirs {
		f.skipDirs[dir] = true
	}
	return f
}

// Path returns the clone directory for a job id.
func (f *Fetcher) Path(jobID uint) string {
	return filepath.Join(f.workDir, fmt.Sprintf("%d", jobID))
}

// Clone performs a shallow clone of repoURL into the job's directory,
// removing any leftover directory from a previous run first. branch may
// be empty for the repository default.
func (f *Fetcher) Clone(ctx context.Context, repoURL string, jobID uint, branch string) (string, error) {
	dest := f.Path(jobID)

	if err := f.Remove(dest); err != nil {
		return "", &CloneError{
			Message: "failed to prepare clone directory",
			Err:     err,
		}
	}
	if err := os.MkdirAll(f.workDir, 0755); err != nil {
		return "", &CloneError{
			Message: "failed to prepare clone directory",
			Err:     err,
		}
	}

	timeout := f.cloneTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cloneCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, repoURL, dest)

	cmd := exec.CommandContext(cloneCtx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	output, err := cmd.CombinedOutput()
	if err != nil {
		// Remove the partial clone before reporting.
		_ = f.Remove(dest)
		return "", &CloneError{
			Message: "failed to clone repository",
			Err:     fmt.Errorf("%w, output: %s", err, strings.TrimSpace(string(output))),
		}
	}

	return dest, nil
}

// Remove deletes a clone directory recursively. Version-control metadata
// is often read-only, so permissions are widened before deletion. A
// missing directory is not an error.
func (f *Fetcher) Remove(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	// Best effort: make everything writable so RemoveAll succeeds on
	// read-only .git object files.
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = os.Chmod(p, 0755)
		} else {
			_ = os.Chmod(p, 0644)
		}
		return nil
	})

	return os.RemoveAll(path)
}

// ValidateRepoURL checks that the locator looks like a clonable
// repository address: https://host/owner/repo or git@host:owner/repo.
func ValidateRepoURL(repoURL string) error {
	if repoURL == "" {
		return fmt.Errorf("repository URL cannot be empty")
	}

	if strings.HasPrefix(repoURL, "git@") {
		if !strings.Contains(repoURL, ":") {
			return fmt.Errorf("invalid ssh repository URL")
		}
		return nil
	}

	if !strings.HasPrefix(repoURL, "https://") {
		return fmt.Errorf("repository URL must start with https:// or git@")
	}

	u, err := url.Parse(repoURL)
	if err != nil {
		return fmt.Errorf("invalid repository URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("repository URL is missing a host")
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("repository URL must include owner and repository name")
	}

	return nil
}
