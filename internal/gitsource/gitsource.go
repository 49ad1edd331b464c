// Package gitsource keeps a local checkout of a remote fixture pack in step
// with its git repository.
package gitsource

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// IsRemote reports whether the given fixture location looks like a git URL
// rather than a local directory.
func IsRemote(path string) bool {
	return strings.HasSuffix(path, ".git") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://")
}

// Sync clones the fixture pack repository if it doesn't exist at localPath,
// or pulls the latest changes if it does.
func Sync(repoURL, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("cloning fixture pack", "url", repoURL, "path", localPath)
		_, err := git.PlainClone(localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: os.Stdout,
		})
		if err != nil {
			return fmt.Errorf("failed to clone fixture pack %s: %w", repoURL, err)
		}
	case err == nil:
		slog.Info("pulling fixture pack", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open fixture pack at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree at %s: %w", localPath, err)
		}
		err = worktree.Pull(&git.PullOptions{RemoteName: "origin", Progress: os.Stdout})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return fmt.Errorf("failed to pull fixture pack at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking fixture path %s: %w", localPath, err)
	}

	return nil
}

// LocalPathFor maps a fixture pack URL to a stable checkout directory under
// baseDir. Handles https URLs and git@host:path SSH remotes.
func LocalPathFor(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse fixture pack URL: %s", repoURL)
	}

	sanitized := strings.TrimSuffix(parsed.Path, ".git")
	return filepath.Join(baseDir, parsed.Host, sanitized), nil
}
