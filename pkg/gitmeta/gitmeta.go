// Package gitmeta resolves repository metadata for a file by shelling out to
// git. Every lookup degrades to a zero value when the file is not in a
// repository or git is unavailable; callers never see an error.
package gitmeta

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Provider answers repository metadata questions for filenames.
type Provider struct {
	log zerolog.Logger
}

// New creates a metadata provider.
func New(log zerolog.Logger) *Provider {
	return &Provider{log: log}
}

// RepoContributorCount returns the number of distinct commit authors in the
// repository containing filename, or 0.
func (p *Provider) RepoContributorCount(filename string) int {
	out, err := gitCommand(filepath.Dir(filename), "log", "--format=%ae")
	if err != nil {
		return 0
	}
	return countUniqueLines(out)
}

// RepoFileCount returns the number of tracked files in the repository
// containing filename, or 0.
func (p *Provider) RepoFileCount(filename string) int {
	out, err := gitCommand(filepath.Dir(filename), "ls-files")
	if err != nil {
		return 0
	}
	return countLines(out)
}

// FileContributorCount returns the number of distinct commit authors that
// touched filename, or 0.
func (p *Provider) FileContributorCount(filename string) int {
	out, err := gitCommand(filepath.Dir(filename), "log", "--format=%ae", "--", filepath.Base(filename))
	if err != nil {
		return 0
	}
	return countUniqueLines(out)
}

// FileAgeDays returns the age of the file in days based on filesystem
// metadata, or 0 when the file cannot be inspected.
func (p *Provider) FileAgeDays(filename string) float64 {
	fi, err := os.Stat(filename)
	if err != nil {
		p.log.Debug().Str("file", filename).Err(err).Msg("file age lookup failed")
		return 0
	}
	age := time.Since(fi.ModTime())
	if age < 0 {
		return 0
	}
	return age.Hours() / 24
}

// gitCommand runs a git command in the specified directory
func gitCommand(cwd string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = cwd

	output, err := cmd.Output()
	if err != nil {
		return "", err
	}

	return string(output), nil
}

func countLines(out string) int {
	count := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

func countUniqueLines(out string) int {
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			seen[line] = true
		}
	}
	return len(seen)
}
