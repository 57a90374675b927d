package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/iamthetwodigiter/rusty-rebase/internal/errs"
	"github.com/iamthetwodigiter/rusty-rebase/internal/logx"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

const (
	minChunkSize = 512
	maxChunkSize = 4 << 20
)

// Validate runs all validations and returns structured results.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateHTTP()...)
	results = append(results, c.validateDownload()...)
	results = append(results, c.validateLogLevel()...)
	return results
}

// Err joins every error-level finding into a single CONFIG error, or returns nil.
func (c Config) Err() error {
	var problems []error
	for _, r := range c.Validate() {
		if r.Level == "error" {
			problems = append(problems, errors.New(r.Message))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return errs.Wrap(errors.Join(problems...), errs.CodeConfig, "invalid configuration")
}

func (c Config) validateHTTP() []ValidationResult {
	var results []ValidationResult
	if c.HTTPTimeout.Duration < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("http_timeout must be positive, got %s", c.HTTPTimeout.Duration),
		})
	}
	if c.GitHubAPI != "" {
		u, err := url.Parse(c.GitHubAPI)
		if err != nil || u.Scheme == "" || u.Host == "" {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("github_api %q is not an absolute URL", c.GitHubAPI),
			})
		} else if u.Scheme != "https" {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("github_api %q does not use https", c.GitHubAPI),
			})
		}
	}
	return results
}

func (c Config) validateDownload() []ValidationResult {
	size := c.ChunkSize
	if size < minChunkSize || size > maxChunkSize {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("chunk_size must be between %d and %d bytes, got %d", minChunkSize, maxChunkSize, size),
		}}
	}
	return nil
}

func (c Config) validateLogLevel() []ValidationResult {
	if _, err := logx.ParseLevel(c.LogLevel); err != nil {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("log_level %q is not a known level", strings.TrimSpace(c.LogLevel)),
		}}
	}
	return nil
}
