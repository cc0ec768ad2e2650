// Package tempo uploads worklogs to Tempo, either through the Tempo REST 1.0
// plugin of a Jira Server instance or through the Tempo Cloud REST API.
package tempo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrLoginFailed is returned when Jira rejects the configured credentials.
var ErrLoginFailed = errors.New("tempo: login failed")

// maxErrorBody caps how much of a response body ends up in an APIError.
const maxErrorBody = 512

// Worklog is a single unit of time to record against a Jira issue.
type Worklog struct {
	Ticket      string
	Start       time.Time
	Duration    time.Duration
	Description string
}

// APIError is a response from Tempo or Jira that signals failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Sprintf("tempo API error %d (not authorized): %s", e.StatusCode, e.Message)
	case http.StatusNotFound:
		return fmt.Sprintf("tempo API error %d (issue not found): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tempo API error %d: %s", e.StatusCode, e.Message)
}

// Service creates worklogs and returns the identifier the remote assigned,
// which may be empty when the API does not report one.
type Service interface {
	CreateWorklog(ctx context.Context, w Worklog) (string, error)
}

// readBody reads and closes resp.Body, turning non-2xx statuses into an
// *APIError.
func readBody(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: truncate(string(body))}
	}
	return body, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	if s == "" {
		return "empty response"
	}
	return s
}
