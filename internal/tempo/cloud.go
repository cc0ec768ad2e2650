package tempo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/tempoit/internal/logging"
	"github.com/Tiliavir/tempoit/internal/timecalc"
)

// DefaultCloudURL is the Tempo Cloud API root.
const DefaultCloudURL = "https://api.tempo.io"

const cloudWorklogsEndpoint = "/core/3/worklogs"

// CloudClient talks to the Tempo Cloud REST API with a personal API token.
type CloudClient struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	logger     *logrus.Entry
}

type cloudWorklogRequest struct {
	IssueKey         string `json:"issueKey"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	Description      string `json:"description"`
	AuthorAccountID  string `json:"authorAccountId"`
}

type cloudWorklogResponse struct {
	TempoWorklogID int64 `json:"tempoWorklogId"`
}

type cloudErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NewCloudClient returns a client authenticating every request with token as
// a bearer credential. Worklogs are recorded for the Atlassian account
// accountID.
func NewCloudClient(ctx context.Context, baseURL, token, accountID string, timeout time.Duration) *CloudClient {
	if baseURL == "" {
		baseURL = DefaultCloudURL
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = timeout
	return &CloudClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountID:  accountID,
		logger:     logging.NewLogger("tempo-cloud"),
	}
}

// CreateWorklog records w and returns the Tempo worklog id.
func (c *CloudClient) CreateWorklog(ctx context.Context, w Worklog) (string, error) {
	start := w.Start.Local()
	payload := cloudWorklogRequest{
		IssueKey:         w.Ticket,
		TimeSpentSeconds: timecalc.RoundMinutes(w.Duration) * 60,
		StartDate:        start.Format(timecalc.DateLayout),
		StartTime:        start.Format("15:04:05"),
		Description:      w.Description,
		AuthorAccountID:  c.accountID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding worklog: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+cloudWorklogsEndpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{"issue": w.Ticket, "seconds": payload.TimeSpentSeconds}).Debug("creating worklog")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("tempo request failed: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return "", cloudError(err)
	}

	// The worklog exists once Tempo answered 2xx; an unreadable body only
	// costs the remote id.
	var created cloudWorklogResponse
	if err := json.Unmarshal(body, &created); err != nil {
		c.logger.WithError(err).WithField("issue", w.Ticket).Debug("worklog created, response not decodable")
		return "", nil
	}
	if created.TempoWorklogID == 0 {
		return "", nil
	}
	return strconv.FormatInt(created.TempoWorklogID, 10), nil
}

// cloudError replaces the raw JSON body of an APIError with the messages
// Tempo Cloud reports.
func cloudError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	var parsed cloudErrorResponse
	if json.Unmarshal([]byte(apiErr.Message), &parsed) != nil || len(parsed.Errors) == 0 {
		return err
	}
	msgs := make([]string, 0, len(parsed.Errors))
	for _, e := range parsed.Errors {
		msgs = append(msgs, e.Message)
	}
	return &APIError{StatusCode: apiErr.StatusCode, Message: strings.Join(msgs, "; ")}
}
