package tempo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Tiliavir/tempoit/internal/logging"
	"github.com/Tiliavir/tempoit/internal/timecalc"
)

const (
	loginEndpoint    = "/rest/gadget/1.0/login"
	worklogsEndpoint = "/rest/tempo-rest/1.0/worklogs/"
)

// worklogIDPattern picks the worklog id out of a Tempo REST 1.0 response.
var worklogIDPattern = regexp.MustCompile(`\bid="([^"]+)"`)

// ServerClient is a logged-in session against a Jira Server instance with the
// Tempo plugin installed.
type ServerClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	logger     *logrus.Entry
}

type loginResponse struct {
	LoginSucceeded bool `json:"loginSucceeded"`
	LoginError     bool `json:"loginError"`
	CaptchaFailure bool `json:"captchaFailure"`
}

// Login opens a cookie session on the Jira instance at baseURL. The
// httpClient's Jar is replaced; pass nil to use a fresh default client.
func Login(ctx context.Context, httpClient *http.Client, baseURL, username, password string) (*ServerClient, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	httpClient.Jar = jar

	c := &ServerClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		logger:     logging.NewLogger("tempo-server"),
	}

	form := url.Values{
		"os_username": {username},
		"os_password": {password},
	}
	body, err := c.postForm(ctx, c.baseURL+loginEndpoint, form)
	if err != nil {
		return nil, fmt.Errorf("logging in to %s: %w", c.baseURL, err)
	}

	var data loginResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decoding login response: %w", err)
	}
	if !data.LoginSucceeded {
		if data.CaptchaFailure {
			return nil, fmt.Errorf("%w: captcha required, log in through the browser once", ErrLoginFailed)
		}
		return nil, fmt.Errorf("%w for user %q", ErrLoginFailed, username)
	}
	c.logger.WithField("user", username).Debug("logged in")
	return c, nil
}

// CreateWorklog logs time against an issue. Tempo only updates the remaining
// estimate when it is sent along, so it is computed first.
// This is not idempotent: calling it twice records the time twice.
func (c *ServerClient) CreateWorklog(ctx context.Context, w Worklog) (string, error) {
	estimate, err := c.remainingEstimate(ctx, w)
	if err != nil {
		return "", fmt.Errorf("calculating remaining estimate for %s: %w", w.Ticket, err)
	}

	form := url.Values{
		"actionType":        {"logTime"},
		"ansidate":          {timecalc.LocalDate(w.Start)},
		"selectedUser":      {c.username},
		"time":              {timecalc.FormatJira(w.Duration)},
		"remainingEstimate": {estimate},
		"comment":           {w.Description},
	}
	body, err := c.postForm(ctx, c.baseURL+worklogsEndpoint+url.PathEscape(w.Ticket), form)
	if err != nil {
		return "", err
	}

	text := string(body)
	if !strings.Contains(text, `valid="true"`) {
		return "", &APIError{StatusCode: http.StatusOK, Message: truncate(text)}
	}
	if m := worklogIDPattern.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	return "", nil
}

// remainingEstimate asks Tempo what the issue's remaining estimate will be
// once w is logged.
func (c *ServerClient) remainingEstimate(ctx context.Context, w Worklog) (string, error) {
	date := timecalc.LocalDate(w.Start)
	endpoint := fmt.Sprintf("%s%sremainingEstimate/calculate/%s/%s/%s/%s?username=%s",
		c.baseURL,
		worklogsEndpoint,
		url.PathEscape(w.Ticket),
		date,
		date,
		url.PathEscape(timecalc.FormatJira(w.Duration)),
		url.QueryEscape(c.username),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *ServerClient) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// Jira rejects form posts without this header as XSRF attempts.
	req.Header.Set("X-Atlassian-Token", "no-check")
	return c.do(req)
}

func (c *ServerClient) do(req *http.Request) ([]byte, error) {
	c.logger.WithFields(logrus.Fields{"method": req.Method, "url": req.URL.Path}).Debug("request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tempo request failed: %w", err)
	}
	return readBody(resp)
}
