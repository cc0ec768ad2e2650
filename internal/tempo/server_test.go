package tempo_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/tempoit/internal/tempo"
)

// fakeJira emulates the handful of Jira/Tempo endpoints the server client uses.
type fakeJira struct {
	mu       sync.Mutex
	password string
	forms    []map[string]string
	paths    []string
	reply    string
	status   int
}

const sessionCookie = "JSESSIONID"

func (f *fakeJira) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/gadget/1.0/login", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		ok := r.PostForm.Get("os_username") == "alice" && r.PostForm.Get("os_password") == f.password
		if ok {
			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "s3cr3t", Path: "/"})
		}
		fmt.Fprintf(w, `{"loginSucceeded":%t,"loginError":%t,"captchaFailure":false}`, ok, !ok)
	})
	mux.HandleFunc("/rest/tempo-rest/1.0/worklogs/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessionCookie); err != nil || c.Value != "s3cr3t" {
			http.Error(w, "not logged in", http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.paths = append(f.paths, r.URL.Path)
		if r.Method == http.MethodGet {
			fmt.Fprint(w, "1h 52m")
			return
		}
		assert.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		f.forms = append(f.forms, form)
		if f.status != 0 {
			w.WriteHeader(f.status)
		}
		fmt.Fprint(w, f.reply)
	})
	return mux
}

func newFakeJira(t *testing.T) (*fakeJira, *httptest.Server) {
	f := &fakeJira{
		password: "hunter2",
		reply:    `<worklog id="10452" valid="true"></worklog>`,
	}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return f, srv
}

func sampleWorklog() tempo.Worklog {
	return tempo.Worklog{
		Ticket:      "SE-1",
		Start:       time.Date(2026, 2, 27, 9, 0, 0, 0, time.Local),
		Duration:    8 * time.Minute,
		Description: "test description",
	}
}

func TestLoginFailure(t *testing.T) {
	_, srv := newFakeJira(t)

	_, err := tempo.Login(context.Background(), nil, srv.URL, "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, tempo.ErrLoginFailed)
}

func TestLoginHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := tempo.Login(context.Background(), nil, srv.URL, "alice", "hunter2")
	var apiErr *tempo.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestServerCreateWorklog(t *testing.T) {
	f, srv := newFakeJira(t)

	c, err := tempo.Login(context.Background(), nil, srv.URL+"/", "alice", "hunter2")
	require.NoError(t, err)

	id, err := c.CreateWorklog(context.Background(), sampleWorklog())
	require.NoError(t, err)
	assert.Equal(t, "10452", id)

	require.Len(t, f.paths, 2)
	assert.Equal(t, "/rest/tempo-rest/1.0/worklogs/remainingEstimate/calculate/SE-1/2026-02-27/2026-02-27/0h 8m", f.paths[0])
	assert.Equal(t, "/rest/tempo-rest/1.0/worklogs/SE-1", f.paths[1])

	require.Len(t, f.forms, 1)
	form := f.forms[0]
	assert.Equal(t, "logTime", form["actionType"])
	assert.Equal(t, "2026-02-27", form["ansidate"])
	assert.Equal(t, "alice", form["selectedUser"])
	assert.Equal(t, "0h 8m", form["time"])
	assert.Equal(t, "1h 52m", form["remainingEstimate"])
	assert.Equal(t, "test description", form["comment"])
}

func TestServerCreateWorklogInvalid(t *testing.T) {
	f, srv := newFakeJira(t)
	f.reply = `<worklog valid="false"><error>Issue does not exist</error></worklog>`

	c, err := tempo.Login(context.Background(), nil, srv.URL, "alice", "hunter2")
	require.NoError(t, err)

	_, err = c.CreateWorklog(context.Background(), sampleWorklog())
	var apiErr *tempo.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Contains(t, apiErr.Message, "Issue does not exist")
}

func TestServerCreateWorklogHTTPStatus(t *testing.T) {
	f, srv := newFakeJira(t)
	f.status = http.StatusNotFound
	f.reply = "no such issue"

	c, err := tempo.Login(context.Background(), nil, srv.URL, "alice", "hunter2")
	require.NoError(t, err)

	_, err = c.CreateWorklog(context.Background(), sampleWorklog())
	var apiErr *tempo.APIError
	require.True(t, errors.As(err, &apiErr), "got %v", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "issue not found")
}

func TestServerCreateWorklogWithoutID(t *testing.T) {
	f, srv := newFakeJira(t)
	f.reply = `<worklog valid="true"/>`

	c, err := tempo.Login(context.Background(), nil, srv.URL, "alice", "hunter2")
	require.NoError(t, err)

	id, err := c.CreateWorklog(context.Background(), sampleWorklog())
	require.NoError(t, err)
	assert.Empty(t, id)
}
