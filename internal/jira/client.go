// Package jira provides the HTTP client for the Jira Cloud REST API v3,
// covering the calls the release-scope commands need: fetch an issue,
// search by JQL, update a description, and resolve field metadata.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound is returned when Jira reports 404 for an issue key.
var ErrNotFound = errors.New("jira issue not found")

// issueFields is the default set of fields requested on get/search calls.
const issueFields = "issuetype,description,summary,status"

// Client provides HTTP access to a Jira instance.
type Client struct {
	URL        string
	Username   string
	APIToken   string
	HTTPClient *http.Client

	maxRetries    uint64
	retryInterval time.Duration
}

// NewClient creates a new Jira client.
func NewClient(url, username, apiToken string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries:    3,
		retryInterval: 500 * time.Millisecond,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.HTTPClient = hc
	return c
}

// WithRetryPolicy overrides the retry count and initial backoff interval
// used for rate-limited and server-error responses.
func (c *Client) WithRetryPolicy(maxRetries uint64, initial time.Duration) *Client {
	c.maxRetries = maxRetries
	c.retryInterval = initial
	return c
}

// GetIssue fetches a single issue by key (e.g. "REL-123"). Extra field IDs
// (such as a customfield_* permission field) are requested in addition to
// the defaults.
func (c *Client) GetIssue(ctx context.Context, key string, extraFields ...string) (*Issue, error) {
	fields := issueFields
	for _, f := range extraFields {
		if f != "" {
			fields += "," + f
		}
	}
	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s?fields=%s", c.URL, url.PathEscape(key), fields)

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}
	return &issue, nil
}

// searchPage is one page of an enhanced-search response.
type searchPage struct {
	Issues        []Issue `json:"issues"`
	IsLast        bool    `json:"isLast"`
	NextPageToken string  `json:"nextPageToken"`
}

// SearchIssues queries Jira using JQL and returns all matching issues,
// following nextPageToken pagination.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]Issue, error) {
	var allIssues []Issue
	pageToken := ""

	for {
		params := url.Values{
			"jql":        {jql},
			"fields":     {issueFields},
			"maxResults": {"100"},
		}
		if pageToken != "" {
			params.Set("nextPageToken", pageToken)
		}

		apiURL := fmt.Sprintf("%s/rest/api/3/search/jql?%s", c.URL, params.Encode())

		body, err := c.doRequest(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("search issues: %w", err)
		}

		var page searchPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parse search response: %w", err)
		}

		allIssues = append(allIssues, page.Issues...)

		if page.IsLast || page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return allIssues, nil
}

// ScopeJQL builds the JQL filter for release-scope lookups.
func ScopeJQL(project, issueType, state string) string {
	return fmt.Sprintf("project = %q AND issuetype = %q AND status = %q", project, issueType, state)
}

// UpdateDescription replaces an issue's description with the given ADF
// document.
func (c *Client) UpdateDescription(ctx context.Context, key string, description interface{}) error {
	payload := map[string]interface{}{
		"fields": map[string]interface{}{"description": description},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/rest/api/3/issue/%s", c.URL, url.PathEscape(key))

	if _, err := c.doRequest(ctx, "PUT", apiURL, data); err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// ResolveFieldName returns the display name for a field ID from the field
// metadata endpoint. Field IDs are stable; display names are not, so the
// name is only ever used in diagnostics. The ID itself is returned when
// the field is not listed.
func (c *Client) ResolveFieldName(ctx context.Context, fieldID string) (string, error) {
	apiURL := fmt.Sprintf("%s/rest/api/3/field", c.URL)

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch field metadata: %w", err)
	}

	var fields []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("parse field metadata: %w", err)
	}

	for _, f := range fields {
		if f.ID == fieldID {
			return f.Name, nil
		}
	}
	return fieldID, nil
}

// doRequest executes an authenticated HTTP request and returns the
// response body. Rate-limited (429) and server-error (5xx) responses are
// retried with exponential backoff; everything else is terminal.
func (c *Client) doRequest(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval

	var respBody []byte
	op := func() error {
		var err error
		respBody, err = c.attempt(ctx, method, apiURL, body)
		return err
	}

	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(bo, ctx), c.maxRetries))
	return respBody, err
}

// retryableError marks responses worth retrying.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) attempt(ctx context.Context, method, apiURL string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "relscope/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &retryableError{err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		// PUT returns 204 No Content on success
		return nil, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &retryableError{fmt.Errorf("jira API returned %d: %s", resp.StatusCode, truncate(respBody, 500))}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("jira API returned %d: %s", resp.StatusCode, truncate(respBody, 500)))
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// setAuth sets the appropriate authentication header on the request.
// Jira Cloud wants basic auth (email:token); Server/DC installs take a
// bearer token.
func (c *Client) setAuth(req *http.Request) {
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}
}
