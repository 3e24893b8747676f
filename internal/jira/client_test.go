package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	c := NewClient(serverURL, "", "test-token")
	return c.WithRetryPolicy(2, time.Millisecond)
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://company.atlassian.net/", "me@example.com", "tok")

	if client.URL != "https://company.atlassian.net" {
		t.Errorf("URL = %q, want trailing slash trimmed", client.URL)
	}
	if client.Username != "me@example.com" {
		t.Errorf("Username = %q", client.Username)
	}
	if client.HTTPClient == nil {
		t.Error("HTTPClient is nil, want non-nil default client")
	}
}

func TestSetAuth(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		username string
		want     string
	}{
		{"cloud with username uses basic", "https://company.atlassian.net", "me@example.com", "Basic "},
		{"server without username uses bearer", "https://jira.corp.example.com", "", "Bearer "},
		{"self-hosted with username uses basic", "https://jira.corp.example.com", "me@example.com", "Basic "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.url, tt.username, "tok")
			req, _ := http.NewRequest("GET", tt.url, nil)
			c.setAuth(req)
			if got := req.Header.Get("Authorization"); !strings.HasPrefix(got, tt.want) {
				t.Errorf("Authorization = %q, want prefix %q", got, tt.want)
			}
		})
	}
}

func TestGetIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue/REL-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fields := r.URL.Query().Get("fields")
		if !strings.Contains(fields, "customfield_15850") {
			t.Errorf("fields %q missing permission field", fields)
		}
		_, _ = w.Write([]byte(`{
			"id": "10001",
			"key": "REL-1",
			"fields": {
				"summary": "Release scope",
				"issuetype": {"id": "1", "name": "REL-SCOPE"},
				"status": {"id": "3", "name": "In Progress"},
				"description": {"type": "doc", "version": 1, "content": []},
				"customfield_15850": {"value": "Allowed"}
			}
		}`))
	}))
	defer server.Close()

	issue, err := testClient(server.URL).GetIssue(context.Background(), "REL-1", "customfield_15850")
	if err != nil {
		t.Fatalf("GetIssue error: %v", err)
	}
	if issue.Key != "REL-1" {
		t.Errorf("Key = %q", issue.Key)
	}
	if issue.TypeName() != "REL-SCOPE" {
		t.Errorf("TypeName() = %q", issue.TypeName())
	}
	if issue.StatusName() != "In Progress" {
		t.Errorf("StatusName() = %q", issue.StatusName())
	}
	if v, ok := issue.Fields.CustomFieldValue("customfield_15850"); !ok || v != "Allowed" {
		t.Errorf("CustomFieldValue = %q, %v", v, ok)
	}
}

func TestGetIssueNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GetIssue(context.Background(), "REL-404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSearchIssuesPagination(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/search/jql" {
			t.Errorf("path = %q", r.URL.Path)
		}
		switch calls.Add(1) {
		case 1:
			if r.URL.Query().Get("nextPageToken") != "" {
				t.Error("first page should not send a token")
			}
			_, _ = w.Write([]byte(`{"issues":[{"key":"REL-1"}],"isLast":false,"nextPageToken":"tok-2"}`))
		default:
			if got := r.URL.Query().Get("nextPageToken"); got != "tok-2" {
				t.Errorf("nextPageToken = %q, want tok-2", got)
			}
			_, _ = w.Write([]byte(`{"issues":[{"key":"REL-2"}],"isLast":true}`))
		}
	}))
	defer server.Close()

	issues, err := testClient(server.URL).SearchIssues(context.Background(), `project = "REL"`)
	if err != nil {
		t.Fatalf("SearchIssues error: %v", err)
	}
	if len(issues) != 2 || issues[0].Key != "REL-1" || issues[1].Key != "REL-2" {
		t.Errorf("issues = %+v", issues)
	}
}

func TestScopeJQL(t *testing.T) {
	got := ScopeJQL("REL", "REL-SCOPE", "In Progress")
	want := `project = "REL" AND issuetype = "REL-SCOPE" AND status = "In Progress"`
	if got != want {
		t.Errorf("ScopeJQL = %q, want %q", got, want)
	}
}

func TestUpdateDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("method = %q, want PUT", r.Method)
		}
		if r.URL.Path != "/rest/api/3/issue/REL-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload struct {
			Fields struct {
				Description json.RawMessage `json:"description"`
			} `json:"fields"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if !strings.Contains(string(payload.Fields.Description), `"doc"`) {
			t.Errorf("description payload = %s", payload.Fields.Description)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	doc := map[string]interface{}{"type": "doc", "version": 1, "content": []interface{}{}}
	if err := testClient(server.URL).UpdateDescription(context.Background(), "REL-1", doc); err != nil {
		t.Fatalf("UpdateDescription error: %v", err)
	}
}

func TestResolveFieldName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/field" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id": "summary", "name": "Summary"},
			{"id": "customfield_15850", "name": "Scope Upserts"}
		]`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	name, err := client.ResolveFieldName(context.Background(), "customfield_15850")
	if err != nil {
		t.Fatalf("ResolveFieldName error: %v", err)
	}
	if name != "Scope Upserts" {
		t.Errorf("name = %q, want Scope Upserts", name)
	}

	// Unknown fields fall back to the id.
	name, err = client.ResolveFieldName(context.Background(), "customfield_99999")
	if err != nil {
		t.Fatalf("ResolveFieldName fallback error: %v", err)
	}
	if name != "customfield_99999" {
		t.Errorf("fallback name = %q", name)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"key": "REL-1", "fields": {}}`))
	}))
	defer server.Close()

	issue, err := testClient(server.URL).GetIssue(context.Background(), "REL-1")
	if err != nil {
		t.Fatalf("GetIssue after 429 error: %v", err)
	}
	if issue.Key != "REL-1" {
		t.Errorf("Key = %q", issue.Key)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["bad jql"]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).SearchIssues(context.Background(), "nonsense")
	if err == nil {
		t.Fatal("want error for 400")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status in message", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want no retries on 4xx", calls.Load())
	}
}

func TestMissingCredentials(t *testing.T) {
	c := NewClient("", "", "")
	if _, err := c.GetIssue(context.Background(), "REL-1"); err == nil {
		t.Error("want error when URL is not configured")
	}

	c = NewClient("https://example.com", "", "")
	if _, err := c.GetIssue(context.Background(), "REL-1"); err == nil {
		t.Error("want error when token is not configured")
	}
}
