package jira

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the fields of a Jira issue. Custom fields are kept
// raw, keyed by field ID, so callers can read whichever customfield_* the
// instance uses for upsert permission.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"` // ADF (Atlassian Document Format)
	Status      *StatusField    `json:"status"`
	IssueType   *IssueTypeField `json:"issuetype"`

	Custom map[string]json.RawMessage `json:"-"`
}

// StatusField represents a Jira issue status.
type StatusField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueTypeField represents a Jira issue type.
type IssueTypeField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type fields IssueFields // shed the method to avoid recursion
	var known fields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	*f = IssueFields(known)

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if strings.HasPrefix(k, "customfield_") {
			if f.Custom == nil {
				f.Custom = make(map[string]json.RawMessage)
			}
			f.Custom[k] = v
		}
	}
	return nil
}

// StatusName returns the status display name, or "" when absent.
func (i *Issue) StatusName() string {
	if i.Fields.Status != nil {
		return i.Fields.Status.Name
	}
	return ""
}

// TypeName returns the issue type display name, or "" when absent.
func (i *Issue) TypeName() string {
	if i.Fields.IssueType != nil {
		return i.Fields.IssueType.Name
	}
	return ""
}

// CustomFieldValue resolves a custom field to its display string. Select
// list fields arrive as {"value": "..."} objects; plain fields as JSON
// strings. The second return is false when the field is absent or null.
func (f *IssueFields) CustomFieldValue(fieldID string) (string, bool) {
	raw, ok := f.Custom[fieldID]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return "", false
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			return obj.Value, true
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	return string(raw), true
}
