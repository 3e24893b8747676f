package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relscope/relscope/internal/actions"
	"github.com/relscope/relscope/internal/adf"
	"github.com/relscope/relscope/internal/config"
	"github.com/relscope/relscope/internal/jira"
	"github.com/relscope/relscope/internal/scope"
)

// reportFailure writes a failure everywhere the workflow can see it —
// the error_message output, an ::error:: annotation, and the step
// summary — without terminating.
func reportFailure(msg string) {
	actions.SetOutput("error_message", msg)
	actions.ErrorAnnotation(msg)
	actions.AppendSummary("**ERROR:** " + msg)
}

// die reports a fatal command error and exits 1. With --json the error is
// the invocation's single JSON document (on stderr); otherwise it is
// printed plainly.
func die(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	reportFailure(msg)
	if jsonOutput {
		outputJSONError(errors.New(msg), "")
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}

// loadClient loads configuration, validates the Jira credentials, and
// returns a ready client.
func loadClient() (*config.Config, *jira.Client) {
	cfg, err := config.Load()
	if err != nil {
		die("loading configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		die("%v", err)
	}
	return cfg, jira.NewClient(cfg.BaseURL, cfg.Email, cfg.APIToken)
}

// flagOr returns the string flag's value, falling back to the configured
// value when the flag was left empty. Flags beat env which beats config
// file.
func flagOr(cmd *cobra.Command, name, fallback string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return fallback
}

func blockedStatusList(cmd *cobra.Command, cfg *config.Config) []string {
	if raw, _ := cmd.Flags().GetString("blocked-statuses"); raw != "" {
		return config.ParseBlockedStatuses(raw)
	}
	return cfg.BlockedStatuses
}

// fetchSnapshot pulls the issue fresh and flattens the pieces the
// prerequisite checks need. snap.Table is nil when the description has no
// table; that is not an error here.
func fetchSnapshot(ctx context.Context, client *jira.Client, key, permField string) (*jira.Issue, *adf.Node, scope.Snapshot) {
	var (
		issue *jira.Issue
		err   error
	)
	if permField != "" {
		issue, err = client.GetIssue(ctx, key, permField)
	} else {
		issue, err = client.GetIssue(ctx, key)
	}
	if err != nil {
		die("fetching issue %s: %v", key, err)
	}

	doc, err := adf.Parse(issue.Fields.Description)
	if err != nil {
		die("parsing description of %s: %v", key, err)
	}

	table, err := scope.Decode(doc)
	if err != nil && !errors.Is(err, scope.ErrNoTableFound) {
		die("reading release-scope table in %s: %v", key, err)
	}

	snap := scope.Snapshot{
		Key:     issue.Key,
		Type:    issue.TypeName(),
		Summary: strings.TrimSpace(issue.Fields.Summary),
		Status:  issue.StatusName(),
		Table:   table,
	}
	if permField != "" {
		snap.PermissionValue, snap.PermissionSet = issue.Fields.CustomFieldValue(permField)
	}
	return issue, doc, snap
}

// resolveFieldName fetches the display name of a custom field for
// diagnostics. Falls back to the raw field id when the metadata call
// fails; the name never affects any check.
func resolveFieldName(ctx context.Context, client *jira.Client, fieldID string) string {
	name, err := client.ResolveFieldName(ctx, fieldID)
	if err != nil {
		return fieldID
	}
	return name
}

// writeGuardOutputs writes the per-check workflow outputs derived from the
// guard verdict.
func writeGuardOutputs(res scope.GuardResult) {
	correctType := true
	permitted := true
	statusOK := true
	for _, v := range res.Violations {
		switch v.Kind {
		case scope.WrongIssueType:
			correctType = false
		case scope.UpsertNotPermitted:
			permitted = false
		case scope.BlockedByStatus:
			statusOK = false
		}
	}
	actions.SetOutputBool("is_correct_type", correctType)
	actions.SetOutputBool("upsert_permission_allowed", permitted)
	actions.SetOutputBool("status_allows_upsert", statusOK)
}
