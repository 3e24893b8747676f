package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relscope/relscope/internal/actions"
	"github.com/relscope/relscope/internal/adf"
	"github.com/relscope/relscope/internal/jira"
	"github.com/relscope/relscope/internal/scope"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Find the REL-SCOPE ticket and verify a component's branch",
	Long: `Search a project for REL-SCOPE tickets in a given state, require exactly
one match, and verify that its release-scope table maps the component to
the expected release branch. Nothing is modified.

Examples:
  relscope lookup --project REL --state "In Progress" --component payments --release-branch release/2.4
`,
	Run: func(cmd *cobra.Command, args []string) {
		runLookup(cmd)
	},
}

func init() {
	lookupCmd.Flags().String("project", "", "Jira project key to search in (required)")
	lookupCmd.Flags().String("state", "", "Jira status to filter by (required)")
	lookupCmd.Flags().String("component", "", "Component name to look for (required)")
	lookupCmd.Flags().String("release-branch", "", "Release branch the component must map to (required)")
	lookupCmd.Flags().String("issuetype", "", "Jira issue type to search for (default: REL-SCOPE)")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command) {
	project, _ := cmd.Flags().GetString("project")
	state, _ := cmd.Flags().GetString("state")
	component, _ := cmd.Flags().GetString("component")
	releaseBranch, _ := cmd.Flags().GetString("release-branch")
	if project == "" || state == "" || component == "" || releaseBranch == "" {
		die("lookup requires --project, --state, --component, and --release-branch")
	}

	cfg, client := loadClient()
	issueType := flagOr(cmd, "issuetype", cfg.IssueType)

	ctx := context.Background()
	jql := jira.ScopeJQL(project, issueType, state)
	issues, err := client.SearchIssues(ctx, jql)
	if err != nil {
		die("searching for %s tickets: %v", issueType, err)
	}

	descs := make([]scope.IssueDescription, len(issues))
	for i, issue := range issues {
		doc, perr := adf.Parse(issue.Fields.Description)
		if perr != nil {
			die("parsing description of %s: %v", issue.Key, perr)
		}
		descs[i] = scope.IssueDescription{
			Key:     issue.Key,
			Summary: strings.TrimSpace(issue.Fields.Summary),
			Doc:     doc,
		}
	}

	// The single-hit outputs are written even when the component or branch
	// check below fails, so workflows can report partial findings.
	if len(descs) == 1 {
		actions.SetOutput("found_ticket_key", descs[0].Key)
		actions.SetOutputBool("has_description", descs[0].Doc != nil)
		table, derr := scope.Decode(descs[0].Doc)
		actions.SetOutputBool("has_table", derr == nil)
		if derr == nil {
			actions.SetOutput("table_markdown", table.Markdown())
		}
	}

	match, err := scope.Lookup(descs, component, releaseBranch)
	if err != nil {
		writeLookupMatchOutputs(err)
		reportLookupFailure(err, project, state, issueType, component, releaseBranch)
		return
	}
	writeLookupMatchOutputs(nil)

	_ = actions.SetOutputJSON("matching_row_json", match.Row)
	actions.SetOutput("lookup_result", "success")
	actions.SetOutput("error_message", "")

	actions.AppendSummary(lookupSummary(project, state, component, releaseBranch, match))

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"lookup_result":  "success",
			"ticket_key":     match.Key,
			"ticket_summary": match.Summary,
			"row":            match.Row,
		})
		return
	}

	fmt.Printf("✓ Component %q maps to branch %q in %s\n", match.Row.Component, match.Row.Branch, match.Key)
}

// writeLookupMatchOutputs classifies the lookup verdict once and writes
// component_found and branch_matches exactly once each. A nil error is a
// full match; a branch mismatch still found the component.
func writeLookupMatchOutputs(err error) {
	var mismatch *scope.BranchMismatchError
	actions.SetOutputBool("component_found", err == nil || errors.As(err, &mismatch))
	actions.SetOutputBool("branch_matches", err == nil)
}

// reportLookupFailure dies with a message carrying the same diagnostics
// the error types collect.
func reportLookupFailure(err error, project, state, issueType, component, releaseBranch string) {
	var multi *scope.MultipleTicketsError
	var notFound *scope.ComponentNotFoundError
	var mismatch *scope.BranchMismatchError

	switch {
	case errors.Is(err, scope.ErrNoTicketsFound):
		die("no %s tickets found in project %q with state %q", issueType, project, state)

	case errors.As(err, &multi):
		var list []string
		for _, t := range multi.Tickets {
			list = append(list, fmt.Sprintf("- **%s**: %s", t.Key, t.Summary))
		}
		actions.AppendSummary(fmt.Sprintf(
			"**multiple %s tickets found in project %q with state %q**\n\nFound %d tickets:\n%s",
			issueType, project, state, len(multi.Tickets), strings.Join(list, "\n")))
		die("multiple %s tickets found in project %q with state %q: %v", issueType, project, state, err)

	case errors.Is(err, scope.ErrNoTableFound):
		die("component %q not found: ticket has no release-scope table", component)

	case errors.As(err, &notFound):
		msg := fmt.Sprintf("component %q not found in ticket %s", notFound.Component, notFound.Key)
		if len(notFound.Available) > 0 {
			msg += "\n\nAvailable components:\n- " + strings.Join(notFound.Available, "\n- ")
		} else {
			msg += " (table is empty)"
		}
		die("%s", msg)

	case errors.As(err, &mismatch):
		die("component %q found in ticket %s but release branch does not match (expected %q, actual %q)",
			mismatch.Component, mismatch.Key, mismatch.Expected, mismatch.Actual)

	default:
		die("looking up component %q with branch %q: %v", component, releaseBranch, err)
	}
}

func lookupSummary(project, state, component, releaseBranch string, match *scope.Match) string {
	parts := []string{
		fmt.Sprintf("### Lookup Results for Project: **%s**", project),
		fmt.Sprintf("- State: **%s**", state),
		fmt.Sprintf("- Component: **%s**", component),
		fmt.Sprintf("- Release Branch: **%s**", releaseBranch),
		fmt.Sprintf("- Found ticket: **%s**", match.Key),
		"",
		"**✅ Matching row:**",
		"",
		match.Table.MarkdownRow(match.Row),
	}
	return strings.Join(parts, "\n")
}
