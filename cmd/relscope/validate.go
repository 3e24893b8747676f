package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relscope/relscope/internal/actions"
	"github.com/relscope/relscope/internal/scope"
)

var validateCmd = &cobra.Command{
	Use:     "validate",
	Aliases: []string{"validate-upsert-prereqs"},
	Short:   "Check upsert prerequisites without modifying anything",
	Long: `Run every upsert prerequisite check against a REL-SCOPE ticket and report
the full list of violations. Nothing is modified.

Checks: issue type, the upsert permission field (when configured), ticket
status against the blocked-status list, and (with --component) whether the
component already has a row in the table.

Exits non-zero when any check fails.

Examples:
  relscope validate --jira-key REL-123
  relscope validate --jira-key REL-123 --component payments --permission-field-id customfield_15850
`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidate(cmd)
	},
}

func init() {
	validateCmd.Flags().String("jira-key", "", "Jira issue key to validate (required)")
	validateCmd.Flags().String("component", "", "Component that must not already exist in the table (optional)")
	validateCmd.Flags().String("issuetype", "", "Expected Jira issue type (default: REL-SCOPE)")
	validateCmd.Flags().String("permission-field-id", "", "Custom field ID that must be set to 'Allowed' for upserts")
	validateCmd.Flags().String("blocked-statuses", "", "Space-delimited statuses that block upserts (default: APPROVED CLOSED)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) {
	key, _ := cmd.Flags().GetString("jira-key")
	if key == "" {
		die("validate requires --jira-key")
	}
	component, _ := cmd.Flags().GetString("component")

	cfg, client := loadClient()
	permField := flagOr(cmd, "permission-field-id", cfg.PermissionFieldID)

	ctx := context.Background()
	issue, _, snap := fetchSnapshot(ctx, client, key, permField)

	opts := scope.GuardOptions{
		IssueType:         flagOr(cmd, "issuetype", cfg.IssueType),
		PermissionFieldID: permField,
		BlockedStatuses:   blockedStatusList(cmd, cfg),
		Component:         component,
	}
	if permField != "" {
		opts.PermissionFieldName = resolveFieldName(ctx, client, permField)
	}

	res := scope.CheckPrereqs(snap, opts)
	actions.SetOutputBool("validation_passed", res.OK)
	actions.SetOutput("ticket_key", issue.Key)
	actions.SetOutput("ticket_status", snap.Status)
	writeGuardOutputs(res)

	actions.AppendSummary(validateSummary(snap, opts, res))

	if jsonOutput {
		// One JSON document per invocation: a failed run emits only the
		// error document, via die.
		if !res.OK {
			die("%v", res.Err())
		}
		outputJSON(map[string]interface{}{
			"validation_passed": res.OK,
			"ticket_key":        issue.Key,
			"ticket_status":     snap.Status,
			"issue_type":        snap.Type,
		})
		return
	}

	if !res.OK {
		fmt.Printf("Validation failed for %s:\n", issue.Key)
		for _, v := range res.Violations {
			fmt.Printf("  - %s\n", v.Message)
		}
		die("%v", res.Err())
	}

	fmt.Printf("✓ Validation passed for %s (type %s, status %s)\n", issue.Key, snap.Type, snap.Status)
}

func validateSummary(snap scope.Snapshot, opts scope.GuardOptions, res scope.GuardResult) string {
	verdict := "❌ Validation Failed"
	if res.OK {
		verdict = "✅ Validation Passed"
	}
	parts := []string{
		fmt.Sprintf("### Validation Results: **%s**", snap.Key),
		fmt.Sprintf("- **%s**", verdict),
	}
	if snap.Summary != "" {
		parts = append(parts, fmt.Sprintf("- Summary: %s", snap.Summary))
	}
	parts = append(parts,
		fmt.Sprintf("- Type: %s", snap.Type),
		fmt.Sprintf("- Status: %s", snap.Status),
	)
	if opts.PermissionFieldID != "" {
		name := opts.PermissionFieldName
		if name == "" {
			name = opts.PermissionFieldID
		}
		parts = append(parts,
			fmt.Sprintf("- Permission Field: %s", name),
			fmt.Sprintf("- Permission Value: %s", snap.PermissionValue),
		)
	}
	if len(res.Violations) > 0 {
		parts = append(parts, "", "**❌ Validation Errors:**")
		for _, v := range res.Violations {
			parts = append(parts, fmt.Sprintf("- %s", v.Message))
		}
	}
	return strings.Join(parts, "\n")
}
