package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relscope/relscope/internal/actions"
)

var getStateCmd = &cobra.Command{
	Use:   "get-state",
	Short: "Report a ticket's current status",
	Long: `Fetch a Jira ticket and report its current status, key, and summary as
workflow outputs.

Examples:
  relscope get-state --jira-key REL-123
`,
	Run: func(cmd *cobra.Command, args []string) {
		runGetState(cmd)
	},
}

func init() {
	getStateCmd.Flags().String("jira-key", "", "Jira issue key to inspect (required)")
	rootCmd.AddCommand(getStateCmd)
}

func runGetState(cmd *cobra.Command) {
	key, _ := cmd.Flags().GetString("jira-key")
	if key == "" {
		die("get-state requires --jira-key")
	}

	_, client := loadClient()

	ctx := context.Background()
	issue, err := client.GetIssue(ctx, key)
	if err != nil {
		die("fetching issue %s: %v", key, err)
	}

	status := issue.StatusName()
	summary := strings.TrimSpace(issue.Fields.Summary)

	actions.SetOutput("ticket_status", status)
	actions.SetOutput("ticket_key", issue.Key)
	actions.SetOutput("ticket_summary", summary)

	title := fmt.Sprintf("### Get State: **%s**", issue.Key)
	if summary != "" {
		title += " — " + summary
	}
	md := title + fmt.Sprintf("\n- Current status: **%s**", status)
	actions.AppendSummary(md)

	if jsonOutput {
		outputJSON(map[string]string{
			"ticket_key":     issue.Key,
			"ticket_status":  status,
			"ticket_summary": summary,
		})
		return
	}

	fmt.Println(md)
}
