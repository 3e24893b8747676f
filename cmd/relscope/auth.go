package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/relscope/relscope/internal/credential"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the stored Jira API token",
	Long: `Store, inspect, or remove the Jira API token in the system keyring.

The JIRA_API_TOKEN environment variable always wins over the keyring when
it is set, which is what CI should use; the keyring is for local runs.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the Jira API token in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			fmt.Print("Jira API token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
				os.Exit(1)
			}
			token = strings.TrimSpace(string(raw))
		}
		if token == "" {
			fmt.Fprintln(os.Stderr, "Error: empty token")
			os.Exit(1)
		}

		if err := credential.Set(credential.TokenKey, token); err != nil {
			fmt.Fprintf(os.Stderr, "Error storing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Jira API token stored in the system keyring")
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the Jira API token comes from",
	Run: func(cmd *cobra.Command, args []string) {
		source := tokenSource()
		if jsonOutput {
			outputJSON(map[string]interface{}{
				"token_set": source != "",
				"source":    source,
			})
			return
		}
		switch source {
		case "env":
			fmt.Println("✓ Jira API token set via JIRA_API_TOKEN (environment wins over keyring)")
		case "keyring":
			fmt.Println("✓ Jira API token stored in the system keyring")
		default:
			fmt.Println("No Jira API token found (set JIRA_API_TOKEN or run 'relscope auth set')")
		}
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the Jira API token from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		if err := credential.Delete(credential.TokenKey); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Jira API token removed from the system keyring")
	},
}

func tokenSource() string {
	if os.Getenv("JIRA_API_TOKEN") != "" {
		return "env"
	}
	if tok, err := credential.Get(credential.TokenKey); err == nil && tok != "" {
		return "keyring"
	}
	return ""
}

func init() {
	authSetCmd.Flags().String("token", "", "Token value (omit to be prompted)")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authClearCmd)
	rootCmd.AddCommand(authCmd)
}
