// Package config loads relscope settings from the environment and an
// optional .relscope.yaml file. Environment variables win over the file;
// command-line flags, applied by the caller, win over both.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/relscope/relscope/internal/credential"
)

// DefaultIssueType is the Jira issue type release-scope tickets use.
const DefaultIssueType = "REL-SCOPE"

// DefaultBlockedStatuses is the space-delimited set of statuses that block
// upserts. Membership is case-sensitive.
const DefaultBlockedStatuses = "APPROVED CLOSED"

// Config holds the settings shared by every command.
type Config struct {
	BaseURL           string
	Email             string
	APIToken          string
	IssueType         string
	PermissionFieldID string
	BlockedStatuses   []string
}

// Load reads configuration from .relscope.yaml (working directory, then
// $HOME) and the JIRA_* environment variables. The API token falls back to
// the system keyring when neither env nor file provides one.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".relscope")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	// Missing config file is fine; env vars alone are a full configuration.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	bindEnv(v, "jira.base_url", "JIRA_BASE_URL")
	bindEnv(v, "jira.email", "JIRA_EMAIL")
	bindEnv(v, "jira.api_token", "JIRA_API_TOKEN")
	bindEnv(v, "jira.issuetype", "RELSCOPE_ISSUETYPE")
	bindEnv(v, "jira.permission_field_id", "RELSCOPE_PERMISSION_FIELD_ID")
	bindEnv(v, "jira.blocked_statuses", "RELSCOPE_BLOCKED_STATUSES")

	v.SetDefault("jira.issuetype", DefaultIssueType)
	v.SetDefault("jira.blocked_statuses", DefaultBlockedStatuses)

	cfg := &Config{
		BaseURL:           strings.TrimSuffix(v.GetString("jira.base_url"), "/"),
		Email:             v.GetString("jira.email"),
		APIToken:          v.GetString("jira.api_token"),
		IssueType:         v.GetString("jira.issuetype"),
		PermissionFieldID: v.GetString("jira.permission_field_id"),
		BlockedStatuses:   ParseBlockedStatuses(v.GetString("jira.blocked_statuses")),
	}

	if cfg.APIToken == "" {
		if token, err := credential.Get(credential.TokenKey); err == nil {
			cfg.APIToken = token
		}
	}

	return cfg, nil
}

// Validate checks that the settings every command needs are present.
func (c *Config) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "JIRA_BASE_URL")
	}
	if c.APIToken == "" {
		missing = append(missing, "JIRA_API_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Jira credentials: %s\n"+
			"Set them as environment variables, in .relscope.yaml, or store the token with: relscope auth set",
			strings.Join(missing, ", "))
	}
	return nil
}

// ParseBlockedStatuses splits a space-delimited status set, e.g.
// "APPROVED CLOSED".
func ParseBlockedStatuses(s string) []string {
	return strings.Fields(s)
}

func bindEnv(v *viper.Viper, key, env string) {
	// BindEnv only errors on an empty key
	_ = v.BindEnv(key, env)
}
