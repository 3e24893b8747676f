// Package actions reports to the GitHub Actions runner: step outputs,
// the step summary, and error annotations. Writing the workflow files is
// delegated to go-githubactions; every file writer is a no-op outside a
// workflow run (env var unset) so commands behave the same locally.
package actions

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	githubactions "github.com/sethvargo/go-githubactions"
)

// SetOutput appends a key/value pair to the GITHUB_OUTPUT file. Values
// are written with the runner's delimiter syntax, which is safe for
// multiline values.
func SetOutput(key, value string) {
	if os.Getenv("GITHUB_OUTPUT") == "" {
		return
	}
	githubactions.SetOutput(key, value)
}

// SetOutputJSON marshals v and writes it as a step output.
func SetOutputJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output %q: %w", key, err)
	}
	SetOutput(key, string(data))
	return nil
}

// SetOutputBool writes "true" or "false" as a step output.
func SetOutputBool(key string, v bool) {
	SetOutput(key, strconv.FormatBool(v))
}

// AppendSummary appends a markdown block to the GITHUB_STEP_SUMMARY file.
func AppendSummary(md string) {
	if os.Getenv("GITHUB_STEP_SUMMARY") == "" {
		return
	}
	githubactions.AddStepSummary(md)
}

// ErrorAnnotation prints a ::error:: workflow command so the message shows
// up in the workflow UI. Newlines and percent signs in the message are
// escaped by the writer.
func ErrorAnnotation(msg string) {
	githubactions.Errorf("%s", msg)
}
