package common

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
)

type CIResult struct {
	OK         bool     `json:"ok"`
	Title      string   `json:"title"`
	Details    []string `json:"details,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func PrintCIResult(ok bool, title string, details []string, elapsed time.Duration, err error) {
	WriteCIResult(os.Stdout, ok, title, details, elapsed, err)
}

func WriteCIResult(w io.Writer, ok bool, title string, details []string, elapsed time.Duration, err error) {
	result := CIResult{OK: ok, Title: title, Details: details, DurationMS: elapsed.Milliseconds()}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

// RecordRun reports one tool command execution to the metrics pipeline.
func RecordRun(tool, command string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ctx := context.Background()
	observability.RecordToolCommandRun(ctx, tool, command, outcome)
	observability.RecordToolCommandDuration(ctx, tool, command, outcome, elapsed)
}
