package common

import (
	"encoding/json"
	"os"
)

type Result struct {
	OK      bool     `json:"ok"`
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// PrintResult writes a machine-readable summary to stdout. Every authctl
// subcommand ends with exactly one of these.
func PrintResult(title string, details []string, err error) {
	result := Result{OK: err == nil, Title: title, Details: details}
	if err != nil {
		result.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}
