package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Title truncation length for human-readable record listings.
const ListTitleMaxLen = 60

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON)
// and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatRecordLine renders one record for human-readable listings.
func formatRecordLine(id, title, status string) string {
	var sb strings.Builder
	sb.WriteString(id)
	sb.WriteString(" [")
	sb.WriteString(status)
	sb.WriteString("]")
	if title != "" {
		sb.WriteString("\n  ")
		sb.WriteString(truncateString(title, ListTitleMaxLen))
	}
	return sb.String()
}
