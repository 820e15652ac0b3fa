package jira

import "strings"

// ResultsLabelPrefix marks the labels this system owns on a ticket.
const ResultsLabelPrefix = "results_"

// emptyCommandMarker is appended when a results label has no failing command.
const emptyCommandMarker = "X"

// BuildLabel builds the canonical results label string.
//
// Format: results_<Stage><Flow><Result>
// If failingCmd is empty or only whitespace, the marker is appended.
// Example: results_S1F2R3 or results_S1F2R3X
//
// Pure and deterministic: duplicate detection compares this output
// byte-for-byte against existing labels.
func BuildLabel(stage, flow, result, failingCmd string) string {
	label := ResultsLabelPrefix + stage + flow + result
	if strings.TrimSpace(failingCmd) == "" {
		label += emptyCommandMarker
	}
	return label
}
