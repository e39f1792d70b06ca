package software

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned by Classify when a line carries no lifecycle event.
// Most log lines end up here; it is not a failure.
var ErrNoMatch = errors.New("no match")

// AnomalyError reports a pattern that matched a line without yielding both a
// name and a version. The line is treated as a non-match.
type AnomalyError struct {
	Tool    string
	Status  Status
	Pattern string
	Line    string
	Groups  int
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("%s %s pattern %q matched with %d of 2 capture groups: %q",
		e.Tool, e.Status, e.Pattern, e.Groups, e.Line)
}

// Unwrap lets errors.Is(err, ErrNoMatch) hold for anomalies.
func (e *AnomalyError) Unwrap() error {
	return ErrNoMatch
}

// Classify extracts a package identity and status from a single log line.
//
// Statuses are tried success, failed, installing; within a status the
// patterns are tried in order and the first complete match wins. When a
// pattern matches but cannot produce both capture groups, later patterns are
// still tried; the anomaly is only returned if nothing else matches.
func Classify(line string, rules RuleSet) (Event, error) {
	var anomaly *AnomalyError
	for _, status := range classifyOrder {
		for _, expr := range rules.patterns(status) {
			loc := expr.FindStringSubmatchIndex(line)
			if loc == nil {
				continue
			}
			groups := participating(loc)
			if groups < 2 {
				if anomaly == nil {
					anomaly = &AnomalyError{
						Tool:    rules.tool,
						Status:  status,
						Pattern: expr.String(),
						Line:    line,
						Groups:  groups,
					}
				}
				continue
			}
			return Event{
				Identity: Identity{
					Name:    line[loc[2]:loc[3]],
					Version: line[loc[4]:loc[5]],
				},
				Status: status,
				Source: rules.tool,
				Line:   line,
			}, nil
		}
	}
	if anomaly != nil {
		return Event{}, anomaly
	}
	return Event{}, ErrNoMatch
}

// participating counts how many of the first two capture groups took part in
// the match.
func participating(loc []int) int {
	n := 0
	for g := 1; g <= 2; g++ {
		if 2*g+1 >= len(loc) {
			break
		}
		if loc[2*g] < 0 {
			break
		}
		n++
	}
	return n
}
