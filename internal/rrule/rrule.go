// Package rrule wraps RFC 5545 recurrence rule evaluation for recurring
// calendar events.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Parse parses an RFC 5545 RRULE string anchored at dtstart. A leading
// "RRULE:" prefix is tolerated because providers differ on whether the
// property name is included.
func Parse(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart

	return rrule.NewRRule(*opt)
}

// NextOccurrence returns the first occurrence at or after the given time,
// or nil when the rule has no further occurrences.
func NextOccurrence(ruleStr string, dtstart, after time.Time) (*time.Time, error) {
	rule, err := Parse(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, true)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}
