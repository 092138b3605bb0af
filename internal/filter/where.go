package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mzorec/renderscope/internal/domain"
)

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
}

// ParseWhereClause parses a where clause like "event=render" or "type~Grid"
// Supported operators: =, !=, ~, !~, >=, <=, ^, $
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			wc := &WhereClause{
				Field:    field,
				Operator: op,
				Value:    value,
			}

			// Pre-compile regex for ~ and !~ operators
			if op == "~" || op == "!~" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
				}
				wc.regex = re
			}

			return wc, nil
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

// Match checks if an event matches this where clause
func (wc *WhereClause) Match(ev *domain.Event) bool {
	fieldValue := wc.getFieldValue(ev)

	switch wc.Operator {
	case "=":
		return strings.EqualFold(fieldValue, wc.Value)
	case "!=":
		return !strings.EqualFold(fieldValue, wc.Value)
	case "~": // Contains (regex)
		if wc.regex != nil {
			return wc.regex.MatchString(fieldValue)
		}
		return strings.Contains(fieldValue, wc.Value)
	case "!~": // Not contains (regex)
		if wc.regex != nil {
			return !wc.regex.MatchString(fieldValue)
		}
		return !strings.Contains(fieldValue, wc.Value)
	case "^": // Starts with
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$": // Ends with
		return strings.HasSuffix(fieldValue, wc.Value)
	case ">=": // Greater or equal (duration, in ms)
		return wc.compareDuration(ev, true)
	case "<=": // Less or equal (duration, in ms)
		return wc.compareDuration(ev, false)
	}

	return false
}

// getFieldValue extracts the field value from an event
func (wc *WhereClause) getFieldValue(ev *domain.Event) string {
	switch strings.ToLower(wc.Field) {
	case "event", "event_type":
		return string(ev.EventType)
	case "component", "component_id":
		return ev.ComponentID
	case "type", "component_type":
		return ev.ComponentType
	case "trigger":
		return string(ev.Trigger)
	case "async":
		return strconv.FormatBool(ev.IsAsync)
	case "skipped":
		return strconv.FormatBool(ev.WasSkipped)
	case "duration":
		return strconv.FormatFloat(ev.Duration(), 'f', -1, 64)
	default:
		return ""
	}
}

// compareDuration handles >= and <= comparisons for render durations.
// Events without a duration never match either direction.
func (wc *WhereClause) compareDuration(ev *domain.Event, greaterOrEqual bool) bool {
	if strings.ToLower(wc.Field) != "duration" {
		return false
	}
	if ev.DurationMs == nil {
		return false
	}

	target, err := strconv.ParseFloat(wc.Value, 64)
	if err != nil {
		return false
	}

	if greaterOrEqual {
		return *ev.DurationMs >= target
	}
	return *ev.DurationMs <= target
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the event matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(ev *domain.Event) bool {
	for _, clause := range f.clauses {
		if !clause.Match(ev) {
			return false
		}
	}
	return true
}
