package filter

import (
	"regexp"

	"github.com/mzorec/renderscope/internal/domain"
)

// Pipeline chains the event filters in a fixed order: include pattern,
// exclude patterns, then where clauses. Patterns match against the
// component type name.
type Pipeline struct {
	include  *regexp.Regexp
	excludes []*regexp.Regexp
	where    *WhereFilter
}

// NewPipeline builds a pipeline from the optional filter stages. Returns
// nil when no stage is configured; a nil Pipeline matches everything.
func NewPipeline(include *regexp.Regexp, excludes []*regexp.Regexp, where *WhereFilter) *Pipeline {
	if include == nil && len(excludes) == 0 && where == nil {
		return nil
	}
	return &Pipeline{
		include:  include,
		excludes: excludes,
		where:    where,
	}
}

// Match reports whether the event survives every stage.
func (p *Pipeline) Match(ev *domain.Event) bool {
	if p == nil {
		return true
	}
	if p.include != nil && !p.include.MatchString(ev.ComponentType) {
		return false
	}
	for _, re := range p.excludes {
		if re.MatchString(ev.ComponentType) {
			return false
		}
	}
	if p.where != nil && !p.where.Match(ev) {
		return false
	}
	return true
}
