package cli

import (
	"fmt"
	"regexp"
	"time"

	"github.com/mzorec/renderscope/internal/filter"
)

// buildPipeline compiles the shared --pattern/--exclude/--where flags into
// an event filter pipeline. A nil result matches everything.
func buildPipeline(pattern, exclude string, where []string) (*filter.Pipeline, error) {
	var include *regexp.Regexp
	var err error
	if pattern != "" {
		include, err = regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern: %w", err)
		}
	}

	var excludes []*regexp.Regexp
	if exclude != "" {
		re, err := regexp.Compile(exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern: %w", err)
		}
		excludes = append(excludes, re)
	}

	whereFilter, err := filter.NewWhereFilter(where)
	if err != nil {
		return nil, err
	}

	return filter.NewPipeline(include, excludes, whereFilter), nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
