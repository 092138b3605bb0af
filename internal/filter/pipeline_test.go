package filter

import (
	"regexp"
	"testing"

	"github.com/mzorec/renderscope/internal/domain"
)

func TestPipeline_MatchOrder(t *testing.T) {
	pat := regexp.MustCompile("Grid")
	ex1 := regexp.MustCompile("Legacy")
	where, err := NewWhereFilter([]string{"event=render"})
	if err != nil {
		t.Fatalf("where build failed: %v", err)
	}
	p := NewPipeline(pat, []*regexp.Regexp{ex1}, where)

	ev := &domain.Event{ComponentType: "ProductGrid", EventType: domain.EventRender}
	if !p.Match(ev) {
		t.Fatalf("expected event to match pipeline")
	}

	ev2 := &domain.Event{ComponentType: "LegacyProductGrid", EventType: domain.EventRender}
	if p.Match(ev2) {
		t.Fatalf("expected exclude to drop event")
	}

	ev3 := &domain.Event{ComponentType: "ProductGrid", EventType: domain.EventStateChanged}
	if p.Match(ev3) {
		t.Fatalf("expected where to drop non-render event")
	}
}

func TestPipeline_NilIsAllowAll(t *testing.T) {
	if NewPipeline(nil, nil, nil) != nil {
		t.Fatalf("expected nil pipeline when no filters provided")
	}
	p := NewPipeline(nil, nil, nil)
	ev := &domain.Event{ComponentType: "Anything"}
	if !p.Match(ev) {
		t.Fatalf("nil pipeline should allow all")
	}
}
