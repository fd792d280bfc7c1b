package merge

import (
	"testing"

	"mergebox/backend/domain"
)

func TestFillEmptyGroupsAppendsFallbackDirect(t *testing.T) {
	t.Parallel()

	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{
		group("Empty"),
		group("Populated", "n1"),
		leaf("n1"),
	}}

	filled := FillEmptyGroups(doc)
	if len(filled) != 1 || filled[0] != "Empty" {
		t.Fatalf("filled = %v, want [Empty]", filled)
	}

	empty := doc.Outbounds[0]
	if len(empty.Outbounds) != 1 {
		t.Fatalf("Empty members = %v, want exactly one", empty.Outbounds)
	}

	index := doc.TagIndex()
	fallback, ok := index[empty.Outbounds[0]]
	if !ok {
		t.Fatalf("fallback %q not found in document", empty.Outbounds[0])
	}
	if fallback.Type != domain.TypeDirect {
		t.Fatalf("fallback type = %q, want %q", fallback.Type, domain.TypeDirect)
	}

	populated := doc.Outbounds[1]
	if !equalTagLists(populated.Outbounds, []string{"n1"}) {
		t.Fatalf("Populated members = %v, must be untouched", populated.Outbounds)
	}
}

func TestFillEmptyGroupsSharesOneFallback(t *testing.T) {
	t.Parallel()

	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{
		group("A"),
		group("B"),
	}}

	FillEmptyGroups(doc)

	directs := 0
	for _, ob := range doc.Outbounds {
		if ob.Type == domain.TypeDirect {
			directs++
		}
	}
	if directs != 1 {
		t.Fatalf("fallback leaves = %d, want a single shared one", directs)
	}
}

func TestFillEmptyGroupsSkipsNonDirectTaggedDirect(t *testing.T) {
	t.Parallel()

	// 合法文档里可以有叫 "direct" 的策略组；回填不能复用它，
	// 更不能让它成为自己的成员。
	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{
		group("direct"),
		group("Empty"),
	}}

	filled := FillEmptyGroups(doc)
	if len(filled) != 2 {
		t.Fatalf("filled = %v, want both groups", filled)
	}

	index := doc.TagIndex()
	for _, tag := range []string{"direct", "Empty"} {
		grp := index[tag]
		if len(grp.Outbounds) != 1 {
			t.Fatalf("group %q members = %v, want exactly one", tag, grp.Outbounds)
		}
		member := grp.Outbounds[0]
		if member == tag {
			t.Fatalf("group %q references itself", tag)
		}
		fallback, ok := index[member]
		if !ok {
			t.Fatalf("group %q member %q not found in document", tag, member)
		}
		if fallback.Type != domain.TypeDirect {
			t.Fatalf("group %q filled with %q of type %q, want %q",
				tag, member, fallback.Type, domain.TypeDirect)
		}
	}
}

func TestFillEmptyGroupsReusesExistingDirect(t *testing.T) {
	t.Parallel()

	existing := &domain.Outbound{Tag: "direct", Type: domain.TypeDirect}
	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{
		group("A"),
		existing,
	}}

	FillEmptyGroups(doc)

	if got, want := len(doc.Outbounds), 2; got != want {
		t.Fatalf("document outbounds = %d, want %d (no new leaf)", got, want)
	}
	a := doc.Outbounds[0]
	if !equalTagLists(a.Outbounds, []string{"direct"}) {
		t.Fatalf("A members = %v, want [direct]", a.Outbounds)
	}
}
