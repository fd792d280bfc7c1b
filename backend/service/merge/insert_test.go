package merge

import (
	"testing"

	"mergebox/backend/domain"
)

func group(tag string, members ...string) *domain.Outbound {
	return &domain.Outbound{Tag: tag, Type: domain.TypeSelector, Outbounds: members}
}

func leaf(tag string) *domain.Outbound {
	return &domain.Outbound{Tag: tag, Type: "vless"}
}

func record(tag, hop string) domain.NodeRecord {
	return domain.NodeRecord{Outbound: leaf(tag), Hop: hop}
}

func TestInsertNodesAppendsMatchingRecords(t *testing.T) {
	t.Parallel()

	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{
		group("Auto", "existing"),
		group("HK Only"),
		leaf("existing"),
	}}

	records := []domain.NodeRecord{
		record("HK 01", "main"),
		record("SG 01", "main"),
	}

	inserted, groups, err := InsertNodes(doc, "Auto;HK@HK", records)
	if err != nil {
		t.Fatalf("InsertNodes() error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("inserted = %d, want 2", inserted)
	}
	if groups != 2 {
		t.Fatalf("groups = %d, want 2", groups)
	}

	auto := doc.Outbounds[0]
	if got, want := len(auto.Outbounds), 3; got != want {
		t.Fatalf("Auto members = %v, want %d entries", auto.Outbounds, want)
	}
	if auto.Outbounds[0] != "existing" {
		t.Fatalf("existing member must be preserved first, got %v", auto.Outbounds)
	}

	hkOnly := doc.Outbounds[1]
	if got, want := len(hkOnly.Outbounds), 1; got != want {
		t.Fatalf("HK Only members = %v, want %d entry", hkOnly.Outbounds, want)
	}
	if hkOnly.Outbounds[0] != "HK 01" {
		t.Fatalf("HK Only member = %q, want %q", hkOnly.Outbounds[0], "HK 01")
	}

	// 两条新节点成为永久条目
	if got, want := len(doc.Outbounds), 5; got != want {
		t.Fatalf("document outbounds = %d, want %d", got, want)
	}
}

func TestInsertNodesCreatesMemberListWhenAbsent(t *testing.T) {
	t.Parallel()

	g := &domain.Outbound{Tag: "Auto", Type: domain.TypeURLTest}
	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{g}}

	if _, _, err := InsertNodes(doc, "Auto", []domain.NodeRecord{record("HK 01", "main")}); err != nil {
		t.Fatalf("InsertNodes() error: %v", err)
	}
	if len(g.Outbounds) != 1 || g.Outbounds[0] != "HK 01" {
		t.Fatalf("Auto members = %v, want [HK 01]", g.Outbounds)
	}
}

func TestInsertNodesSkipsEmptySpecOrRecords(t *testing.T) {
	t.Parallel()

	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{group("Auto")}}

	inserted, groups, err := InsertNodes(doc, "  ", []domain.NodeRecord{record("HK 01", "main")})
	if err != nil || inserted != 0 || groups != 0 {
		t.Fatalf("empty spec: got (%d, %d, %v), want no-op", inserted, groups, err)
	}
	inserted, groups, err = InsertNodes(doc, "Auto", nil)
	if err != nil || inserted != 0 || groups != 0 {
		t.Fatalf("no records: got (%d, %d, %v), want no-op", inserted, groups, err)
	}
	if len(doc.Outbounds) != 1 {
		t.Fatalf("document must be untouched, got %d outbounds", len(doc.Outbounds))
	}
}

func TestInsertNodesRejectsBadPattern(t *testing.T) {
	t.Parallel()

	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{group("Auto")}}
	if _, _, err := InsertNodes(doc, "Auto@[", []domain.NodeRecord{record("HK 01", "main")}); err == nil {
		t.Fatal("InsertNodes() with invalid name pattern must fail")
	}
	if _, _, err := InsertNodes(doc, "(", []domain.NodeRecord{record("HK 01", "main")}); err == nil {
		t.Fatal("InsertNodes() with invalid group pattern must fail")
	}
}

func TestInsertNodesLaterHopSeesEarlierInsertions(t *testing.T) {
	t.Parallel()

	// 第二个 hop 的规则只匹配第一个 hop 刚插入的节点组成的组。
	doc := &domain.RoutingDocument{Outbounds: []*domain.Outbound{group("Entry"), group("Relay")}}

	if _, _, err := InsertNodes(doc, "Entry", []domain.NodeRecord{record("front 01", "first")}); err != nil {
		t.Fatalf("first hop: %v", err)
	}
	if _, _, err := InsertNodes(doc, "Relay@relay", []domain.NodeRecord{record("relay 01", "second")}); err != nil {
		t.Fatalf("second hop: %v", err)
	}

	relay := doc.Outbounds[1]
	if len(relay.Outbounds) != 1 || relay.Outbounds[0] != "relay 01" {
		t.Fatalf("Relay members = %v, want [relay 01]", relay.Outbounds)
	}
}
