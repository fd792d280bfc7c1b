package merge

import (
	"sort"

	"mergebox/backend/domain"
)

// BuildChainMap turns the declared edge table into the functional chain
// map (one outgoing edge per source group). Edges whose endpoints are
// missing or not group-typed are dropped silently; a duplicate source
// keeps the last declaration and reports it to the caller.
func BuildChainMap(doc *domain.RoutingDocument, edges []domain.ChainEdge) (chain map[string]string, duplicates []string) {
	index := doc.TagIndex()
	chain = make(map[string]string, len(edges))

	for _, edge := range edges {
		src, ok := index[edge.Source]
		if !ok || !src.IsGroup() {
			continue
		}
		dst, ok := index[edge.Target]
		if !ok || !dst.IsGroup() {
			continue
		}
		if _, dup := chain[edge.Source]; dup {
			duplicates = append(duplicates, edge.Source)
		}
		chain[edge.Source] = edge.Target
	}

	return chain, duplicates
}

// BreakChainCycles removes cycle-closing edges from the chain map and
// returns the cuts as "source -> target" strings. The map is functional
// (one outgoing edge per node), so a DFS with three-state marking finds
// each cycle exactly once: following the single outgoing edge from a
// visiting node into another visiting node identifies the back-edge,
// which is deleted from the working set.
func BreakChainCycles(chain map[string]string) (cuts []string) {
	const (
		unvisited = 0
		visiting  = 1
		visited   = 2
	)
	state := make(map[string]int, len(chain))

	var visit func(node string)
	visit = func(node string) {
		if state[node] != unvisited {
			return
		}
		state[node] = visiting

		if target, ok := chain[node]; ok {
			switch state[target] {
			case visiting:
				delete(chain, node)
				cuts = append(cuts, node+" -> "+target)
			case unvisited:
				visit(target)
			}
		}

		state[node] = visited
	}

	// 按源排序遍历，保证同一输入总是切掉同一条边。
	sources := make([]string, 0, len(chain))
	for src := range chain {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	for _, src := range sources {
		visit(src)
	}

	return cuts
}

// AssignDetours wires the surviving chain edges into per-node detour
// pointers: every leaf in the source group's closure detours through the
// target group. Terminal leaves never detour, and a leaf that is already
// inside the target's closure is skipped — pointing it at the target
// would create a zero-length self-loop.
func AssignDetours(doc *domain.RoutingDocument, chain map[string]string) (assigned int, emptySources []string) {
	resolver := newClosureResolver(doc)

	sources := make([]string, 0, len(chain))
	for src := range chain {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, source := range sources {
		target := chain[source]
		leaves := resolver.Closure(source)
		if len(leaves) == 0 {
			emptySources = append(emptySources, source)
			continue
		}

		targetSet := resolver.ClosureSet(target)
		for _, leaf := range leaves {
			ob, ok := resolver.index[leaf]
			if !ok || ob.IsTerminal() {
				continue
			}
			if _, selfLoop := targetSet[leaf]; selfLoop {
				continue
			}
			ob.Detour = target
			assigned++
		}
	}

	return assigned, emptySources
}
