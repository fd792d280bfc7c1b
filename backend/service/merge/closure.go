package merge

import (
	"mergebox/backend/domain"
)

// closureResolver resolves a group's transitive closure: the concrete
// leaf tags reachable once nested groups are inlined. Finished results
// are memoized per group tag so shared sub-groups cost O(edges) total.
type closureResolver struct {
	index map[string]*domain.Outbound
	memo  map[string][]string
}

func newClosureResolver(doc *domain.RoutingDocument) *closureResolver {
	return &closureResolver{
		index: doc.TagIndex(),
		memo:  make(map[string][]string),
	}
}

// Closure returns the ordered leaf tags of the outbound named by tag.
// A non-group tag resolves to itself; an unknown tag resolves to nothing.
func (r *closureResolver) Closure(tag string) []string {
	return r.resolve(tag, make(map[string]struct{}))
}

// ClosureSet is Closure with set semantics, for membership checks.
func (r *closureResolver) ClosureSet(tag string) map[string]struct{} {
	leaves := r.Closure(tag)
	set := make(map[string]struct{}, len(leaves))
	for _, leaf := range leaves {
		set[leaf] = struct{}{}
	}
	return set
}

func (r *closureResolver) resolve(tag string, path map[string]struct{}) []string {
	ob, ok := r.index[tag]
	if !ok {
		return nil
	}
	if !ob.IsGroup() {
		return []string{tag}
	}

	if done, ok := r.memo[tag]; ok {
		return done
	}
	// 成环：该分支贡献空集，不再下探。path 为本次调用私有，不跨调用共享。
	if _, onPath := path[tag]; onPath {
		return nil
	}
	path[tag] = struct{}{}

	leaves := make([]string, 0, len(ob.Outbounds))
	seen := make(map[string]struct{}, len(ob.Outbounds))
	for _, member := range ob.Outbounds {
		for _, leaf := range r.resolve(member, path) {
			if _, dup := seen[leaf]; dup {
				continue
			}
			seen[leaf] = struct{}{}
			leaves = append(leaves, leaf)
		}
	}

	delete(path, tag)
	r.memo[tag] = leaves
	return leaves
}
