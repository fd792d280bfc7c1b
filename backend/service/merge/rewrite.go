package merge

import (
	"mergebox/backend/domain"
)

// RewriteReferences resolves every group member list and default pointer
// against the post-rename tag space. Returns the number of member lists
// and default fields whose content actually changed.
//
// Each old tag resolves through three tiers:
//  1. its sanitized form has registered variants → expand to every
//     still-live variant, order-preserving, first-seen wins;
//  2. the sanitized form itself is a live tag → keep it;
//  3. the raw original is still a live tag → keep it;
//
// anything else is a stale reference and is dropped silently. Running the
// rewriter twice produces no further change.
func RewriteReferences(doc *domain.RoutingDocument, sanitizedToFinals map[string][]string) int {
	index := doc.TagIndex()
	changed := 0

	resolve := func(old string) []string {
		sanitized := SanitizeTag(old)
		if variants := sanitizedToFinals[sanitized]; len(variants) > 0 {
			live := make([]string, 0, len(variants))
			for _, v := range variants {
				if _, ok := index[v]; ok {
					live = append(live, v)
				}
			}
			if len(live) > 0 {
				return live
			}
		}
		if _, ok := index[sanitized]; ok {
			return []string{sanitized}
		}
		if _, ok := index[old]; ok {
			return []string{old}
		}
		return nil
	}

	for _, ob := range doc.Outbounds {
		if ob == nil || !ob.IsGroup() {
			continue
		}

		if ob.Outbounds != nil {
			next := make([]string, 0, len(ob.Outbounds))
			seen := make(map[string]struct{}, len(ob.Outbounds))
			for _, old := range ob.Outbounds {
				for _, tag := range resolve(old) {
					if _, dup := seen[tag]; dup {
						continue
					}
					seen[tag] = struct{}{}
					next = append(next, tag)
				}
			}
			if !equalTagLists(ob.Outbounds, next) {
				changed++
			}
			ob.Outbounds = next
		}

		if ob.Default != "" {
			resolved := resolve(ob.Default)
			next := ""
			if len(resolved) > 0 {
				next = resolved[0]
			}
			if next != ob.Default {
				ob.Default = next
				changed++
			}
		}
	}

	return changed
}

func equalTagLists(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
