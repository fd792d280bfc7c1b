package merge

import (
	"fmt"

	"mergebox/backend/domain"
)

// DedupTags renames colliding outbound tags in place and returns the
// sanitized-value → final-tags map consumed by the reference rewriter.
//
// Two outbounds collide when their sanitized tags are equal, whether the
// originals were verbatim duplicates or only differed in decoration. The
// first claimant of a sanitized value keeps it verbatim; later claimants
// get a `" #N"` suffix with a per-value running counter. Claims are
// tracked in a single set, so the pass stays O(n) amortized.
func DedupTags(doc *domain.RoutingDocument) (sanitizedToFinals map[string][]string, renamed int) {
	sanitizedToFinals = make(map[string][]string, len(doc.Outbounds))
	claimed := make(map[string]struct{}, len(doc.Outbounds))
	counters := make(map[string]int, len(doc.Outbounds))

	for _, ob := range doc.Outbounds {
		if ob == nil {
			continue
		}

		sanitized := SanitizeTag(ob.Tag)
		final := sanitized
		for {
			if _, taken := claimed[final]; !taken {
				break
			}
			counters[sanitized]++
			final = fmt.Sprintf("%s #%d", sanitized, counters[sanitized])
		}

		claimed[final] = struct{}{}
		sanitizedToFinals[sanitized] = append(sanitizedToFinals[sanitized], final)
		if final != ob.Tag {
			renamed++
		}
		ob.Tag = final
	}

	return sanitizedToFinals, renamed
}
