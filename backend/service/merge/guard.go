package merge

import (
	"fmt"

	"mergebox/backend/domain"
)

// fallbackDirectTag 空策略组回填用的共享 direct 叶子
const fallbackDirectTag = "direct"

// FillEmptyGroups back-fills every group whose direct member list is
// still empty with a shared fallback direct leaf, creating the leaf on
// first use. Returns the tags of the groups that were filled.
//
// An existing outbound is reused only when it is actually direct-typed;
// a document may carry a non-direct outbound under that tag (a group
// can legally be named "direct"), in which case the synthesized leaf
// gets an unclaimed tag so no group ever references itself.
func FillEmptyGroups(doc *domain.RoutingDocument) (filled []string) {
	var fallback *domain.Outbound
	for _, ob := range doc.Outbounds {
		if ob != nil && ob.Tag == fallbackDirectTag && ob.Type == domain.TypeDirect {
			fallback = ob
			break
		}
	}

	for _, ob := range doc.Outbounds {
		if ob == nil || !ob.IsGroup() || len(ob.Outbounds) > 0 {
			continue
		}

		if fallback == nil {
			fallback = &domain.Outbound{
				Tag:  fallbackFillTag(doc),
				Type: domain.TypeDirect,
			}
			doc.Outbounds = append(doc.Outbounds, fallback)
		}

		ob.Outbounds = append(ob.Outbounds, fallback.Tag)
		filled = append(filled, ob.Tag)
	}

	return filled
}

// fallbackFillTag 为新建的 direct 叶子挑一个未被占用的 tag，
// 后缀风格与去重阶段一致。
func fallbackFillTag(doc *domain.RoutingDocument) string {
	index := doc.TagIndex()
	if _, taken := index[fallbackDirectTag]; !taken {
		return fallbackDirectTag
	}
	for n := 1; ; n++ {
		tag := fmt.Sprintf("%s #%d", fallbackDirectTag, n)
		if _, taken := index[tag]; !taken {
			return tag
		}
	}
}
