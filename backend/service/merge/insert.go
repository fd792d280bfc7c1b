package merge

import (
	"fmt"
	"regexp"
	"strings"

	"mergebox/backend/domain"
)

// 插入规则文法：`groupPattern[@namePattern]`，多条规则用 `;` 连接。
// namePattern 省略时匹配该 hop 的全部节点。
const (
	ruleSeparator    = ";"
	patternSeparator = "@"
)

type insertionRule struct {
	group *regexp.Regexp
	name  *regexp.Regexp // nil 表示匹配所有节点
}

// parseInsertionRules 编译一条规则串。正则按 hop 编译一次，
// 不随出站数量重复编译（出站可达数千条）。
func parseInsertionRules(spec string) ([]insertionRule, error) {
	rules := make([]insertionRule, 0, 2)
	for _, part := range strings.Split(spec, ruleSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		groupPat := part
		namePat := ""
		if i := strings.Index(part, patternSeparator); i >= 0 {
			groupPat = strings.TrimSpace(part[:i])
			namePat = strings.TrimSpace(part[i+len(patternSeparator):])
		}
		if groupPat == "" {
			return nil, fmt.Errorf("rule %q has empty group pattern", part)
		}

		group, err := regexp.Compile(groupPat)
		if err != nil {
			return nil, fmt.Errorf("rule %q: group pattern: %w", part, err)
		}

		rule := insertionRule{group: group}
		if namePat != "" {
			name, err := regexp.Compile(namePat)
			if err != nil {
				return nil, fmt.Errorf("rule %q: name pattern: %w", part, err)
			}
			rule.name = name
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// InsertNodes merges one hop's fetched records into the document.
//
// Every record becomes a permanent outbound entry, and its tag is appended
// to the member list of every group whose tag matches a rule's group
// pattern (member list created when absent). Existing members are never
// removed. A hop with an empty rule spec or no records is a no-op.
func InsertNodes(doc *domain.RoutingDocument, spec string, records []domain.NodeRecord) (inserted, groups int, err error) {
	if doc == nil || len(records) == 0 || strings.TrimSpace(spec) == "" {
		return 0, 0, nil
	}

	rules, err := parseInsertionRules(spec)
	if err != nil {
		return 0, 0, err
	}
	if len(rules) == 0 {
		return 0, 0, nil
	}

	for _, rec := range records {
		if rec.Outbound == nil || rec.Outbound.Tag == "" {
			continue
		}
		doc.Outbounds = append(doc.Outbounds, rec.Outbound)
		inserted++
	}

	for _, ob := range doc.Outbounds {
		if ob == nil || !ob.IsGroup() {
			continue
		}

		touched := false
		for _, rule := range rules {
			if !rule.group.MatchString(ob.Tag) {
				continue
			}
			for _, rec := range records {
				if rec.Outbound == nil || rec.Outbound.Tag == "" {
					continue
				}
				if rule.name != nil && !rule.name.MatchString(rec.Outbound.Tag) {
					continue
				}
				ob.Outbounds = append(ob.Outbounds, rec.Outbound.Tag)
				touched = true
			}
		}
		if touched {
			groups++
		}
	}

	return inserted, groups, nil
}
