package domain

import (
	"time"
)

// OutboundType sing-box 出站类型
type OutboundType string

const (
	TypeSelector    OutboundType = "selector"
	TypeURLTest     OutboundType = "urltest"
	TypeLoadBalance OutboundType = "loadbalance"

	TypeDirect OutboundType = "direct"
	TypeBlock  OutboundType = "block"
	TypeDNS    OutboundType = "dns"
)

// IsGroupType 判断是否为策略组类型（引用其它出站的出站）
func IsGroupType(t OutboundType) bool {
	return t == TypeSelector || t == TypeURLTest || t == TypeLoadBalance
}

// IsTerminalType 判断是否为终端类型（direct/block/dns，不参与链式上游）
func IsTerminalType(t OutboundType) bool {
	return t == TypeDirect || t == TypeBlock || t == TypeDNS
}

// NodeRecord 从单个订阅源（hop）拉取到的叶子出站及其来源标签
type NodeRecord struct {
	Outbound *Outbound `json:"outbound"`
	Hop      string    `json:"hop"`
}

// HopSource 一个订阅源：拉取一批节点并按自身规则插入策略组
type HopSource struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	URL     string `json:"url" yaml:"url"`
	Rules   string `json:"rules" yaml:"rules"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// ChainEdge 声明链式代理：源策略组解析出的节点必须经目标策略组中转
type ChainEdge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// HopStat 单个 hop 的合并统计
type HopStat struct {
	Hop      string `json:"hop"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Groups   int    `json:"groups"`
	Error    string `json:"error,omitempty"`
}

// MergeSummary 一次合并运行的结构化结果（供运维排查，不作为错误向上传播）
type MergeSummary struct {
	RunID             string    `json:"runId"`
	Hops              []HopStat `json:"hops"`
	RenamedTags       int       `json:"renamedTags"`
	RewrittenRefs     int       `json:"rewrittenRefs"`
	CycleCuts         []string  `json:"cycleCuts,omitempty"`
	EmptyChainSources []string  `json:"emptyChainSources,omitempty"`
	DetourAssignments int       `json:"detourAssignments"`
	FallbackFills     []string  `json:"fallbackFills,omitempty"`
	GeneratedAt       time.Time `json:"generatedAt"`
}
