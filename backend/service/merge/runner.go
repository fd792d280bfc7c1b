package merge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mergebox/backend/domain"
)

// Fetcher 按 hop 拉取订阅节点。拉取失败只影响当前 hop，不终止整次运行。
type Fetcher interface {
	Fetch(ctx context.Context, src domain.HopSource) ([]domain.NodeRecord, error)
}

// Persister 把改写后的文档落盘（原子写）。
type Persister interface {
	Save(doc *domain.RoutingDocument) error
}

// Runner owns the routing document and executes merge runs against it.
// A run is single-threaded by design: hops are handled strictly in
// declared order because a later hop's rules may target groups only just
// populated by an earlier hop.
type Runner struct {
	fetcher Fetcher
	store   Persister
	hops    []domain.HopSource
	edges   []domain.ChainEdge
	log     *zap.Logger

	runMu sync.Mutex // 串行化合并运行

	mu      sync.Mutex // 保护 doc 与 summary
	doc     *domain.RoutingDocument
	summary *domain.MergeSummary
}

func NewRunner(doc *domain.RoutingDocument, fetcher Fetcher, store Persister, hops []domain.HopSource, edges []domain.ChainEdge, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		fetcher: fetcher,
		store:   store,
		hops:    hops,
		edges:   edges,
		log:     log,
		doc:     doc,
	}
}

// Run 执行一次完整的合并：逐 hop 拉取并插入、去重、改写引用、
// 断开链环、赋值 detour、回填空组，最后落盘。
func (r *Runner) Run(ctx context.Context) (domain.MergeSummary, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	summary := domain.MergeSummary{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
	}

	// 拉取阶段不持有文档锁：单次订阅下载可达分钟级，
	// 期间 /document 与 /summary 仍需可读。插入阶段再按声明顺序处理。
	type hopFetch struct {
		hop     domain.HopSource
		stat    domain.HopStat
		records []domain.NodeRecord
		skipped bool
	}
	fetches := make([]hopFetch, 0, len(r.hops))
	for _, hop := range r.hops {
		f := hopFetch{hop: hop, stat: domain.HopStat{Hop: hop.Name}}

		if !hop.Enabled || hop.URL == "" {
			f.skipped = true
			fetches = append(fetches, f)
			continue
		}

		records, err := r.fetcher.Fetch(ctx, hop)
		if err != nil {
			// 单 hop 拉取失败不回滚之前已合并的 hop：尽力而为，失败只记录。
			f.stat.Error = err.Error()
			f.skipped = true
			r.log.Warn("hop fetch failed",
				zap.String("hop", hop.Name),
				zap.Error(err))
			fetches = append(fetches, f)
			continue
		}
		f.stat.Fetched = len(records)
		f.records = records
		fetches = append(fetches, f)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil {
		return domain.MergeSummary{}, errors.New("runner has no document")
	}

	for _, f := range fetches {
		stat := f.stat
		if f.skipped {
			summary.Hops = append(summary.Hops, stat)
			continue
		}

		inserted, groups, err := InsertNodes(r.doc, f.hop.Rules, f.records)
		if err != nil {
			stat.Error = err.Error()
			summary.Hops = append(summary.Hops, stat)
			r.log.Warn("hop insertion skipped",
				zap.String("hop", f.hop.Name),
				zap.Error(err))
			continue
		}
		stat.Inserted = inserted
		stat.Groups = groups
		summary.Hops = append(summary.Hops, stat)
		metricNodesInserted.WithLabelValues(f.hop.Name).Add(float64(inserted))
	}

	finals, renamed := DedupTags(r.doc)
	summary.RenamedTags = renamed
	metricTagsRenamed.Add(float64(renamed))

	summary.RewrittenRefs = RewriteReferences(r.doc, finals)

	chain, duplicates := BuildChainMap(r.doc, r.edges)
	for _, src := range duplicates {
		r.log.Warn("duplicate chain source, last declaration wins",
			zap.String("source", src))
	}

	cuts := BreakChainCycles(chain)
	summary.CycleCuts = cuts
	metricCycleCuts.Add(float64(len(cuts)))
	for _, cut := range cuts {
		r.log.Warn("chain cycle broken", zap.String("edge", cut))
	}

	assigned, emptySources := AssignDetours(r.doc, chain)
	summary.DetourAssignments = assigned
	summary.EmptyChainSources = emptySources
	metricDetourAssignments.Add(float64(assigned))
	for _, src := range emptySources {
		r.log.Warn("chain source resolved to empty closure",
			zap.String("source", src))
	}

	filled := FillEmptyGroups(r.doc)
	summary.FallbackFills = filled
	metricFallbackFills.Add(float64(len(filled)))

	if r.store != nil {
		if err := r.store.Save(r.doc); err != nil {
			r.log.Error("document save failed", zap.Error(err))
			r.summary = &summary
			return summary, err
		}
	}

	r.summary = &summary
	r.log.Info("merge run finished",
		zap.String("runId", summary.RunID),
		zap.Int("renamedTags", summary.RenamedTags),
		zap.Int("detourAssignments", summary.DetourAssignments),
		zap.Int("cycleCuts", len(summary.CycleCuts)))
	return summary, nil
}

// DocumentJSON 返回当前文档的 JSON 快照。
func (r *Runner) DocumentJSON() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return json.Marshal(r.doc)
}

// LastSummary 返回最近一次运行的结果；尚未运行过时 ok=false。
func (r *Runner) LastSummary() (domain.MergeSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.summary == nil {
		return domain.MergeSummary{}, false
	}
	return *r.summary, true
}
