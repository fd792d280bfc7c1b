package merge

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricNodesInserted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mergebox_nodes_inserted_total",
		Help: "Fetched nodes merged into the routing document, per hop.",
	}, []string{"hop"})

	metricTagsRenamed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mergebox_tags_renamed_total",
		Help: "Outbound tags renamed by the deduplication pass.",
	})

	metricCycleCuts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mergebox_chain_cycle_cuts_total",
		Help: "Chain edges removed because they closed a group-level cycle.",
	})

	metricDetourAssignments = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mergebox_detour_assignments_total",
		Help: "Leaf outbounds whose detour pointer was set by the chain assigner.",
	})

	metricFallbackFills = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mergebox_empty_group_fills_total",
		Help: "Groups back-filled with the fallback direct leaf.",
	})
)

func init() {
	prometheus.MustRegister(
		metricNodesInserted,
		metricTagsRenamed,
		metricCycleCuts,
		metricDetourAssignments,
		metricFallbackFills,
	)
}
