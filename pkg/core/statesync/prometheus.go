package statesync

import "github.com/prometheus/client_golang/prometheus"

// Metrics for the state synchronization module.
var (
	accountRangesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of successfully applied account ranges",
			Name:      "account_ranges_applied",
			Namespace: "quillgo",
		},
	)
	accountRangesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of rejected or failed account ranges",
			Name:      "account_ranges_failed",
			Namespace: "quillgo",
		},
	)
	storageRangesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of successfully applied storage ranges",
			Name:      "storage_ranges_applied",
			Namespace: "quillgo",
		},
	)
	storageRangesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of rejected or failed storage ranges",
			Name:      "storage_ranges_failed",
			Namespace: "quillgo",
		},
	)
	leavesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie leaves applied by range merges",
			Name:      "leaves_applied",
			Namespace: "quillgo",
		},
	)
)

func init() {
	prometheus.MustRegister(
		accountRangesApplied,
		accountRangesFailed,
		storageRangesApplied,
		storageRangesFailed,
		leavesApplied,
	)
}
