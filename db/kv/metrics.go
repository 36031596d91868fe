package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	slashProposalsPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_slash_proposals_pruned_total",
		Help: "Total number of resolved slash proposals pruned from the database",
	})
	slashProposalsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_slash_proposals_deleted_total",
		Help: "Total number of slash proposals deleted via the delete operation",
	})
)
