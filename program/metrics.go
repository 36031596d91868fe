package program

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instructionsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_instructions_processed_total",
		Help: "Total number of instructions processed successfully, by kind",
	}, []string{"kind"})
	instructionsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_instructions_failed_total",
		Help: "Total number of instructions rejected, by kind",
	}, []string{"kind"})
	slashProposalsOpenedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_slash_proposals_opened_total",
		Help: "Total number of slash proposals opened",
	})
	slashProposalsVetoedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_slash_proposals_vetoed_total",
		Help: "Total number of slash proposals vetoed",
	})
	slashProposalsExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_slash_proposals_executed_total",
		Help: "Total number of slash proposals executed",
	})
)
