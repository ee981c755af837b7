package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verdictCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "despawner_verdicts_total",
	Help: "Number of member evaluations by verdict",
}, []string{"verdict"})

var outcomeCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "despawner_outcomes_total",
	Help: "Number of moderation outcomes",
}, []string{"outcome", "reason"})

var bansPerformed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "despawner_bans_total",
	Help: "Number of bans performed since process start",
})
