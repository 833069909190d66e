package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		settlementsTotal,
		cardsIssuedTotal,
		cardsDrawnPerSettlement,
	)
}

var (
	settlementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Purchase settlements by outcome.",
		},
		[]string{"outcome"}, // 'success', 'insufficient_funds', 'plan_not_found', 'error'
	)

	cardsIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cards_issued_total",
			Help: "Prepaid cards issued, by face value.",
		},
		[]string{"denomination"},
	)

	cardsDrawnPerSettlement = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cards_drawn_per_settlement",
			Help:    "Number of cards drawn upon by one successful settlement.",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		},
	)
)

func IncSettlement(outcome string) {
	settlementsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddCardsIssued(denomination int64, count int) {
	cardsIssuedTotal.WithLabelValues(strconv.FormatInt(denomination, 10)).Add(float64(count))
}

func ObserveCardsDrawn(n int) {
	cardsDrawnPerSettlement.Observe(float64(n))
}
