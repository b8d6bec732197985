package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterSaves         *prometheus.CounterVec
	CounterCoachRequests *prometheus.CounterVec
	CounterAdviceCache   *prometheus.CounterVec
	CounterSessions      prometheus.Counter
	CounterRequestPanics prometheus.Counter

	// gauges
	GaugeRequests   prometheus.Gauge
	GaugeLifeSignal prometheus.Gauge

	// histograms
	HistRequestDuration prometheus.Histogram
	HistCoachDuration   *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("swimflow", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("swimflow", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterSaves := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "snapshot_saves",
		Help:      "Snapshot save attempts by result",
	}, []string{"result"})
	counterCoachRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "coach_requests",
		Help:      "Coaching requests by kind and result",
	}, []string{"kind", "result"})
	counterAdviceCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "advice_cache",
		Help:      "Advice cache lookups by kind and outcome",
	}, []string{"kind", "outcome"})
	counterSessions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_logged",
		Help:      "The total number of logged swim sessions",
	})
	counterRequestPanics := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of panics while handling a request",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})

	histReqDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		Name:      "request_duration_seconds",
		Help:      "Total duration of requests in seconds",
	})
	histCoachDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 60},
		Name:      "coach_request_duration_seconds",
		Help:      "Duration of model calls in seconds",
	}, []string{"kind"})

	return &Manager{
		CounterRequests:      counterRequests,
		CounterSaves:         counterSaves,
		CounterCoachRequests: counterCoachRequests,
		CounterAdviceCache:   counterAdviceCache,
		CounterSessions:      counterSessions,
		CounterRequestPanics: counterRequestPanics,
		GaugeRequests:        gaugeRequests,
		GaugeLifeSignal:      gaugeLifeSignal,
		HistRequestDuration:  histReqDuration,
		HistCoachDuration:    histCoachDuration,
	}
}
