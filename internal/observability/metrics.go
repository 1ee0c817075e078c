// Package observability registers Prometheus metrics for the exercise tracker.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersRegisteredCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "users_registered_total",
		Help:      "Number of users created.",
	})

	exercisesLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "exercises_logged_total",
		Help:      "Number of exercise entries created.",
	})

	exercisePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise written to the store.",
	})

	logEntriesHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "domain",
		Name:      "log_entries_returned",
		Help:      "Number of entries returned per exercise log query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"method", "route"})

	// EventsPublished counts domain events accepted by the broker, labeled by event type.
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Domain events written to Kafka, labeled by event type.",
	}, []string{"event_type"})

	// EventsFailed counts domain events that could not be published.
	EventsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "events",
		Name:      "failed_total",
		Help:      "Domain events that failed to publish, labeled by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(
		usersRegisteredCounter,
		exercisesLoggedCounter,
		exercisePersistGauge,
		logEntriesHistogram,
		requestCounter,
		requestDuration,
		EventsPublished,
		EventsFailed,
	)
}

// RecordUserRegistered increments the user creation counter.
func RecordUserRegistered() {
	usersRegisteredCounter.Inc()
}

// RecordExerciseLogged increments the exercise counter and moves the persistence watermark.
func RecordExerciseLogged(ts time.Time) {
	exercisesLoggedCounter.Inc()
	if ts.IsZero() {
		return
	}
	exercisePersistGauge.Set(float64(ts.Unix()))
}

// RecordLogQuery observes the size of a returned exercise log.
func RecordLogQuery(entries int) {
	logEntriesHistogram.Observe(float64(entries))
}

// RecordRequest observes a served HTTP request.
func RecordRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
