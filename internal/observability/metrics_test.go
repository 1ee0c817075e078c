package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordExerciseLoggedMovesWatermark(t *testing.T) {
	before := testutil.ToFloat64(exercisesLoggedCounter)

	ts := time.Date(2025, time.October, 27, 0, 0, 0, 0, time.UTC)
	RecordExerciseLogged(ts)

	require.InDelta(t, before+1, testutil.ToFloat64(exercisesLoggedCounter), 0.0001)
	require.InDelta(t, float64(ts.Unix()), testutil.ToFloat64(exercisePersistGauge), 0.0001)

	RecordExerciseLogged(time.Time{})
	require.InDelta(t, float64(ts.Unix()), testutil.ToFloat64(exercisePersistGauge), 0.0001, "zero time leaves watermark untouched")
}

func TestRecordRequestLabelsUnmatchedRoutes(t *testing.T) {
	before := testutil.ToFloat64(requestCounter.WithLabelValues(http.MethodGet, "unmatched", "404"))

	RecordRequest(http.MethodGet, "", http.StatusNotFound, 5*time.Millisecond)

	after := testutil.ToFloat64(requestCounter.WithLabelValues(http.MethodGet, "unmatched", "404"))
	require.InDelta(t, before+1, after, 0.0001)
}

func TestRecordLogQueryObservesHistogram(t *testing.T) {
	before := sampleCount(t)

	RecordLogQuery(3)

	require.Equal(t, before+1, sampleCount(t))
}

func sampleCount(t *testing.T) uint64 {
	t.Helper()

	metric := &dto.Metric{}
	require.NoError(t, logEntriesHistogram.Write(metric))
	hist := metric.GetHistogram()
	require.NotNil(t, hist)
	return hist.GetSampleCount()
}
