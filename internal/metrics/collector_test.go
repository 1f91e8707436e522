package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

func sampleRun(id string, success bool) domain.RunMetrics {
	return domain.RunMetrics{
		RunID:         id,
		Tier:          "premium",
		Route:         domain.RoutePrimary,
		TotalLatency:  200 * time.Millisecond,
		Phase1Latency: 120 * time.Millisecond,
		Phase2Latency: 80 * time.Millisecond,
		QualityScore:  8,
		Success:       success,
		Timestamp:     time.Now(),
	}
}

func TestCollector_Append(t *testing.T) {
	t.Run("should retain appended runs", func(t *testing.T) {
		collector := NewCollector(10, time.Hour)

		collector.Append(sampleRun("run-1", true))
		collector.Append(sampleRun("run-2", false))

		require.Equal(t, 2, collector.Len())
		window := collector.Window()
		require.Equal(t, "run-1", window[0].RunID)
		require.Equal(t, "run-2", window[1].RunID)
	})

	t.Run("should assign a timestamp when missing", func(t *testing.T) {
		collector := NewCollector(10, time.Hour)

		m := sampleRun("run-1", true)
		m.Timestamp = time.Time{}
		collector.Append(m)

		require.False(t, collector.Window()[0].Timestamp.IsZero())
	})

	t.Run("should drop the oldest runs beyond the window size", func(t *testing.T) {
		collector := NewCollector(3, time.Hour)

		for i := 1; i <= 5; i++ {
			collector.Append(sampleRun(fmt.Sprintf("run-%d", i), true))
		}

		require.Equal(t, 3, collector.Len())
		window := collector.Window()
		require.Equal(t, "run-3", window[0].RunID)
		require.Equal(t, "run-5", window[2].RunID)
	})

	t.Run("should drop runs older than the max age", func(t *testing.T) {
		collector := NewCollector(10, time.Minute)

		stale := sampleRun("run-stale", true)
		stale.Timestamp = time.Now().Add(-2 * time.Minute)
		collector.Append(stale)
		collector.Append(sampleRun("run-fresh", true))

		require.Equal(t, 1, collector.Len())
		require.Equal(t, "run-fresh", collector.Window()[0].RunID)
	})

	t.Run("should be safe under concurrent appends", func(t *testing.T) {
		collector := NewCollector(500, time.Hour)

		var wg sync.WaitGroup
		for g := range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range 20 {
					collector.Append(sampleRun(fmt.Sprintf("run-%d-%d", g, i), true))
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 200, collector.Len())
	})
}

func TestCollector_Snapshot(t *testing.T) {
	t.Run("should aggregate the rolling window", func(t *testing.T) {
		collector := NewCollector(10, time.Hour)

		first := sampleRun("run-1", true)
		first.TotalLatency = 100 * time.Millisecond
		first.CacheHits = 2
		first.Retries = 1
		first.EstimatedCost = 0.004
		first.TokenUsage = map[string]domain.Usage{
			"openai": {InputTokens: 100, OutputTokens: 50},
		}

		second := sampleRun("run-2", true)
		second.Route = domain.RouteValidatorFallback
		second.TotalLatency = 300 * time.Millisecond
		second.QualityScore = 5
		second.EstimatedCost = 0.002
		second.TokenUsage = map[string]domain.Usage{
			"openai": {InputTokens: 40, OutputTokens: 20},
			"gemini": {InputTokens: 30, OutputTokens: 10},
		}

		third := sampleRun("run-3", false)
		third.Route = domain.RouteEmergency
		third.TotalLatency = 200 * time.Millisecond
		third.QualityScore = 0

		collector.Append(first)
		collector.Append(second)
		collector.Append(third)

		summary := collector.Snapshot()
		require.Equal(t, 3, summary.WindowSize)
		require.Equal(t, 2, summary.SuccessCount)
		require.Equal(t, 1, summary.FailureCount)
		require.InDelta(t, 2.0/3.0, summary.SuccessRate, 1e-9)
		require.Equal(t, 200*time.Millisecond, summary.AvgTotalLatency)
		require.Equal(t, 2, summary.CacheHits)
		require.Equal(t, 1, summary.Retries)
		require.InDelta(t, 0.006, summary.EstimatedCost, 1e-9)

		require.Equal(t, 1, summary.RouteCounts[domain.RoutePrimary])
		require.Equal(t, 1, summary.RouteCounts[domain.RouteValidatorFallback])
		require.Equal(t, 1, summary.RouteCounts[domain.RouteEmergency])

		require.Equal(t, 1, summary.QualityBuckets["good"])
		require.Equal(t, 1, summary.QualityBuckets["fair"])
		require.Equal(t, 1, summary.QualityBuckets["unscored"])

		require.Equal(t, 140, summary.BackendTokens["openai"].InputTokens)
		require.Equal(t, 70, summary.BackendTokens["openai"].OutputTokens)
		require.Equal(t, 30, summary.BackendTokens["gemini"].InputTokens)
	})

	t.Run("should return an empty summary for an empty window", func(t *testing.T) {
		collector := NewCollector(10, time.Hour)

		summary := collector.Snapshot()
		require.Equal(t, 0, summary.WindowSize)
		require.Zero(t, summary.SuccessRate)
		require.Empty(t, summary.RouteCounts)
		require.Empty(t, summary.BackendTokens)
	})
}

func TestCollector_Maintenance(t *testing.T) {
	t.Run("should shed aged-out runs without further appends", func(t *testing.T) {
		collector := NewCollector(10, 30*time.Millisecond)
		defer collector.Close()

		collector.Append(sampleRun("run-1", true))
		collector.StartMaintenance(10 * time.Millisecond)

		require.Eventually(t, func() bool {
			return collector.Len() == 0
		}, time.Second, 10*time.Millisecond)
	})
}

func TestCollector_Reset(t *testing.T) {
	t.Run("should drop all retained runs", func(t *testing.T) {
		collector := NewCollector(10, time.Hour)
		collector.Append(sampleRun("run-1", true))
		collector.Append(sampleRun("run-2", true))

		collector.Reset()

		require.Equal(t, 0, collector.Len())
		require.Empty(t, collector.Window())
	})
}

func TestQualityBucket(t *testing.T) {
	t.Run("should map scores into distribution buckets", func(t *testing.T) {
		require.Equal(t, "unscored", qualityBucket(0))
		require.Equal(t, "poor", qualityBucket(2))
		require.Equal(t, "fair", qualityBucket(6))
		require.Equal(t, "good", qualityBucket(7))
		require.Equal(t, "excellent", qualityBucket(10))
	})
}
