package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyToBucket(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want LatencyBucket
	}{
		{5 * time.Millisecond, BucketP10},
		{10 * time.Millisecond, BucketP50},
		{49 * time.Millisecond, BucketP50},
		{80 * time.Millisecond, BucketP100},
		{300 * time.Millisecond, BucketP500},
		{2 * time.Second, BucketP1000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyToBucket(tt.d))
	}
}

func TestRecorderAggregatesPerScope(t *testing.T) {
	r := NewRecorder()
	r.ObserveQuery("7", "vacation policy", 5*time.Millisecond, 3)
	r.ObserveQuery("7", "vacation days", 7*time.Millisecond, 2)
	r.ObserveQuery("7_alice", "expenses", 200*time.Millisecond, 1)

	assert.Equal(t, map[LatencyBucket]int64{BucketP10: 2}, r.LatencyCounts("7"))
	assert.Equal(t, map[LatencyBucket]int64{BucketP500: 1}, r.LatencyCounts("7_alice"))
	assert.Empty(t, r.LatencyCounts("global"))
}

func TestQueryTermsFilterShortTokens(t *testing.T) {
	terms := queryTerms("a dia of the vacation-policy 42")
	assert.ElementsMatch(t, []string{"dia", "the", "vacation", "policy"}, terms)
}

func TestRecorderZeroResultBufferCap(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < maxZeroResultBuffer+20; i++ {
		r.ObserveQuery("7", "no hits", time.Millisecond, 0)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Len(t, r.zeroResults, maxZeroResultBuffer)
}

func TestRecorderEvictsRarelySeenTerms(t *testing.T) {
	r := NewRecorder()
	r.ObserveQuery("7", "vacation", time.Millisecond, 1)
	for i := 0; i < maxTrackedTerms; i++ {
		r.ObserveQuery("7", fmt.Sprintf("filler%04d", i), time.Millisecond, 1)
	}

	// The table stays bounded; the oldest entry was evicted to make room.
	assert.Equal(t, maxTrackedTerms, r.terms.Len())
	assert.False(t, r.terms.Contains("vacation"))
	assert.True(t, r.terms.Contains(fmt.Sprintf("filler%04d", maxTrackedTerms-1)))
}
