package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAttempt(t *testing.T) {
	before := testutil.ToFloat64(LLMAttempts.WithLabelValues("test", "retryable"))

	RecordAttempt("test", "retryable", "503", 120*time.Millisecond)
	RecordAttempt("test", "retryable", "503", 80*time.Millisecond)

	if got := testutil.ToFloat64(LLMAttempts.WithLabelValues("test", "retryable")); got != before+2 {
		t.Fatalf("attempts = %v, want %v", got, before+2)
	}
	if n := testutil.CollectAndCount(LLMAttemptLatency, "mailsort_llm_attempt_latency_ms"); n == 0 {
		t.Fatal("latency histogram has no series")
	}
}

func TestIncrementClassification(t *testing.T) {
	before := testutil.ToFloat64(Classifications.WithLabelValues("auth"))
	IncrementClassification("auth")
	if got := testutil.ToFloat64(Classifications.WithLabelValues("auth")); got != before+1 {
		t.Fatalf("classifications = %v, want %v", got, before+1)
	}
}
