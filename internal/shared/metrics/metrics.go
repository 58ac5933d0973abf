package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	runStartedTotal   atomic.Uint64
	runCompletedTotal atomic.Uint64
	runFailedTotal    atomic.Uint64

	applySubmittedTotal atomic.Uint64
	applyFailedTotal    atomic.Uint64

	workerRunsReceivedTotal      atomic.Uint64
	workerRunsCompletedTotal     atomic.Uint64
	workerRunsFailedTotal        atomic.Uint64
	workerRunsUnrecoverableTotal atomic.Uint64

	wsConnections atomic.Int64

	runDuration = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000})
)

// IncRunStarted increments the workflow-run started counter.
func IncRunStarted() {
	runStartedTotal.Add(1)
}

// IncRunCompleted increments the workflow-run completed counter.
func IncRunCompleted() {
	runCompletedTotal.Add(1)
}

// IncRunFailed increments the workflow-run failed counter.
func IncRunFailed() {
	runFailedTotal.Add(1)
}

// IncApplySubmitted increments the submitted-applications counter.
func IncApplySubmitted() {
	applySubmittedTotal.Add(1)
}

// IncApplyFailed increments the failed-applications counter.
func IncApplyFailed() {
	applyFailedTotal.Add(1)
}

// IncWorkerRunsReceived increments the worker received-messages counter.
func IncWorkerRunsReceived() {
	workerRunsReceivedTotal.Add(1)
}

// IncWorkerRunsCompleted increments the worker completed-runs counter.
func IncWorkerRunsCompleted() {
	workerRunsCompletedTotal.Add(1)
}

// IncWorkerRunsFailed increments the worker failed-runs counter.
func IncWorkerRunsFailed() {
	workerRunsFailedTotal.Add(1)
}

// IncWorkerRunsDeletedUnrecoverable increments the counter of queue
// messages deleted because they can never succeed.
func IncWorkerRunsDeletedUnrecoverable() {
	workerRunsUnrecoverableTotal.Add(1)
}

// IncWSConnections adjusts the live websocket connection gauge.
func IncWSConnections(delta int64) {
	wsConnections.Add(delta)
}

// ObserveRunDurationMs records a workflow run duration in milliseconds.
func ObserveRunDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	runDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "autoapply_runs_started_total", "Total auto-apply runs started", runStartedTotal.Load())
	writeCounter(&buf, "autoapply_runs_completed_total", "Total auto-apply runs completed", runCompletedTotal.Load())
	writeCounter(&buf, "autoapply_runs_failed_total", "Total auto-apply runs failed", runFailedTotal.Load())
	writeCounter(&buf, "autoapply_applications_submitted_total", "Total applications submitted", applySubmittedTotal.Load())
	writeCounter(&buf, "autoapply_applications_failed_total", "Total applications failed", applyFailedTotal.Load())
	writeCounter(&buf, "autoapply_worker_runs_received_total", "Total run messages received by the worker", workerRunsReceivedTotal.Load())
	writeCounter(&buf, "autoapply_worker_runs_completed_total", "Total run messages completed by the worker", workerRunsCompletedTotal.Load())
	writeCounter(&buf, "autoapply_worker_runs_failed_total", "Total run messages failed by the worker", workerRunsFailedTotal.Load())
	writeCounter(&buf, "autoapply_worker_runs_deleted_unrecoverable_total", "Total unrecoverable run messages deleted by the worker", workerRunsUnrecoverableTotal.Load())
	writeGauge(&buf, "websocket_connections", "Live websocket connections", wsConnections.Load())
	writeHistogram(&buf, "autoapply_run_duration_ms", "Auto-apply run duration in milliseconds", runDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeGauge(buf *bytes.Buffer, name, help string, value int64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s gauge\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
