// Package metrics holds the process-wide instrumentation counters and the
// HTTP endpoint that exposes them in Prometheus text format.
//
// All signals are fire-and-forget: the engine and the protocol layer
// increment counters inline and never block on or depend on their delivery.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ValentinKolb/redikv/lib/logging"
	"github.com/VictoriaMetrics/metrics"
)

var logger = logging.GetLogger("metrics")

// --------------------------------------------------------------------------
// Transaction Counters
// --------------------------------------------------------------------------

var (
	// TxnCounter counts started transactions.
	TxnCounter = metrics.NewCounter("redikv_txn_total")
	// TxnRetryCounter counts conflict-triggered retries.
	TxnRetryCounter = metrics.NewCounter("redikv_txn_retry_total")
	// TxnCommitCounter counts successful commits.
	TxnCommitCounter = metrics.NewCounter("redikv_txn_commit_total")
	// TxnAbortCounter counts aborted (rolled back) transactions.
	TxnAbortCounter = metrics.NewCounter("redikv_txn_abort_total")
	// SnapshotCounter counts read-only transactional units of work.
	SnapshotCounter = metrics.NewCounter("redikv_snapshot_total")
	// RawOpCounter counts operations executed on the raw path.
	RawOpCounter = metrics.NewCounter("redikv_raw_ops_total")
)

// --------------------------------------------------------------------------
// Protocol Counters
// --------------------------------------------------------------------------

var (
	// ConnectionsProcessed counts accepted client connections.
	ConnectionsProcessed = metrics.NewCounter("redikv_connections_processed_total")
	// RequestCounter counts handled protocol requests.
	RequestCounter = metrics.NewCounter("redikv_requests_total")
	// TrafficIn counts bytes read from clients.
	TrafficIn = metrics.NewCounter("redikv_data_traffic_in_bytes_total")
	// TrafficOut counts bytes written to clients.
	TrafficOut = metrics.NewCounter("redikv_data_traffic_out_bytes_total")
)

// CommandRequest counts one dispatched command.
func CommandRequest(cmd string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`redikv_command_requests_total{cmd=%q}`, cmd)).Inc()
}

// CommandFinish counts one finished command and records its handle time.
func CommandFinish(cmd string, start time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`redikv_command_requests_finished_total{cmd=%q}`, cmd)).Inc()
	metrics.GetOrCreateHistogram(fmt.Sprintf(`redikv_command_handle_seconds{cmd=%q}`, cmd)).UpdateDuration(start)
}

// RegisterConnectionGauge exposes the current connection count. The callback
// is evaluated lazily on every scrape.
func RegisterConnectionGauge(current func() float64) {
	metrics.GetOrCreateGauge("redikv_current_connections", current)
}

// --------------------------------------------------------------------------
// Prometheus Endpoint
// --------------------------------------------------------------------------

// Serve exposes /metrics on addr. It runs in its own goroutine and only
// logs on failure; metrics never affect the serving path.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	go func() {
		logger.Infof("prometheus endpoint listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("prometheus endpoint failed: %v", err)
		}
	}()
}
