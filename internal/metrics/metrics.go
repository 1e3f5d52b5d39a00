// Package metrics provides in-process counters for provider traffic and
// storefront actions. Counters are atomic; the shell prints them on demand.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Provider metrics
	rpcCallsTotal   atomic.Int64
	rpcErrorsTotal  atomic.Int64
	rpcLatencyNanos atomic.Int64
	rejectedTotal   atomic.Int64

	// Storefront metrics
	purchasesTotal  atomic.Int64
	purchaseErrors  atomic.Int64
	probesTotal     atomic.Int64
	probeReadsTotal atomic.Int64

	mu       sync.Mutex
	byMethod map[string]int64
}

// Global is the process-wide metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRPCCall records a provider call with its duration and outcome.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, err error) {
	m.rpcCallsTotal.Add(1)
	m.rpcLatencyNanos.Add(duration.Nanoseconds())

	if err != nil {
		m.rpcErrorsTotal.Add(1)
	}

	m.mu.Lock()
	if m.byMethod == nil {
		m.byMethod = make(map[string]int64)
	}
	m.byMethod[method]++
	m.mu.Unlock()
}

// RecordRejection records a request the user declined in the wallet.
func (m *Metrics) RecordRejection() {
	m.rejectedTotal.Add(1)
}

// RecordPurchase records a purchase attempt.
func (m *Metrics) RecordPurchase(err error) {
	m.purchasesTotal.Add(1)
	if err != nil {
		m.purchaseErrors.Add(1)
	}
}

// RecordProbe records one registry probe and the number of reads it issued.
func (m *Metrics) RecordProbe(reads int) {
	m.probesTotal.Add(1)
	m.probeReadsTotal.Add(int64(reads))
}

// MethodCount is the number of calls made for one JSON-RPC method.
type MethodCount struct {
	Method string `json:"method"`
	Calls  int64  `json:"calls"`
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RPCCallsTotal   int64         `json:"rpc_calls_total"`
	RPCErrorsTotal  int64         `json:"rpc_errors_total"`
	RPCLatencyAvgMs float64       `json:"rpc_latency_avg_ms"`
	RejectedTotal   int64         `json:"rejected_total"`
	PurchasesTotal  int64         `json:"purchases_total"`
	PurchaseErrors  int64         `json:"purchase_errors"`
	ProbesTotal     int64         `json:"probes_total"`
	ProbeReadsTotal int64         `json:"probe_reads_total"`
	Methods         []MethodCount `json:"methods,omitempty"`
}

// Snapshot returns a point-in-time copy of all metrics.
// Methods are sorted by name.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		RPCCallsTotal:   m.rpcCallsTotal.Load(),
		RPCErrorsTotal:  m.rpcErrorsTotal.Load(),
		RPCLatencyAvgMs: m.RPCLatencyAvgMs(),
		RejectedTotal:   m.rejectedTotal.Load(),
		PurchasesTotal:  m.purchasesTotal.Load(),
		PurchaseErrors:  m.purchaseErrors.Load(),
		ProbesTotal:     m.probesTotal.Load(),
		ProbeReadsTotal: m.probeReadsTotal.Load(),
	}

	m.mu.Lock()
	for method, n := range m.byMethod {
		snap.Methods = append(snap.Methods, MethodCount{Method: method, Calls: n})
	}
	m.mu.Unlock()

	sort.Slice(snap.Methods, func(i, j int) bool {
		return snap.Methods[i].Method < snap.Methods[j].Method
	})
	return snap
}

// RPCCallsTotal returns the total number of provider calls made.
func (m *Metrics) RPCCallsTotal() int64 {
	return m.rpcCallsTotal.Load()
}

// RPCErrorsTotal returns the total number of failed provider calls.
func (m *Metrics) RPCErrorsTotal() int64 {
	return m.rpcErrorsTotal.Load()
}

// RPCLatencyAvgMs returns the average provider latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RPCLatencyAvgMs() float64 {
	calls := m.rpcCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	nanos := m.rpcLatencyNanos.Load()
	return float64(nanos) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.rpcCallsTotal.Store(0)
	m.rpcErrorsTotal.Store(0)
	m.rpcLatencyNanos.Store(0)
	m.rejectedTotal.Store(0)
	m.purchasesTotal.Store(0)
	m.purchaseErrors.Store(0)
	m.probesTotal.Store(0)
	m.probeReadsTotal.Store(0)

	m.mu.Lock()
	m.byMethod = nil
	m.mu.Unlock()
}
