package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/redikv/lib/backend"
)

// --------------------------------------------------------------------------
// Server Configuration
// --------------------------------------------------------------------------

// BackendKind selects the backend implementation.
type BackendKind string

const (
	// BackendTiKV is the production backend.
	BackendTiKV BackendKind = "tikv"
	// BackendMemory is the in-process dev/test backend.
	BackendMemory BackendKind = "memory"
)

// Config holds all configuration parameters for the server. It is resolved
// once before startup; no runtime reconfiguration is supported.
type Config struct {
	// ListenAddr is the address clients connect to.
	ListenAddr string
	// MetricsAddr is the address of the Prometheus endpoint ("" disables it).
	MetricsAddr string
	// LogLevel is the level at which logs will be output (debug, info, warn, error).
	LogLevel string

	// Backend selection and connection parameters.
	BackendKind BackendKind
	Backend     backend.Config

	// Concurrency is the number of transactional backend sessions.
	Concurrency int
	// MetaSlots is the meta-key shard count N. Must not change between
	// process runs against the same data set.
	MetaSlots uint16
	// TxnRetries bounds the conflict-retry loop per command.
	TxnRetries int
	// UseTxnAPI selects full transactional semantics. When false, the
	// string/key families run on the raw path and every command family
	// needing multi-step atomicity is refused.
	UseTxnAPI bool
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Server")
	addField("Listen Address", c.ListenAddr)
	addField("Metrics Address", c.MetricsAddr)
	addField("Log Level", c.LogLevel)
	addField("Txn API", strconv.FormatBool(c.UseTxnAPI))

	addSection("Backend")
	addField("Kind", string(c.BackendKind))
	addField("Addresses", strings.Join(c.Backend.Addrs, ","))
	addField("Timeout", c.Backend.Timeout.String())
	addField("TLS", strconv.FormatBool(c.Backend.WithTLS()))
	addField("Allow Batch", strconv.FormatBool(c.Backend.AllowBatch))
	if c.Backend.AllowBatch {
		addField("Max Batch Size", strconv.FormatUint(uint64(c.Backend.MaxBatchSize), 10))
		addField("Max Batch Wait", c.Backend.MaxBatchWaitTime.String())
		addField("Overload Threshold", strconv.FormatUint(uint64(c.Backend.OverloadThreshold), 10))
	}
	addField("Max Inflight", strconv.FormatUint(uint64(c.Backend.MaxInflightRequests), 10))
	addField("Keepalive", c.Backend.GrpcKeepaliveTime.String())
	addField("Keepalive Timeout", c.Backend.GrpcKeepaliveTimeout.String())

	addSection("Engine")
	addField("Session Concurrency", strconv.Itoa(c.Concurrency))
	addField("Meta Key Number", strconv.FormatUint(uint64(c.MetaSlots), 10))
	addField("Txn Retries", strconv.Itoa(c.TxnRetries))

	return sb.String()
}

// withDefaults fills unset values.
func (c Config) withDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = "0.0.0.0:6379"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BackendKind == "" {
		c.BackendKind = BackendTiKV
	}
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.MetaSlots < 1 {
		c.MetaSlots = 16
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	return c
}
