package resilience

import (
	"runtime"
	"sync"
	"time"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
)

// DefaultMaxHistorySize is the default bound on retained error records
const DefaultMaxHistorySize = 1000

// ErrorRecord captures one observed fault at a protected call site
type ErrorRecord struct {
	ID                  string                 `json:"id"`
	Timestamp           time.Time              `json:"timestamp"`
	FaultKind           apperrors.FaultKind    `json:"fault_kind"`
	Message             string                 `json:"message"`
	Severity            Severity               `json:"severity"`
	ServiceName         string                 `json:"service_name"`
	OperationName       string                 `json:"operation_name"`
	Context             map[string]interface{} `json:"context,omitempty"`
	StackTrace          string                 `json:"stack_trace,omitempty"`
	ResolutionAttempted bool                   `json:"resolution_attempted"`
	Resolved            bool                   `json:"resolved"`
}

// Ledger is an append-only, size-bounded, in-memory log of error records.
// Appends are mutex-guarded; writes are infrequent relative to normal traffic
// so a single lock is sufficient.
type Ledger struct {
	mutex   sync.Mutex
	records []ErrorRecord
	maxSize int
}

// LedgerStats holds aggregate statistics over the current ledger contents
type LedgerStats struct {
	TotalErrors int            `json:"total_errors"`
	BySeverity  map[string]int `json:"by_severity"`
	ByService   map[string]int `json:"by_service"`
	ByFaultKind map[string]int `json:"by_fault_kind"`
}

// NewLedger creates a ledger bounded to maxSize records. Non-positive sizes
// fall back to DefaultMaxHistorySize.
func NewLedger(maxSize int) *Ledger {
	if maxSize <= 0 {
		maxSize = DefaultMaxHistorySize
	}
	return &Ledger{
		records: make([]ErrorRecord, 0, maxSize/4+1),
		maxSize: maxSize,
	}
}

// Record appends a record. Once the ledger exceeds its bound the oldest half
// is evicted in one compaction pass, which keeps eviction cost amortized
// instead of paying a shift on every append.
func (l *Ledger) Record(rec ErrorRecord) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.records = append(l.records, rec)

	if len(l.records) > l.maxSize {
		keep := len(l.records) / 2
		compacted := make([]ErrorRecord, keep)
		copy(compacted, l.records[len(l.records)-keep:])
		l.records = compacted
	}
}

// MarkResolution sets the resolution flags on the record with the given ID.
// These two flags are the only mutation a record ever sees, applied once by
// the recovery hook step.
func (l *Ledger) MarkResolution(id string, attempted, resolved bool) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i := len(l.records) - 1; i >= 0; i-- {
		if l.records[i].ID == id {
			l.records[i].ResolutionAttempted = attempted
			l.records[i].Resolved = resolved
			return
		}
	}
}

// Len returns the number of records currently retained
func (l *Ledger) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.records)
}

// Recent returns a copy of the most recent n records, newest last
func (l *Ledger) Recent(n int) []ErrorRecord {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}

	out := make([]ErrorRecord, n)
	copy(out, l.records[len(l.records)-n:])
	return out
}

// Stats scans the current ledger contents and returns aggregate counts.
// An empty ledger yields a zero-valued structure, never an error.
func (l *Ledger) Stats() LedgerStats {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	stats := LedgerStats{
		TotalErrors: len(l.records),
		BySeverity:  make(map[string]int),
		ByService:   make(map[string]int),
		ByFaultKind: make(map[string]int),
	}

	for _, rec := range l.records {
		stats.BySeverity[rec.Severity.String()]++
		stats.ByService[rec.ServiceName]++
		stats.ByFaultKind[string(rec.FaultKind)]++
	}

	return stats
}

// captureStack returns the current stack trace
func captureStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
