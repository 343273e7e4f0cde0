package resilience

import (
	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
)

// Severity represents the severity level of a recorded error
type Severity int

const (
	// SeverityLow - transient or expected faults, no action required
	SeverityLow Severity = iota
	// SeverityMedium - faults worth watching, usually retryable
	SeverityMedium
	// SeverityHigh - faults that degrade a downstream service
	SeverityHigh
	// SeverityCritical - faults that threaten core functionality
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Classifier maps fault kinds to severity levels using a fixed lookup table.
// Classification is pure and total: unknown kinds default to SeverityLow.
type Classifier struct {
	table map[apperrors.FaultKind]Severity
}

// defaultSeverityTable is the built-in fault kind to severity mapping
var defaultSeverityTable = map[apperrors.FaultKind]Severity{
	apperrors.FaultTimeout:          SeverityMedium,
	apperrors.FaultConnection:       SeverityHigh,
	apperrors.FaultUnavailable:      SeverityHigh,
	apperrors.FaultRateLimit:        SeverityMedium,
	apperrors.FaultPermissionDenied: SeverityHigh,
	apperrors.FaultValidation:       SeverityLow,
	apperrors.FaultNotFound:         SeverityLow,
	apperrors.FaultConflict:         SeverityLow,
	apperrors.FaultInternal:         SeverityCritical,
	apperrors.FaultExternal:         SeverityMedium,
}

// NewClassifier creates a classifier with the default severity table
func NewClassifier() *Classifier {
	return NewClassifierWithTable(nil)
}

// NewClassifierWithTable creates a classifier with the default table merged
// with the given overrides. The table is copied and never mutated afterwards.
func NewClassifierWithTable(overrides map[apperrors.FaultKind]Severity) *Classifier {
	table := make(map[apperrors.FaultKind]Severity, len(defaultSeverityTable)+len(overrides))
	for kind, severity := range defaultSeverityTable {
		table[kind] = severity
	}
	for kind, severity := range overrides {
		table[kind] = severity
	}
	return &Classifier{table: table}
}

// Classify returns the severity for a fault kind
func (c *Classifier) Classify(kind apperrors.FaultKind) Severity {
	if severity, ok := c.table[kind]; ok {
		return severity
	}
	return SeverityLow
}

// ClassifyError returns the severity for an error's fault kind
func (c *Classifier) ClassifyError(err error) Severity {
	return c.Classify(apperrors.KindOf(err))
}
