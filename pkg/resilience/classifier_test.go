package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/dumbsheep1990/zzdsj-backend-api-sub011/pkg/errors"
)

func TestClassifier_DefaultTable(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		kind     apperrors.FaultKind
		severity Severity
	}{
		{apperrors.FaultTimeout, SeverityMedium},
		{apperrors.FaultConnection, SeverityHigh},
		{apperrors.FaultUnavailable, SeverityHigh},
		{apperrors.FaultRateLimit, SeverityMedium},
		{apperrors.FaultPermissionDenied, SeverityHigh},
		{apperrors.FaultValidation, SeverityLow},
		{apperrors.FaultNotFound, SeverityLow},
		{apperrors.FaultConflict, SeverityLow},
		{apperrors.FaultInternal, SeverityCritical},
		{apperrors.FaultExternal, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.severity, classifier.Classify(tt.kind))
		})
	}
}

func TestClassifier_UnknownKindDefaultsToLow(t *testing.T) {
	classifier := NewClassifier()

	assert.Equal(t, SeverityLow, classifier.Classify("something_new"))
	assert.Equal(t, SeverityLow, classifier.Classify(""))
	assert.Equal(t, SeverityLow, classifier.Classify(apperrors.FaultUnknown))
}

func TestClassifier_Overrides(t *testing.T) {
	classifier := NewClassifierWithTable(map[apperrors.FaultKind]Severity{
		apperrors.FaultTimeout: SeverityCritical,
		"index_corruption":     SeverityCritical,
	})

	assert.Equal(t, SeverityCritical, classifier.Classify(apperrors.FaultTimeout))
	assert.Equal(t, SeverityCritical, classifier.Classify("index_corruption"))
	// Untouched entries keep their defaults
	assert.Equal(t, SeverityHigh, classifier.Classify(apperrors.FaultConnection))
}

func TestClassifier_ClassifyError(t *testing.T) {
	classifier := NewClassifier()

	assert.Equal(t, SeverityMedium, classifier.ClassifyError(apperrors.NewTimeoutError("search")))
	assert.Equal(t, SeverityCritical, classifier.ClassifyError(apperrors.NewInternalError("broken")))
	assert.Equal(t, SeverityLow, classifier.ClassifyError(errors.New("plain error")))
	assert.Equal(t, SeverityLow, classifier.ClassifyError(nil))
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "LOW", SeverityLow.String())
	assert.Equal(t, "MEDIUM", SeverityMedium.String())
	assert.Equal(t, "HIGH", SeverityHigh.String())
	assert.Equal(t, "CRITICAL", SeverityCritical.String())
	assert.Equal(t, "UNKNOWN", Severity(42).String())
}
