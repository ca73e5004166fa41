package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := NewScoringUnavailableError()
	wrapped := fmt.Errorf("predict: %w", err)

	assert.True(t, stderrors.Is(wrapped, ErrScoringUnavailable))
	assert.False(t, stderrors.Is(wrapped, ErrExplanationUnavailable))
	assert.Equal(t, ErrCodeScoringUnavailable, CodeOf(wrapped))
}

func TestStandardError_UnwrapsBackendCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewBackendInvocationFailedError("remote-model", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "remote-model", err.Metadata["backend"])
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewValidationError_RecordsFields(t *testing.T) {
	err := NewValidationError("age: not a number", []string{"age"})

	assert.Equal(t, ErrCodeValidation, err.Code)
	assert.Equal(t, []string{"age"}, err.Metadata["fields"])
	assert.False(t, err.Retryable)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeParse, http.StatusBadRequest},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeScoringUnavailable, http.StatusServiceUnavailable},
		{ErrCodeExplanationUnavailable, http.StatusServiceUnavailable},
		{ErrCodeExplanationShapeUnrecognized, http.StatusBadGateway},
		{ErrCodeBackendInvocationFailed, http.StatusBadGateway},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "BACKEND_UNAVAILABLE", GetErrorCategory(ErrCodeScoringUnavailable))
	assert.Equal(t, "BACKEND_UNAVAILABLE", GetErrorCategory(ErrCodeExplanationUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidation))
	assert.Equal(t, "EXPLANATION", GetErrorCategory(ErrCodeExplanationShapeUnrecognized))
	assert.Equal(t, "BACKEND", GetErrorCategory(ErrCodeBackendInvocationFailed))
	assert.Equal(t, "SINK", GetErrorCategory(ErrCodeAuditWriteFailed))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewValidationError("DebtRatio: expected number, got string", []string{"DebtRatio"})

	bpmnErr := ConvertToBPMNError(stdErr)
	vars := bpmnErr.ToErrorVariables()

	assert.Equal(t, "VALIDATION_ERROR", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, "VALIDATION_ERROR", vars["errorCode"])
	assert.Equal(t, "VALIDATION", vars["errorCategory"])
	assert.Equal(t, []string{"DebtRatio"}, vars["invalidFields"])
}

func TestAsStandardError_WrapsForeignErrors(t *testing.T) {
	stdErr := AsStandardError(stderrors.New("boom"))

	require.NotNil(t, stdErr)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), stdErr.Code)
	assert.Equal(t, 0, GetRetryCount(stdErr.Code))
}
