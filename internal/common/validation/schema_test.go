package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

func TestValidateApplicantJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantValid  bool
		wantFields []string
	}{
		{"empty object", `{}`, true, nil},
		{"numbers and nulls", `{"age": 40, "MonthlyIncome": null, "DebtRatio": 0.2}`, true, nil},
		{"unknown attributes ignored", `{"nickname": "bob"}`, true, nil},
		{"string attribute", `{"age": "forty"}`, false, []string{"age"}},
		{"two bad attributes", `{"DebtRatio": true, "age": [1]}`, false, []string{"DebtRatio", "age"}},
		{"not an object", `[1, 2]`, false, []string{"(root)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateApplicantJSON([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.Equal(t, tt.wantFields, result.Fields())
				assert.NotEmpty(t, result.Summary())
			}
		})
	}
}

func TestValidateApplicantJSON_Malformed(t *testing.T) {
	_, err := ValidateApplicantJSON([]byte(`{"age":`))
	assert.Error(t, err)
}

func TestApplicantSchemaJSON(t *testing.T) {
	data, err := ApplicantSchemaJSON()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))
	props := schema["properties"].(map[string]interface{})
	assert.Len(t, props, len(models.RecognizedAttributes))
}

func TestDecodeApplicant(t *testing.T) {
	raw, err := DecodeApplicant([]byte(`{"age": 35, "DebtRatio": null}`))
	require.NoError(t, err)
	assert.Equal(t, 35.0, raw["age"])
	assert.Nil(t, raw["DebtRatio"])

	tests := []struct {
		name string
		body string
		code errors.ErrorCode
	}{
		{"empty", "  ", errors.ErrCodeParse},
		{"malformed", `{"age": }`, errors.ErrCodeParse},
		{"null document", `null`, errors.ErrCodeValidation},
		{"string value", `{"MonthlyIncome": "4k"}`, errors.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeApplicant([]byte(tt.body))
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}
