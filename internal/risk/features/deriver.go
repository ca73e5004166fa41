// Package features turns raw applicant attributes into the fixed-order
// feature vector consumed by scoring and explanation backends.
package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// Derive builds the FeatureVector for raw. Absent, null and NaN attributes
// count as 0. Any non-numeric or infinite recognized attribute fails the whole
// call with a validation error naming every offending attribute.
func Derive(raw models.RawApplicant) (models.FeatureVector, error) {
	var vec models.FeatureVector
	var invalid []string

	for i, name := range models.RecognizedAttributes {
		value, ok := toFloat(raw[name])
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		vec[i] = value
	}

	if len(invalid) > 0 {
		return models.FeatureVector{}, errors.NewValidationError(
			fmt.Sprintf("non-numeric value for: %s", strings.Join(invalid, ", ")),
			invalid,
		)
	}

	late30 := vec[2]
	debtRatio := vec[3]
	late90 := vec[6]
	late60 := vec[8]

	vec[10] = late30 + late60 + late90
	vec[11] = debtRatio
	if late90 > 0 {
		vec[12] = 1
	}
	vec[13] = float64(AgeGroup(vec[1]))

	return vec, nil
}

// AgeGroup buckets an age into decades: under 21 (including negative ages) is
// 1, [21,30) is 2, and so on up to 8 for 80 and over.
func AgeGroup(age float64) int {
	switch {
	case age < 21:
		return 1
	case age < 30:
		return 2
	case age < 40:
		return 3
	case age < 50:
		return 4
	case age < 60:
		return 5
	case age < 70:
		return 6
	case age < 80:
		return 7
	default:
		return 8
	}
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, true
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) {
		return 0, true
	}
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
