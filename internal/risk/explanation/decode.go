package explanation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// Wire tags accepted in an explanation object's "kind" field.
const (
	WireStructured     = "structured"
	WireLegacyArray    = "legacy_array"
	WireLegacyPerClass = "legacy_per_class"
)

type rawObject struct {
	Kind          string          `json:"kind"`
	Values        json.RawMessage `json:"values"`
	BaseValues    json.RawMessage `json:"base_values"`
	ValuesByClass json.RawMessage `json:"values_by_class"`
}

// DecodeRaw turns a model server's explanation payload into a Raw. It accepts
// an object (optionally tagged with "kind") or a bare nested array. A bare
// array of depth 3, or of depth 2 with more than one row, is a per-class list:
// exactly one instance is sent per call, so extra rows can only be classes.
func DecodeRaw(data json.RawMessage) (Raw, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.NewExplanationShapeUnrecognizedError("empty explanation payload")
	}

	switch data[0] {
	case '{':
		return decodeObject(data)
	case '[':
		arr, err := decodeArray(data)
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError(err.Error())
		}
		return classifyArray(arr)
	default:
		return nil, errors.NewExplanationShapeUnrecognizedError(
			fmt.Sprintf("explanation payload is neither an object nor an array: %.32s", data))
	}
}

func decodeObject(data []byte) (Raw, error) {
	var obj rawObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errors.NewExplanationShapeUnrecognizedError(err.Error())
	}

	kind := obj.Kind
	if kind == "" {
		switch {
		case len(obj.ValuesByClass) > 0:
			kind = WireLegacyPerClass
		case len(obj.Values) > 0:
			kind = WireStructured
		}
	}

	switch kind {
	case WireStructured:
		values, err := decodeArray(obj.Values)
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError("values: " + err.Error())
		}
		base, err := decodeOptionalArray(obj.BaseValues)
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError("base_values: " + err.Error())
		}
		return ModernStructured{Values: values, BaseValues: base}, nil
	case WireLegacyArray:
		values, err := decodeArray(obj.Values)
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError("values: " + err.Error())
		}
		return LegacyArray{Values: values}, nil
	case WireLegacyPerClass:
		arr, err := decodeArray(obj.ValuesByClass)
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError("values_by_class: " + err.Error())
		}
		if arr.NDim() < 2 {
			return nil, errors.NewExplanationShapeUnrecognizedError(
				fmt.Sprintf("values_by_class of shape %v is not a list of arrays", arr.Shape))
		}
		list, err := arr.Split()
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError(err.Error())
		}
		return LegacyPerClassList{ValuesByClass: list}, nil
	default:
		return nil, errors.NewExplanationShapeUnrecognizedError(
			fmt.Sprintf("unknown explanation kind %q", obj.Kind))
	}
}

// classifyArray routes a bare array. A trailing (F, C) block is classes last
// and stays a single array; otherwise a leading axis over F-wide rows is one
// entry per class.
func classifyArray(arr Array) (Raw, error) {
	n := arr.NDim()
	switch {
	case n == 1:
		return LegacyArray{Values: arr}, nil
	case (n == 2 || n == 3) && arr.Shape[n-1] != models.FeatureCount && arr.Shape[n-2] == models.FeatureCount:
		return LegacyArray{Values: arr}, nil
	case n == 2 && arr.Shape[0] == 1:
		return LegacyArray{Values: arr}, nil
	case n == 2 || n == 3:
		list, err := arr.Split()
		if err != nil {
			return nil, errors.NewExplanationShapeUnrecognizedError(err.Error())
		}
		return LegacyPerClassList{ValuesByClass: list}, nil
	default:
		return nil, errors.NewExplanationShapeUnrecognizedError(
			fmt.Sprintf("bare array of shape %v", arr.Shape))
	}
}

// DecodeExpectedValue parses a stored expected value: a number, a list of
// per-class numbers, or null for none.
func DecodeExpectedValue(data json.RawMessage) (Array, error) {
	return decodeOptionalArray(data)
}

func decodeOptionalArray(data json.RawMessage) (Array, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Array{}, nil
	}
	return decodeArray(trimmed)
}

func decodeArray(data json.RawMessage) (Array, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Array{}, fmt.Errorf("missing array")
	}
	var nested interface{}
	if err := json.Unmarshal(data, &nested); err != nil {
		return Array{}, err
	}
	return FromNested(nested)
}
