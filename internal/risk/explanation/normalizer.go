package explanation

import (
	"fmt"
	"math"

	"credit-risk-workers/internal/common/errors"
	"credit-risk-workers/internal/models"
)

// Normalize reduces a raw explanation result to an AttributionResult for vec.
// expected is the explainer's stored expected value, used when raw carries no
// base value of its own; it may be empty, in which case the base value is 0.
//
// With two classes the positive class (index 1) is selected; with any other
// class count index 0 is used. A batch dimension is reduced to its first
// instance. Every array, expected included, must hold exactly as many values
// as its shape implies. Anything that does not end up as exactly one finite
// value per feature is reported as ExplanationShapeUnrecognized.
func Normalize(raw Raw, expected Array, vec models.FeatureVector) (models.AttributionResult, error) {
	var (
		values  Array
		classes int
		base    Array
		fromEV  bool
		err     error
	)

	switch r := raw.(type) {
	case ModernStructured:
		if err = checkArray("values", r.Values); err == nil {
			err = checkArray("base values", r.BaseValues)
		}
		if err == nil {
			values, classes, err = selectClass(r.Values)
		}
		base = r.BaseValues
	case LegacyArray:
		if err = checkArray("values", r.Values); err == nil {
			values, classes, err = selectClass(r.Values)
		}
	case LegacyPerClassList:
		for i, v := range r.ValuesByClass {
			if err = checkArray(fmt.Sprintf("class %d", i), v); err != nil {
				break
			}
		}
		if err == nil {
			values, classes, err = selectFromList(r.ValuesByClass)
		}
	default:
		return models.AttributionResult{}, errors.NewExplanationShapeUnrecognizedError(
			fmt.Sprintf("unsupported raw explanation %T", raw))
	}
	if err == nil {
		err = checkArray("expected value", expected)
	}
	if err != nil {
		return models.AttributionResult{}, unrecognized(raw, err)
	}

	attributions, err := firstInstance(values)
	if err != nil {
		return models.AttributionResult{}, unrecognized(raw, err)
	}

	if base.Empty() {
		base = expected
		fromEV = true
	}
	baseValue, err := resolveBase(base, classes, fromEV)
	if err != nil {
		return models.AttributionResult{}, unrecognized(raw, err)
	}

	return models.AttributionResult{
		Values:        attributions,
		FeatureNames:  models.FeatureNameList(),
		BaseValue:     baseValue,
		FeatureValues: vec.Slice(),
	}, nil
}

func checkArray(name string, a Array) error {
	if err := a.Check(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// positiveClass returns the class index treated as the event of interest.
func positiveClass(classes int) int {
	if classes == 2 {
		return 1
	}
	return 0
}

// selectClass removes a class dimension from values if it has one, returning
// the number of classes found (0 when there is no class dimension).
//
// Recognized layouts, with F the feature count:
//
//	(F)       single instance
//	(n, F)    batch
//	(F, C)    single instance, classes last
//	(n, F, C) batch, classes last
//	(C, n, F) one batch per class
func selectClass(values Array) (Array, int, error) {
	switch values.NDim() {
	case 1:
		return values, 0, nil
	case 2:
		if values.Shape[1] == models.FeatureCount {
			return values, 0, nil
		}
		if values.Shape[0] == models.FeatureCount {
			return takeClass(values, 1)
		}
		return Array{}, 0, fmt.Errorf("no feature axis in shape %v", values.Shape)
	case 3:
		if values.Shape[1] == models.FeatureCount {
			return takeClass(values, 2)
		}
		if values.Shape[2] == models.FeatureCount {
			return takeClass(values, 0)
		}
		return Array{}, 0, fmt.Errorf("no feature axis in shape %v", values.Shape)
	default:
		return Array{}, 0, fmt.Errorf("unsupported values shape %v", values.Shape)
	}
}

func takeClass(values Array, axis int) (Array, int, error) {
	classes := values.Shape[axis]
	if classes == 0 {
		return Array{}, 0, fmt.Errorf("empty class axis in shape %v", values.Shape)
	}
	selected, err := values.Take(axis, positiveClass(classes))
	if err != nil {
		return Array{}, 0, err
	}
	return selected, classes, nil
}

func selectFromList(list []Array) (Array, int, error) {
	if len(list) == 0 {
		return Array{}, 0, fmt.Errorf("empty per-class list")
	}
	for i := 1; i < len(list); i++ {
		if !sameShape(list[0].Shape, list[i].Shape) {
			return Array{}, 0, fmt.Errorf("class %d has shape %v, class 0 has %v", i, list[i].Shape, list[0].Shape)
		}
	}
	return list[positiveClass(len(list))], len(list), nil
}

// firstInstance reduces (F) or (n, F) to the first instance's F values.
func firstInstance(values Array) ([]float64, error) {
	var row []float64
	switch {
	case values.NDim() == 1 && values.Shape[0] == models.FeatureCount:
		row = values.Data
	case values.NDim() == 2 && values.Shape[0] > 0 && values.Shape[1] == models.FeatureCount:
		row = values.Data[:models.FeatureCount]
	default:
		return nil, fmt.Errorf("values of shape %v do not reduce to %d features", values.Shape, models.FeatureCount)
	}

	out := make([]float64, models.FeatureCount)
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("non-finite attribution for %s", models.FeatureNames[i])
		}
		out[i] = v
	}
	return out, nil
}

// resolveBase reduces a base value container to a scalar. An attached 1-d base
// of length classes is per-class; any other attached 1-d base is per-instance.
// A stored expected value with more than one entry is always per-class.
func resolveBase(base Array, classes int, fromExpectedValue bool) (float64, error) {
	if base.Empty() {
		return 0, nil
	}

	switch base.NDim() {
	case 0:
		return base.Data[0], nil
	case 1:
		n := base.Shape[0]
		switch {
		case classes > 1 && n == classes:
			return base.Data[positiveClass(classes)], nil
		case fromExpectedValue && n > 1:
			return base.Data[positiveClass(n)], nil
		default:
			return base.Data[0], nil
		}
	case 2:
		// (n, C): first instance, then class selection.
		perClass := base.Shape[1]
		return base.Data[positiveClass(perClass)], nil
	default:
		return 0, fmt.Errorf("unsupported base value shape %v", base.Shape)
	}
}

func unrecognized(raw Raw, err error) error {
	return errors.NewExplanationShapeUnrecognizedError(fmt.Sprintf("%s: %v", raw.Kind(), err))
}
