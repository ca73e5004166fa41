// internal/models/features.go
package models

// FeatureCount is the length of every FeatureVector.
const FeatureCount = 14

// FeatureNames is the frozen column order. Scoring backends are positional, so
// this order must never change.
var FeatureNames = [FeatureCount]string{
	AttrRevolvingUtilization,
	AttrAge,
	AttrPastDue30To59,
	AttrDebtRatio,
	AttrMonthlyIncome,
	AttrOpenCreditLines,
	AttrTimes90DaysLate,
	AttrRealEstateLoans,
	AttrPastDue60To89,
	AttrDependents,
	FeatTotalPastDue,
	FeatDebtIncomeRatio,
	FeatAnySeriousLate,
	FeatAgeGroup,
}

// FeatureVector holds one applicant's features in FeatureNames order.
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Named returns the vector keyed by feature name.
func (v FeatureVector) Named() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames {
		out[name] = v[i]
	}
	return out
}

// FeatureNameList returns FeatureNames as a fresh slice.
func FeatureNameList() []string {
	out := make([]string, FeatureCount)
	copy(out, FeatureNames[:])
	return out
}
