// internal/models/applicant.go
package models

// RawApplicant maps attribute names to values as received from a caller.
// Recognized attributes may be absent or null.
type RawApplicant map[string]interface{}

// Recognized applicant attributes.
const (
	AttrRevolvingUtilization = "RevolvingUtilizationOfUnsecuredLines"
	AttrAge                  = "age"
	AttrPastDue30To59        = "NumberOfTime30-59DaysPastDueNotWorse"
	AttrDebtRatio            = "DebtRatio"
	AttrMonthlyIncome        = "MonthlyIncome"
	AttrOpenCreditLines      = "NumberOfOpenCreditLinesAndLoans"
	AttrTimes90DaysLate      = "NumberOfTimes90DaysLate"
	AttrRealEstateLoans      = "NumberRealEstateLoansOrLines"
	AttrPastDue60To89        = "NumberOfTime60-89DaysPastDueNotWorse"
	AttrDependents           = "NumberOfDependents"
)

// Derived features.
const (
	FeatTotalPastDue    = "TotalPastDue"
	FeatDebtIncomeRatio = "DebtIncomeRatio"
	FeatAnySeriousLate  = "AnySeriousLate"
	FeatAgeGroup        = "AgeGroup"
)

// RecognizedAttributes lists the raw attributes read from a RawApplicant, in
// the order they occupy in the feature vector.
var RecognizedAttributes = [...]string{
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
}
