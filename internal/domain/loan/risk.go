package loan

import "strings"

// Tier is the risk scorer's categorical output.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// highRiskTreatments are matched as case-insensitive substrings of the
// treatment text.
var highRiskTreatments = []string{"surgery", "emergency", "dialysis"}

// RiskInput is the applicant's financial and medical situation at apply time.
type RiskInput struct {
	RequiredAmount    int
	MonthlyIncome     int
	ExistingLoans     string // "yes" / "no"
	Insurance         string // "yes" / "no"
	InsuranceCoverage string // "yes" / "no"
	PreferredTenure   int    // months
	TreatmentType     string
}

// Score computes the additive risk score and its tier. Missing numeric
// inputs count as 0 and a missing tenure as 1, so the EMI division is always
// defined. Both threshold families use strict greater-than.
func Score(in RiskInput) (Tier, int) {
	tenure := in.PreferredTenure
	if tenure < 1 {
		tenure = 1
	}

	score := 0

	emi := float64(in.RequiredAmount) / float64(tenure)
	income := float64(in.MonthlyIncome)
	switch {
	case emi > 0.5*income:
		score += 40
	case emi > 0.3*income:
		score += 20
	}

	if strings.EqualFold(strings.TrimSpace(in.ExistingLoans), "yes") {
		score += 20
	}

	if insuranceUnavailable(in.Insurance) || insuranceUnavailable(in.InsuranceCoverage) {
		score += 15
	}

	switch {
	case tenure >= 36:
		score += 20
	case tenure >= 24:
		score += 10
	}

	treatment := strings.ToLower(in.TreatmentType)
	matched := false
	for _, keyword := range highRiskTreatments {
		if strings.Contains(treatment, keyword) {
			matched = true
			break
		}
	}
	if matched {
		score += 15
	} else {
		score += 5
	}

	return tierFor(score), score
}

func insuranceUnavailable(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "no")
}

func tierFor(score int) Tier {
	switch {
	case score > 60:
		return TierHigh
	case score > 30:
		return TierMedium
	default:
		return TierLow
	}
}

// SuggestedAmount is the provider-facing display amount for a request. It is
// independent of the lifecycle's revised-offer fields.
func SuggestedAmount(requiredAmount int, tier Tier) int {
	switch tier {
	case TierLow:
		return requiredAmount
	case TierMedium:
		return requiredAmount * 70 / 100
	case TierHigh:
		return requiredAmount * 40 / 100
	default:
		return 0
	}
}
