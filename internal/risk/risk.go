// Package risk maps a model score to fraud and damage labels using fixed thresholds.
package risk

import (
	"math"

	"github.com/templui/claimguard/internal/model"
)

const (
	FraudLow    = "low"
	FraudMedium = "medium"
	FraudHigh   = "high"
)

// Thresholds are inclusive lower bounds: a score equal to a boundary
// falls into the upper bucket.
const (
	fraudMediumFrom = 0.3
	fraudHighFrom   = 0.7

	damageMinorFrom    = 0.25
	damageModerateFrom = 0.5
	damageSevereFrom   = 0.75

	realImageBelow = 0.5
)

var repairCost = map[string]float64{
	model.DamageNone:     0,
	model.DamageMinor:    1500,
	model.DamageModerate: 5000,
	model.DamageSevere:   15000,
}

// Checks holds the verification results attached to an assessment.
type Checks struct {
	GPSMatch  bool `json:"gps_match"`
	TimeMatch bool `json:"time_match"`
	VINMatch  bool `json:"vin_match"`
}

type Assessment struct {
	FraudRisk       string  `json:"fraud_risk"`
	DamageSeverity  string  `json:"damage_severity"`
	ConfidenceScore float64 `json:"confidence_score"`
	IsRealImage     bool    `json:"is_real_image"`
	Checks          Checks  `json:"verification_checks"`
	EstimatedCost   float64 `json:"estimated_cost"`
	ClassIndex      int     `json:"-"`
}

// Verifier produces the verification checks for an assessment.
type Verifier interface {
	Verify(score float64, classIndex int) Checks
}

// StubVerifier passes every check. GPS, capture time and VIN are not inspected.
type StubVerifier struct{}

func (StubVerifier) Verify(float64, int) Checks {
	return Checks{GPSMatch: true, TimeMatch: true, VINMatch: true}
}

type Mapper struct {
	Verifier Verifier
}

func NewMapper(v Verifier) *Mapper {
	if v == nil {
		v = StubVerifier{}
	}
	return &Mapper{Verifier: v}
}

// Map derives the assessment for a score in [0,1]. classIndex is carried
// through for callers that record it and does not affect the labels.
func (m *Mapper) Map(score float64, classIndex int) Assessment {
	severity := DamageSeverity(score)
	return Assessment{
		FraudRisk:       FraudRisk(score),
		DamageSeverity:  severity,
		ConfidenceScore: math.Round(score*10000) / 10000,
		IsRealImage:     score < realImageBelow,
		Checks:          m.Verifier.Verify(score, classIndex),
		EstimatedCost:   repairCost[severity],
		ClassIndex:      classIndex,
	}
}

var defaultMapper = NewMapper(nil)

// Map uses the stub verifier.
func Map(score float64, classIndex int) Assessment {
	return defaultMapper.Map(score, classIndex)
}

func FraudRisk(score float64) string {
	switch {
	case score < fraudMediumFrom:
		return FraudLow
	case score < fraudHighFrom:
		return FraudMedium
	default:
		return FraudHigh
	}
}

func DamageSeverity(score float64) string {
	switch {
	case score < damageMinorFrom:
		return model.DamageNone
	case score < damageModerateFrom:
		return model.DamageMinor
	case score < damageSevereFrom:
		return model.DamageModerate
	default:
		return model.DamageSevere
	}
}

func EstimatedCost(severity string) float64 {
	return repairCost[severity]
}
