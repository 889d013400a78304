package model

import "time"

type AnalysisResult struct {
	ID              string    `db:"id"`
	ClaimID         string    `db:"claim_id"`
	DamageSeverity  string    `db:"damage_severity"`
	FraudRisk       string    `db:"fraud_risk"`
	ConfidenceScore float64   `db:"confidence_score"`
	IsRealImage     bool      `db:"is_real_image"`
	GPSMatch        bool      `db:"gps_match"`
	TimeMatch       bool      `db:"time_match"`
	VINMatch        bool      `db:"vin_match"`
	EstimatedCost   float64   `db:"estimated_cost"`
	RawPrediction   string    `db:"raw_prediction"` // JSON array of model outputs
	CreatedAt       time.Time `db:"created_at"`
}
