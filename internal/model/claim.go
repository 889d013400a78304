package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	StatusPending       = "pending"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusInfoRequested = "info_requested"
)

const (
	DamageNone     = "none"
	DamageMinor    = "minor"
	DamageModerate = "moderate"
	DamageSevere   = "severe"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusInfoRequested:
		return true
	}
	return false
}

func ValidDamageType(d string) bool {
	switch d {
	case DamageNone, DamageMinor, DamageModerate, DamageSevere:
		return true
	}
	return false
}

// ImagePaths is an ordered list of storage paths persisted as a JSON array.
type ImagePaths []string

func (p ImagePaths) Value() (driver.Value, error) {
	if p == nil {
		p = ImagePaths{}
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *ImagePaths) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = ImagePaths{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported images column type %T", src)
	}
	if len(raw) == 0 {
		*p = ImagePaths{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(p))
}

type Claim struct {
	ID           string     `db:"id"`
	ClaimNumber  string     `db:"claim_number"`
	ClaimantID   string     `db:"claimant_id"`
	ClaimantName string     `db:"claimant_name"`
	VehicleMake  string     `db:"vehicle_make"`
	VehicleModel string     `db:"vehicle_model"`
	VehicleYear  int        `db:"vehicle_year"`
	VehicleVIN   *string    `db:"vehicle_vin"`
	IncidentDate string     `db:"incident_date"`
	Location     string     `db:"location"`
	Description  string     `db:"description"`
	Images       ImagePaths `db:"images"`
	Status       string     `db:"status"`
	DamageType   *string    `db:"damage_type"`
	PolicyNumber string     `db:"policy_number"`
	PolicyType   string     `db:"policy_type"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// ClaimView is a claim joined with its claimant, analysis and comments.
type ClaimView struct {
	Claim    *Claim
	Claimant *User
	Analysis *AnalysisResult
	Comments []*Comment
}
