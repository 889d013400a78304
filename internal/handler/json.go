package handler

import (
	"time"

	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/risk"
)

type vehicleInfo struct {
	Make  string  `json:"make"`
	Model string  `json:"model"`
	Year  int     `json:"year"`
	VIN   *string `json:"vin"`
}

type analysisResponse struct {
	DamageSeverity     string      `json:"damage_severity"`
	FraudRisk          string      `json:"fraud_risk"`
	ConfidenceScore    float64     `json:"confidence_score"`
	IsRealImage        bool        `json:"is_real_image"`
	VerificationChecks risk.Checks `json:"verification_checks"`
	EstimatedCost      float64     `json:"estimated_cost"`
}

type commentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type claimResponse struct {
	ID           string            `json:"id"`
	ClaimNumber  string            `json:"claim_number"`
	ClaimantID   string            `json:"claimant_id"`
	ClaimantName string            `json:"claimant_name"`
	VehicleInfo  vehicleInfo       `json:"vehicle_info"`
	IncidentDate string            `json:"incident_date"`
	Location     string            `json:"location"`
	Description  string            `json:"description"`
	Images       []string          `json:"images"`
	Status       string            `json:"status"`
	DamageType   *string           `json:"damage_type,omitempty"`
	AIAnalysis   *analysisResponse `json:"ai_analysis"`
	PolicyNumber string            `json:"policy_number"`
	PolicyType   string            `json:"policy_type"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Comments     []commentResponse `json:"comments"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
	}
}

func newAnalysisResponse(a *model.AnalysisResult) *analysisResponse {
	if a == nil {
		return nil
	}
	return &analysisResponse{
		DamageSeverity:  a.DamageSeverity,
		FraudRisk:       a.FraudRisk,
		ConfidenceScore: a.ConfidenceScore,
		IsRealImage:     a.IsRealImage,
		VerificationChecks: risk.Checks{
			GPSMatch:  a.GPSMatch,
			TimeMatch: a.TimeMatch,
			VINMatch:  a.VINMatch,
		},
		EstimatedCost: a.EstimatedCost,
	}
}

func newClaimResponse(v *model.ClaimView) claimResponse {
	c := v.Claim

	images := []string(c.Images)
	if images == nil {
		images = []string{}
	}

	comments := make([]commentResponse, 0, len(v.Comments))
	for _, cm := range v.Comments {
		comments = append(comments, commentResponse{
			ID:        cm.ID,
			AuthorID:  cm.AuthorID,
			Author:    cm.Author,
			Content:   cm.Content,
			CreatedAt: cm.CreatedAt,
		})
	}

	return claimResponse{
		ID:           c.ID,
		ClaimNumber:  c.ClaimNumber,
		ClaimantID:   c.ClaimantID,
		ClaimantName: c.ClaimantName,
		VehicleInfo: vehicleInfo{
			Make:  c.VehicleMake,
			Model: c.VehicleModel,
			Year:  c.VehicleYear,
			VIN:   c.VehicleVIN,
		},
		IncidentDate: c.IncidentDate,
		Location:     c.Location,
		Description:  c.Description,
		Images:       images,
		Status:       c.Status,
		DamageType:   c.DamageType,
		AIAnalysis:   newAnalysisResponse(v.Analysis),
		PolicyNumber: c.PolicyNumber,
		PolicyType:   c.PolicyType,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Comments:     comments,
	}
}
