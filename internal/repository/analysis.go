package repository

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/templui/claimguard/internal/model"
)

var (
	ErrAnalysisNotFound = errors.New("analysis not found")
	ErrAnalysisExists   = errors.New("claim already has an analysis")
)

type AnalysisRepository interface {
	Create(ctx context.Context, result *model.AnalysisResult) error
	ByClaimID(ctx context.Context, claimID string) (*model.AnalysisResult, error)
	ByClaimIDs(ctx context.Context, claimIDs []string) (map[string]*model.AnalysisResult, error)
}

type analysisRepository struct {
	db DBTX
}

func (r *analysisRepository) Create(ctx context.Context, a *model.AnalysisResult) error {
	query := `INSERT INTO ai_analysis_results (id, claim_id, damage_severity, fraud_risk, confidence_score, is_real_image,
	          gps_match, time_match, vin_match, estimated_cost, raw_prediction, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.ClaimID,
		a.DamageSeverity,
		a.FraudRisk,
		a.ConfidenceScore,
		a.IsRealImage,
		a.GPSMatch,
		a.TimeMatch,
		a.VINMatch,
		a.EstimatedCost,
		a.RawPrediction,
		a.CreatedAt,
	)
	return MapError(err, nil, ErrAnalysisExists)
}

func (r *analysisRepository) ByClaimID(ctx context.Context, claimID string) (*model.AnalysisResult, error) {
	a := &model.AnalysisResult{}
	query := `SELECT * FROM ai_analysis_results WHERE claim_id = $1`

	err := r.db.GetContext(ctx, a, query, claimID)
	if err != nil {
		return nil, MapError(err, ErrAnalysisNotFound, nil)
	}

	return a, nil
}

// ByClaimIDs loads the analyses for a page of claims keyed by claim id.
func (r *analysisRepository) ByClaimIDs(ctx context.Context, claimIDs []string) (map[string]*model.AnalysisResult, error) {
	byClaim := make(map[string]*model.AnalysisResult, len(claimIDs))
	if len(claimIDs) == 0 {
		return byClaim, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM ai_analysis_results WHERE claim_id IN (?)`, claimIDs)
	if err != nil {
		return nil, err
	}

	var results []*model.AnalysisResult
	err = r.db.SelectContext(ctx, &results, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	for _, a := range results {
		byClaim[a.ClaimID] = a
	}
	return byClaim, nil
}
