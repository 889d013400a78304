package repository

import (
	"context"
	"errors"

	"github.com/templui/claimguard/internal/model"
)

var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrDuplicateClaimNumber = errors.New("claim number already exists")
)

// ClaimFilter narrows ByClaimant. Empty Status means any status.
type ClaimFilter struct {
	Status string
	Limit  int
	Offset int
}

type ClaimRepository interface {
	Create(ctx context.Context, claim *model.Claim) error
	ByID(ctx context.Context, id string) (*model.Claim, error)
	ByClaimant(ctx context.Context, claimantID string, filter ClaimFilter) ([]*model.Claim, error)
	Update(ctx context.Context, claim *model.Claim) error
	SetDamageType(ctx context.Context, id, damageType string) error
	Delete(ctx context.Context, id string) error
}

type claimRepository struct {
	db DBTX
}

func (r *claimRepository) Create(ctx context.Context, claim *model.Claim) error {
	query := `INSERT INTO claims (id, claim_number, claimant_id, claimant_name, vehicle_make, vehicle_model, vehicle_year,
	          vehicle_vin, incident_date, location, description, images, status, damage_type, policy_number, policy_type,
	          created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.ExecContext(ctx, query,
		claim.ID,
		claim.ClaimNumber,
		claim.ClaimantID,
		claim.ClaimantName,
		claim.VehicleMake,
		claim.VehicleModel,
		claim.VehicleYear,
		claim.VehicleVIN,
		claim.IncidentDate,
		claim.Location,
		claim.Description,
		claim.Images,
		claim.Status,
		claim.DamageType,
		claim.PolicyNumber,
		claim.PolicyType,
		claim.CreatedAt,
		claim.UpdatedAt,
	)
	return MapError(err, nil, ErrDuplicateClaimNumber)
}

func (r *claimRepository) ByID(ctx context.Context, id string) (*model.Claim, error) {
	claim := &model.Claim{}
	query := `SELECT * FROM claims WHERE id = $1`

	err := r.db.GetContext(ctx, claim, query, id)
	if err != nil {
		return nil, MapError(err, ErrClaimNotFound, nil)
	}

	return claim, nil
}

// ByClaimant returns the claimant's claims, newest first.
func (r *claimRepository) ByClaimant(ctx context.Context, claimantID string, filter ClaimFilter) ([]*model.Claim, error) {
	claims := []*model.Claim{}

	var err error
	if filter.Status != "" {
		query := `SELECT * FROM claims WHERE claimant_id = $1 AND status = $2
		          ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`
		err = r.db.SelectContext(ctx, &claims, query, claimantID, filter.Status, filter.Limit, filter.Offset)
	} else {
		query := `SELECT * FROM claims WHERE claimant_id = $1
		          ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
		err = r.db.SelectContext(ctx, &claims, query, claimantID, filter.Limit, filter.Offset)
	}
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// Update writes the mutable fields of a claim: status, damage type and description.
func (r *claimRepository) Update(ctx context.Context, claim *model.Claim) error {
	query := `UPDATE claims SET status = $1, damage_type = $2, description = $3, updated_at = $4 WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, claim.Status, claim.DamageType, claim.Description, claim.UpdatedAt, claim.ID)
	if err != nil {
		return err
	}

	return MapError(expectOne(result), ErrClaimNotFound, nil)
}

func (r *claimRepository) SetDamageType(ctx context.Context, id, damageType string) error {
	query := `UPDATE claims SET damage_type = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, damageType, id)
	if err != nil {
		return err
	}

	return MapError(expectOne(result), ErrClaimNotFound, nil)
}

// Delete removes the claim. Its analysis and comments go with it via ON DELETE CASCADE.
func (r *claimRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM claims WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return MapError(expectOne(result), ErrClaimNotFound, nil)
}
