package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/claimguard/internal/access"
	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/model"
	"github.com/templui/claimguard/internal/repository"
	"github.com/templui/claimguard/internal/risk"
	"github.com/templui/claimguard/internal/validation"
)

var ErrClaimNotFound = fmt.Errorf("claim %w", ErrNotFound)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	claimNumberAttempts = 3
	maxCommentLength    = 2000
	claimImageFolder    = "claims"
)

// ClaimInput holds the submitted claim fields. An empty ClaimantName
// defaults to the submitting user's name.
type ClaimInput struct {
	ClaimantName string
	VehicleMake  string
	VehicleModel string
	VehicleYear  int
	VehicleVIN   string
	IncidentDate string
	Location     string
	Description  string
	PolicyNumber string
	PolicyType   string
}

// ClaimPatch lists the fields an agent or admin may change. Nil fields are left as they are.
type ClaimPatch struct {
	Status      *string
	DamageType  *string
	Description *string
}

type ListInput struct {
	Status string
	Limit  int
	Offset int
}

type ClaimOptions struct {
	InferenceTimeout time.Duration
}

type ClaimService struct {
	store    *repository.Store
	files    *FileService
	analyzer inference.Analyzer
	mapper   *risk.Mapper
	notifier Notifier
	opts     ClaimOptions

	now         func() time.Time
	claimNumber func(time.Time) string
}

func NewClaimService(
	store *repository.Store,
	files *FileService,
	analyzer inference.Analyzer,
	mapper *risk.Mapper,
	notifier Notifier,
	opts ClaimOptions,
) *ClaimService {
	if mapper == nil {
		mapper = risk.NewMapper(nil)
	}
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = 15 * time.Second
	}
	return &ClaimService{
		store:       store,
		files:       files,
		analyzer:    analyzer,
		mapper:      mapper,
		notifier:    notifier,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
		claimNumber: NewClaimNumber,
	}
}

// NewClaimNumber formats CLM-<YYYYMMDD>-<8 uppercase hex>.
func NewClaimNumber(t time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("CLM-%s-%s", t.Format("20060102"), suffix)
}

func (in ClaimInput) normalized(user *model.User) ClaimInput {
	in.ClaimantName = strings.TrimSpace(in.ClaimantName)
	if in.ClaimantName == "" && user != nil {
		in.ClaimantName = user.Name
	}
	in.VehicleMake = strings.TrimSpace(in.VehicleMake)
	in.VehicleModel = strings.TrimSpace(in.VehicleModel)
	in.VehicleVIN = strings.TrimSpace(in.VehicleVIN)
	in.IncidentDate = strings.TrimSpace(in.IncidentDate)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.PolicyNumber = strings.TrimSpace(in.PolicyNumber)
	in.PolicyType = strings.TrimSpace(in.PolicyType)
	return in
}

func (in ClaimInput) validate() error {
	required := []struct{ field, value string }{
		{"claimant_name", in.ClaimantName},
		{"vehicle_make", in.VehicleMake},
		{"vehicle_model", in.VehicleModel},
		{"incident_date", in.IncidentDate},
		{"location", in.Location},
		{"description", in.Description},
		{"policy_number", in.PolicyNumber},
		{"policy_type", in.PolicyType},
	}
	for _, r := range required {
		if err := validation.ValidateRequired(r.field, r.value); err != nil {
			return err
		}
	}
	return validation.ValidateVehicleYear(in.VehicleYear)
}

// Create validates and stores a claim with its images, then analyzes the
// first image. The claim is committed before analysis starts and analysis
// failures never fail the call.
func (s *ClaimService) Create(ctx context.Context, user *model.User, in ClaimInput, uploads []Upload) (*model.ClaimView, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	in = in.normalized(user)
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.files.Validate(uploads); err != nil {
		return nil, err
	}

	paths, err := s.files.SaveImages(ctx, claimImageFolder, uploads)
	if err != nil {
		return nil, err
	}

	now := s.now()
	claim := &model.Claim{
		ID:           uuid.New().String(),
		ClaimantID:   user.ID,
		ClaimantName: in.ClaimantName,
		VehicleMake:  in.VehicleMake,
		VehicleModel: in.VehicleModel,
		VehicleYear:  in.VehicleYear,
		IncidentDate: in.IncidentDate,
		Location:     in.Location,
		Description:  in.Description,
		Images:       model.ImagePaths(paths),
		Status:       model.StatusPending,
		PolicyNumber: in.PolicyNumber,
		PolicyType:   in.PolicyType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.VehicleVIN != "" {
		vin := in.VehicleVIN
		claim.VehicleVIN = &vin
	}

	err = s.insertClaim(ctx, claim)
	if err != nil {
		s.files.DeleteAll(context.WithoutCancel(ctx), paths)
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}

	slog.Info("claim created", "claim_id", claim.ID, "claim_number", claim.ClaimNumber, "images", len(paths))

	var analysis *model.AnalysisResult
	if len(uploads) > 0 {
		analysis = s.analyze(ctx, claim, uploads[0].Data)
	}

	return &model.ClaimView{
		Claim:    claim,
		Claimant: user,
		Analysis: analysis,
		Comments: []*model.Comment{},
	}, nil
}

// insertClaim commits the claim in its own transaction, drawing a fresh
// claim number when the generated one is already taken.
func (s *ClaimService) insertClaim(ctx context.Context, claim *model.Claim) error {
	var err error
	for attempt := 1; attempt <= claimNumberAttempts; attempt++ {
		claim.ClaimNumber = s.claimNumber(claim.CreatedAt)

		err = s.store.InTx(ctx, func(tx *repository.Store) error {
			return tx.Claims().Create(ctx, claim)
		})
		if !errors.Is(err, repository.ErrDuplicateClaimNumber) {
			return err
		}
		slog.Warn("claim number collision, retrying", "claim_number", claim.ClaimNumber, "attempt", attempt)
	}
	return err
}

// analyze runs the model on one image and attaches the result to the claim.
// Every failure is logged and yields nil.
func (s *ClaimService) analyze(ctx context.Context, claim *model.Claim, image []byte) *model.AnalysisResult {
	if s.analyzer == nil {
		return nil
	}

	ictx, cancel := context.WithTimeout(ctx, s.opts.InferenceTimeout)
	defer cancel()

	res, err := safeAnalyze(ictx, s.analyzer, image)
	if err != nil {
		slog.Warn("claim analysis skipped", "claim_id", claim.ID, "error", err)
		return nil
	}

	assessment := s.mapper.Map(res.Score, res.ClassIndex)
	raw, err := json.Marshal(res.Raw)
	if err != nil || res.Raw == nil {
		raw = []byte("[]")
	}

	result := &model.AnalysisResult{
		ID:              uuid.New().String(),
		ClaimID:         claim.ID,
		DamageSeverity:  assessment.DamageSeverity,
		FraudRisk:       assessment.FraudRisk,
		ConfidenceScore: assessment.ConfidenceScore,
		IsRealImage:     assessment.IsRealImage,
		GPSMatch:        assessment.Checks.GPSMatch,
		TimeMatch:       assessment.Checks.TimeMatch,
		VINMatch:        assessment.Checks.VINMatch,
		EstimatedCost:   assessment.EstimatedCost,
		RawPrediction:   string(raw),
		CreatedAt:       s.now(),
	}

	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Analyses().Create(ctx, result); err != nil {
			return err
		}
		return tx.Claims().SetDamageType(ctx, claim.ID, result.DamageSeverity)
	})
	if err != nil {
		slog.Warn("failed to store claim analysis", "claim_id", claim.ID, "error", err)
		return nil
	}

	damage := result.DamageSeverity
	claim.DamageType = &damage

	slog.Info("claim analyzed", "claim_id", claim.ID, "fraud_risk", result.FraudRisk, "damage", damage)
	return result
}

func safeAnalyze(ctx context.Context, a inference.Analyzer, image []byte) (res inference.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", inference.ErrInference, r)
		}
	}()
	return a.Analyze(ctx, image)
}

// List returns the caller's own claims, newest first. No role widens it.
func (s *ClaimService) List(ctx context.Context, user *model.User, in ListInput) ([]*model.ClaimView, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	if err := access.Authorize(access.ListClaims, user, user.ID); err != nil {
		return nil, err
	}

	filter, err := in.filter()
	if err != nil {
		return nil, err
	}

	var views []*model.ClaimView
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		claims, err := tx.Claims().ByClaimant(ctx, user.ID, filter)
		if err != nil {
			return err
		}

		ids := make([]string, len(claims))
		for i, c := range claims {
			ids[i] = c.ID
		}

		analyses, err := tx.Analyses().ByClaimIDs(ctx, ids)
		if err != nil {
			return err
		}
		comments, err := tx.Comments().ByClaimIDs(ctx, ids)
		if err != nil {
			return err
		}

		views = make([]*model.ClaimView, 0, len(claims))
		for _, c := range claims {
			cs := comments[c.ID]
			if cs == nil {
				cs = []*model.Comment{}
			}
			views = append(views, &model.ClaimView{
				Claim:    c,
				Claimant: user,
				Analysis: analyses[c.ID],
				Comments: cs,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	return views, nil
}

func (in ListInput) filter() (repository.ClaimFilter, error) {
	if in.Status != "" {
		if err := validation.ValidateStatus(in.Status); err != nil {
			return repository.ClaimFilter{}, err
		}
	}
	if in.Offset < 0 {
		return repository.ClaimFilter{}, invalid("offset", "offset must not be negative")
	}

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	return repository.ClaimFilter{Status: in.Status, Limit: limit, Offset: in.Offset}, nil
}

// Get returns one claim. Owners see their own claims and admins see any.
func (s *ClaimService) Get(ctx context.Context, user *model.User, id string) (*model.ClaimView, error) {
	var view *model.ClaimView
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		claim, err := authorizedClaim(ctx, tx, access.GetClaim, user, id)
		if err != nil {
			return err
		}

		view, err = loadView(ctx, tx, claim)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Update applies a patch. Only agents and admins may update, and they may
// update any claim. A status change notifies the claimant best effort.
func (s *ClaimService) Update(ctx context.Context, user *model.User, id string, patch ClaimPatch) (*model.ClaimView, error) {
	var (
		view          *model.ClaimView
		statusChanged bool
	)

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		claim, err := authorizedClaim(ctx, tx, access.UpdateClaim, user, id)
		if err != nil {
			return err
		}

		statusChanged, err = applyPatch(claim, patch)
		if err != nil {
			return err
		}

		claim.UpdatedAt = s.now()
		err = tx.Claims().Update(ctx, claim)
		if errors.Is(err, repository.ErrClaimNotFound) {
			return ErrClaimNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to update claim: %w", err)
		}

		view, err = loadView(ctx, tx, claim)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("claim updated", "claim_id", id, "by", user.ID, "status", view.Claim.Status)

	if statusChanged && s.notifier != nil {
		nerr := s.notifier.NotifyStatusChange(context.WithoutCancel(ctx), view.Claimant, view.Claim)
		if nerr != nil {
			slog.Warn("failed to notify claimant", "claim_id", id, "error", nerr)
		}
	}

	return view, nil
}

func applyPatch(claim *model.Claim, patch ClaimPatch) (bool, error) {
	statusChanged := false

	if patch.Status != nil {
		if err := validation.ValidateStatus(*patch.Status); err != nil {
			return false, err
		}
		statusChanged = *patch.Status != claim.Status
		claim.Status = *patch.Status
	}
	if patch.DamageType != nil {
		if err := validation.ValidateDamageType(*patch.DamageType); err != nil {
			return false, err
		}
		damage := *patch.DamageType
		claim.DamageType = &damage
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if err := validation.ValidateRequired("description", description); err != nil {
			return false, err
		}
		claim.Description = description
	}

	return statusChanged, nil
}

// Delete removes a claim with its analysis and comments, then its image files.
func (s *ClaimService) Delete(ctx context.Context, user *model.User, id string) error {
	var images []string
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		claim, err := authorizedClaim(ctx, tx, access.DeleteClaim, user, id)
		if err != nil {
			return err
		}
		images = claim.Images

		err = tx.Claims().Delete(ctx, claim.ID)
		if errors.Is(err, repository.ErrClaimNotFound) {
			return ErrClaimNotFound
		}
		return err
	})
	if err != nil {
		return err
	}

	s.files.DeleteAll(context.WithoutCancel(ctx), images)

	slog.Info("claim deleted", "claim_id", id, "by", user.ID)
	return nil
}

// AddComment appends a comment. Owners, agents and admins may comment.
func (s *ClaimService) AddComment(ctx context.Context, user *model.User, id, content string) (*model.Comment, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	content = strings.TrimSpace(content)
	if err := validation.ValidateRequired("content", content); err != nil {
		return nil, err
	}
	if len(content) > maxCommentLength {
		return nil, invalid("content", fmt.Sprintf("comment is too long (max %d characters)", maxCommentLength))
	}

	comment := &model.Comment{
		ID:        uuid.New().String(),
		ClaimID:   id,
		AuthorID:  user.ID,
		Author:    user.Name,
		Content:   content,
		CreatedAt: s.now(),
	}

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		_, err := authorizedClaim(ctx, tx, access.CommentClaim, user, id)
		if err != nil {
			return err
		}
		return tx.Comments().Create(ctx, comment)
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// authorizedClaim loads a claim and checks op against it. A missing claim
// is reported before a denied one.
func authorizedClaim(ctx context.Context, tx *repository.Store, op access.Operation, user *model.User, id string) (*model.Claim, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}

	claim, err := tx.Claims().ByID(ctx, id)
	if errors.Is(err, repository.ErrClaimNotFound) {
		return nil, ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	if err := access.Authorize(op, user, claim.ClaimantID); err != nil {
		return nil, err
	}
	return claim, nil
}

func loadView(ctx context.Context, tx *repository.Store, claim *model.Claim) (*model.ClaimView, error) {
	view := &model.ClaimView{Claim: claim}

	claimant, err := tx.Users().ByID(ctx, claim.ClaimantID)
	switch {
	case err == nil:
		claimant.PasswordHash = nil
		view.Claimant = claimant
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, fmt.Errorf("failed to load claimant: %w", err)
	}

	analysis, err := tx.Analyses().ByClaimID(ctx, claim.ID)
	switch {
	case err == nil:
		view.Analysis = analysis
	case !errors.Is(err, repository.ErrAnalysisNotFound):
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	view.Comments, err = tx.Comments().ByClaimID(ctx, claim.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	return view, nil
}
