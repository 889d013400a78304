package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/claimguard/internal/ctxkeys"
	"github.com/templui/claimguard/internal/service"
	"github.com/templui/claimguard/internal/validation"
)

type ClaimHandler struct {
	claimService *service.ClaimService
	maxBody      int64
}

// NewClaimHandler serves the claim endpoints. maxBody bounds a whole
// multipart submission including its images.
func NewClaimHandler(claimService *service.ClaimService, maxBody int64) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, maxBody: maxBody}
}

func (h *ClaimHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := parseMultipart(w, r, h.maxBody)
	if err != nil {
		respondError(w, r, err)
		return
	}

	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("vehicle_year")))
	if err != nil {
		respondError(w, r, &validation.Error{Field: "vehicle_year", Message: "vehicle_year must be a number"})
		return
	}

	uploads, err := formUploads(r, "images")
	if err != nil {
		respondError(w, r, err)
		return
	}

	in := service.ClaimInput{
		ClaimantName: r.FormValue("claimant_name"),
		VehicleMake:  r.FormValue("vehicle_make"),
		VehicleModel: r.FormValue("vehicle_model"),
		VehicleYear:  year,
		VehicleVIN:   r.FormValue("vehicle_vin"),
		IncidentDate: r.FormValue("incident_date"),
		Location:     r.FormValue("location"),
		Description:  r.FormValue("description"),
		PolicyNumber: r.FormValue("policy_number"),
		PolicyType:   r.FormValue("policy_type"),
	}

	view, err := h.claimService.Create(r.Context(), user, in, uploads)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newClaimResponse(view))
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	q := r.URL.Query()

	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		respondError(w, r, err)
		return
	}
	offset, err := queryInt(q.Get("offset"), "offset")
	if err != nil {
		respondError(w, r, err)
		return
	}

	views, err := h.claimService.List(r.Context(), user, service.ListInput{
		Status: q.Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	claims := make([]claimResponse, 0, len(views))
	for _, v := range views {
		claims = append(claims, newClaimResponse(v))
	}
	respondJSON(w, http.StatusOK, claims)
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &validation.Error{Field: field, Message: field + " must be a number"}
	}
	return n, nil
}

func (h *ClaimHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	view, err := h.claimService.Get(r.Context(), user, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newClaimResponse(view))
}

type updateClaimRequest struct {
	Status      *string `json:"status"`
	DamageType  *string `json:"damage_type"`
	Description *string `json:"description"`
}

func (h *ClaimHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req updateClaimRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	view, err := h.claimService.Update(r.Context(), user, r.PathValue("id"), service.ClaimPatch{
		Status:      req.Status,
		DamageType:  req.DamageType,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newClaimResponse(view))
}

func (h *ClaimHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.claimService.Delete(r.Context(), user, r.PathValue("id"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Claim deleted successfully"})
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *ClaimHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req commentRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	comment, err := h.claimService.AddComment(r.Context(), user, r.PathValue("id"), req.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, commentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Author:    comment.Author,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
}
