package handler

import (
	"errors"
	"mime"
	"net/http"

	"github.com/templui/claimguard/internal/service"
	"github.com/templui/claimguard/internal/validation"
)

// AnalyzeHandler scores images without creating a claim.
type AnalyzeHandler struct {
	analysisService *service.AnalysisService
	maxBody         int64
}

func NewAnalyzeHandler(analysisService *service.AnalysisService, maxBody int64) *AnalyzeHandler {
	return &AnalyzeHandler{analysisService: analysisService, maxBody: maxBody}
}

// Fraud scores the uploaded "image". Damage is the same analysis.
func (h *AnalyzeHandler) Fraud(w http.ResponseWriter, r *http.Request) {
	upload, err := h.singleUpload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	assessment, err := h.analysisService.Analyze(r.Context(), upload)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, assessment)
}

func (h *AnalyzeHandler) Damage(w http.ResponseWriter, r *http.Request) {
	h.Fraud(w, r)
}

func (h *AnalyzeHandler) singleUpload(w http.ResponseWriter, r *http.Request) (service.Upload, error) {
	err := parseMultipart(w, r, h.maxBody)
	if err != nil {
		return service.Upload{}, err
	}

	uploads, err := formUploads(r, "image")
	if err != nil {
		return service.Upload{}, err
	}
	if len(uploads) == 0 {
		return service.Upload{}, &validation.Error{Field: "image", Message: "image file is required"}
	}
	return uploads[0], nil
}

// FraudBase64 scores an "image_base64" form value.
func (h *AnalyzeHandler) FraudBase64(w http.ResponseWriter, r *http.Request) {
	err := h.parseForm(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	assessment, err := h.analysisService.AnalyzeBase64(r.Context(), r.FormValue("image_base64"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, assessment)
}

func (h *AnalyzeHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return parseMultipart(w, r, h.maxBody)
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	err := r.ParseForm()
	var maxBytes *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &maxBytes):
		return errPayloadTooLarge
	default:
		return &validation.Error{Field: "body", Message: "invalid form body"}
	}
}

// Batch scores every file under "images". Images that fail are left out of
// the response, which keeps submission order for the rest.
func (h *AnalyzeHandler) Batch(w http.ResponseWriter, r *http.Request) {
	err := parseMultipart(w, r, h.maxBody)
	if err != nil {
		respondError(w, r, err)
		return
	}

	uploads, err := formUploads(r, "images")
	if err != nil {
		respondError(w, r, err)
		return
	}

	results, err := h.analysisService.AnalyzeBatch(r.Context(), uploads)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
