package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/claimguard/internal/inference"
	"github.com/templui/claimguard/internal/risk"
	"golang.org/x/sync/errgroup"
)

const batchWorkers = 4

type AnalysisOptions struct {
	MaxBatchImages   int
	InferenceTimeout time.Duration
}

// AnalysisService scores images without storing anything.
type AnalysisService struct {
	analyzer inference.Analyzer
	mapper   *risk.Mapper
	files    *FileService
	opts     AnalysisOptions
}

func NewAnalysisService(analyzer inference.Analyzer, mapper *risk.Mapper, files *FileService, opts AnalysisOptions) *AnalysisService {
	if mapper == nil {
		mapper = risk.NewMapper(nil)
	}
	if opts.MaxBatchImages <= 0 {
		opts.MaxBatchImages = 10
	}
	if opts.InferenceTimeout <= 0 {
		opts.InferenceTimeout = 15 * time.Second
	}
	return &AnalysisService{
		analyzer: analyzer,
		mapper:   mapper,
		files:    files,
		opts:     opts,
	}
}

// Analyze scores a single uploaded image.
func (s *AnalysisService) Analyze(ctx context.Context, upload Upload) (*risk.Assessment, error) {
	if err := s.files.Validate([]Upload{upload}); err != nil {
		return nil, err
	}
	return s.run(ctx, upload.Data)
}

// AnalyzeBase64 scores an image sent as base64, optionally as a data URI.
func (s *AnalysisService) AnalyzeBase64(ctx context.Context, encoded string) (*risk.Assessment, error) {
	data, err := decodeBase64Image(encoded)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.files.constraints.MaxSize {
		return nil, invalid("image_base64", "image too large")
	}
	return s.run(ctx, data)
}

func decodeBase64Image(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, "base64,"); i >= 0 {
		encoded = encoded[i+len("base64,"):]
	}
	if encoded == "" {
		return nil, invalid("image_base64", "image_base64 is required")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
	}
	if err != nil {
		return nil, invalid("image_base64", "invalid base64 image data")
	}
	return data, nil
}

// AnalyzeBatch scores up to MaxBatchImages images concurrently. Results keep
// submission order. Images that fail validation or analysis are left out.
func (s *AnalysisService) AnalyzeBatch(ctx context.Context, uploads []Upload) ([]*risk.Assessment, error) {
	if len(uploads) == 0 {
		return nil, invalid("images", "at least one image is required")
	}
	if len(uploads) > s.opts.MaxBatchImages {
		return nil, invalid("images", fmt.Sprintf("maximum %d images per batch", s.opts.MaxBatchImages))
	}

	// Without a model every item would be skipped
	if !s.Loaded() {
		return nil, inference.ErrModelUnavailable
	}

	slots := make([]*risk.Assessment, len(uploads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)

	for i, u := range uploads {
		g.Go(func() error {
			if err := s.files.Validate([]Upload{u}); err != nil {
				slog.Warn("batch image skipped", "index", i, "filename", u.Filename, "error", err)
				return nil
			}

			a, err := s.run(gctx, u.Data)
			if err != nil {
				slog.Warn("batch image skipped", "index", i, "filename", u.Filename, "error", err)
				return nil
			}
			slots[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*risk.Assessment, 0, len(uploads))
	for _, a := range slots {
		if a != nil {
			results = append(results, a)
		}
	}
	return results, nil
}

func (s *AnalysisService) run(ctx context.Context, image []byte) (*risk.Assessment, error) {
	if s.analyzer == nil {
		return nil, inference.ErrModelUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.InferenceTimeout)
	defer cancel()

	res, err := safeAnalyze(ctx, s.analyzer, image)
	if err != nil {
		return nil, err
	}

	a := s.mapper.Map(res.Score, res.ClassIndex)
	return &a, nil
}

// Loaded reports whether a model is available.
func (s *AnalysisService) Loaded() bool {
	if s.analyzer == nil {
		return false
	}
	if l, ok := s.analyzer.(interface{ Loaded() bool }); ok {
		return l.Loaded()
	}
	return true
}
