package inference

import (
	"context"
	"fmt"
	"math"
)

// Adapter runs one image through a Model.
type Adapter struct {
	model Model
	size  int
}

func NewAdapter(model Model, size int) *Adapter {
	if size <= 0 {
		size = DefaultImageSize
	}
	return &Adapter{model: model, size: size}
}

// Analyze fails with ErrDecode for unreadable images and ErrInference for
// anything that goes wrong after decoding, including a panicking model.
func (a *Adapter) Analyze(ctx context.Context, image []byte) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: panic: %v", ErrInference, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInference, err)
	}

	tensor, err := Preprocess(image, a.size)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInference, err)
	}

	out, err := a.model.Predict(ctx, []Tensor{tensor})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(out) != 1 {
		return Result{}, fmt.Errorf("%w: expected 1 prediction, got %d", ErrInference, len(out))
	}

	return Reduce(out[0])
}

// Reduce collapses a model output vector. A single output is the score
// itself; otherwise the score is the largest output and the class index
// its position. The score is clamped to [0,1].
func Reduce(output []float64) (Result, error) {
	if len(output) == 0 {
		return Result{}, fmt.Errorf("%w: empty prediction", ErrInference)
	}

	best := 0
	for i, v := range output {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Result{}, fmt.Errorf("%w: non-finite output at %d", ErrInference, i)
		}
		if v > output[best] {
			best = i
		}
	}

	raw := make([]float64, len(output))
	copy(raw, output)

	return Result{
		Score:      clamp(output[best]),
		ClassIndex: best,
		Raw:        raw,
	}, nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
