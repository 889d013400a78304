// Package inference turns image bytes into a model score.
//
// Images are decoded, resized to a fixed square and normalized before being
// sent as a single-item batch to a Model. The raw output is reduced to a
// score in [0,1] and the index of the strongest class.
package inference

import (
	"context"
	"errors"
)

var (
	ErrDecode           = errors.New("image could not be decoded")
	ErrInference        = errors.New("inference failed")
	ErrModelUnavailable = errors.New("model not loaded")
)

// Result is the reduced model output for one image.
type Result struct {
	Score      float64   `json:"score"`
	ClassIndex int       `json:"class_index"`
	Raw        []float64 `json:"raw"`
}

type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (Result, error)
}

// Model runs a batch of preprocessed tensors and returns one output vector per item.
type Model interface {
	Predict(ctx context.Context, batch []Tensor) ([][]float64, error)
}
