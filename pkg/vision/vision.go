// Package vision finds the subject of a user photo so the photo can be placed
// with its subject centered in the placeholder.
package vision

import (
	"context"
	"errors"
	"image"

	"github.com/menta2k/photo-frame/pkg/types"
)

// ErrNoSubject is returned when a locator cannot find anything worth centering.
var ErrNoSubject = errors.New("no subject found")

// Locator finds the main subject of a photo as a box normalized to [0,1].
type Locator interface {
	Locate(ctx context.Context, img image.Image) (types.Box, error)
}

// Client is a vision-language model backend.
type Client interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}
