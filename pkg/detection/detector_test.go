package detection

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-frame/pkg/types"
	"github.com/menta2k/photo-frame/pkg/vision"
)

type fakeClient struct {
	result *types.AnalysisResult
	err    error
	model  string
	image  string
}

func (f *fakeClient) SimpleQuery(_ context.Context, model, _, imgB64 string) (string, error) {
	f.model, f.image = model, imgB64
	return "a test card", f.err
}

func (f *fakeClient) AnalyzeImage(_ context.Context, model, _, imgB64 string) (*types.AnalysisResult, error) {
	f.model, f.image = model, imgB64
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	return &r, nil
}

func TestLocate(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{
		Primary: types.Subject{Label: "person", Confidence: 0.9, Box: types.Box{X: 0.6, Y: 0.1, W: 0.7, H: 0.3}},
		Tags:    []string{"Person", "person", " smile "},
	}}
	d := NewDetector(fc, "llava")

	box, err := d.Locate(context.Background(), imaging.New(1600, 900, color.White))
	require.NoError(t, err)
	assert.Equal(t, "llava", fc.model)
	assert.InDelta(t, 0.6, box.X, 1e-9)
	assert.InDelta(t, 0.4, box.W, 1e-9, "width is cut at the right edge")
	assert.InDelta(t, 0.3, box.H, 1e-9)

	raw, err := base64.StdEncoding.DecodeString(fc.image)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, MaxModelDimension, img.Bounds().Dx(), "image is downsized before upload")
}

func TestLocateNoSubject(t *testing.T) {
	for _, res := range []*types.AnalysisResult{
		{Primary: types.Subject{Label: "none", Box: types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}}},
		{Primary: types.Subject{Label: "unclear image", Confidence: 0.1, Box: types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5}}},
		{Primary: types.Subject{Label: "dog", Confidence: 0.9}},
	} {
		d := NewDetector(&fakeClient{result: res}, "llava")
		_, err := d.Locate(context.Background(), imaging.New(64, 64, color.White))
		assert.ErrorIs(t, err, vision.ErrNoSubject, res.Primary.Label)
	}
}

func TestLocateClientError(t *testing.T) {
	boom := errors.New("connection refused")
	d := NewDetector(&fakeClient{err: boom}, "llava")

	_, err := d.Locate(context.Background(), imaging.New(64, 64, color.White))
	assert.ErrorIs(t, err, boom)
}

func TestDetectSubjectNormalizesTags(t *testing.T) {
	fc := &fakeClient{result: &types.AnalysisResult{
		Primary: types.Subject{Label: "cat", Box: types.Box{X: -0.2, Y: 0.5, W: 0.5, H: 0.5}},
		Tags:    []string{"Cat", "cat", "", "Pet", "a", "b", "c", "d"},
	}}
	res, err := NewDetector(fc, "m").DetectSubject(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "pet", "a", "b", "c"}, res.Tags)
	assert.Equal(t, types.Box{X: 0, Y: 0.5, W: 0.5, H: 0.5}, res.Primary.Box)
}

func TestTestVision(t *testing.T) {
	fc := &fakeClient{}
	out, err := NewDetector(fc, "llava").TestVision(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "a test card", out)
	assert.Equal(t, "AAAA", fc.image)
}
