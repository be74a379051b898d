package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-frame/pkg/compositor"
	"github.com/menta2k/photo-frame/pkg/geometry"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/transform"
	"github.com/menta2k/photo-frame/pkg/types"
)

type put struct {
	name        string
	contentType string
	data        []byte
}

type memorySink struct {
	mu      sync.Mutex
	puts    []put
	started chan struct{}
	release chan struct{}
	err     error
}

func (m *memorySink) Put(_ context.Context, name, contentType string, data []byte) (string, error) {
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, put{name, contentType, data})
	if m.err != nil {
		return "", m.err
	}
	return "mem://" + name, nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

type fixedLocator struct {
	box types.Box
	err error
}

func (f fixedLocator) Locate(context.Context, image.Image) (types.Box, error) {
	return f.box, f.err
}

// A 1200x800 banner shown at 600x400 with a 400x400 placeholder whose
// center is at (600,400), displayed at (300,200).
func newTestSession(t *testing.T, shape region.Shape) *Session {
	t.Helper()
	banner := imaging.New(1200, 800, color.NRGBA{128, 128, 128, 255})
	r := region.Region{X: 400, Y: 200, Width: 400, Height: 400, Shape: shape}
	s, err := New(banner, r, geometry.Size{W: 600, H: 400})
	require.NoError(t, err)
	return s
}

func withPhoto(t *testing.T, s *Session) *Session {
	t.Helper()
	s.SetPhoto(imaging.New(300, 300, color.NRGBA{200, 0, 0, 255}))
	return s
}

func TestNew(t *testing.T) {
	s := newTestSession(t, region.Rectangle)
	assert.Equal(t, geometry.Rect{X: 200, Y: 100, Width: 200, Height: 200}, s.Placeholder())
	assert.False(t, s.HasPhoto())
	assert.Equal(t, transform.Default(), s.Transform())

	banner := imaging.New(1200, 800, color.White)
	s, err := New(banner, region.Region{X: 1000, Y: 700, Width: 400, Height: 400}, geometry.Size{W: 600, H: 400})
	require.NoError(t, err)
	assert.Equal(t, region.Region{X: 800, Y: 400, Width: 400, Height: 400}, s.Region())

	_, err = New(nil, region.Region{}, geometry.Size{W: 600, H: 400})
	assert.Error(t, err)
	_, err = New(banner, region.Region{}, geometry.Size{})
	assert.Error(t, err)
}

func TestDragInDisplaySpace(t *testing.T) {
	s := newTestSession(t, region.Rectangle)
	assert.False(t, s.PointerDown(geometry.Point{X: 300, Y: 200}), "no photo yet")

	withPhoto(t, s)
	assert.False(t, s.PointerDown(geometry.Point{X: 10, Y: 10}), "outside the placeholder")

	require.True(t, s.PointerDown(geometry.Point{X: 300, Y: 200}))
	assert.True(t, s.Dragging())

	// 10 display pixels are 20 banner pixels.
	s.PointerMove(geometry.Point{X: 310, Y: 190})
	tr := s.Transform()
	assert.InDelta(t, 20, tr.TranslateX, 1e-9)
	assert.InDelta(t, -20, tr.TranslateY, 1e-9)

	// The drag continues outside the placeholder.
	s.PointerMove(geometry.Point{X: 590, Y: 390})
	assert.InDelta(t, 580, s.Transform().TranslateX, 1e-9)

	s.PointerLeave()
	assert.False(t, s.Dragging())
	s.PointerMove(geometry.Point{X: 0, Y: 0})
	assert.InDelta(t, 580, s.Transform().TranslateX, 1e-9)
}

func TestDragResumesFromCurrentTranslation(t *testing.T) {
	s := withPhoto(t, newTestSession(t, region.Rectangle))

	require.True(t, s.PointerDown(geometry.Point{X: 300, Y: 200}))
	s.PointerMove(geometry.Point{X: 320, Y: 200})
	s.PointerUp()

	require.True(t, s.PointerDown(geometry.Point{X: 250, Y: 250}))
	s.PointerMove(geometry.Point{X: 250, Y: 260})
	s.PointerUp()

	assert.InDelta(t, 40, s.Transform().TranslateX, 1e-9)
	assert.InDelta(t, 20, s.Transform().TranslateY, 1e-9)
}

func TestCircleHitTest(t *testing.T) {
	s := withPhoto(t, newTestSession(t, region.Circle))
	assert.False(t, s.PointerDown(geometry.Point{X: 202, Y: 102}), "box corner is outside the circle")
	assert.True(t, s.PointerDown(geometry.Point{X: 300, Y: 110}))
}

func TestSlidersAndReset(t *testing.T) {
	s := withPhoto(t, newTestSession(t, region.Rectangle))
	s.SetScale(5)
	s.SetRotation(-270)
	assert.Equal(t, transform.Transform{Scale: 2, RotationDegrees: -180}, s.Transform())

	s.Reset()
	assert.Equal(t, transform.Default(), s.Transform())

	placed := transform.Transform{TranslateX: 5, Scale: 1.5, RotationDegrees: 30}
	s.SetTransform(placed)
	require.True(t, s.PointerDown(s.Placeholder().Center()))
	s.SetPhoto(imaging.New(10, 10, color.White))
	assert.Equal(t, placed, s.Transform(), "a new photo keeps the placement")
	assert.False(t, s.Dragging())
}

func TestLoadPhoto(t *testing.T) {
	s := newTestSession(t, region.Rectangle)

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(20, 10, color.White), imaging.PNG))
	require.NoError(t, s.LoadPhoto(buf.Bytes()))
	assert.True(t, s.HasPhoto())

	err := s.LoadPhoto([]byte("not an image"))
	var decodeErr *types.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.True(t, s.HasPhoto(), "a failed load keeps the previous photo")
}

func TestRenderAndPreview(t *testing.T) {
	s := newTestSession(t, region.Rectangle)
	_, err := s.Render()
	assert.ErrorIs(t, err, ErrNoPhoto)

	p, err := s.Preview()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 400), p.Bounds())

	withPhoto(t, s)
	out, err := s.Render()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 800), out.Bounds())
	c := out.NRGBAAt(600, 400)
	assert.InDelta(t, 200, int(c.R), 1)
	assert.InDelta(t, 0, int(c.G), 1)
	assert.Equal(t, uint8(255), c.A)
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, out.NRGBAAt(100, 100))

	p, err = s.Preview()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 400), p.Bounds())
}

func TestExport(t *testing.T) {
	s := withPhoto(t, newTestSession(t, region.Rectangle))
	sink := &memorySink{}

	url, err := s.Export(context.Background(), compositor.DefaultEncodeOptions(), sink, "")
	require.NoError(t, err)
	assert.Equal(t, "mem://campaign_poster.png", url)

	require.Equal(t, 1, sink.count())
	got := sink.puts[0]
	assert.Equal(t, "image/png", got.contentType)
	img, err := imaging.Decode(bytes.NewReader(got.data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1200, 800), img.Bounds())

	url, err = s.Export(context.Background(), compositor.EncodeOptions{Format: compositor.JPEG, Quality: 80}, sink, "Summer_poster.jpg")
	require.NoError(t, err)
	assert.Equal(t, "mem://Summer_poster.jpg", url)
	assert.Equal(t, "image/jpeg", sink.puts[1].contentType)
}

func TestExportFailuresNeverReachSink(t *testing.T) {
	sink := &memorySink{}

	s := newTestSession(t, region.Rectangle)
	_, err := s.Export(context.Background(), compositor.DefaultEncodeOptions(), sink, "x.png")
	assert.ErrorIs(t, err, ErrNoPhoto)

	withPhoto(t, s)
	_, err = s.Export(context.Background(), compositor.EncodeOptions{Format: "psd"}, sink, "x.psd")
	var renderErr *types.RenderError
	assert.True(t, errors.As(err, &renderErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Export(ctx, compositor.DefaultEncodeOptions(), sink, "x.png")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, sink.count())

	boom := errors.New("bucket unavailable")
	_, err = s.Export(context.Background(), compositor.DefaultEncodeOptions(), &memorySink{err: boom}, "x.png")
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentExportRejected(t *testing.T) {
	s := withPhoto(t, newTestSession(t, region.Rectangle))
	sink := &memorySink{started: make(chan struct{}), release: make(chan struct{})}

	type result struct {
		url string
		err error
	}
	done := make(chan result)
	go func() {
		url, err := s.Export(context.Background(), compositor.DefaultEncodeOptions(), sink, "first.png")
		done <- result{url, err}
	}()

	<-sink.started
	_, err := s.Export(context.Background(), compositor.DefaultEncodeOptions(), &memorySink{}, "second.png")
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(sink.release)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, "mem://first.png", first.url)

	// The guard is released once the first export finishes.
	sink.started = nil
	_, err = s.Export(context.Background(), compositor.DefaultEncodeOptions(), sink, "third.png")
	assert.NoError(t, err)
}

func TestAutoFit(t *testing.T) {
	s := newTestSession(t, region.Rectangle)
	_, err := s.AutoFit(context.Background(), fixedLocator{})
	assert.ErrorIs(t, err, ErrNoPhoto)

	withPhoto(t, s)
	tr, err := s.AutoFit(context.Background(), fixedLocator{box: types.Box{X: 0.5, Y: 0.5, W: 0.4, H: 0.4}})
	require.NoError(t, err)
	assert.InDelta(t, 2, tr.Scale, 1e-9)
	assert.InDelta(t, -160, tr.TranslateX, 1e-9)
	assert.InDelta(t, -160, tr.TranslateY, 1e-9)
	assert.Equal(t, tr, s.Transform())

	boom := errors.New("model offline")
	_, err = s.AutoFit(context.Background(), fixedLocator{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, tr, s.Transform(), "a failed fit leaves the transform alone")
}
