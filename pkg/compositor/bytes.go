package compositor

import (
	"github.com/menta2k/photo-frame/pkg/loader"
	"github.com/menta2k/photo-frame/pkg/region"
	"github.com/menta2k/photo-frame/pkg/transform"
)

// RenderBytes decodes the banner and photo, renders, and encodes the result.
// Nothing is returned unless every step succeeds.
func (c *Compositor) RenderBytes(banner []byte, r region.Region, photo []byte, t transform.Transform, opts EncodeOptions) ([]byte, error) {
	l := loader.New()
	src, err := l.Decode("banner", banner)
	if err != nil {
		return nil, err
	}
	overlay, err := l.Decode("photo", photo)
	if err != nil {
		return nil, err
	}
	out, err := c.Render(src, r, overlay, t)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(out, opts)
}
