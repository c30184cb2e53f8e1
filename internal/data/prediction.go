package data

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Dense per-image output of the upstream depth/pose model. The point and
// confidence grids share the prediction resolution (Height x Width) which may
// differ from the source image resolution; color lookups rescale per axis.
type ImagePrediction struct {
	Name       string       // base name of the source image file
	Width      int          // prediction grid width
	Height     int          // prediction grid height
	Points     []mgl64.Vec3 // world-space points, row-major, len Height*Width
	Confidence []float32    // per-pixel confidence, row-major, len Height*Width
	Intrinsic  *mat.Dense   // 3x3 camera intrinsic matrix
	Extrinsic  *mat.Dense   // 3x4 camera-to-world extrinsic matrix
	Image      image.Image  // source image, used only for color sampling
}

// World point at grid coordinate (y, x)
func (p *ImagePrediction) PointAt(y, x int) mgl64.Vec3 {
	return p.Points[y*p.Width+x]
}

// Confidence at grid coordinate (y, x)
func (p *ImagePrediction) ConfidenceAt(y, x int) float64 {
	return float64(p.Confidence[y*p.Width+x])
}

// Samples the source image color for grid coordinate (y, x), mapping through
// the per-axis scale between the prediction grid and the image resolution.
// Coordinates are floor-truncated and clamped to the image bounds.
func (p *ImagePrediction) ColorAt(y, x int) [3]uint8 {
	bounds := p.Image.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	origY := int(float64(y) * float64(origH) / float64(p.Height))
	if origY > origH-1 {
		origY = origH - 1
	}
	origX := int(float64(x) * float64(origW) / float64(p.Width))
	if origX > origW-1 {
		origX = origW - 1
	}

	r, g, b, _ := p.Image.At(bounds.Min.X+origX, bounds.Min.Y+origY).RGBA()
	return [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)}
}

// All predictions of one capture session, ordered like the input image list
type PredictionSet struct {
	Images []*ImagePrediction
}

// MaxConfidence returns the maximum confidence over all images and pixels,
// or 0 if the set holds no pixels at all.
func (s *PredictionSet) MaxConfidence() float64 {
	max := math.Inf(-1)
	found := false
	for _, img := range s.Images {
		for _, c := range img.Confidence {
			if !found || float64(c) > max {
				max = float64(c)
				found = true
			}
		}
	}
	if !found {
		return 0
	}
	return max
}
