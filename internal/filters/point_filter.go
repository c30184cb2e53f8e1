package filters

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	skyMinHeight     = 1.0
	skyBlueDominance = 1.2

	blackBgMaxMean = 30.0

	whiteBgMinMean   = 230.0
	whiteBgMaxStdDev = 15.0
)

// Mask bundles the enable flags of the three background heuristics
type Mask struct {
	Sky             bool
	BlackBackground bool
	WhiteBackground bool
}

// Rejects reports whether any enabled heuristic classifies the sample as
// sky or background. The heuristics are best effort and may misclassify.
func (m Mask) Rejects(point mgl64.Vec3, color [3]uint8) bool {
	if m.Sky && IsSkyPoint(point, color) {
		return true
	}
	if m.BlackBackground && IsBlackBackground(color) {
		return true
	}
	if m.WhiteBackground && IsWhiteBackground(color) {
		return true
	}
	return false
}

// IsSkyPoint classifies a point as sky when it sits high up and its color is
// distinctly blue-dominant.
//
// Precondition: the world frame is roughly scene-centered and normalized with
// +Y up. A different upstream coordinate convention silently breaks the
// height test.
func IsSkyPoint(point mgl64.Vec3, color [3]uint8) bool {
	r := float64(color[0])
	g := float64(color[1])
	b := float64(color[2])
	return point.Y() > skyMinHeight &&
		b > skyBlueDominance*r &&
		b > skyBlueDominance*g
}

// IsBlackBackground classifies near-black pixels as background
func IsBlackBackground(color [3]uint8) bool {
	return channelMean(color) < blackBgMaxMean
}

// IsWhiteBackground classifies near-uniform bright pixels as background.
// The deviation bound keeps bright but colorful pixels.
func IsWhiteBackground(color [3]uint8) bool {
	return channelMean(color) > whiteBgMinMean && channelStdDev(color) < whiteBgMaxStdDev
}

func channelMean(color [3]uint8) float64 {
	return (float64(color[0]) + float64(color[1]) + float64(color[2])) / 3
}

func channelStdDev(color [3]uint8) float64 {
	mean := channelMean(color)
	variance := 0.0
	for _, c := range color {
		d := float64(c) - mean
		variance += d * d
	}
	return math.Sqrt(variance / 3)
}
