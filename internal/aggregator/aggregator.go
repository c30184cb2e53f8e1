package aggregator

import (
	"math"
	"runtime"
	"sync"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/densemap/colmap_exporter/internal/filters"
	"github.com/go-gl/mathgl/mgl64"
)

// Options steer the filtering, sampling and deduplication of the aggregation.
// The quantization scale and the stride are deliberately independent knobs.
type Options struct {
	ThresholdPct float64 // confidence cutoff as percentage of the global max confidence
	Stride       int     // sampling step over the prediction grids, >= 1
	Scale        float64 // coordinate scale applied before rounding to dedup keys
	Mask         filters.Mask
}

// DefaultOptions returns the aggregation defaults. Note the stride default
// here is 4 while the CLI defaults to 1, both are intentional.
func DefaultOptions() Options {
	return Options{
		ThresholdPct: 50.0,
		Stride:       4,
		Scale:        100.0,
	}
}

// Dedup key: a world position scaled and rounded to an integer triple.
// Using the fixed-width triple itself as map key keeps lookups stable across
// runs, unlike hashing a floating point composite.
type quantKey struct {
	x, y, z int64
}

func quantize(position mgl64.Vec3, scale float64) quantKey {
	return quantKey{
		x: int64(math.Round(position.X() * scale)),
		y: int64(math.Round(position.Y() * scale)),
		z: int64(math.Round(position.Z() * scale)),
	}
}

// A sample that survived the confidence, validity and classifier filters,
// waiting for id assignment in the merge phase.
type candidate struct {
	gridX    int
	gridY    int
	key      quantKey
	position mgl64.Vec3
	color    [3]uint8
}

// Mutable aggregation state threaded through the merge phase: the dedup
// index and the growing point list.
type context struct {
	indices map[quantKey]int
	points  []data.Point3D
}

func newContext() *context {
	return &context{
		indices: make(map[quantKey]int),
	}
}

// observe resolves a candidate to a point id, creating the point on first
// sight, and records the observation on the point's track.
func (ctx *context) observe(c candidate, imageIndex, keypointIndex int) int {
	entry := data.TrackEntry{ImageIndex: imageIndex, KeypointIndex: keypointIndex}

	idx, ok := ctx.indices[c.key]
	if !ok {
		idx = len(ctx.points)
		ctx.indices[c.key] = idx
		ctx.points = append(ctx.points, data.NewPoint3D(idx, c.position, c.color, entry))
		return idx
	}

	ctx.points[idx].Track = append(ctx.points[idx].Track, entry)
	return idx
}

// Aggregate runs the full pipeline sequentially: one shared confidence
// cutoff, then per image a stride sampling pass feeding the dedup context in
// image order, y then x ascending. Point ids and track ordering follow this
// processing order exactly.
func Aggregate(set *data.PredictionSet, opts Options) ([]data.Point3D, [][]data.Keypoint) {
	cutoff := confidenceCutoff(set, opts.ThresholdPct)

	ctx := newContext()
	imageKeypoints := make([][]data.Keypoint, len(set.Images))

	for imageIndex, img := range set.Images {
		candidates := collectCandidates(img, cutoff, opts)
		imageKeypoints[imageIndex] = mergeCandidates(ctx, candidates, imageIndex)
	}

	return ctx.points, imageKeypoints
}

// AggregateParallel runs the candidate collection of each image on its own
// worker, then merges the buffered candidates on a single goroutine in
// ascending image order. The output is identical to Aggregate since id
// assignment only happens in the ordered merge phase.
func AggregateParallel(set *data.PredictionSet, opts Options) ([]data.Point3D, [][]data.Keypoint) {
	cutoff := confidenceCutoff(set, opts.ThresholdPct)

	collected := make([][]candidate, len(set.Images))

	var wg sync.WaitGroup
	work := make(chan int)
	numWorkers := runtime.NumCPU()
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for imageIndex := range work {
				collected[imageIndex] = collectCandidates(set.Images[imageIndex], cutoff, opts)
			}
		}()
	}
	for imageIndex := range set.Images {
		work <- imageIndex
	}
	close(work)
	wg.Wait()

	ctx := newContext()
	imageKeypoints := make([][]data.Keypoint, len(set.Images))
	for imageIndex, candidates := range collected {
		imageKeypoints[imageIndex] = mergeCandidates(ctx, candidates, imageIndex)
	}

	return ctx.points, imageKeypoints
}

// The absolute cutoff is computed once over all images so that the threshold
// percentage refers to the global confidence range.
func confidenceCutoff(set *data.PredictionSet, thresholdPct float64) float64 {
	return thresholdPct / 100.0 * set.MaxConfidence()
}

// collectCandidates samples one prediction grid at the configured stride and
// applies the per-sample filters. Pure with respect to shared state, so it is
// safe to run for several images concurrently.
func collectCandidates(img *data.ImagePrediction, cutoff float64, opts Options) []candidate {
	var candidates []candidate

	for y := 0; y < img.Height; y += opts.Stride {
		for x := 0; x < img.Width; x += opts.Stride {
			if img.ConfidenceAt(y, x) <= cutoff {
				continue
			}

			position := img.PointAt(y, x)
			if !isFinite(position) {
				continue
			}

			color := img.ColorAt(y, x)
			if opts.Mask.Rejects(position, color) {
				continue
			}

			candidates = append(candidates, candidate{
				gridX:    x,
				gridY:    y,
				key:      quantize(position, opts.Scale),
				position: position,
				color:    color,
			})
		}
	}

	return candidates
}

// mergeCandidates folds one image's candidates into the dedup context and
// returns the image's keypoint list. Must be called in ascending image order.
func mergeCandidates(ctx *context, candidates []candidate, imageIndex int) []data.Keypoint {
	keypoints := make([]data.Keypoint, 0, len(candidates))

	for _, c := range candidates {
		idx := ctx.observe(c, imageIndex, len(keypoints))
		keypoints = append(keypoints, data.Keypoint{
			X:       float64(c.gridX),
			Y:       float64(c.gridY),
			PointID: idx,
		})
	}

	return keypoints
}

func isFinite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
