package pkg

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path"
	"testing"

	"github.com/densemap/colmap_exporter/internal/data"
	colmapio "github.com/densemap/colmap_exporter/internal/io"
	"github.com/densemap/colmap_exporter/internal/predread"
	"github.com/densemap/colmap_exporter/internal/recon"
	"github.com/densemap/colmap_exporter/tools"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func writeScene(t *testing.T, dir string) {
	t.Helper()

	shared := mgl64.Vec3{1, 1, 1}

	for imgIdx := 0; imgIdx < 2; imgIdx++ {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				img.SetNRGBA(x, y, color.NRGBA{uint8(60 + x*10), uint8(80 + y*10), 120, 255})
			}
		}

		name := path.Join(dir, "frame_00"+string(rune('0'+imgIdx))+".png")
		file, err := os.Create(name)
		require.NoError(t, err)
		require.NoError(t, png.Encode(file, img))
		require.NoError(t, file.Close())

		points := make([]mgl64.Vec3, 16)
		confidence := make([]float32, 16)
		for i := range points {
			points[i] = mgl64.Vec3{float64(imgIdx*10 + i), float64(i % 4), 2}
			confidence[i] = 1
		}
		// both images observe one shared world point at grid (0,0)
		points[0] = shared

		pred := &data.ImagePrediction{
			Width:      4,
			Height:     4,
			Points:     points,
			Confidence: confidence,
			Intrinsic: mat.NewDense(3, 3, []float64{
				500, 0, 2,
				0, 510, 2,
				0, 0, 1,
			}),
			Extrinsic: mat.NewDense(3, 4, []float64{
				1, 0, 0, float64(imgIdx),
				0, 1, 0, 0,
				0, 0, 1, 0,
			}),
		}
		predPath := path.Join(dir, "frame_00"+string(rune('0'+imgIdx))+".pred")
		require.NoError(t, predread.WritePredictionFile(predPath, pred))
	}
}

func TestRunExportEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := path.Join(t.TempDir(), "out")
	writeScene(t, inputDir)

	opts := &recon.ExportOptions{
		Input:               inputDir,
		Output:              outputDir,
		ConfidenceThreshold: 0,
		Stride:              1,
		Format:              recon.FormatText,
		WritePly:            true,
	}

	exporter := NewExporter(tools.NewStandardFileFinder(), predread.NewFileLoader())
	require.NoError(t, exporter.RunExport(opts))

	for _, name := range []string{colmapio.CamerasTextFile, colmapio.ImagesTextFile, colmapio.PointsTextFile, colmapio.PlyPreviewFile} {
		_, err := os.Stat(path.Join(outputDir, name))
		assert.NoError(t, err, name)
	}

	reconstruction, err := colmapio.ReadTextReconstruction(outputDir)
	require.NoError(t, err)

	require.Len(t, reconstruction.Cameras, 2)
	assert.Equal(t, 500.0, reconstruction.Cameras[0].Fx)
	assert.Equal(t, data.PinholeModel, reconstruction.Cameras[0].Model)

	require.Len(t, reconstruction.Images, 2)
	assert.Equal(t, "frame_000.png", reconstruction.Images[0].Name)
	assert.Equal(t, 1, reconstruction.Images[0].CameraID)
	// identity rotation, translation from the extrinsic
	assert.InDelta(t, 1.0, reconstruction.Images[0].Quaternion[0], 1e-9)
	assert.InDelta(t, 1.0, reconstruction.Images[1].Translation.X(), 1e-9)

	// 16 samples per image, one world point shared between the two images
	assert.Len(t, reconstruction.Points, 31)
	assert.Len(t, reconstruction.ImageKeypoints[0], 16)
	assert.Len(t, reconstruction.ImageKeypoints[1], 16)

	sharedTracks := 0
	for _, point := range reconstruction.Points {
		if len(point.Track) == 2 {
			sharedTracks++
			assert.Equal(t, []data.TrackEntry{
				{ImageIndex: 0, KeypointIndex: 0},
				{ImageIndex: 1, KeypointIndex: 0},
			}, point.Track)
		}
	}
	assert.Equal(t, 1, sharedTracks)
}

func TestRunExportBothFormatsAndVerify(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := path.Join(t.TempDir(), "out")
	writeScene(t, inputDir)

	exporter := NewExporter(tools.NewStandardFileFinder(), predread.NewFileLoader())

	opts := &recon.ExportOptions{
		Input:               inputDir,
		Output:              outputDir,
		ConfidenceThreshold: 0,
		Stride:              2,
		Format:              recon.FormatText,
	}
	require.NoError(t, exporter.RunExport(opts))

	opts.Format = recon.FormatBinary
	require.NoError(t, exporter.RunExport(opts))

	verifyOpts := &recon.ExportOptions{
		VerifyOptions: &recon.VerifyOptions{Input: outputDir},
	}
	require.NoError(t, NewVerifier().RunVerify(verifyOpts))
}

func TestRunExportEmptyInputDir(t *testing.T) {
	opts := &recon.ExportOptions{
		Input:  t.TempDir(),
		Output: t.TempDir(),
		Stride: 1,
		Format: recon.FormatText,
	}

	exporter := NewExporter(tools.NewStandardFileFinder(), predread.NewFileLoader())
	err := exporter.RunExport(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images found")
}

func TestCompareReconstructionsDetectsMismatch(t *testing.T) {
	a := &data.Reconstruction{
		Cameras: []data.Camera{{ID: 1, Model: data.PinholeModel, Width: 2, Height: 2, Fx: 1, Fy: 1, Cx: 1, Cy: 1}},
	}
	b := &data.Reconstruction{
		Cameras: []data.Camera{{ID: 1, Model: data.PinholeModel, Width: 2, Height: 2, Fx: 2, Fy: 1, Cx: 1, Cy: 1}},
	}

	require.NoError(t, CompareReconstructions(a, a))
	err := CompareReconstructions(a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parameter mismatch")
}
