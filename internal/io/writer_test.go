package io

import (
	"os"
	"path"
	"strings"
	"testing"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReconstruction() *data.Reconstruction {
	return &data.Reconstruction{
		Cameras: []data.Camera{
			{ID: 1, Model: data.PinholeModel, Width: 4, Height: 4, Fx: 500.5, Fy: 510, Cx: 2, Cy: 2},
			{ID: 2, Model: data.PinholeModel, Width: 4, Height: 4, Fx: 499, Fy: 501.25, Cx: 2, Cy: 2},
		},
		Images: []data.ImagePose{
			{
				ID:          1,
				Quaternion:  [4]float64{1, 0, 0, 0},
				Translation: mgl64.Vec3{0.5, -1.25, 3},
				CameraID:    1,
				Name:        "frame_000.png",
			},
			{
				ID:          2,
				Quaternion:  [4]float64{0.7071067811865476, 0, 0, 0.7071067811865476},
				Translation: mgl64.Vec3{-2, 0, 1.5},
				CameraID:    2,
				Name:        "frame_001.png",
			},
		},
		ImageKeypoints: [][]data.Keypoint{
			{
				{X: 0, Y: 0, PointID: 0},
				{X: 2, Y: 0, PointID: 1},
			},
			{
				{X: 0, Y: 2, PointID: 0},
			},
		},
		Points: []data.Point3D{
			{
				ID:       0,
				Position: mgl64.Vec3{0.42, -1.5, 2.25},
				Color:    [3]uint8{200, 100, 50},
				Error:    1,
				Track: []data.TrackEntry{
					{ImageIndex: 0, KeypointIndex: 0},
					{ImageIndex: 1, KeypointIndex: 0},
				},
			},
			{
				ID:       1,
				Position: mgl64.Vec3{3, 4, 5},
				Color:    [3]uint8{10, 20, 30},
				Error:    1,
				Track: []data.TrackEntry{
					{ImageIndex: 0, KeypointIndex: 1},
				},
			},
		},
	}
}

func writeAll(t *testing.T, writer ReconstructionWriter, dir string) {
	t.Helper()
	require.NoError(t, writer.WriteCameras(dir))
	require.NoError(t, writer.WriteImages(dir))
	require.NoError(t, writer.WritePoints(dir))
}

func TestTextWriterRoundTrip(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()

	writeAll(t, NewTextWriter(recon), dir)

	decoded, err := ReadTextReconstruction(dir)
	require.NoError(t, err)
	require.Equal(t, recon, decoded)
}

func TestBinaryWriterRoundTrip(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()

	writeAll(t, NewBinaryWriter(recon), dir)

	decoded, err := ReadBinaryReconstruction(dir)
	require.NoError(t, err)
	require.Equal(t, recon, decoded)
}

func TestCrossFormatEquivalence(t *testing.T) {
	recon := testReconstruction()
	textDir := t.TempDir()
	binDir := t.TempDir()

	writeAll(t, NewTextWriter(recon), textDir)
	writeAll(t, NewBinaryWriter(recon), binDir)

	fromText, err := ReadTextReconstruction(textDir)
	require.NoError(t, err)
	fromBin, err := ReadBinaryReconstruction(binDir)
	require.NoError(t, err)

	require.Equal(t, fromText, fromBin)
}

func TestTextWriterCamerasLayout(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()
	writeAll(t, NewTextWriter(recon), dir)

	content, err := os.ReadFile(path.Join(dir, CamerasTextFile))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# Number of cameras: 2", lines[2])
	assert.Equal(t, "1 PINHOLE 4 4 500.5 510 2 2", lines[3])
	assert.Equal(t, "2 PINHOLE 4 4 499 501.25 2 2", lines[4])
}

func TestTextWriterImagesLayout(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()
	writeAll(t, NewTextWriter(recon), dir)

	content, err := os.ReadFile(path.Join(dir, ImagesTextFile))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "# Number of images: 2, mean observations per image: 1.5", lines[3])
	assert.Equal(t, "1 1 0 0 0 0.5 -1.25 3 1 frame_000.png", lines[4])
	// keypoint triples are 1-based point ids
	assert.Equal(t, "0 0 1 2 0 2", lines[5])
	assert.Equal(t, "0 2 1", lines[7])
}

func TestTextWriterPointsLayout(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()
	writeAll(t, NewTextWriter(recon), dir)

	content, err := os.ReadFile(path.Join(dir, PointsTextFile))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "# Number of points: 2, mean track length: 1.5000", lines[2])
	assert.Equal(t, "1 0.42 -1.5 2.25 200 100 50 1 1 0 2 0", lines[3])
	assert.Equal(t, "2 3 4 5 10 20 30 1 1 1", lines[4])
}

func TestTextWriterEmptyKeypointLine(t *testing.T) {
	recon := &data.Reconstruction{
		Cameras: []data.Camera{{ID: 1, Model: data.PinholeModel, Width: 2, Height: 2, Fx: 1, Fy: 1, Cx: 1, Cy: 1}},
		Images: []data.ImagePose{
			{ID: 1, Quaternion: [4]float64{1, 0, 0, 0}, CameraID: 1, Name: "empty.png"},
		},
		ImageKeypoints: [][]data.Keypoint{{}},
	}
	dir := t.TempDir()
	writeAll(t, NewTextWriter(recon), dir)

	content, err := os.ReadFile(path.Join(dir, ImagesTextFile))
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	// the keypoint line of an image without observations is empty
	assert.Equal(t, "", lines[5])

	decoded, err := ReadTextReconstruction(dir)
	require.NoError(t, err)
	require.Len(t, decoded.ImageKeypoints, 1)
	assert.Empty(t, decoded.ImageKeypoints[0])
}

func TestBinaryWriterCamerasRecordSize(t *testing.T) {
	recon := testReconstruction()
	dir := t.TempDir()
	writeAll(t, NewBinaryWriter(recon), dir)

	info, err := os.Stat(path.Join(dir, CamerasBinFile))
	require.NoError(t, err)
	// uint64 count + per camera: 2x uint32, 2x uint64, 4x float64
	assert.Equal(t, int64(8+2*(4+4+8+8+32)), info.Size())
}

func TestBinaryWriterEmptyReconstruction(t *testing.T) {
	recon := &data.Reconstruction{}
	dir := t.TempDir()
	writeAll(t, NewBinaryWriter(recon), dir)

	for _, name := range []string{CamerasBinFile, ImagesBinFile, PointsBinFile} {
		info, err := os.Stat(path.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, int64(8), info.Size(), name)
	}
}
