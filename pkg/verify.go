package pkg

import (
	"fmt"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/densemap/colmap_exporter/internal/io"
	"github.com/densemap/colmap_exporter/internal/recon"
	"github.com/densemap/colmap_exporter/tools"
)

type IVerifier interface {
	RunVerify(opts *recon.ExportOptions) error
}

// Verifier decodes the text and the binary serialization of one output
// folder back into the shared data model and compares them field for field.
// A mismatch indicates a writer defect, not recoverable data corruption.
type Verifier struct{}

func NewVerifier() IVerifier {
	return &Verifier{}
}

func (v *Verifier) RunVerify(opts *recon.ExportOptions) error {
	dir := opts.VerifyOptions.Input

	textRecon, err := io.ReadTextReconstruction(dir)
	if err != nil {
		return fmt.Errorf("reading text reconstruction: %w", err)
	}

	binRecon, err := io.ReadBinaryReconstruction(dir)
	if err != nil {
		return fmt.Errorf("reading binary reconstruction: %w", err)
	}

	if err := CompareReconstructions(textRecon, binRecon); err != nil {
		return err
	}

	tools.LogOutput(fmt.Sprintf("Reconstructions match: %d cameras, %d images, %d points",
		len(textRecon.Cameras), len(textRecon.Images), len(textRecon.Points)))
	return nil
}

// CompareReconstructions checks two decoded reconstructions for equality.
// Floats are compared with a small tolerance since the text form round-trips
// through decimal strings.
func CompareReconstructions(a, b *data.Reconstruction) error {
	if len(a.Cameras) != len(b.Cameras) {
		return fmt.Errorf("camera count mismatch: %d vs %d", len(a.Cameras), len(b.Cameras))
	}
	for i := range a.Cameras {
		if err := compareCameras(a.Cameras[i], b.Cameras[i]); err != nil {
			return err
		}
	}

	if len(a.Images) != len(b.Images) {
		return fmt.Errorf("image count mismatch: %d vs %d", len(a.Images), len(b.Images))
	}
	for i := range a.Images {
		if err := compareImages(a.Images[i], b.Images[i], a.ImageKeypoints[i], b.ImageKeypoints[i]); err != nil {
			return err
		}
	}

	if len(a.Points) != len(b.Points) {
		return fmt.Errorf("point count mismatch: %d vs %d", len(a.Points), len(b.Points))
	}
	for i := range a.Points {
		if err := comparePoints(a.Points[i], b.Points[i]); err != nil {
			return err
		}
	}

	return nil
}

func compareCameras(a, b data.Camera) error {
	if a.ID != b.ID || a.Model != b.Model || a.Width != b.Width || a.Height != b.Height {
		return fmt.Errorf("camera %d metadata mismatch", a.ID)
	}
	floats := [][2]float64{{a.Fx, b.Fx}, {a.Fy, b.Fy}, {a.Cx, b.Cx}, {a.Cy, b.Cy}}
	for _, pair := range floats {
		if !tools.IsFloatEqual(pair[0], pair[1]) {
			return fmt.Errorf("camera %d parameter mismatch: %v vs %v", a.ID, pair[0], pair[1])
		}
	}
	return nil
}

func compareImages(a, b data.ImagePose, aKeypoints, bKeypoints []data.Keypoint) error {
	if a.ID != b.ID || a.CameraID != b.CameraID || a.Name != b.Name {
		return fmt.Errorf("image %d metadata mismatch", a.ID)
	}
	for i := 0; i < 4; i++ {
		if !tools.IsFloatEqual(a.Quaternion[i], b.Quaternion[i]) {
			return fmt.Errorf("image %d quaternion mismatch", a.ID)
		}
	}
	for i := 0; i < 3; i++ {
		if !tools.IsFloatEqual(a.Translation[i], b.Translation[i]) {
			return fmt.Errorf("image %d translation mismatch", a.ID)
		}
	}
	if len(aKeypoints) != len(bKeypoints) {
		return fmt.Errorf("image %d keypoint count mismatch: %d vs %d", a.ID, len(aKeypoints), len(bKeypoints))
	}
	for i := range aKeypoints {
		if aKeypoints[i].PointID != bKeypoints[i].PointID ||
			!tools.IsFloatEqual(aKeypoints[i].X, bKeypoints[i].X) ||
			!tools.IsFloatEqual(aKeypoints[i].Y, bKeypoints[i].Y) {
			return fmt.Errorf("image %d keypoint %d mismatch", a.ID, i)
		}
	}
	return nil
}

func comparePoints(a, b data.Point3D) error {
	if a.ID != b.ID || a.Color != b.Color {
		return fmt.Errorf("point %d metadata mismatch", a.ID)
	}
	for i := 0; i < 3; i++ {
		if !tools.IsFloatEqual(a.Position[i], b.Position[i]) {
			return fmt.Errorf("point %d position mismatch", a.ID)
		}
	}
	if !tools.IsFloatEqual(a.Error, b.Error) {
		return fmt.Errorf("point %d error mismatch", a.ID)
	}
	if len(a.Track) != len(b.Track) {
		return fmt.Errorf("point %d track length mismatch: %d vs %d", a.ID, len(a.Track), len(b.Track))
	}
	for i := range a.Track {
		if a.Track[i] != b.Track[i] {
			return fmt.Errorf("point %d track entry %d mismatch", a.ID, i)
		}
	}
	return nil
}
