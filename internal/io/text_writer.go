package io

import (
	"bufio"
	"fmt"
	"os"
	"path"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/shopspring/decimal"
)

// TextWriter emits the reconstruction as the ASCII files cameras.txt,
// images.txt and points3D.txt. Floats are printed in shortest round-trip
// representation, ids are shifted to the 1-based persisted convention.
type TextWriter struct {
	recon *data.Reconstruction
}

func NewTextWriter(recon *data.Reconstruction) *TextWriter {
	return &TextWriter{recon: recon}
}

func (t *TextWriter) WriteCameras(dir string) error {
	file, err := os.Create(path.Join(dir, CamerasTextFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "# Camera list with one line of data per camera:\n")
	fmt.Fprintf(w, "#   CAMERA_ID, MODEL, WIDTH, HEIGHT, PARAMS[]\n")
	fmt.Fprintf(w, "# Number of cameras: %d\n", len(t.recon.Cameras))

	for _, camera := range t.recon.Cameras {
		fmt.Fprintf(w, "%d %s %d %d %v %v %v %v\n",
			camera.ID, camera.Model, camera.Width, camera.Height,
			camera.Fx, camera.Fy, camera.Cx, camera.Cy)
	}

	return w.Flush()
}

func (t *TextWriter) WriteImages(dir string) error {
	file, err := os.Create(path.Join(dir, ImagesTextFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "# Image list with two lines of data per image:\n")
	fmt.Fprintf(w, "#   IMAGE_ID, QW, QX, QY, QZ, TX, TY, TZ, CAMERA_ID, NAME\n")
	fmt.Fprintf(w, "#   POINTS2D[] as (X, Y, POINT3D_ID)\n")
	fmt.Fprintf(w, "# Number of images: %d, mean observations per image: %s\n",
		len(t.recon.Images), meanObservations(t.recon))

	for i, pose := range t.recon.Images {
		fmt.Fprintf(w, "%d %v %v %v %v %v %v %v %d %s\n",
			pose.ID,
			pose.Quaternion[0], pose.Quaternion[1], pose.Quaternion[2], pose.Quaternion[3],
			pose.Translation.X(), pose.Translation.Y(), pose.Translation.Z(),
			pose.CameraID, pose.Name)

		for k, keypoint := range t.recon.ImageKeypoints[i] {
			if k > 0 {
				fmt.Fprintf(w, " ")
			}
			fmt.Fprintf(w, "%v %v %d", keypoint.X, keypoint.Y, keypoint.PointID+1)
		}
		fmt.Fprintf(w, "\n")
	}

	return w.Flush()
}

func (t *TextWriter) WritePoints(dir string) error {
	file, err := os.Create(path.Join(dir, PointsTextFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)

	fmt.Fprintf(w, "# 3D point list with one line of data per point:\n")
	fmt.Fprintf(w, "#   POINT3D_ID, X, Y, Z, R, G, B, ERROR, TRACK[] as (IMAGE_ID, POINT2D_IDX)\n")
	fmt.Fprintf(w, "# Number of points: %d, mean track length: %s\n",
		len(t.recon.Points), meanTrackLength(t.recon))

	for _, point := range t.recon.Points {
		fmt.Fprintf(w, "%d %v %v %v %d %d %d %v",
			point.ID+1,
			point.Position.X(), point.Position.Y(), point.Position.Z(),
			point.Color[0], point.Color[1], point.Color[2],
			point.Error)
		for _, entry := range point.Track {
			fmt.Fprintf(w, " %d %d", entry.ImageIndex+1, entry.KeypointIndex)
		}
		fmt.Fprintf(w, "\n")
	}

	return w.Flush()
}

// Header statistics are computed in decimal so the emitted strings do not
// depend on platform float formatting quirks.
func meanObservations(recon *data.Reconstruction) string {
	if len(recon.Images) == 0 {
		return decimal.Zero.StringFixed(1)
	}
	total := decimal.NewFromInt(int64(recon.NumObservations()))
	return total.Div(decimal.NewFromInt(int64(len(recon.Images)))).StringFixed(1)
}

func meanTrackLength(recon *data.Reconstruction) string {
	if len(recon.Points) == 0 {
		return decimal.Zero.StringFixed(4)
	}
	total := int64(0)
	for _, point := range recon.Points {
		total += int64(len(point.Track))
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(len(recon.Points)))).StringFixed(4)
}
