package io

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path"

	"github.com/densemap/colmap_exporter/internal/data"
)

// BinaryWriter emits the reconstruction as the little-endian files
// cameras.bin, images.bin and points3D.bin, record layouts matching the
// COLMAP binary format.
type BinaryWriter struct {
	recon *data.Reconstruction
}

func NewBinaryWriter(recon *data.Reconstruction) *BinaryWriter {
	return &BinaryWriter{recon: recon}
}

func (b *BinaryWriter) WriteCameras(dir string) error {
	return b.writeFile(path.Join(dir, CamerasBinFile), func(w io.Writer) error {
		if err := writeLE(w, uint64(len(b.recon.Cameras))); err != nil {
			return err
		}
		for _, camera := range b.recon.Cameras {
			err := writeLE(w,
				uint32(camera.ID),
				uint32(data.PinholeModelID),
				uint64(camera.Width),
				uint64(camera.Height),
				camera.Fx, camera.Fy, camera.Cx, camera.Cy,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BinaryWriter) WriteImages(dir string) error {
	return b.writeFile(path.Join(dir, ImagesBinFile), func(w io.Writer) error {
		if err := writeLE(w, uint64(len(b.recon.Images))); err != nil {
			return err
		}
		for i, pose := range b.recon.Images {
			err := writeLE(w,
				uint32(pose.ID),
				pose.Quaternion[0], pose.Quaternion[1], pose.Quaternion[2], pose.Quaternion[3],
				pose.Translation.X(), pose.Translation.Y(), pose.Translation.Z(),
				uint32(pose.CameraID),
				uint32(len(pose.Name)),
				[]byte(pose.Name),
			)
			if err != nil {
				return err
			}

			keypoints := b.recon.ImageKeypoints[i]
			if err := writeLE(w, uint64(len(keypoints))); err != nil {
				return err
			}
			for _, keypoint := range keypoints {
				if err := writeLE(w, keypoint.X, keypoint.Y, uint64(keypoint.PointID+1)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *BinaryWriter) WritePoints(dir string) error {
	return b.writeFile(path.Join(dir, PointsBinFile), func(w io.Writer) error {
		if err := writeLE(w, uint64(len(b.recon.Points))); err != nil {
			return err
		}
		for _, point := range b.recon.Points {
			err := writeLE(w,
				uint64(point.ID+1),
				point.Position.X(), point.Position.Y(), point.Position.Z(),
				point.Color[0], point.Color[1], point.Color[2],
				point.Error,
				uint64(len(point.Track)),
			)
			if err != nil {
				return err
			}
			for _, entry := range point.Track {
				if err := writeLE(w, uint32(entry.ImageIndex+1), uint32(entry.KeypointIndex)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *BinaryWriter) writeFile(filePath string, write func(io.Writer) error) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	return w.Flush()
}

func writeLE(w io.Writer, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}
