package io

import (
	"bufio"
	"encoding/binary"
	"fmt"
	stdio "io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/densemap/colmap_exporter/internal/data"
	"github.com/go-gl/mathgl/mgl64"
)

// Decode-back helpers for the cross-format equivalence check. They only
// understand the subset of the format this tool writes; this is deliberately
// not a general COLMAP reader.

// ReadTextReconstruction decodes the three text files of a reconstruction
// from the given directory.
func ReadTextReconstruction(dir string) (*data.Reconstruction, error) {
	recon := &data.Reconstruction{}

	if err := readTextFile(path.Join(dir, CamerasTextFile), recon, parseCameraLines); err != nil {
		return nil, err
	}
	if err := readTextFile(path.Join(dir, ImagesTextFile), recon, parseImageLines); err != nil {
		return nil, err
	}
	if err := readTextFile(path.Join(dir, PointsTextFile), recon, parsePointLines); err != nil {
		return nil, err
	}

	return recon, nil
}

func readTextFile(filePath string, recon *data.Reconstruction, parse func([]string, *data.Reconstruction) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	var lines []string
	r := bufio.NewReader(file)
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" || err == nil {
			if !strings.HasPrefix(line, "#") {
				lines = append(lines, line)
			}
		}
		if err == stdio.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	return parse(lines, recon)
}

func parseCameraLines(lines []string, recon *data.Reconstruction) error {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 8 {
			return fmt.Errorf("malformed camera line %q", line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return err
		}
		width, err := strconv.Atoi(fields[2])
		if err != nil {
			return err
		}
		height, err := strconv.Atoi(fields[3])
		if err != nil {
			return err
		}
		params, err := parseFloats(fields[4:8])
		if err != nil {
			return err
		}
		recon.Cameras = append(recon.Cameras, data.Camera{
			ID:     id,
			Model:  fields[1],
			Width:  width,
			Height: height,
			Fx:     params[0],
			Fy:     params[1],
			Cx:     params[2],
			Cy:     params[3],
		})
	}
	return nil
}

func parseImageLines(lines []string, recon *data.Reconstruction) error {
	if len(lines)%2 != 0 {
		return fmt.Errorf("images file holds %d data lines, expected an even number", len(lines))
	}

	for i := 0; i < len(lines); i += 2 {
		fields := strings.Fields(lines[i])
		if len(fields) < 10 {
			return fmt.Errorf("malformed image line %q", lines[i])
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return err
		}
		values, err := parseFloats(fields[1:8])
		if err != nil {
			return err
		}
		cameraID, err := strconv.Atoi(fields[8])
		if err != nil {
			return err
		}
		recon.Images = append(recon.Images, data.ImagePose{
			ID:          id,
			Quaternion:  [4]float64{values[0], values[1], values[2], values[3]},
			Translation: mgl64.Vec3{values[4], values[5], values[6]},
			CameraID:    cameraID,
			Name:        strings.Join(fields[9:], " "),
		})

		keypointFields := strings.Fields(lines[i+1])
		if len(keypointFields)%3 != 0 {
			return fmt.Errorf("malformed keypoint line for image %d", id)
		}
		keypoints := make([]data.Keypoint, 0, len(keypointFields)/3)
		for k := 0; k < len(keypointFields); k += 3 {
			coords, err := parseFloats(keypointFields[k : k+2])
			if err != nil {
				return err
			}
			pointID, err := strconv.Atoi(keypointFields[k+2])
			if err != nil {
				return err
			}
			keypoints = append(keypoints, data.Keypoint{
				X:       coords[0],
				Y:       coords[1],
				PointID: pointID - 1,
			})
		}
		recon.ImageKeypoints = append(recon.ImageKeypoints, keypoints)
	}
	return nil
}

func parsePointLines(lines []string, recon *data.Reconstruction) error {
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 8 || (len(fields)-8)%2 != 0 {
			return fmt.Errorf("malformed point line %q", line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return err
		}
		position, err := parseFloats(fields[1:4])
		if err != nil {
			return err
		}
		var color [3]uint8
		for c := 0; c < 3; c++ {
			channel, err := strconv.Atoi(fields[4+c])
			if err != nil {
				return err
			}
			color[c] = uint8(channel)
		}
		pointError, err := strconv.ParseFloat(fields[7], 64)
		if err != nil {
			return err
		}

		point := data.Point3D{
			ID:       id - 1,
			Position: mgl64.Vec3{position[0], position[1], position[2]},
			Color:    color,
			Error:    pointError,
		}
		for k := 8; k < len(fields); k += 2 {
			imageID, err := strconv.Atoi(fields[k])
			if err != nil {
				return err
			}
			keypointIndex, err := strconv.Atoi(fields[k+1])
			if err != nil {
				return err
			}
			point.Track = append(point.Track, data.TrackEntry{
				ImageIndex:    imageID - 1,
				KeypointIndex: keypointIndex,
			})
		}
		recon.Points = append(recon.Points, point)
	}
	return nil
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// ReadBinaryReconstruction decodes the three binary files of a
// reconstruction from the given directory.
func ReadBinaryReconstruction(dir string) (*data.Reconstruction, error) {
	recon := &data.Reconstruction{}

	if err := readBinaryFile(path.Join(dir, CamerasBinFile), recon, readBinaryCameras); err != nil {
		return nil, err
	}
	if err := readBinaryFile(path.Join(dir, ImagesBinFile), recon, readBinaryImages); err != nil {
		return nil, err
	}
	if err := readBinaryFile(path.Join(dir, PointsBinFile), recon, readBinaryPoints); err != nil {
		return nil, err
	}

	return recon, nil
}

func readBinaryFile(filePath string, recon *data.Reconstruction, read func(stdio.Reader, *data.Reconstruction) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return read(bufio.NewReader(file), recon)
}

func readBinaryCameras(r stdio.Reader, recon *data.Reconstruction) error {
	var count uint64
	if err := readLE(r, &count); err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		var id, modelID uint32
		var width, height uint64
		var params [4]float64
		if err := readLE(r, &id, &modelID, &width, &height, &params); err != nil {
			return err
		}
		if modelID != data.PinholeModelID {
			return fmt.Errorf("unsupported camera model id %d", modelID)
		}
		recon.Cameras = append(recon.Cameras, data.Camera{
			ID:     int(id),
			Model:  data.PinholeModel,
			Width:  int(width),
			Height: int(height),
			Fx:     params[0],
			Fy:     params[1],
			Cx:     params[2],
			Cy:     params[3],
		})
	}
	return nil
}

func readBinaryImages(r stdio.Reader, recon *data.Reconstruction) error {
	var count uint64
	if err := readLE(r, &count); err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		var id, cameraID, nameLen uint32
		var quaternion [4]float64
		var translation [3]float64
		if err := readLE(r, &id, &quaternion, &translation, &cameraID, &nameLen); err != nil {
			return err
		}
		name := make([]byte, nameLen)
		if _, err := stdio.ReadFull(r, name); err != nil {
			return err
		}
		recon.Images = append(recon.Images, data.ImagePose{
			ID:          int(id),
			Quaternion:  quaternion,
			Translation: mgl64.Vec3{translation[0], translation[1], translation[2]},
			CameraID:    int(cameraID),
			Name:        string(name),
		})

		var keypointCount uint64
		if err := readLE(r, &keypointCount); err != nil {
			return err
		}
		keypoints := make([]data.Keypoint, 0, keypointCount)
		for k := uint64(0); k < keypointCount; k++ {
			var x, y float64
			var pointID uint64
			if err := readLE(r, &x, &y, &pointID); err != nil {
				return err
			}
			keypoints = append(keypoints, data.Keypoint{X: x, Y: y, PointID: int(pointID) - 1})
		}
		recon.ImageKeypoints = append(recon.ImageKeypoints, keypoints)
	}
	return nil
}

func readBinaryPoints(r stdio.Reader, recon *data.Reconstruction) error {
	var count uint64
	if err := readLE(r, &count); err != nil {
		return err
	}
	for i := uint64(0); i < count; i++ {
		var id, trackLen uint64
		var position [3]float64
		var color [3]uint8
		var pointError float64
		if err := readLE(r, &id, &position, &color, &pointError, &trackLen); err != nil {
			return err
		}
		point := data.Point3D{
			ID:       int(id) - 1,
			Position: mgl64.Vec3{position[0], position[1], position[2]},
			Color:    color,
			Error:    pointError,
		}
		for k := uint64(0); k < trackLen; k++ {
			var imageID, keypointIndex uint32
			if err := readLE(r, &imageID, &keypointIndex); err != nil {
				return err
			}
			point.Track = append(point.Track, data.TrackEntry{
				ImageIndex:    int(imageID) - 1,
				KeypointIndex: int(keypointIndex),
			})
		}
		recon.Points = append(recon.Points, point)
	}
	return nil
}

func readLE(r stdio.Reader, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}
