package io

// File names of the three reconstruction sections in both serializations
const (
	CamerasTextFile = "cameras.txt"
	ImagesTextFile  = "images.txt"
	PointsTextFile  = "points3D.txt"
	CamerasBinFile  = "cameras.bin"
	ImagesBinFile   = "images.bin"
	PointsBinFile   = "points3D.bin"
	PlyPreviewFile  = "points.ply"
)

// ReconstructionWriter serializes the three sections of one in-memory
// reconstruction. The text and the binary implementation write against the
// same shared data model so their content is equivalent by construction.
// A failed write may leave a truncated file behind, there is no recovery.
type ReconstructionWriter interface {
	WriteCameras(dir string) error
	WriteImages(dir string) error
	WritePoints(dir string) error
}
