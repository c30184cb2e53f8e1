package data

import "github.com/go-gl/mathgl/mgl64"

// PinholeModel is the only camera model emitted. COLMAP assigns it model id 1.
const (
	PinholeModel   = "PINHOLE"
	PinholeModelID = 1
)

// Reprojection error recorded on every point. No refinement happens after
// aggregation so the value is a fixed placeholder.
const DefaultReprojectionError = 1.0

// One observation of a 3D point: the image that saw it and the index of the
// corresponding keypoint in that image's keypoint list. Both are 0-based,
// serialization shifts image ids to 1-based.
type TrackEntry struct {
	ImageIndex    int
	KeypointIndex int
}

// A deduplicated world-space point with its color and observation track.
// The ID doubles as the position in the reconstruction's point slice.
type Point3D struct {
	ID       int
	Position mgl64.Vec3
	Color    [3]uint8
	Error    float64
	Track    []TrackEntry
}

// A 2D observation in prediction-grid pixel coordinates. PointID references
// the Point3D this observation created or matched.
type Keypoint struct {
	X       float64
	Y       float64
	PointID int
}

// Pinhole camera intrinsics for one image. IDs are 1-based like in the
// persisted format.
type Camera struct {
	ID     int
	Model  string
	Width  int
	Height int
	Fx     float64
	Fy     float64
	Cx     float64
	Cy     float64
}

// Camera-to-world pose of one image. Quaternion is scalar-first (w, x, y, z).
type ImagePose struct {
	ID          int
	Quaternion  [4]float64
	Translation mgl64.Vec3
	CameraID    int
	Name        string
}

// The full in-memory reconstruction shared by every serializer.
// ImageKeypoints[i] holds the keypoints of Images[i] in insertion order.
type Reconstruction struct {
	Cameras        []Camera
	Images         []ImagePose
	ImageKeypoints [][]Keypoint
	Points         []Point3D
}

// Builds a new Point3D from the given position, color and first observation
func NewPoint3D(id int, position mgl64.Vec3, color [3]uint8, firstObservation TrackEntry) Point3D {
	return Point3D{
		ID:       id,
		Position: position,
		Color:    color,
		Error:    DefaultReprojectionError,
		Track:    []TrackEntry{firstObservation},
	}
}

// Total number of 2D observations over all images
func (r *Reconstruction) NumObservations() int {
	total := 0
	for _, keypoints := range r.ImageKeypoints {
		total += len(keypoints)
	}
	return total
}
