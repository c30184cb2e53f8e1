package converters

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// PoseFromExtrinsic converts a camera-to-world extrinsic matrix (3x4 or 4x4,
// rotation block followed by translation column) into a unit quaternion and
// the translation vector. The quaternion is returned scalar-first (w, x, y, z)
// as expected by the persisted format; mathgl keeps the scalar in a separate
// field so the ordering is fixed explicitly here.
//
// Precondition: the rotation block is orthonormal up to numerical error. An
// ill-conditioned rotation yields an undefined quaternion, this is not
// checked at runtime.
func PoseFromExtrinsic(extrinsic mat.Matrix) ([4]float64, mgl64.Vec3) {
	// mgl64 matrices are column-major
	rotation := mgl64.Mat4{
		extrinsic.At(0, 0), extrinsic.At(1, 0), extrinsic.At(2, 0), 0,
		extrinsic.At(0, 1), extrinsic.At(1, 1), extrinsic.At(2, 1), 0,
		extrinsic.At(0, 2), extrinsic.At(1, 2), extrinsic.At(2, 2), 0,
		0, 0, 0, 1,
	}

	q := mgl64.Mat4ToQuat(rotation).Normalize()

	translation := mgl64.Vec3{extrinsic.At(0, 3), extrinsic.At(1, 3), extrinsic.At(2, 3)}

	return [4]float64{q.W, q.X(), q.Y(), q.Z()}, translation
}

// PinholeFromIntrinsic extracts the four pinhole parameters fx, fy, cx, cy
// from a 3x3 intrinsic matrix. Skew is ignored.
func PinholeFromIntrinsic(intrinsic mat.Matrix) (fx, fy, cx, cy float64) {
	return intrinsic.At(0, 0), intrinsic.At(1, 1), intrinsic.At(0, 2), intrinsic.At(1, 2)
}
