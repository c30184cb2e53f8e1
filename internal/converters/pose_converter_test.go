package converters

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func extrinsicFromRows(rows [12]float64) *mat.Dense {
	return mat.NewDense(3, 4, rows[:])
}

func TestPoseFromExtrinsicIdentity(t *testing.T) {
	extrinsic := extrinsicFromRows([12]float64{
		1, 0, 0, 0.5,
		0, 1, 0, -1.5,
		0, 0, 1, 3.0,
	})

	quaternion, translation := PoseFromExtrinsic(extrinsic)

	assert.InDelta(t, 1.0, quaternion[0], 1e-12)
	assert.InDelta(t, 0.0, quaternion[1], 1e-12)
	assert.InDelta(t, 0.0, quaternion[2], 1e-12)
	assert.InDelta(t, 0.0, quaternion[3], 1e-12)

	assert.Equal(t, mgl64.Vec3{0.5, -1.5, 3.0}, translation)
}

func TestPoseFromExtrinsicRotationAboutZ(t *testing.T) {
	// 90 degrees about +Z
	extrinsic := extrinsicFromRows([12]float64{
		0, -1, 0, 0,
		1, 0, 0, 0,
		0, 0, 1, 0,
	})

	quaternion, _ := PoseFromExtrinsic(extrinsic)

	half := math.Sqrt(2) / 2
	assert.InDelta(t, half, quaternion[0], 1e-9)
	assert.InDelta(t, 0.0, quaternion[1], 1e-9)
	assert.InDelta(t, 0.0, quaternion[2], 1e-9)
	assert.InDelta(t, half, quaternion[3], 1e-9)
}

func TestPoseFromExtrinsicArbitraryRotation(t *testing.T) {
	axis := mgl64.Vec3{1, 2, 3}.Normalize()
	angle := 0.8

	rotation := mgl64.HomogRotate3D(angle, axis)
	extrinsic := mat.NewDense(3, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extrinsic.Set(i, j, rotation.At(i, j))
		}
	}

	quaternion, _ := PoseFromExtrinsic(extrinsic)
	expected := mgl64.QuatRotate(angle, axis).Normalize()

	// q and -q encode the same rotation
	sign := 1.0
	if quaternion[0]*expected.W < 0 {
		sign = -1.0
	}
	assert.InDelta(t, expected.W, sign*quaternion[0], 1e-9)
	assert.InDelta(t, expected.X(), sign*quaternion[1], 1e-9)
	assert.InDelta(t, expected.Y(), sign*quaternion[2], 1e-9)
	assert.InDelta(t, expected.Z(), sign*quaternion[3], 1e-9)

	norm := 0.0
	for _, c := range quaternion {
		norm += c * c
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
}

func TestPinholeFromIntrinsic(t *testing.T) {
	intrinsic := mat.NewDense(3, 3, []float64{
		500, 0, 320,
		0, 510, 240,
		0, 0, 1,
	})

	fx, fy, cx, cy := PinholeFromIntrinsic(intrinsic)

	assert.Equal(t, 500.0, fx)
	assert.Equal(t, 510.0, fy)
	assert.Equal(t, 320.0, cx)
	assert.Equal(t, 240.0, cy)
}
