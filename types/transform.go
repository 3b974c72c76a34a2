package types

import "github.com/go-gl/mathgl/mgl32"

// Build a translate * rotate * scale matrix. The rotation angles are given
// in degrees as yaw (about X), pitch (about Y) and roll (about Z) and are
// applied in that order.
func TRS(translation, rotation, scale Vec3) mgl32.Mat4 {
	yaw := mgl32.QuatRotate(mgl32.DegToRad(rotation[0]), mgl32.Vec3{1, 0, 0})
	pitch := mgl32.QuatRotate(mgl32.DegToRad(rotation[1]), mgl32.Vec3{0, 1, 0})
	roll := mgl32.QuatRotate(mgl32.DegToRad(rotation[2]), mgl32.Vec3{0, 0, 1})
	rot := roll.Mul(pitch).Mul(yaw).Normalize()

	return mgl32.Translate3D(translation[0], translation[1], translation[2]).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}
