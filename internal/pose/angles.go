package pose

import "github.com/go-gl/mathgl/mgl64"

// Radians converts a degree triple to radians (d * pi / 180 per axis).
func Radians(deg mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.DegToRad(deg[0]),
		mgl64.DegToRad(deg[1]),
		mgl64.DegToRad(deg[2]),
	}
}

// Degrees converts a radian triple to degrees.
func Degrees(rad mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.RadToDeg(rad[0]),
		mgl64.RadToDeg(rad[1]),
		mgl64.RadToDeg(rad[2]),
	}
}
