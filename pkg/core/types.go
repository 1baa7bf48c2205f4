// pkg/core/types.go
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidVector is returned when a vector string cannot be parsed
var ErrInvalidVector = errors.New("invalid vector provided")

// parallelTolerance bounds |up x forward| / (|up| |forward|) below which the
// two directions are treated as parallel.
const parallelTolerance = 1e-9

// Vec3 is a point or direction in host model coordinates
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Pose is a camera viewpoint: where the eye sits and which way is up and ahead.
// Directions are stored exactly as captured and are never normalized.
type Pose struct {
	Eye     Vec3 `json:"eye"`
	Up      Vec3 `json:"up"`
	Forward Vec3 `json:"forward"`
}

// Vec3FromString parses "x,y,z" into a Vec3. Whitespace around components is ignored.
func Vec3FromString(s string) (Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Vec3{}, ErrInvalidVector
	}
	var out [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, ErrInvalidVector
		}
		out[i] = f
	}
	return Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// String formats the vector as "x,y,z" with the shortest exact representation.
func (v Vec3) String() string {
	return strconv.FormatFloat(v.X, 'g', -1, 64) + "," +
		strconv.FormatFloat(v.Y, 'g', -1, 64) + "," +
		strconv.FormatFloat(v.Z, 'g', -1, 64)
}

// Length returns the Euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Cross returns v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Validate reports whether the pose can describe a camera: all components finite,
// up and forward non-zero and not parallel.
func (p Pose) Validate() error {
	if !p.Eye.IsFinite() || !p.Up.IsFinite() || !p.Forward.IsFinite() {
		return fmt.Errorf("%w: non-finite component", ErrInvalidVector)
	}
	upLen, fwdLen := p.Up.Length(), p.Forward.Length()
	if upLen == 0 {
		return fmt.Errorf("%w: zero-length up direction", ErrInvalidVector)
	}
	if fwdLen == 0 {
		return fmt.Errorf("%w: zero-length forward direction", ErrInvalidVector)
	}
	if p.Up.Cross(p.Forward).Length()/(upLen*fwdLen) < parallelTolerance {
		return fmt.Errorf("%w: up and forward directions are parallel", ErrInvalidVector)
	}
	return nil
}
