package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3FromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Vec3
		wantErr bool
	}{
		{"integers", "0,0,10", Vec3{0, 0, 10}, false},
		{"spaces", " 1.5 , -2 , 3e2 ", Vec3{1.5, -2, 300}, false},
		{"two components", "1,2", Vec3{}, true},
		{"four components", "1,2,3,4", Vec3{}, true},
		{"not a number", "1,x,3", Vec3{}, true},
		{"empty", "", Vec3{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Vec3FromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVector)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVec3String_RoundTrips(t *testing.T) {
	v := Vec3{X: 0.1, Y: -1234.5678901234, Z: 1e-300}
	parsed, err := Vec3FromString(v.String())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
	assert.Equal(t, "0,1,-1", Vec3{0, 1, -1}.String())
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	assert.Equal(t, Vec3{0, 0, 1}, x.Cross(y))
	assert.Equal(t, Vec3{0, 0, -1}, y.Cross(x))
	assert.InDelta(t, 5.0, Vec3{3, 4, 0}.Length(), 1e-12)
}

func TestPoseValidate(t *testing.T) {
	front := Pose{Eye: Vec3{0, 0, 10}, Up: Vec3{0, 1, 0}, Forward: Vec3{0, 0, -1}}
	require.NoError(t, front.Validate())

	tests := []struct {
		name string
		pose Pose
	}{
		{"zero up", Pose{Eye: front.Eye, Up: Vec3{}, Forward: front.Forward}},
		{"zero forward", Pose{Eye: front.Eye, Up: front.Up, Forward: Vec3{}}},
		{"parallel", Pose{Eye: front.Eye, Up: Vec3{0, 0, 2}, Forward: Vec3{0, 0, -1}}},
		{"nan eye", Pose{Eye: Vec3{math.NaN(), 0, 0}, Up: front.Up, Forward: front.Forward}},
		{"inf up", Pose{Eye: front.Eye, Up: Vec3{0, math.Inf(1), 0}, Forward: front.Forward}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.pose.Validate(), ErrInvalidVector)
		})
	}
}

func TestPoseValidate_DoesNotRequireUnitVectors(t *testing.T) {
	p := Pose{Up: Vec3{0, 0, 7}, Forward: Vec3{3, 0, 0}}
	assert.NoError(t, p.Validate())
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	pose := Pose{Eye: Vec3{0, 0, 10}, Up: Vec3{0, 1, 0}, Forward: Vec3{0, 0, -1}}

	rec, err := NewRecord("Front", pose, now)
	require.NoError(t, err)
	assert.Equal(t, "Front", rec.Name)
	assert.Equal(t, pose, rec.Pose)
	assert.True(t, rec.CreatedAt.Equal(now))

	_, err = NewRecord("   ", pose, now)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = NewRecord("Front\x01", pose, now)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewRecord("Front", pose, time.Time{})
	assert.ErrorIs(t, err, ErrZeroTime)
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"plain", "Front", nil},
		{"markup and accents", `Iso & <NE> «Façade» 東`, nil},
		{"inner spaces", "  North  West ", nil},
		{"empty", "", ErrEmptyName},
		{"whitespace only", " \t ", ErrEmptyName},
		{"control character", "Front\x01", ErrInvalidName},
		{"newline", "Front\nBack", ErrInvalidName},
		{"tab", "Front\tBack", ErrInvalidName},
		{"C1 control", "Front\u0085", ErrInvalidName},
		{"noncharacter", "Front\uFFFE", ErrInvalidName},
		{"invalid utf-8", "Front\xff", ErrInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSameName(t *testing.T) {
	assert.True(t, SameName("Beta", "beta"))
	assert.True(t, SameName("FRONT view", "front VIEW"))
	assert.True(t, SameName("Ångström", "åNGSTRÖM"))
	assert.False(t, SameName("Alpha", "Alpha "))
	assert.False(t, SameName("Alpha", "Beta"))
}
