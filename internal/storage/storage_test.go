package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viewvolt/extension/internal/storage"
	"github.com/viewvolt/extension/pkg/core"
)

func TestViewPositionFields(t *testing.T) {
	rec := core.PoseRecord{
		Name: "Front",
		Pose: core.Pose{
			Eye:     core.Vec3{X: 1, Y: 2, Z: 3},
			Up:      core.Vec3{X: 4, Y: 5, Z: 6},
			Forward: core.Vec3{X: 7, Y: 8, Z: 9},
		},
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}

	p := storage.FromRecord(rec)

	assert.Equal(t, storage.ViewPosition{
		Name: "Front",
		EyeX: 1, EyeY: 2, EyeZ: 3,
		UpX: 4, UpY: 5, UpZ: 6,
		ForwardX: 7, ForwardY: 8, ForwardZ: 9,
		CreatedAt: rec.CreatedAt,
	}, p)
	assert.Equal(t, rec, p.Record())
}

func TestFromRecords_PreservesOrder(t *testing.T) {
	records := []core.PoseRecord{{Name: "b"}, {Name: "a"}, {Name: "c"}}

	positions := storage.FromRecords(records)
	assert.Equal(t, []string{"b", "a", "c"}, []string{positions[0].Name, positions[1].Name, positions[2].Name})
	assert.Equal(t, records, storage.ToRecords(positions))
	assert.Empty(t, storage.ToRecords(nil))
}

func TestQuarantinePath(t *testing.T) {
	assert.Equal(t, "/a/ViewVoltPositions.xml.corrupt-20240301_093000",
		storage.QuarantinePath("/a/ViewVoltPositions.xml", "20240301_093000"))
}
