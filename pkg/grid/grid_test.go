package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrgrid/pkg/config"
	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/job"
)

func newJob(t *testing.T, content, delimiter string) *job.Job {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zone_coordinates.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	jc := config.DefaultConfig().Job
	jc.Zone = "zone"
	jc.CoordinatesFile = path
	jc.Delimiter = delimiter
	j, err := job.New(t.TempDir(), "", jc)
	require.NoError(t, err)
	return j
}

func TestEachDefaultColumns(t *testing.T) {
	content := `"id","X.x","Y.x","vertex_index.x","vertex_part.x","X.y","Y.y","vertex_index.y","vertex_part.y"
1,-3.92974262579894,37.4425324910326,3,0,-3.91854945597732,37.451633458244,1,0
2,-3.91854945597732,37.4425324910326,3,0,-3.90735628615570,37.451633458244,1,0
`
	j := newJob(t, content, ",")

	var got []Cell
	var idxs []int
	err := NewSource(j).Each(func(idx int, c Cell) error {
		idxs = append(idxs, idx)
		got = append(got, c)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 2}, idxs)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "-3.92974262579894,37.4425324910326,-3.91854945597732,37.451633458244", got[0].BBox())
}

func TestEachSemicolonDelimiterKeepsValuesVerbatim(t *testing.T) {
	j := newJob(t, "id;a;b;c;d;e;f\nZ1;10,1;20,2;x;x;10,2;20,1\n", ";")

	cells, err := NewSource(j).Cells()
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, Cell{ID: "Z1", X1: "10,1", Y1: "20,2", X2: "10,2", Y2: "20,1"}, cells[0])
	assert.Equal(t, "10,1,20,2,10,2,20,1", cells[0].BBox())
}

func TestEachShortRowIsConfigurationError(t *testing.T) {
	j := newJob(t, "id,a,b\nZ1,1,2\n", ",")

	_, err := NewSource(j).Cells()
	require.Error(t, err)
	assert.Equal(t, ferrors.ErrorTypeConfiguration, ferrors.TypeOf(err))
	assert.Contains(t, err.Error(), "need at least 7")
}

func TestEachHeaderOnly(t *testing.T) {
	j := newJob(t, "id,a,b,c,d,e,f\n", ",")

	cells, err := NewSource(j).Cells()
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestEachMissingFile(t *testing.T) {
	jc := config.DefaultConfig().Job
	jc.Zone = "ghost"
	j, err := job.New(t.TempDir(), t.TempDir(), jc)
	require.NoError(t, err)

	err = NewSource(j).Each(func(int, Cell) error { return nil })
	assert.Equal(t, ferrors.ErrorTypeConfiguration, ferrors.TypeOf(err))
}

func TestEachStopsOnCallbackError(t *testing.T) {
	j := newJob(t, "h,a,b,c,d,e,f\nA,1,1,0,0,2,2\nB,1,1,0,0,2,2\n", ",")
	stop := errors.New("stop")

	calls := 0
	err := NewSource(j).Each(func(int, Cell) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestBound(t *testing.T) {
	c := Cell{ID: "Z1", X1: "-3,9", Y1: "37.45", X2: "-3.95", Y2: "37.44"}

	b, err := c.Bound()
	require.NoError(t, err)
	assert.Equal(t, orb.Point{-3.95, 37.44}, b.Min)
	assert.Equal(t, orb.Point{-3.9, 37.45}, b.Max)
	assert.InDelta(t, -3.925, b.Center().X(), 1e-9)

	_, err = Cell{ID: "bad", X1: "north", Y1: "1", X2: "2", Y2: "3"}.Bound()
	assert.Error(t, err)
}
