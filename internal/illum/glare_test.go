package illum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testObserver() Observer {
	return Observer{
		Position:       Position{X: 1, Y: 4, Z: 1.2},
		ViewAzimuthDeg: 0,
	}
}

func TestPositionIndexOnAxis(t *testing.T) {
	t.Parallel()

	// A source directly on the line of sight has index 1.
	assert.InDelta(t, 1.0, PositionIndex(0, 0), 1e-9)
}

func TestPositionIndexAboveCutoff(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{53, 60, 90, 120} {
		assert.Equal(t, 1.0, PositionIndex(v, 0), "vertical %g", v)
		assert.Equal(t, 1.0, PositionIndex(v, 45), "vertical %g", v)
	}
}

func TestPositionIndexIncreasesWithElevation(t *testing.T) {
	t.Parallel()

	// Below the cutoff the index grows as the source moves off-axis
	// vertically: off-axis sources glare less for the same luminance.
	prev := 0.0
	for _, v := range []float64{0, 10, 20, 30, 40, 50} {
		p := PositionIndex(v, 0)
		require.False(t, math.IsNaN(p))
		assert.GreaterOrEqual(t, p, 1.0)
		assert.Greater(t, p, prev-1e-12, "vertical %g", v)
		prev = p
	}
}

func TestGlareSourcesExplicitObserver(t *testing.T) {
	t.Parallel()

	room := testRoom()
	layout := testLayout()

	ahead := GlareSources(room, layout, testObserver())
	require.NotEmpty(t, ahead)

	// Looking the other way excludes luminaires behind the line of sight.
	behind := GlareSources(room, layout, Observer{
		Position:       Position{X: 9.9, Y: 4, Z: 1.2},
		ViewAzimuthDeg: 0,
	})
	assert.Less(t, len(behind), len(ahead)+1)

	for _, s := range ahead {
		assert.Greater(t, s.Luminance, 0.0)
		assert.Greater(t, s.SolidAngle, 0.0)
		assert.GreaterOrEqual(t, s.PositionIndex, 1.0)
	}
}

func TestDGRUndefinedGuards(t *testing.T) {
	t.Parallel()

	sources := []GlareSource{{Luminance: 1000, SolidAngle: 0.01, PositionIndex: 1.5}}

	assert.False(t, DGR(sources, 0).Defined, "zero background luminance")
	assert.False(t, DGR(sources, -5).Defined, "negative background luminance")
	assert.False(t, DGR(nil, 50).Defined, "no sources")
	assert.False(t, UGR(sources, 0).Defined)
	assert.False(t, UGR(nil, 50).Defined)
}

func TestDGRAndUGRFinite(t *testing.T) {
	t.Parallel()

	sources := []GlareSource{
		{Luminance: 5000, SolidAngle: 0.002, PositionIndex: 1.2},
		{Luminance: 5000, SolidAngle: 0.001, PositionIndex: 2.0},
	}

	dgr := DGR(sources, 40)
	require.True(t, dgr.Defined)
	assert.False(t, math.IsNaN(dgr.Value) || math.IsInf(dgr.Value, 0))

	ugr := UGR(sources, 40)
	require.True(t, ugr.Defined)
	assert.False(t, math.IsNaN(ugr.Value) || math.IsInf(ugr.Value, 0))
}

func TestGlareRatingsGrowWithSourceLuminance(t *testing.T) {
	t.Parallel()

	dim := []GlareSource{{Luminance: 1000, SolidAngle: 0.002, PositionIndex: 1.2}}
	bright := []GlareSource{{Luminance: 8000, SolidAngle: 0.002, PositionIndex: 1.2}}

	dgrDim := DGR(dim, 40)
	dgrBright := DGR(bright, 40)
	require.True(t, dgrDim.Defined)
	require.True(t, dgrBright.Defined)
	assert.Greater(t, dgrBright.Value, dgrDim.Value)

	ugrDim := UGR(dim, 40)
	ugrBright := UGR(bright, 40)
	require.True(t, ugrDim.Defined)
	require.True(t, ugrBright.Defined)
	assert.Greater(t, ugrBright.Value, ugrDim.Value)
}

func TestVCP(t *testing.T) {
	t.Parallel()

	assert.False(t, VCP(Undefined()).Defined)

	low := VCP(DefinedMetric(10))
	high := VCP(DefinedMetric(35))
	require.True(t, low.Defined)
	require.True(t, high.Defined)

	// Less glare means more comfort.
	assert.Greater(t, low.Value, high.Value)

	// Clamped to [0,100] even for absurd ratings.
	assert.Equal(t, 100.0, VCP(DefinedMetric(-50)).Value)
	assert.Equal(t, 0.0, VCP(DefinedMetric(500)).Value)
	for _, d := range []float64{0, 5, 15, 25, 40, 80} {
		v := VCP(DefinedMetric(d))
		assert.GreaterOrEqual(t, v.Value, 0.0)
		assert.LessOrEqual(t, v.Value, 100.0)
	}
}

func TestComputeGlareEndToEnd(t *testing.T) {
	t.Parallel()

	grid, err := ComputeGrid(CalcRequest{Room: testRoom(), Layout: testLayout(), Spacing: 0.5})
	require.NoError(t, err)

	dgr, ugr, vcp := ComputeGlare(grid, testRoom(), testLayout(), testObserver())
	require.True(t, dgr.Defined)
	require.True(t, ugr.Defined)
	require.True(t, vcp.Defined)
	assert.GreaterOrEqual(t, vcp.Value, 0.0)
	assert.LessOrEqual(t, vcp.Value, 100.0)
}

func TestComputeGlareDarkGridUndefined(t *testing.T) {
	t.Parallel()

	grid := gridFromValues([][]float64{{0, 0}, {0, 0}})
	dgr, ugr, vcp := ComputeGlare(grid, testRoom(), testLayout(), testObserver())
	assert.False(t, dgr.Defined, "background luminance is zero")
	assert.False(t, ugr.Defined)
	assert.False(t, vcp.Defined)
}
