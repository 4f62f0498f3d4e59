package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/luxreport/luxreport/internal/illum"
)

// luxGrid adapts an IlluminanceGrid to the plotter.GridXYZ interface.
// Column index maps to the X axis, row index to Y, both in meters.
type luxGrid struct {
	grid *illum.IlluminanceGrid
}

func (g luxGrid) Dims() (c, r int)   { return g.grid.PointsX, g.grid.PointsY }
func (g luxGrid) Z(c, r int) float64 { return g.grid.Values[r][c] }
func (g luxGrid) X(c int) float64    { return float64(c) * g.grid.Spacing }
func (g luxGrid) Y(r int) float64    { return float64(r) * g.grid.Spacing }

// SaveHeatmapPNG renders the grid as a PNG heatmap at the given path.
func SaveHeatmapPNG(grid *illum.IlluminanceGrid, path string) error {
	if grid == nil || grid.PointCount() == 0 {
		return fmt.Errorf("empty grid")
	}

	p := plot.New()
	p.Title.Text = "Workplane Illuminance (lux)"
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	hm := plotter.NewHeatMap(luxGrid{grid}, palette.Heat(16, 1))
	p.Add(hm)

	if err := p.Save(10*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
