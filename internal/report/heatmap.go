// Package report produces collaborator-facing output from computed results:
// an HTML heatmap page, a PNG heatmap, and a plain-text summary. It only
// ever reads the engine's output structures.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/luxreport/luxreport/internal/illum"
)

// RenderHeatmapHTML writes a standalone HTML page with an interactive
// illuminance heatmap.
func RenderHeatmapHTML(w io.Writer, grid *illum.IlluminanceGrid, title string) error {
	if grid == nil || grid.PointCount() == 0 {
		return fmt.Errorf("empty grid")
	}
	if title == "" {
		title = "Workplane Illuminance"
	}

	xLabels := make([]string, grid.PointsX)
	for i := range xLabels {
		xLabels[i] = fmt.Sprintf("%.1f", float64(i)*grid.Spacing)
	}
	yLabels := make([]string, grid.PointsY)
	for i := range yLabels {
		yLabels[i] = fmt.Sprintf("%.1f", float64(i)*grid.Spacing)
	}

	data := make([]opts.HeatMapData, 0, grid.PointCount())
	for iy, row := range grid.Values {
		for ix, lux := range row {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{ix, iy, lux}})
		}
	}

	max := grid.Max
	if max == 0 {
		max = 1
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("avg=%.0f lux min=%.0f max=%.0f spacing=%.2fm", grid.Average, grid.Min, grid.Max, grid.Spacing),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: xLabels, Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: yLabels, Name: "Y (m)"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(max),
			InRange:    &opts.VisualMapInRange{Color: []string{"#0a1172", "#2e8b57", "#ffd700", "#ff4500"}},
		}),
	)
	hm.AddSeries("lux", data)

	return hm.Render(w)
}
