package report

import (
	"fmt"
	"io"

	"github.com/luxreport/luxreport/internal/illum"
	"github.com/luxreport/luxreport/internal/standards"
)

// WriteSummary prints a human-readable rundown of a calculation.
// Undefined metrics print as "n/a" rather than a number.
func WriteSummary(w io.Writer, grid *illum.IlluminanceGrid, s illum.MetricsSummary) error {
	lines := []string{
		fmt.Sprintf("Grid: %dx%d points, %.2f m spacing, room %.1fx%.1f m",
			grid.PointsX, grid.PointsY, grid.Spacing, grid.RoomLength, grid.RoomWidth),
		fmt.Sprintf("Illuminance: avg %.0f lux, min %.0f, max %.0f", s.Average, s.Min, s.Max),
		fmt.Sprintf("Uniformity (min/avg): %s", formatMetric(s.UniformityMinAvg, "%.3f")),
		fmt.Sprintf("Uniformity (min/max): %s", formatMetric(s.UniformityMinMax, "%.3f")),
		fmt.Sprintf("Std dev: %s   CoV: %s   Diversity: %s",
			formatMetric(s.StdDev, "%.1f"), formatMetric(s.CoV, "%.3f"), formatMetric(s.Diversity, "%.2f")),
		fmt.Sprintf("Workplane luminance: avg %s cd/m²", formatMetric(s.LuminanceAvg, "%.1f")),
		fmt.Sprintf("Room cavity ratio: %.2f   CU: %.2f", s.RoomCavityRatio, s.CoefficientOfUtilization),
		fmt.Sprintf("Glare: DGR %s   UGR %s   VCP %s",
			formatMetric(s.DGR, "%.1f"), formatMetric(s.UGR, "%.1f"), formatMetric(s.VCP, "%.0f")),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// WriteCompliance appends a standards evaluation to the summary output.
func WriteCompliance(w io.Writer, ev standards.Evaluation) error {
	status := "FAIL"
	if ev.Compliant {
		status = "PASS"
	}
	if _, err := fmt.Fprintf(w, "Compliance (%s): %s\n", ev.SpaceType, status); err != nil {
		return err
	}
	checks := []struct {
		name    string
		checked bool
		pass    bool
	}{
		{"average illuminance", true, ev.MeetsAverage},
		{"target illuminance", true, ev.MeetsTarget},
		{"uniformity", ev.UniformityChecked, ev.MeetsUniformity},
		{"glare (UGR)", ev.UGRChecked, ev.MeetsUGR},
	}
	for _, c := range checks {
		mark := "skipped"
		if c.checked {
			if c.pass {
				mark = "ok"
			} else {
				mark = "FAIL"
			}
		}
		if _, err := fmt.Fprintf(w, "  %-20s %s\n", c.name, mark); err != nil {
			return err
		}
	}
	return nil
}

func formatMetric(m illum.Metric, verb string) string {
	if !m.Defined {
		return "n/a"
	}
	return fmt.Sprintf(verb, m.Value)
}
