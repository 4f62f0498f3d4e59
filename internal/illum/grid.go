package illum

import (
	"math"
	"sync"
)

// CalcRequest carries everything one grid calculation needs. It replaces
// any notion of ambient session state: callers construct a request per
// calculation and the engine reads nothing else.
type CalcRequest struct {
	Room    RoomGeometry
	Layout  LuminaireLayout
	Spacing float64

	// Workers splits the row loop across goroutines when > 1. Grid points
	// are independent, so workers share nothing but the final reduction.
	Workers int
}

// ComputeGrid samples direct illuminance on a rectangular grid over the
// workplane and applies the scalar ambient reflection factor. Grid values
// are rounded to whole lux and clamped at zero.
//
// The sample lattice has floor(length/spacing)+1 by floor(width/spacing)+1
// points. When the lattice span is smaller than the room the lattice is
// centered, so samples cover the footprint evenly.
func ComputeGrid(req CalcRequest) (*IlluminanceGrid, error) {
	if req.Spacing <= 0 {
		return nil, &ValidationError{Field: "spacing", Reason: "must be positive"}
	}
	if err := req.Room.Validate(); err != nil {
		return nil, err
	}
	if err := req.Layout.Validate(); err != nil {
		return nil, err
	}

	room := req.Room
	nx := int(math.Floor(room.Length/req.Spacing)) + 1
	ny := int(math.Floor(room.Width/req.Spacing)) + 1
	offsetX := (room.Length - float64(nx-1)*req.Spacing) / 2
	offsetY := (room.Width - float64(ny-1)*req.Spacing) / 2

	grid := &IlluminanceGrid{
		Values:     make([][]float64, ny),
		Spacing:    req.Spacing,
		PointsX:    nx,
		PointsY:    ny,
		RoomLength: room.Length,
		RoomWidth:  room.Width,
	}

	luminaires := req.Layout.Positions(room)
	ambient := room.AmbientFactor()

	fillRow := func(iy int) (rowMin, rowMax, rowSum float64) {
		y := offsetY + float64(iy)*req.Spacing
		row := make([]float64, nx)
		rowMin = math.Inf(1)
		for ix := 0; ix < nx; ix++ {
			x := offsetX + float64(ix)*req.Spacing
			e := pointIlluminance(x, y, room.WorkplaneHeight, luminaires, req.Layout)
			lux := math.Round(e * ambient)
			if lux < 0 {
				lux = 0
			}
			row[ix] = lux
			if lux < rowMin {
				rowMin = lux
			}
			if lux > rowMax {
				rowMax = lux
			}
			rowSum += lux
		}
		grid.Values[iy] = row
		return rowMin, rowMax, rowSum
	}

	min := math.Inf(1)
	max := 0.0
	sum := 0.0

	if req.Workers > 1 && ny > 1 {
		type partial struct{ min, max, sum float64 }
		workers := req.Workers
		if workers > ny {
			workers = ny
		}
		parts := make([]partial, workers)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				p := partial{min: math.Inf(1)}
				for iy := w; iy < ny; iy += workers {
					rMin, rMax, rSum := fillRow(iy)
					if rMin < p.min {
						p.min = rMin
					}
					if rMax > p.max {
						p.max = rMax
					}
					p.sum += rSum
				}
				parts[w] = p
			}(w)
		}
		wg.Wait()
		for _, p := range parts {
			if p.min < min {
				min = p.min
			}
			if p.max > max {
				max = p.max
			}
			sum += p.sum
		}
	} else {
		for iy := 0; iy < ny; iy++ {
			rMin, rMax, rSum := fillRow(iy)
			if rMin < min {
				min = rMin
			}
			if rMax > max {
				max = rMax
			}
			sum += rSum
		}
	}

	grid.Min = min
	grid.Max = max
	// Point count is at least 1 by construction.
	grid.Average = sum / float64(nx*ny)
	return grid, nil
}

// pointIlluminance sums the direct contribution of every luminaire at one
// workplane sample point using the inverse-square cosine law.
func pointIlluminance(x, y, z float64, luminaires []Position, layout LuminaireLayout) float64 {
	total := 0.0
	for _, lum := range luminaires {
		dx := lum.X - x
		dy := lum.Y - y
		dz := lum.Z - z
		d2 := dx*dx + dy*dy + dz*dz
		if d2 < 1e-12 {
			continue
		}
		d := math.Sqrt(d2)
		cos := dz / d
		if cos <= 0 {
			continue
		}
		total += sourceIntensity(layout, dx, dy, dz, d, cos) * cos / d2
	}
	return total
}

// sourceIntensity returns candela toward the sample point, either from the
// attached photometric dataset or from the archetype's point-source model.
func sourceIntensity(layout LuminaireLayout, dx, dy, dz, d, cos float64) float64 {
	if ds := layout.Dataset; ds != nil {
		// Vertical photometric angle is measured from nadir; the sample
		// point lies below the luminaire so nadir is the -z direction.
		vert := math.Acos(cos) * 180 / math.Pi
		horiz := math.Atan2(dy, dx) * 180 / math.Pi
		return ds.IntensityAt(vert, horiz) * ds.CandelaMultiplier * ds.BallastFactor
	}
	// Point-source fallback: flux/(4π) · cosθⁿ with the exponent resolved
	// from the fixture archetype.
	return layout.LumensPerUnit / (4 * math.Pi) * math.Pow(cos, layout.Archetype.Exponent())
}
