package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/luxreport/luxreport/internal/db"
	"github.com/luxreport/luxreport/internal/illum"
	"github.com/luxreport/luxreport/internal/photometry"
	"github.com/luxreport/luxreport/internal/report"
	"github.com/luxreport/luxreport/internal/standards"
	"github.com/luxreport/luxreport/internal/units"
)

// LayoutRequest is the wire form of a luminaire layout: archetype and
// distribution travel as string tags.
type LayoutRequest struct {
	Rows           int     `json:"rows"`
	Cols           int     `json:"cols"`
	MountingHeight float64 `json:"mounting_height"`
	LumensPerUnit  float64 `json:"lumens_per_unit"`
	Archetype      string  `json:"archetype,omitempty"`
	Distribution   string  `json:"distribution,omitempty"`
}

// CalculateRequest is the body of POST /api/calculate.
type CalculateRequest struct {
	Room      illum.RoomGeometry `json:"room"`
	Unit      string             `json:"unit,omitempty"` // length unit of room dims, default m
	Layout    LayoutRequest      `json:"layout"`
	Spacing   float64            `json:"spacing"`
	IESText   string             `json:"ies_text,omitempty"`
	Observer  *illum.Observer    `json:"observer,omitempty"`
	SpaceType string             `json:"space_type,omitempty"`
	Workers   int                `json:"workers,omitempty"`
}

// CalculateResponse bundles the grid, metrics, and (when a space type was
// given) the standards evaluation.
type CalculateResponse struct {
	Grid       *illum.IlluminanceGrid `json:"grid"`
	Metrics    illum.MetricsSummary   `json:"metrics"`
	Evaluation *standards.Evaluation  `json:"evaluation,omitempty"`
}

// buildLayout resolves the wire layout into engine form, parsing the IES
// text when present.
func buildLayout(lr LayoutRequest, iesText string) (illum.LuminaireLayout, error) {
	var ds *photometry.Dataset
	if iesText != "" {
		parsed, err := photometry.Parse(iesText)
		if err != nil {
			return illum.LuminaireLayout{}, err
		}
		ds = parsed
	}
	layout := illum.NewLuminaireLayout(lr.Rows, lr.Cols, lr.MountingHeight, lr.LumensPerUnit, illum.ParseArchetype(lr.Archetype), ds)
	if lr.Distribution != "" {
		layout.Distribution = illum.ParseDistribution(lr.Distribution)
	}
	return layout, nil
}

// normalizeRoom converts room dimensions to meters when an alternate unit
// was given.
func normalizeRoom(room illum.RoomGeometry, unit string) (illum.RoomGeometry, error) {
	if unit == "" || unit == units.Meters {
		return room, nil
	}
	d, err := units.Normalize(units.Dimensions{
		Length:          room.Length,
		Width:           room.Width,
		Height:          room.Height,
		WorkplaneHeight: room.WorkplaneHeight,
		Unit:            unit,
	})
	if err != nil {
		return illum.RoomGeometry{}, err
	}
	room.Length = d.Length
	room.Width = d.Width
	room.Height = d.Height
	room.WorkplaneHeight = d.WorkplaneHeight
	return room, nil
}

func (s *Server) runCalculation(req CalculateRequest) (*CalculateResponse, error) {
	room, err := normalizeRoom(req.Room, req.Unit)
	if err != nil {
		return nil, err
	}
	layout, err := buildLayout(req.Layout, req.IESText)
	if err != nil {
		return nil, err
	}

	grid, err := illum.ComputeGrid(illum.CalcRequest{
		Room:    room,
		Layout:  layout,
		Spacing: req.Spacing,
		Workers: req.Workers,
	})
	if err != nil {
		return nil, err
	}

	metrics := illum.Summarize(grid, room, layout)
	if req.Observer != nil {
		metrics.DGR, metrics.UGR, metrics.VCP = illum.ComputeGlare(grid, room, layout, *req.Observer)
	}

	resp := &CalculateResponse{Grid: grid, Metrics: metrics}
	if req.SpaceType != "" {
		if ev, ok := standards.Evaluate(req.SpaceType, metrics); ok {
			resp.Evaluation = &ev
		}
	}
	return resp, nil
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	resp, err := s.runCalculation(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DatasetSummary is the response of POST /api/ies/parse: enough for a
// catalog UI to show the luminaire without shipping the whole matrix.
type DatasetSummary struct {
	Keywords         map[string]string `json:"keywords"`
	TiltMode         string            `json:"tilt_mode"`
	LampCount        int               `json:"lamp_count"`
	LumensPerLamp    float64           `json:"lumens_per_lamp"`
	RatedLumens      float64           `json:"rated_lumens"`
	VerticalAngles   int               `json:"vertical_angles"`
	HorizontalAngles int               `json:"horizontal_angles"`
	MaxCandela       float64           `json:"max_candela"`
	InputWatts       float64           `json:"input_watts"`
}

func (s *Server) handleParseIES(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	ds, err := photometry.Parse(string(body))
	if err != nil {
		var pe *photometry.ParseError
		if errors.As(err, &pe) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": pe.Error(),
				"kind":  pe.Kind.String(),
				"line":  pe.Line,
			})
			return
		}
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, DatasetSummary{
		Keywords:         ds.Keywords,
		TiltMode:         ds.TiltMode,
		LampCount:        ds.TotalLamps(),
		LumensPerLamp:    ds.LumensPerLamp,
		RatedLumens:      ds.RatedLumens(),
		VerticalAngles:   len(ds.VerticalAngles),
		HorizontalAngles: len(ds.HorizontalAngles),
		MaxCandela:       ds.MaxCandela(),
		InputWatts:       ds.InputWatts,
	})
}

// ProjectRequest is the body of POST /api/projects.
type ProjectRequest struct {
	Name      string             `json:"name"`
	SpaceType string             `json:"space_type,omitempty"`
	Room      illum.RoomGeometry `json:"room"`
	Layout    LayoutRequest      `json:"layout"`
	IESText   string             `json:"ies_text,omitempty"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no project store configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		projects, err := s.db.ListProjects()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	case http.MethodPost:
		var req ProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if req.Name == "" {
			writeJSONError(w, http.StatusBadRequest, "project name is required")
			return
		}
		layout, err := buildLayout(req.Layout, req.IESText)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		id, err := s.db.SaveProject(&db.Project{
			Name:      req.Name,
			SpaceType: req.SpaceType,
			Room:      req.Room,
			Layout:    layout,
			IESText:   req.IESText,
		})
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleProjectByID serves /api/projects/{id} and
// /api/projects/{id}/calculate.
func (s *Server) handleProjectByID(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no project store configured")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "missing project id")
		return
	}

	if action == "calculate" {
		s.handleProjectCalculate(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.db.GetProject(id)
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "project not found")
			return
		}
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := s.db.DeleteProject(id); err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// projectCalculateRequest carries the per-run parameters; the room, layout,
// and IES text come from the stored project.
type projectCalculateRequest struct {
	Spacing  float64         `json:"spacing"`
	Observer *illum.Observer `json:"observer,omitempty"`
	Workers  int             `json:"workers,omitempty"`
}

func (s *Server) handleProjectCalculate(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	p, err := s.db.GetProject(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req projectCalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	resp, err := s.runCalculation(CalculateRequest{
		Room: p.Room,
		Layout: LayoutRequest{
			Rows:           p.Layout.Rows,
			Cols:           p.Layout.Cols,
			MountingHeight: p.Layout.MountingHeight,
			LumensPerUnit:  p.Layout.LumensPerUnit,
			Archetype:      p.Layout.Archetype.String(),
			Distribution:   p.Layout.Distribution.String(),
		},
		Spacing:   req.Spacing,
		IESText:   p.IESText,
		Observer:  req.Observer,
		SpaceType: p.SpaceType,
		Workers:   req.Workers,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.db.SaveCalculation(&db.Calculation{
		ProjectID: id,
		Spacing:   req.Spacing,
		Grid:      *resp.Grid,
		Metrics:   resp.Metrics,
	}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no project store configured")
		return
	}
	id := r.URL.Query().Get("project_id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	p, err := s.db.GetProject(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	calc, err := s.db.LatestCalculation(id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSONError(w, http.StatusNotFound, "project has no stored calculation")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHeatmapHTML(w, &calc.Grid, p.Name); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStandards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := make([]standards.Recommendation, 0)
	for _, t := range standards.SpaceTypes() {
		if rec, ok := standards.Lookup(t); ok {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"standards": out})
}
