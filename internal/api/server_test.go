package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxreport/luxreport/internal/db"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewServer(database)
}

func calculateBody() string {
	return `{
		"room": {
			"length": 10, "width": 8, "height": 3, "workplane_height": 0.8,
			"ceiling_reflectance": 0.7, "wall_reflectance": 0.5, "floor_reflectance": 0.2
		},
		"layout": {"rows": 3, "cols": 3, "mounting_height": 2.2, "lumens_per_unit": 5000, "archetype": "panel"},
		"spacing": 0.5,
		"space_type": "office",
		"observer": {"position": {"x": 1, "y": 4, "z": 1.2}, "view_azimuth_deg": 0}
	}`
}

func TestHandleCalculate(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(calculateBody()))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp CalculateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Grid == nil {
		t.Fatal("response missing grid")
	}
	if resp.Grid.PointsX != 21 || resp.Grid.PointsY != 17 {
		t.Errorf("grid points = %dx%d, want 21x17", resp.Grid.PointsX, resp.Grid.PointsY)
	}
	if resp.Metrics.Average <= 0 {
		t.Errorf("average = %g, want > 0", resp.Metrics.Average)
	}
	if !resp.Metrics.UGR.Defined {
		t.Error("observer given but UGR undefined")
	}
	if resp.Evaluation == nil {
		t.Error("space_type given but no evaluation returned")
	}
}

func TestHandleCalculateFeetUnit(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	body := `{
		"room": {"length": 30, "width": 20, "height": 10, "workplane_height": 2.5},
		"unit": "ft",
		"layout": {"rows": 2, "cols": 2, "mounting_height": 2.0, "lumens_per_unit": 4000},
		"spacing": 0.5
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp CalculateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 30 ft = 9.144 m -> floor(9.144/0.5)+1 = 19 points.
	if resp.Grid.PointsX != 19 {
		t.Errorf("PointsX = %d, want 19 for a 30 ft room", resp.Grid.PointsX)
	}
}

func TestHandleCalculateRejectsBadInput(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{
			"zero spacing",
			`{"room": {"length": 10, "width": 8, "height": 3, "workplane_height": 0.8},
			  "layout": {"rows": 1, "cols": 1, "mounting_height": 2, "lumens_per_unit": 1000},
			  "spacing": 0}`,
		},
		{
			"negative room",
			`{"room": {"length": -10, "width": 8, "height": 3, "workplane_height": 0.8},
			  "layout": {"rows": 1, "cols": 1, "mounting_height": 2, "lumens_per_unit": 1000},
			  "spacing": 0.5}`,
		},
		{
			"bad ies text",
			`{"room": {"length": 10, "width": 8, "height": 3, "workplane_height": 0.8},
			  "layout": {"rows": 1, "cols": 1, "mounting_height": 2, "lumens_per_unit": 1000},
			  "spacing": 0.5, "ies_text": "[TEST] no tilt here"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestHandleCalculateMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	req := httptest.NewRequest(http.MethodGet, "/api/calculate", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandleParseIES(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	ies := "TILT=NONE\n2 2000 1 2 1 1 2 0.6 0.6 0\n1 1 80\n0 90\n0\n900 100\n"
	req := httptest.NewRequest(http.MethodPost, "/api/ies/parse", strings.NewReader(ies))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var sum DatasetSummary
	if err := json.Unmarshal(w.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if sum.LampCount != 2 || sum.RatedLumens != 4000 {
		t.Errorf("lamp summary mismatch: %+v", sum)
	}
	if sum.VerticalAngles != 2 || sum.HorizontalAngles != 1 {
		t.Errorf("angle counts mismatch: %+v", sum)
	}
	if sum.MaxCandela != 900 {
		t.Errorf("MaxCandela = %g, want 900", sum.MaxCandela)
	}
}

func TestHandleParseIESError(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	req := httptest.NewRequest(http.MethodPost, "/api/ies/parse", strings.NewReader("no tilt anywhere"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["kind"] != "missing tilt specifier" {
		t.Errorf("kind = %v, want missing tilt specifier", resp["kind"])
	}
}

func TestProjectLifecycle(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	// Create.
	create := `{
		"name": "Office A", "space_type": "office",
		"room": {"length": 10, "width": 8, "height": 3, "workplane_height": 0.8,
			"ceiling_reflectance": 0.7, "wall_reflectance": 0.5, "floor_reflectance": 0.2},
		"layout": {"rows": 3, "cols": 3, "mounting_height": 2.2, "lumens_per_unit": 5000, "archetype": "panel"}
	}`
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/projects", strings.NewReader(create)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	id := created["id"]
	if id == "" {
		t.Fatal("create returned empty id")
	}

	// List.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("Office A")) {
		t.Errorf("list missing project: %s", w.Body.String())
	}

	// Get by ID.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	// Calculate and store.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/projects/%s/calculate", id), strings.NewReader(`{"spacing": 0.5}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("calculate status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp CalculateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode calculate response: %v", err)
	}
	if resp.Evaluation == nil {
		t.Error("stored space_type should produce an evaluation")
	}

	// Heatmap from the stored result.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/heatmap?project_id="+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("heatmap status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("heatmap content type = %q", ct)
	}

	// Delete.
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/projects/"+id, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/projects/"+id, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestHandleHeatmapMissingProject(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/heatmap?project_id=nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/heatmap", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status without project_id = %d, want 400", w.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var v map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if v["version"] == "" {
		t.Error("version field missing")
	}
}

func TestHandleStandards(t *testing.T) {
	s := newTestServer(t)
	mux := s.ServeMux()

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/standards", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("office")) {
		t.Errorf("standards table missing office: %s", w.Body.String())
	}
}
