// Package db persists lighting projects and calculation results in sqlite.
package db

import (
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/luxreport/luxreport/internal/illum"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			project_id        TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			space_type        TEXT,
			room_json         TEXT NOT NULL,
			layout_json       TEXT NOT NULL,
			ies_text          TEXT,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS calculations (
			calculation_id    TEXT PRIMARY KEY,
			project_id        TEXT NOT NULL,
			spacing           DOUBLE NOT NULL,
			grid_json         TEXT NOT NULL,
			metrics_json      TEXT NOT NULL,
			created_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(project_id) REFERENCES projects(project_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Project is a stored lighting design: room, layout, and the raw IES text
// the layout references (if any). The photometric dataset is re-parsed on
// load rather than stored in parsed form.
type Project struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	SpaceType string                `json:"space_type,omitempty"`
	Room      illum.RoomGeometry    `json:"room"`
	Layout    illum.LuminaireLayout `json:"layout"`
	IESText   string                `json:"ies_text,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Calculation is a stored engine result for a project.
type Calculation struct {
	ID        string                `json:"id"`
	ProjectID string                `json:"project_id"`
	Spacing   float64               `json:"spacing"`
	Grid      illum.IlluminanceGrid `json:"grid"`
	Metrics   illum.MetricsSummary  `json:"metrics"`
	CreatedAt time.Time             `json:"created_at"`
}

// SaveProject inserts a project, assigning an ID when the caller left it
// empty, and returns the stored ID.
func (db *DB) SaveProject(p *Project) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	roomJSON, err := json.Marshal(p.Room)
	if err != nil {
		return "", fmt.Errorf("marshal room: %w", err)
	}
	layoutJSON, err := json.Marshal(p.Layout)
	if err != nil {
		return "", fmt.Errorf("marshal layout: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO projects (project_id, name, space_type, room_json, layout_json, ies_text)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET
			name = excluded.name,
			space_type = excluded.space_type,
			room_json = excluded.room_json,
			layout_json = excluded.layout_json,
			ies_text = excluded.ies_text,
			updated_at = CURRENT_TIMESTAMP`,
		p.ID, p.Name, p.SpaceType, string(roomJSON), string(layoutJSON), p.IESText)
	if err != nil {
		return "", fmt.Errorf("save project: %w", err)
	}
	return p.ID, nil
}

// GetProject loads one project by ID. Returns sql.ErrNoRows when absent.
func (db *DB) GetProject(id string) (*Project, error) {
	row := db.QueryRow(`
		SELECT project_id, name, space_type, room_json, layout_json, ies_text, created_at, updated_at
		FROM projects WHERE project_id = ?`, id)
	return scanProject(row)
}

// ListProjects returns all projects, newest first.
func (db *DB) ListProjects() ([]*Project, error) {
	rows, err := db.Query(`
		SELECT project_id, name, space_type, room_json, layout_json, ies_text, created_at, updated_at
		FROM projects ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project and its calculations.
func (db *DB) DeleteProject(id string) error {
	if _, err := db.Exec(`DELETE FROM calculations WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete calculations: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM projects WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var roomJSON, layoutJSON string
	var iesText sql.NullString
	var spaceType sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &spaceType, &roomJSON, &layoutJSON, &iesText, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.SpaceType = spaceType.String
	p.IESText = iesText.String
	if err := json.Unmarshal([]byte(roomJSON), &p.Room); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	if err := json.Unmarshal([]byte(layoutJSON), &p.Layout); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &p, nil
}

// SaveCalculation stores a computed grid and metrics for a project.
func (db *DB) SaveCalculation(c *Calculation) (string, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	gridJSON, err := json.Marshal(c.Grid)
	if err != nil {
		return "", fmt.Errorf("marshal grid: %w", err)
	}
	metricsJSON, err := json.Marshal(c.Metrics)
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO calculations (calculation_id, project_id, spacing, grid_json, metrics_json)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Spacing, string(gridJSON), string(metricsJSON))
	if err != nil {
		return "", fmt.Errorf("save calculation: %w", err)
	}
	return c.ID, nil
}

// LatestCalculation returns the most recent stored result for a project.
// Returns sql.ErrNoRows when the project has none.
func (db *DB) LatestCalculation(projectID string) (*Calculation, error) {
	row := db.QueryRow(`
		SELECT calculation_id, project_id, spacing, grid_json, metrics_json, created_at
		FROM calculations WHERE project_id = ?
		ORDER BY created_at DESC LIMIT 1`, projectID)

	var c Calculation
	var gridJSON, metricsJSON string
	if err := row.Scan(&c.ID, &c.ProjectID, &c.Spacing, &gridJSON, &metricsJSON, &c.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(gridJSON), &c.Grid); err != nil {
		return nil, fmt.Errorf("unmarshal grid: %w", err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &c.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return &c, nil
}

// AttachAdminRoutes mounts the SQL debug surface on the given mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://luxreport.db", db.DB, &tailsql.DBOptions{
		Label: "Luxreport DB",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unixTime := time.Now().Unix()
		backupPath := fmt.Sprintf("backup-%d.db", unixTime)
		if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Encoding", "gzip")

		backupFile, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer func() {
			backupFile.Close()
			if err := os.Remove(backupPath); err != nil {
				log.Printf("Failed to remove backup file: %v", err)
			}
		}()

		gzipWriter := gzip.NewWriter(w)
		defer gzipWriter.Close()
		if _, err := io.Copy(gzipWriter, backupFile); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write backup file: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
