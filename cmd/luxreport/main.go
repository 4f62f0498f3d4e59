// Command luxreport computes photometric lighting reports. With -scene it
// runs one calculation and prints the results; with -listen it serves the
// HTTP API backed by a SQLite project store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/luxreport/luxreport/internal/api"
	"github.com/luxreport/luxreport/internal/config"
	"github.com/luxreport/luxreport/internal/db"
	"github.com/luxreport/luxreport/internal/illum"
	"github.com/luxreport/luxreport/internal/photometry"
	"github.com/luxreport/luxreport/internal/report"
	"github.com/luxreport/luxreport/internal/standards"
	"github.com/luxreport/luxreport/internal/version"
)

var (
	sceneFile  = flag.String("scene", "", "JSON scene file describing the room and layout")
	iesFile    = flag.String("ies", "", "IES photometric file, overrides the scene's ies_file")
	spacing    = flag.Float64("spacing", 0, "Grid spacing in meters, overrides the scene value")
	htmlOut    = flag.String("html", "", "Write an HTML heatmap to this path")
	pngOut     = flag.String("png", "", "Write a PNG heatmap to this path")
	listen     = flag.String("listen", "", "Listen address for server mode (e.g. :8080)")
	dbFile     = flag.String("db", "luxreport.db", "SQLite database path for server mode")
	migrations = flag.String("migrations", "", "Apply migrations from this directory before serving")
)

func main() {
	flag.Parse()

	if *listen != "" {
		serve()
		return
	}
	if *sceneFile == "" {
		log.Fatal("either -scene or -listen is required")
	}
	if err := runScene(); err != nil {
		log.Fatal(err)
	}
}

// loadDataset parses the IES file named by -ies, or failing that the
// scene's ies_file. Returns nil when neither is set.
func loadDataset(scene *config.SceneConfig) (*photometry.Dataset, error) {
	path := *iesFile
	if path == "" {
		path = scene.GetIESFile()
	}
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read IES file: %w", err)
	}
	ds, err := photometry.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ds, nil
}

func runScene() error {
	scene, err := config.LoadScene(*sceneFile)
	if err != nil {
		return err
	}

	room, err := scene.RoomGeometry()
	if err != nil {
		return err
	}
	ds, err := loadDataset(scene)
	if err != nil {
		return err
	}
	layout := scene.LuminaireLayout(ds)

	gridSpacing := scene.GetSpacing()
	if *spacing > 0 {
		gridSpacing = *spacing
	}

	grid, err := illum.ComputeGrid(illum.CalcRequest{
		Room:    room,
		Layout:  layout,
		Spacing: gridSpacing,
		Workers: scene.GetWorkers(),
	})
	if err != nil {
		return err
	}

	metrics := illum.Summarize(grid, room, layout)
	if obs := scene.IllumObserver(); obs != nil {
		metrics.DGR, metrics.UGR, metrics.VCP = illum.ComputeGlare(grid, room, layout, *obs)
	}

	if err := report.WriteSummary(os.Stdout, grid, metrics); err != nil {
		return err
	}
	if spaceType := scene.GetSpaceType(); spaceType != "" {
		if ev, ok := standards.Evaluate(spaceType, metrics); ok {
			if err := report.WriteCompliance(os.Stdout, ev); err != nil {
				return err
			}
		} else {
			log.Printf("unknown space type %q, skipping compliance check", spaceType)
		}
	}

	if *htmlOut != "" {
		f, err := os.Create(*htmlOut)
		if err != nil {
			return fmt.Errorf("create heatmap file: %w", err)
		}
		defer f.Close()
		if err := report.RenderHeatmapHTML(f, grid, *sceneFile); err != nil {
			return err
		}
		log.Printf("wrote HTML heatmap to %s", *htmlOut)
	}
	if *pngOut != "" {
		if err := report.SaveHeatmapPNG(grid, *pngOut); err != nil {
			return err
		}
		log.Printf("wrote PNG heatmap to %s", *pngOut)
	}
	return nil
}

func serve() {
	log.Print(version.String())

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *migrations != "" {
		if err := database.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		version, dirty, err := database.MigrateVersion(*migrations)
		if err != nil {
			log.Fatalf("failed to read migration version: %v", err)
		}
		log.Printf("database at migration version %d (dirty=%v)", version, dirty)
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database).ServeMux()
		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
