package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/ingest"
	"github.com/ayusman/mudra/internal/overlay"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	fmt.Println("Mudra - Hand Gesture Overlay")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	cfg := config.Load()

	if err := os.MkdirAll(filepath.Dir(cfg.ModelPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.ModelPath)
	if err != nil {
		log.Fatalf("Failed to open model store: %v", err)
	}
	defer st.Close()

	if len(os.Args) > 1 && os.Args[1] == "import" {
		if err := importDataset(st, os.Args[2:]); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	if n, err := gesture.SeedDefault(st); err != nil {
		log.Fatalf("Failed to seed model store: %v", err)
	} else if n > 0 {
		log.Printf("Installed packaged model with %d templates in %s", n, cfg.ModelPath)
	}

	classifier, err := gesture.LoadModel(st)
	if err != nil {
		log.Fatalf("Failed to load model from %s: %v", cfg.ModelPath, err)
	}
	log.Printf("Loaded %d gesture templates", classifier.Len())

	var recorder *dataset.Recorder
	if cfg.DatasetPath != "" {
		recorder = dataset.NewRecorder(cfg.DatasetPath, cfg.DatasetLabel, cfg.DatasetThreshold)
		log.Printf("Recording dataset to %s after %d rows", cfg.DatasetPath, cfg.DatasetThreshold)
	}

	loop := overlay.NewLoop()
	go loop.Run()
	defer loop.Stop()

	hub := server.NewHub()
	preview := capture.NewPreview()

	appCfg := app.Config{
		Classifier: classifier,
		Recorder:   recorder,
		Renderer:   hub,
		Loop:       loop,
		Viewport:   overlay.Viewport{Width: cfg.ViewportWidth, Height: cfg.ViewportHeight},
		LogDrops:   cfg.LogDrops,
	}

	// With an external landmark stream the camera is not used.
	if cfg.ZMQEndpoint == "" {
		det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
		if err != nil {
			log.Fatalf("Hand pose detector not available: %v", err)
		}
		appCfg.Camera = capture.NewCamera(cfg.CameraID)
		appCfg.Detector = det
		appCfg.Preview = preview
	}

	application, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}
	if err := application.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer application.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.ZMQEndpoint != "" {
		observations, err := ingest.Stream(ctx, cfg.ZMQEndpoint, cfg.ZMQLogEvery)
		if err != nil {
			log.Fatalf("Failed to connect to %s: %v", cfg.ZMQEndpoint, err)
		}
		log.Printf("Receiving landmarks from %s", cfg.ZMQEndpoint)
		go func() {
			for obs := range observations {
				application.ProcessObservation(obs)
			}
		}()
	}

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		fmt.Printf("Serving static files from: %s\n", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Pipeline:  application,
		Preview:   previewFor(appCfg),
		Hub:       hub,
	})

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if !cfg.Tray {
		<-ctx.Done()
		log.Println("Shutting down")
		return
	}

	t := tray.New(application)
	t.OnOpen(func() { openBrowser(localURL(cfg.Addr)) })
	t.OnQuit(cancel)
	application.Subscribe(t.Update)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
	log.Println("Shutting down")
}

// importDataset trains templates from recorded CSV files and saves them to
// the model store, replacing templates with the same code.
func importDataset(st *store.Store, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("usage: mudra import <dataset.csv>...")
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		trained, err := gesture.Train(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if err := gesture.Import(st, trained); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, tt := range trained {
			fmt.Printf("Imported gesture %d from %d samples (tolerance %.3f)\n",
				tt.Template.Code, tt.Samples, tt.Template.Tolerance)
		}
	}
	return nil
}

// previewFor returns the preview only when frames come from the camera.
func previewFor(c app.Config) *capture.Preview {
	if c.Camera == nil {
		return nil
	}
	return c.Preview
}

// findWebDir looks for the overlay page in web, ../web and ~/.mudra/web.
func findWebDir() string {
	candidates := []string{"web", "../web", filepath.Join(config.DataDir(), "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
