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
	"syscall"

	"github.com/ayusman/handtracker/internal/app"
	"github.com/ayusman/handtracker/internal/config"
	"github.com/ayusman/handtracker/internal/detector"
	"github.com/ayusman/handtracker/internal/server"
	"github.com/ayusman/handtracker/internal/store"
	"github.com/ayusman/handtracker/internal/tray"
)

func main() {
	fmt.Println("HandTracker - Hand Landmark Tracking")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	application := app.New(app.Config{
		Store:           st,
		CameraID:        cfg.CameraID,
		FPS:             cfg.FPS,
		Width:           cfg.CameraWidth,
		Height:          cfg.CameraHeight,
		Mirror:          cfg.Mirror,
		MediaPipeScript: cfg.MediaPipeScript,
		Python:          cfg.Python,
	})
	defer func() {
		if err := application.Close(); err != nil {
			log.Printf("Error shutting down tracker: %v", err)
		}
	}()

	webDir := cfg.StaticDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataDir)
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Tracker:   application,
		Overlay:   application.Overlay(),
		Video:     application.Video(),
		Mirror:    application.Mirror,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Resume(ctx); err != nil {
		log.Printf("Could not resume tracking: %v", err)
	}

	if !cfg.Tray {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	// The tray owns the main thread, so the server runs alongside it.
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Addr)
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	runTray(ctx, stop, application, dashboardURL(cfg.Addr))
}

// runTray blocks until the tray quits or ctx is cancelled.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string) {
	t := tray.New(a.Tracker().IsTracking())
	t.OnToggle(func(enabled bool) error {
		if err := a.SetTracking(ctx, enabled); err != nil {
			log.Printf("Failed to toggle tracking: %v", err)
			return err
		}
		return nil
	})
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	t.OnQuit(stop)

	// Tracking may also be switched over HTTP.
	a.OnTrackingChange(t.SetEnabled)
	a.OnResults(handCounter(t))

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
}

// handCounter keeps the tray's hand count in step with detector results.
func handCounter(t *tray.Tray) func(*detector.Result) {
	return func(r *detector.Result) {
		if r == nil {
			t.SetHands(0)
			return
		}
		t.SetHands(len(r.Hands))
	}
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	// Check relative paths from current working directory
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
