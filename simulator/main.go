package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rook-computer/shapekit/internal/app"
	"github.com/rook-computer/shapekit/internal/config"
	"github.com/rook-computer/shapekit/internal/display/emulator"
	"github.com/rook-computer/shapekit/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; built-in defaults when empty")
	scenePath := flag.String("scene", "", "scene file to show; also configurable via "+config.EnvScene)
	strategy := flag.String("strategy", "", "direct | progressive (default from config)")
	width := flag.Int("width", 0, "display width override")
	height := flag.Int("height", 0, "display height override")
	listen := flag.String("listen", "", "http listen address; also configurable via "+config.EnvListenAddr+" (default :8080)")
	devMode := flag.Bool("dev", false, "enable dev mode CORS; also configurable via "+config.EnvDevMode)
	window := flag.Bool("window", false, "show the display in a desktop window")
	zoom := flag.Int("zoom", 2, "window zoom factor")
	pngOut := flag.String("png", "", "render once, write the frame to this PNG file and exit")
	debug := flag.Bool("debug", false, "log to stdout")
	flag.Parse()

	// The simulator always renders into memory.
	flags := map[string]string{
		config.EnvBackend:    config.BackendMemory,
		config.EnvScene:      *scenePath,
		config.EnvListenAddr: *listen,
	}
	if *devMode {
		flags[config.EnvDevMode] = "true"
	}
	getenv := func(key string) string {
		if v := flags[key]; v != "" {
			return v
		}
		return os.Getenv(key)
	}

	cfg, err := config.LoadWith(*configPath, getenv)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if *strategy != "" {
		cfg.Render.Strategy = *strategy
	}
	if *width > 0 {
		cfg.Display.Width = *width
	}
	if *height > 0 {
		cfg.Display.Height = *height
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug || cfg.Log.Debug {
		logger = app.NewFileLogger(os.Stdout)
	}

	be, err := app.OpenBackend(cfg, logger)
	if err != nil {
		fmt.Println("display error:", err)
		os.Exit(1)
	}
	defer be.Close()

	a := app.New(cfg, be)
	a.Logger = logger

	if *pngOut != "" {
		os.Exit(writeOnce(a, *pngOut))
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *configPath != "" || cfg.Scene != "" {
		w, err := config.NewWatcher(*configPath, getenv, logger, cfg.Scene)
		if err != nil {
			fmt.Println("watch error:", err)
		} else {
			w.OnReload(a.Reload)
			w.Start()
			defer w.Stop()
		}
	}

	server := web.NewHTTPServer(web.ServerConfigFrom(cfg.Web, ":8080"))
	server.API = web.APIV1Config{Display: a}
	server.Logger = logger
	if err := server.Start(processCtx); err != nil {
		fmt.Println("server start error:", err)
		os.Exit(1)
	}
	defer server.Stop()

	fmt.Println("shapekit simulator listening on", server.Addr)
	fmt.Printf("Display: %dx%d, %s rendering\n", cfg.Display.Width, cfg.Display.Height, cfg.Render.Strategy)
	fmt.Println("API: http://" + server.Addr + "/api/v1/")

	if !*window {
		if err := a.Run(processCtx); err != nil {
			fmt.Println("app error:", err)
			os.Exit(1)
		}
		return
	}

	s, err := a.LoadScene()
	if err != nil {
		fmt.Println("scene error:", err)
		os.Exit(1)
	}
	_ = a.Show(s)
	step := func() error {
		if processCtx.Err() != nil {
			return processCtx.Err()
		}
		return nil
	}
	if err := emulator.Run("shapekit simulator", be.Source, *zoom, step); err != nil && processCtx.Err() == nil {
		fmt.Println("window error:", err)
		os.Exit(1)
	}
}

func writeOnce(a *app.App, path string) int {
	s, err := a.LoadScene()
	if err != nil {
		fmt.Println("scene error:", err)
		return 1
	}
	if err := a.Show(s); err != nil {
		fmt.Println("render error:", err)
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Println("png error:", err)
		return 1
	}
	defer f.Close()
	if err := a.WriteFrame(f); err != nil {
		fmt.Println("png error:", err)
		return 1
	}
	return 0
}
