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
	"github.com/rook-computer/shapekit/internal/input"
	"github.com/rook-computer/shapekit/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file; built-in defaults when empty")
	backend := flag.String("backend", "", "display backend: memory | fbdev | spi; also configurable via "+config.EnvBackend)
	scenePath := flag.String("scene", "", "scene file to show; also configurable via "+config.EnvScene)
	listen := flag.String("listen", "", "serve the preview API on this address (disabled when empty); also configurable via "+config.EnvListenAddr)
	watch := flag.Bool("watch", false, "re-render when the config or scene file changes")
	debug := flag.Bool("debug", false, "enable debug logging to the configured log file")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via "+config.EnvStdioLog)
	flag.Parse()

	flags := map[string]string{
		config.EnvBackend:    *backend,
		config.EnvScene:      *scenePath,
		config.EnvListenAddr: *listen,
		config.EnvStdioLog:   *stdioLog,
	}
	if *debug {
		flags[config.EnvDebug] = "true"
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

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	if cfg.Log.StdioLog != "" {
		if err := redirectStdIO(cfg.Log.StdioLog); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	var logger app.Logger = app.NoopLogger{}
	if cfg.Log.Debug {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := app.OpenBackend(cfg, logger)
	if err != nil {
		fmt.Println("display error:", err)
		os.Exit(1)
	}
	defer be.Close()

	a := app.New(cfg, be)
	a.Logger = logger

	if *watch && (*configPath != "" || cfg.Scene != "") {
		w, err := config.NewWatcher(*configPath, getenv, logger, cfg.Scene)
		if err != nil {
			fmt.Println("watch error:", err)
		} else {
			w.OnReload(a.Reload)
			w.Start()
			defer w.Stop()
		}
	}

	// F4 exits and F5 redraws, for kiosks without a shell.
	if cfg.Display.Backend != config.BackendMemory {
		input.Watch(ctx, logger, map[input.Key]func(){
			input.KeyF4: stop,
			input.KeyF5: func() { _ = a.Redraw() },
		})
	}

	if cfg.Web.Listen != "" {
		server := web.NewHTTPServer(web.ServerConfigFrom(cfg.Web, ":80"))
		server.API = web.APIV1Config{Display: a}
		server.Logger = logger
		if err := server.Start(ctx); err != nil {
			fmt.Println("server start error:", err)
		} else {
			defer server.Stop()
			logger.Infof("web", "listening on %s", server.Addr)
		}
	}

	if err := a.Run(ctx); err != nil {
		fmt.Println("app error:", err)
		os.Exit(1)
	}
}
