package web

import "github.com/rook-computer/shapekit/internal/config"

// ServerConfig contains settings for running the HTTP server.
//
// The intended defaults differ per binary:
// - real device: :80
// - simulator:   :8080
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

// ServerConfigFrom takes the web section of cfg, falling back to
// defaultListenAddr when no address is configured.
func ServerConfigFrom(cfg config.WebConfig, defaultListenAddr string) ServerConfig {
	listenAddr := cfg.Listen
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}
	return ServerConfig{ListenAddr: listenAddr, DevMode: cfg.DevMode}
}
