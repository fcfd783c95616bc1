package assets

import (
	"embed"
	"io/fs"
)

// DefaultScene is shown when no scene file is configured.
//
//go:embed scenes/default.yaml
var DefaultScene []byte

//go:embed web
var webFS embed.FS

// WebUI is an embedded filesystem rooted at internal/assets/web. It holds
// the simulator preview page.
var WebUI fs.FS

func init() {
	// Embed paths include the leading directory; strip it for serving at '/'.
	sub, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	WebUI = sub
}
