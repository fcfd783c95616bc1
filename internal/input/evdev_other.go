//go:build !linux

package input

import "context"

func Watch(_ context.Context, log logger, _ map[Key]func()) {
	if log != nil {
		log.Infof("input", "evdev input is only available on linux")
	}
}
