//go:build linux

package input

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Watch reads every /dev/input/event* device until ctx is done and calls
// the action bound to each pressed key. It is best-effort: without input
// devices it logs and returns.
func Watch(ctx context.Context, log logger, bindings map[Key]func()) {
	if len(bindings) == 0 {
		return
	}

	tvSize := binary.Size(unix.Timeval{})

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if log != nil {
			log.Infof("input", "no evdev devices found")
		}
		return
	}

	for _, p := range paths {
		go watchDevice(ctx, log, p, tvSize, bindings)
	}
}

func watchDevice(ctx context.Context, log logger, path string, tvSize int, bindings map[Key]func()) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device might have gone away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		pressed(buf[:n], tvSize, func(k Key) {
			if fn, ok := bindings[k]; ok {
				if log != nil {
					log.Infof("input", "key %d pressed on %s", k, path)
				}
				fn()
			}
		})
	}
}
