//go:build !cgo

package emulator

import (
	"errors"
	"image"
)

type Source interface {
	Size() image.Point
	Snapshot() *image.RGBA
}

func Run(_ string, _ Source, _ int, _ func() error) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
