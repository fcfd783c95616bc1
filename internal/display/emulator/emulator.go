//go:build cgo

// Package emulator shows a memory-backed display in a desktop window.
package emulator

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// Source is display memory the window can sample.
type Source interface {
	Size() image.Point
	Snapshot() *image.RGBA
}

// Run opens a window showing src at the given integer zoom and calls step
// once per tick. It blocks until the window closes or step fails.
func Run(title string, src Source, zoom int, step func() error) error {
	if zoom < 1 {
		zoom = 1
	}
	size := src.Size()
	g := &window{src: src, size: size, step: step}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(size.X*zoom, size.Y*zoom)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type window struct {
	src  Source
	size image.Point
	img  *ebiten.Image
	step func() error
}

func (w *window) Update() error {
	if w.step != nil {
		return w.step()
	}
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	snap := w.src.Snapshot()
	if w.img == nil || snap.Rect.Size() != w.size {
		if w.img != nil {
			w.img.Deallocate()
		}
		w.size = snap.Rect.Size()
		w.img = ebiten.NewImage(w.size.X, w.size.Y)
	}
	w.img.WritePixels(snap.Pix)
	screen.DrawImage(w.img, nil)
}

func (w *window) Layout(_, _ int) (int, int) {
	return w.size.X, w.size.Y
}
