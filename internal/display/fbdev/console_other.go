//go:build !linux

package fbdev

func setGraphicsMode() error { return nil }

func restoreTextMode() error { return nil }

func hideCursor() error { return nil }

func showCursor() error { return nil }
