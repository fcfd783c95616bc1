// Package scene loads YAML scene descriptions into shapes and submits them
// to a renderer. Files referenced by a scene (images, fonts) are read and
// decoded at load time so a render pass never touches the filesystem.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"
	"gopkg.in/yaml.v3"

	"github.com/rook-computer/shapekit/internal/fonts"
	"github.com/rook-computer/shapekit/internal/layout"
	"github.com/rook-computer/shapekit/internal/pixfmt"
	"github.com/rook-computer/shapekit/internal/shape"
	"github.com/rook-computer/shapekit/internal/toif"
)

var (
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	black = color.RGBA{A: 0xFF}
)

type groupKind uint8

const (
	groupNone groupKind = iota
	groupWindow
	groupClip
)

type node struct {
	shape    shape.Shape
	group    groupKind
	rect     image.Rectangle
	children []node
}

// Scene is a loaded scene ready to submit.
type Scene struct {
	Background *color.RGBA
	Clip       *image.Rectangle

	nodes  []node
	shapes int
}

// Load reads a scene file. Relative paths inside it resolve against the
// file's directory.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse builds a scene from YAML, resolving referenced files against dir.
func Parse(data []byte, dir string) (*Scene, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return Compile(&f, dir)
}

// Compile turns a decoded File into a Scene.
func Compile(f *File, dir string) (*Scene, error) {
	b := &builder{dir: dir, fonts: map[string]shape.Font{"": fonts.Default()}}
	s := &Scene{}
	if f.Background != "" {
		c, err := pixfmt.ParseHex(f.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		s.Background = &c
	}
	if f.Clip != nil {
		r, err := rect(f.Clip)
		if err != nil {
			return nil, fmt.Errorf("clip: %w", err)
		}
		s.Clip = &r
	}
	for name, spec := range f.Fonts {
		fnt, err := b.loadFont(spec)
		if err != nil {
			return nil, fmt.Errorf("font %q: %w", name, err)
		}
		b.fonts[name] = fnt
	}
	nodes, err := b.nodes(f.Shapes, "shapes")
	if err != nil {
		return nil, err
	}
	s.nodes = nodes
	s.shapes = b.shapes
	return s, nil
}

// Shapes returns the number of shapes in the scene, groups excluded.
func (s *Scene) Shapes() int { return s.shapes }

// Submit hands every shape to r in file order. Failures are recorded by
// the renderer.
func (s *Scene) Submit(r shape.Renderer) { submit(r, s.nodes) }

// Render runs one pass of the scene on e.
func (s *Scene) Render(e *shape.Engine) error {
	return e.RenderOnDisplay(s.Clip, s.Background, s.Submit)
}

func submit(r shape.Renderer, nodes []node) {
	for _, n := range nodes {
		switch n.group {
		case groupWindow:
			shape.InWindow(r, n.rect, func(r shape.Renderer) { submit(r, n.children) })
		case groupClip:
			shape.InClip(r, n.rect, func(r shape.Renderer) { submit(r, n.children) })
		default:
			_ = r.RenderShape(n.shape)
		}
	}
}

type builder struct {
	dir    string
	fonts  map[string]shape.Font
	shapes int
}

func (b *builder) nodes(specs []Node, path string) ([]node, error) {
	out := make([]node, 0, len(specs))
	for i, spec := range specs {
		at := fmt.Sprintf("%s[%d]", path, i)
		n, err := b.node(spec, at)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (b *builder) node(spec Node, path string) (node, error) {
	set := 0
	for _, p := range []bool{spec.Bar != nil, spec.Circle != nil, spec.Text != nil, spec.Toif != nil,
		spec.Jpeg != nil, spec.Qr != nil, spec.Corner != nil, spec.Window != nil, spec.Clip != nil} {
		if p {
			set++
		}
	}
	if set != 1 {
		return node{}, fmt.Errorf("%s: want exactly one entry, got %d", path, set)
	}

	switch {
	case spec.Window != nil:
		return b.group(groupWindow, spec.Window, path+".window")
	case spec.Clip != nil:
		return b.group(groupClip, spec.Clip, path+".clip")
	}

	var s shape.Shape
	var err error
	switch {
	case spec.Bar != nil:
		s, err = b.bar(spec.Bar)
	case spec.Circle != nil:
		s, err = b.circle(spec.Circle)
	case spec.Text != nil:
		s, err = b.text(spec.Text)
	case spec.Toif != nil:
		s, err = b.toif(spec.Toif)
	case spec.Jpeg != nil:
		s, err = b.jpeg(spec.Jpeg)
	case spec.Qr != nil:
		s, err = b.qr(spec.Qr)
	case spec.Corner != nil:
		s, err = b.corner(spec.Corner)
	}
	if err != nil {
		return node{}, fmt.Errorf("%s: %w", path, err)
	}
	b.shapes++
	return node{shape: s}, nil
}

func (b *builder) group(kind groupKind, g *GroupSpec, path string) (node, error) {
	r, err := rect(g.Rect)
	if err != nil {
		return node{}, fmt.Errorf("%s: %w", path, err)
	}
	children, err := b.nodes(g.Shapes, path+".shapes")
	if err != nil {
		return node{}, err
	}
	return node{group: kind, rect: r, children: children}, nil
}

func (b *builder) bar(spec *BarSpec) (shape.Shape, error) {
	r, err := rect(spec.Rect)
	if err != nil {
		return shape.Shape{}, err
	}
	fg, bg, err := colors(spec.Fg, spec.Bg)
	if err != nil {
		return shape.Shape{}, err
	}
	a, err := alpha(spec.Alpha)
	if err != nil {
		return shape.Shape{}, err
	}
	bar := shape.NewBar(r).WithRadius(spec.Radius).WithAlpha(a)
	if spec.Fg != "" {
		bar = bar.WithFgColor(fg)
	}
	if spec.Thickness > 0 {
		bar = bar.WithThickness(spec.Thickness)
	}
	if spec.Bg != "" {
		bar = bar.WithBgColor(bg)
	}
	return bar.Shape(), nil
}

func (b *builder) circle(spec *CircleSpec) (shape.Shape, error) {
	center, err := point(spec.Center)
	if err != nil {
		return shape.Shape{}, err
	}
	if spec.Radius <= 0 {
		return shape.Shape{}, fmt.Errorf("radius must be positive (got %d)", spec.Radius)
	}
	fg, bg, err := colors(spec.Fg, spec.Bg)
	if err != nil {
		return shape.Shape{}, err
	}
	a, err := alpha(spec.Alpha)
	if err != nil {
		return shape.Shape{}, err
	}
	c := shape.NewCircle(center, spec.Radius).WithFgColor(fg).WithAlpha(a)
	if spec.Thickness > 0 {
		c = c.WithThickness(spec.Thickness)
	}
	if spec.Bg != "" {
		c = c.WithBgColor(bg)
	}
	switch len(spec.Arc) {
	case 0:
	case 2:
		c = c.WithArc(spec.Arc[0], spec.Arc[1])
	default:
		return shape.Shape{}, fmt.Errorf("arc must be [start, end] (got %d values)", len(spec.Arc))
	}
	return c.Shape(), nil
}

func (b *builder) text(spec *TextSpec) (shape.Shape, error) {
	pos, err := point(spec.Pos)
	if err != nil {
		return shape.Shape{}, err
	}
	fnt, ok := b.fonts[spec.Font]
	if !ok {
		return shape.Shape{}, fmt.Errorf("unknown font %q", spec.Font)
	}
	fg, _, err := colors(spec.Fg, "")
	if err != nil {
		return shape.Shape{}, err
	}
	a, err := alpha(spec.Alpha)
	if err != nil {
		return shape.Shape{}, err
	}
	return shape.NewText(pos, spec.Text, fnt).
		WithFgColor(fg).
		WithAlpha(a).
		WithAlign(layout.ParseAlign(spec.Align)).
		Shape(), nil
}

func (b *builder) toif(spec *ToifSpec) (shape.Shape, error) {
	pos, err := point(spec.Pos)
	if err != nil {
		return shape.Shape{}, err
	}
	data, err := b.read(spec.File)
	if err != nil {
		return shape.Shape{}, err
	}
	img, err := toif.Parse(data)
	if err != nil {
		return shape.Shape{}, fmt.Errorf("%s: %w", spec.File, err)
	}
	h, v, err := align(spec.Align)
	if err != nil {
		return shape.Shape{}, err
	}
	fg, bg, err := colors(spec.Fg, spec.Bg)
	if err != nil {
		return shape.Shape{}, err
	}
	a, err := alpha(spec.Alpha)
	if err != nil {
		return shape.Shape{}, err
	}
	t := shape.NewToifImage(pos, img).WithAlign(h, v).WithFgColor(fg).WithAlpha(a)
	if spec.Bg != "" {
		t = t.WithBgColor(bg)
	}
	return t.Shape(), nil
}

func (b *builder) jpeg(spec *JpegSpec) (shape.Shape, error) {
	pos, err := point(spec.Pos)
	if err != nil {
		return shape.Shape{}, err
	}
	data, err := b.read(spec.File)
	if err != nil {
		return shape.Shape{}, err
	}
	h, v, err := align(spec.Align)
	if err != nil {
		return shape.Shape{}, err
	}
	if spec.Blur < 0 {
		return shape.Shape{}, fmt.Errorf("blur must not be negative (got %d)", spec.Blur)
	}
	j := shape.NewJpegImage(pos, data).WithAlign(h, v).WithScale(spec.Scale)
	if spec.Blur > 0 {
		j = j.WithBlur(spec.Blur)
	}
	return j.Shape(), nil
}

func (b *builder) qr(spec *QrSpec) (shape.Shape, error) {
	r, err := rect(spec.Rect)
	if err != nil {
		return shape.Shape{}, err
	}
	level, err := qrLevel(spec.Level)
	if err != nil {
		return shape.Shape{}, err
	}
	m, err := shape.EncodeQr(spec.Payload, level)
	if err != nil {
		return shape.Shape{}, err
	}
	fg, bg, err := colors(spec.Fg, spec.Bg)
	if err != nil {
		return shape.Shape{}, err
	}
	if spec.Fg == "" && spec.Bg == "" {
		fg, bg = black, white
	}
	return shape.NewQrImage(r, m, fg, bg).Shape(), nil
}

func (b *builder) corner(spec *CornerSpec) (shape.Shape, error) {
	pos, err := point(spec.Pos)
	if err != nil {
		return shape.Shape{}, err
	}
	which, ok := shape.ParseCorner(spec.Corner)
	if !ok {
		return shape.Shape{}, fmt.Errorf("unknown corner %q", spec.Corner)
	}
	col, _, err := colors(spec.Color, "")
	if err != nil {
		return shape.Shape{}, err
	}
	a, err := alpha(spec.Alpha)
	if err != nil {
		return shape.Shape{}, err
	}
	h := shape.NewCornerHighlight(pos, which, col).WithRadius(spec.Radius).WithAlpha(a)
	if spec.Thickness > 0 {
		h = h.WithThickness(spec.Thickness)
	}
	switch len(spec.Length) {
	case 0:
	case 2:
		h = h.WithLength(spec.Length[0], spec.Length[1])
	default:
		return shape.Shape{}, fmt.Errorf("length must be [x, y] (got %d values)", len(spec.Length))
	}
	return h.Shape(), nil
}

func (b *builder) loadFont(spec FontSpec) (shape.Font, error) {
	size := spec.Size
	if size == 0 {
		size = 12
	}
	if spec.File != "" {
		data, err := b.read(spec.File)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(spec.File), ".ttf") {
			return fonts.LoadTrueType(data, size)
		}
		return fonts.LoadOpenType(data, size)
	}
	switch strings.ToLower(spec.Builtin) {
	case "", "basic":
		return fonts.Default(), nil
	case "goregular":
		return fonts.GoRegular(size)
	case "tomthumb":
		return fonts.TomThumb(), nil
	case "org01":
		return fonts.Org01(), nil
	}
	return nil, fmt.Errorf("unknown builtin font %q", spec.Builtin)
}

func (b *builder) read(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("file is required")
	}
	if !filepath.IsAbs(name) {
		name = filepath.Join(b.dir, name)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func point(v []int) (image.Point, error) {
	if len(v) != 2 {
		return image.Point{}, fmt.Errorf("point must be [x, y] (got %d values)", len(v))
	}
	return image.Pt(v[0], v[1]), nil
}

func rect(v []int) (image.Rectangle, error) {
	if len(v) != 4 {
		return image.Rectangle{}, fmt.Errorf("rectangle must be [x0, y0, x1, y1] (got %d values)", len(v))
	}
	return image.Rect(v[0], v[1], v[2], v[3]), nil
}

// colors parses fg and bg, defaulting to white on black.
func colors(fg, bg string) (color.RGBA, color.RGBA, error) {
	f, b := white, black
	var err error
	if fg != "" {
		if f, err = pixfmt.ParseHex(fg); err != nil {
			return f, b, fmt.Errorf("fg: %w", err)
		}
	}
	if bg != "" {
		if b, err = pixfmt.ParseHex(bg); err != nil {
			return f, b, fmt.Errorf("bg: %w", err)
		}
	}
	return f, b, nil
}

func alpha(v *int) (uint8, error) {
	if v == nil {
		return 0xFF, nil
	}
	if *v < 0 || *v > 0xFF {
		return 0, fmt.Errorf("alpha must be 0..255 (got %d)", *v)
	}
	return uint8(*v), nil
}

func align(v []string) (layout.Align, layout.Align, error) {
	switch len(v) {
	case 0:
		return layout.AlignStart, layout.AlignStart, nil
	case 1:
		a := layout.ParseAlign(v[0])
		return a, a, nil
	case 2:
		return layout.ParseAlign(v[0]), layout.ParseAlign(v[1]), nil
	}
	return 0, 0, fmt.Errorf("align must be [h, v] (got %d values)", len(v))
}

func qrLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToUpper(s) {
	case "L":
		return qrcode.Low, nil
	case "", "M":
		return qrcode.Medium, nil
	case "Q":
		return qrcode.High, nil
	case "H":
		return qrcode.Highest, nil
	}
	return 0, fmt.Errorf("unknown QR recovery level %q", s)
}
