package scene

// File is the YAML form of a scene. Coordinates are lists: points are
// [x, y] and rectangles are [x0, y0, x1, y1].
type File struct {
	Background string              `yaml:"background,omitempty"`
	Clip       []int               `yaml:"clip,omitempty"`
	Fonts      map[string]FontSpec `yaml:"fonts,omitempty"`
	Shapes     []Node              `yaml:"shapes"`
}

// FontSpec names a builtin font (basic, goregular, tomthumb, org01) or a
// TrueType/OpenType file.
type FontSpec struct {
	Builtin string  `yaml:"builtin,omitempty"`
	File    string  `yaml:"file,omitempty"`
	Size    float64 `yaml:"size,omitempty"`
}

// Node holds exactly one entry.
type Node struct {
	Bar    *BarSpec    `yaml:"bar,omitempty"`
	Circle *CircleSpec `yaml:"circle,omitempty"`
	Text   *TextSpec   `yaml:"text,omitempty"`
	Toif   *ToifSpec   `yaml:"toif,omitempty"`
	Jpeg   *JpegSpec   `yaml:"jpeg,omitempty"`
	Qr     *QrSpec     `yaml:"qr,omitempty"`
	Corner *CornerSpec `yaml:"corner,omitempty"`
	Window *GroupSpec  `yaml:"window,omitempty"`
	Clip   *GroupSpec  `yaml:"clip,omitempty"`
}

type BarSpec struct {
	Rect      []int  `yaml:"rect"`
	Fg        string `yaml:"fg,omitempty"`
	Bg        string `yaml:"bg,omitempty"`
	Thickness int    `yaml:"thickness,omitempty"`
	Radius    int    `yaml:"radius,omitempty"`
	Alpha     *int   `yaml:"alpha,omitempty"`
}

type CircleSpec struct {
	Center    []int     `yaml:"center"`
	Radius    int       `yaml:"radius"`
	Fg        string    `yaml:"fg,omitempty"`
	Bg        string    `yaml:"bg,omitempty"`
	Thickness int       `yaml:"thickness,omitempty"`
	Arc       []float64 `yaml:"arc,omitempty"`
	Alpha     *int      `yaml:"alpha,omitempty"`
}

type TextSpec struct {
	Pos   []int  `yaml:"pos"`
	Text  string `yaml:"text"`
	Font  string `yaml:"font,omitempty"`
	Fg    string `yaml:"fg,omitempty"`
	Align string `yaml:"align,omitempty"`
	Alpha *int   `yaml:"alpha,omitempty"`
}

type ToifSpec struct {
	Pos   []int    `yaml:"pos"`
	File  string   `yaml:"file"`
	Align []string `yaml:"align,omitempty"`
	Fg    string   `yaml:"fg,omitempty"`
	Bg    string   `yaml:"bg,omitempty"`
	Alpha *int     `yaml:"alpha,omitempty"`
}

type JpegSpec struct {
	Pos   []int    `yaml:"pos"`
	File  string   `yaml:"file"`
	Align []string `yaml:"align,omitempty"`
	Scale int      `yaml:"scale,omitempty"`
	Blur  int      `yaml:"blur,omitempty"`
}

type QrSpec struct {
	Rect    []int  `yaml:"rect"`
	Payload string `yaml:"payload"`
	Level   string `yaml:"level,omitempty"`
	Fg      string `yaml:"fg,omitempty"`
	Bg      string `yaml:"bg,omitempty"`
}

type CornerSpec struct {
	Pos       []int  `yaml:"pos"`
	Corner    string `yaml:"corner"`
	Color     string `yaml:"color,omitempty"`
	Thickness int    `yaml:"thickness,omitempty"`
	Length    []int  `yaml:"length,omitempty"`
	Radius    int    `yaml:"radius,omitempty"`
	Alpha     *int   `yaml:"alpha,omitempty"`
}

// GroupSpec narrows the viewport for its children. A window also moves the
// origin to the rectangle's top-left corner; a clip does not.
type GroupSpec struct {
	Rect   []int  `yaml:"rect"`
	Shapes []Node `yaml:"shapes"`
}
