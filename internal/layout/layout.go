// Package layout loads keyboard layout files and turns them into keyboards.
package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/proxgrid/internal/correction"
	"github.com/verte-zerg/proxgrid/internal/keyboard"
)

// SpacerToken marks an empty slot in a row.
const SpacerToken = "_"

// File is a keyboard layout as stored on disk.
type File struct {
	Name            string   `toml:"name" yaml:"name" json:"name"`
	Width           int      `toml:"width" yaml:"width" json:"width"`
	Height          int      `toml:"height" yaml:"height" json:"height"`
	KeyWidth        int      `toml:"key_width" yaml:"key_width" json:"key_width"`
	KeyHeight       int      `toml:"key_height" yaml:"key_height" json:"key_height"`
	HorizontalGap   int      `toml:"horizontal_gap" yaml:"horizontal_gap" json:"horizontal_gap"`
	VerticalGap     int      `toml:"vertical_gap" yaml:"vertical_gap" json:"vertical_gap"`
	TouchCorrection []string `toml:"touch_correction" yaml:"touch_correction" json:"touch_correction"`
	Rows            []Row    `toml:"rows" yaml:"rows" json:"rows"`

	path string
}

// Row is one line of keys. Offset shifts the row right, in key units.
type Row struct {
	Offset float64  `toml:"offset" yaml:"offset" json:"offset"`
	Keys   []string `toml:"keys" yaml:"keys" json:"keys"`
}

// Extensions lists the file extensions LoadFile understands.
var Extensions = []string{".toml", ".yaml", ".yml", ".json"}

// LoadFile reads a layout, picking the decoder from the file extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	f.path = path
	return f, nil
}

// Parse decodes data in the format named by ext (".toml", ".yaml", ".yml" or ".json").
func Parse(data []byte, ext string) (*File, error) {
	var f File
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		_, err = toml.Decode(string(data), &f)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		return nil, fmt.Errorf("unsupported layout format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Path returns the file the layout was loaded from, if any.
func (f *File) Path() string {
	return f.path
}

// Validate checks the numeric fields and that there is at least one row.
func (f *File) Validate() error {
	if f.KeyWidth <= 0 || f.KeyHeight <= 0 {
		return fmt.Errorf("key_width and key_height must be > 0")
	}
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("width and height must be >= 0")
	}
	if f.HorizontalGap < 0 || f.VerticalGap < 0 {
		return fmt.Errorf("gaps must be >= 0")
	}
	if len(f.Rows) == 0 {
		return fmt.Errorf("layout has no rows")
	}
	return nil
}

type token struct {
	code   int
	label  string
	units  float64
	spacer bool
}

func parseToken(raw string) (token, error) {
	t := token{units: 1}
	name := raw
	if utf8.RuneCountInString(raw) > 1 {
		if i := strings.LastIndex(raw, ":"); i > 0 {
			units, err := strconv.ParseFloat(raw[i+1:], 64)
			if err != nil || units < 0 {
				return t, fmt.Errorf("invalid width in key %q", raw)
			}
			name = raw[:i]
			t.units = units
		}
	}

	switch {
	case name == SpacerToken:
		t.spacer = true
		t.code = keyboard.CodeUnspecified
	case utf8.RuneCountInString(name) == 1:
		r, _ := utf8.DecodeRuneInString(name)
		t.code = int(r)
		t.label = name
	default:
		code, ok := keyboard.SpecialCode(name)
		if !ok {
			return t, fmt.Errorf("unknown key %q", name)
		}
		t.code = code
		t.label = strings.ToLower(name)
	}
	return t, nil
}

// Correction parses the touch_correction table.
func (f *File) Correction() (*correction.Model, error) {
	corr, err := correction.Parse(f.TouchCorrection)
	if err != nil {
		return nil, fmt.Errorf("invalid touch_correction: %w", err)
	}
	return corr, nil
}

// Build lays the rows out and returns the keyboard with its proximity grid,
// using the file's own correction table. Zero grid dimensions fall back to the
// keyboard defaults.
func (f *File) Build(gridW, gridH int) (*keyboard.Keyboard, error) {
	corr, err := f.Correction()
	if err != nil {
		return nil, err
	}
	return f.BuildWith(gridW, gridH, corr)
}

// BuildWith is Build with an explicit correction model. corr may be nil.
func (f *File) BuildWith(gridW, gridH int, corr *correction.Model) (*keyboard.Keyboard, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	pitchW := f.KeyWidth + f.HorizontalGap
	pitchH := f.KeyHeight + f.VerticalGap
	b := keyboard.NewBuilder(f.Name, keyboard.Params{
		HorizontalGap: f.HorizontalGap,
		VerticalGap:   f.VerticalGap,
		GridWidth:     gridW,
		GridHeight:    gridH,
	})

	right := 0
	last := len(f.Rows) - 1
	for r, row := range f.Rows {
		y := r * pitchH
		x := int(math.Round(row.Offset * float64(pitchW)))
		var keys []*keyboard.Key
		for i, raw := range row.Keys {
			t, err := parseToken(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d key %d: %w", r+1, i+1, err)
			}
			w := int(math.Round(t.units*float64(pitchW))) - f.HorizontalGap
			if w < 0 {
				w = 0
			}
			if t.spacer {
				b.AddKey(keyboard.NewSpacer(x, y, w, f.KeyHeight))
			} else {
				k := keyboard.NewKey(t.code, t.label, x, y, w, f.KeyHeight)
				b.AddKey(k)
				keys = append(keys, k)
			}
			x += w + f.HorizontalGap
		}
		if x-f.HorizontalGap > right {
			right = x - f.HorizontalGap
		}
		for i, k := range keys {
			left, rightEdge := i == 0, i == len(keys)-1
			top, bottom := r == 0, r == last
			if left || rightEdge || top || bottom {
				b.MarkEdges(k, left, rightEdge, top, bottom)
			}
		}
	}

	width, height := f.Width, f.Height
	if width == 0 {
		width = right
	}
	if height == 0 {
		height = len(f.Rows)*pitchH - f.VerticalGap
	}
	b.SetOccupiedSize(width, height)
	if corr == nil {
		return b.Build(nil), nil
	}
	return b.Build(corr), nil
}

// List returns the layout files in dir, sorted by name. A missing directory
// yields no layouts.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read layouts dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Resolve turns a layout name into a path. Names without a directory are
// looked up in dir under every supported extension.
func Resolve(dir, name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || supported(name) {
		return name, nil
	}
	for _, ext := range Extensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("layout %q not found in %s", name, dir)
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
