package imagepkg

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/youruser/rankcard/internal/rank"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// typeface is one entry of a fallback chain.
type typeface struct {
	name string
	has  func(r rune) bool
	face func(size float64) (font.Face, error)
}

// Fonts is an ordered fallback chain of typefaces shared by all renders.
// Each rune is drawn with the first typeface that has a glyph for it.
// Faces are not safe for concurrent use, so every render asks for its own
// via Face.
type Fonts struct {
	chain []typeface
}

// cjkHints match file names of common Japanese-capable system fonts.
var cjkHints = []string{
	"cjk", "notosansjp", "notoserifjp", "sourcehan", "hiragino", "meiryo", "yugoth",
	"msgothic", "msmincho", "ipag", "ipaexg", "ipam", "takao", "vlgothic", "wqy",
	"droidsansfallback", "gothic", "mincho", "jp",
}

// DefaultFontDirs lists where system fonts usually live.
func DefaultFontDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/System/Library/Fonts",
		"/Library/Fonts",
		`C:\Windows\Fonts`,
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".fonts"),
			filepath.Join(home, ".local", "share", "fonts"),
			filepath.Join(home, "Library", "Fonts"),
		)
	}
	return dirs
}

// DefaultFonts uses the embedded Go Bold typeface only. It has no CJK glyphs.
func DefaultFonts() (*Fonts, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse Go Bold: %w", err)
	}
	return &Fonts{chain: []typeface{sfntTypeface("Go Bold", f)}}, nil
}

// LoadFonts builds the chain used for rendering. The primary typeface is
// the file at path, or embedded Go Bold when path is empty. When the primary
// cannot draw every rank label, dirs are searched for a font that can and
// it is appended as a fallback.
func LoadFonts(path string, dirs []string) (*Fonts, error) {
	fonts, err := DefaultFonts()
	if err != nil {
		return nil, err
	}
	if path != "" {
		f, err := openFont(path)
		if err != nil {
			return nil, err
		}
		fonts.chain = []typeface{sfntTypeface(path, f)}
	}

	labels := labelRunes()
	if len(fonts.Missing(string(labels))) == 0 {
		return fonts, nil
	}
	if cjk, name, ok := findFont(dirs, labels); ok {
		fonts.chain = append(fonts.chain, sfntTypeface(name, cjk))
	}
	return fonts, nil
}

func openFont(path string) (*sfnt.Font, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	fs, err := parseFonts(b)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", path, err)
	}
	return fs[0], nil
}

// parseFonts returns every face in a TTF, OTF or TTC file.
func parseFonts(b []byte) ([]*sfnt.Font, error) {
	f, err := opentype.Parse(b)
	if err == nil {
		return []*sfnt.Font{f}, nil
	}
	c, cerr := opentype.ParseCollection(b)
	if cerr != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	out := make([]*sfnt.Font, 0, c.NumFonts())
	for i := 0; i < c.NumFonts(); i++ {
		f, err := c.Font(i)
		if err != nil {
			return nil, fmt.Errorf("parse font collection: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}

// findFont walks dirs for font files whose names look CJK-capable and
// returns the first face that has a glyph for every rune in sample. Bold
// files are tried first.
func findFont(dirs []string, sample []rune) (*sfnt.Font, string, bool) {
	var candidates []string
	for _, dir := range dirs {
		_ = filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".ttf", ".otf", ".ttc", ".otc":
			default:
				return nil
			}
			base := strings.ToLower(filepath.Base(p))
			for _, h := range cjkHints {
				if strings.Contains(base, h) {
					candidates = append(candidates, p)
					break
				}
			}
			return nil
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return isBold(candidates[i]) && !isBold(candidates[j])
	})

	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		fs, err := parseFonts(b)
		if err != nil {
			continue
		}
		for _, f := range fs {
			if covers(f, sample) {
				return f, p, true
			}
		}
	}
	return nil, "", false
}

func isBold(p string) bool {
	base := strings.ToLower(filepath.Base(p))
	return strings.Contains(base, "bold") || strings.Contains(base, "-bd") || strings.Contains(base, "w6")
}

func covers(f *sfnt.Font, runes []rune) bool {
	for _, r := range runes {
		if !hasGlyph(f, r) {
			return false
		}
	}
	return true
}

// hasGlyph reports whether f maps r to a real glyph (not .notdef).
func hasGlyph(f *sfnt.Font, r rune) bool {
	// A nil buffer keeps the call safe for concurrent use.
	idx, err := f.GlyphIndex(nil, r)
	return err == nil && idx != 0
}

func sfntTypeface(name string, f *sfnt.Font) typeface {
	return typeface{
		name: name,
		has:  func(r rune) bool { return hasGlyph(f, r) },
		face: func(size float64) (font.Face, error) {
			return opentype.NewFace(f, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingFull,
			})
		},
	}
}

// labelRunes is every distinct rune used by a rank label.
func labelRunes() []rune {
	seen := map[rune]bool{}
	var out []rune
	for _, k := range rank.Keys() {
		label, _ := rank.Label(k)
		for _, r := range label {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}

// Missing returns the runes of s (spaces excluded) that no typeface in the chain can draw.
func (f *Fonts) Missing(s string) []rune {
	var out []rune
outer:
	for _, r := range s {
		if r == ' ' {
			continue
		}
		for _, tf := range f.chain {
			if tf.has(r) {
				continue outer
			}
		}
		out = append(out, r)
	}
	return out
}

// MissingLabelRunes reports rank label runes the chain cannot draw.
func (f *Fonts) MissingLabelRunes() []rune {
	return f.Missing(string(labelRunes()))
}

// Names lists the typefaces in fallback order.
func (f *Fonts) Names() []string {
	out := make([]string, len(f.chain))
	for i, tf := range f.chain {
		out[i] = tf.name
	}
	return out
}

// Face returns a new face at size pixels that falls back rune by rune
// through the chain.
func (f *Fonts) Face(size float64) (font.Face, error) {
	if len(f.chain) == 1 {
		return f.chain[0].face(size)
	}
	fb := &fallbackFace{picked: map[rune]int{}}
	for _, tf := range f.chain {
		face, err := tf.face(size)
		if err != nil {
			fb.Close()
			return nil, fmt.Errorf("%s: %w", tf.name, err)
		}
		fb.faces = append(fb.faces, face)
		fb.has = append(fb.has, tf.has)
	}
	return fb, nil
}

// fallbackFace draws each rune with the first face that has it, or the
// first face when none does. Metrics come from the first face.
type fallbackFace struct {
	faces  []font.Face
	has    []func(rune) bool
	picked map[rune]int
}

func (f *fallbackFace) pick(r rune) font.Face {
	if i, ok := f.picked[r]; ok {
		return f.faces[i]
	}
	i := 0
	for j, has := range f.has {
		if has(r) {
			i = j
			break
		}
	}
	f.picked[r] = i
	return f.faces[i]
}

func (f *fallbackFace) Close() error {
	var first error
	for _, face := range f.faces {
		if err := face.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *fallbackFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	return f.pick(r).Glyph(dot, r)
}

func (f *fallbackFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	return f.pick(r).GlyphBounds(r)
}

func (f *fallbackFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	return f.pick(r).GlyphAdvance(r)
}

func (f *fallbackFace) Kern(r0, r1 rune) fixed.Int26_6 {
	a, b := f.pick(r0), f.pick(r1)
	if a != b {
		return 0
	}
	return a.Kern(r0, r1)
}

func (f *fallbackFace) Metrics() font.Metrics {
	return f.faces[0].Metrics()
}
