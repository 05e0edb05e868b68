package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
)

var (
	rankedBg = color.NRGBA{R: 200, G: 30, B: 30, A: 255}
	plainBg  = color.NRGBA{R: 30, G: 30, B: 200, A: 255}
	iconFill = color.NRGBA{R: 240, G: 240, B: 240, A: 255}
	faceFill = color.NRGBA{R: 255, G: 0, B: 255, A: 255}
	nickFill = color.NRGBA{R: 0x4c, G: 0xff, B: 0x4c, A: 255}
)

// writeAssets lays out a minimal asset directory with solid-colour images.
func writeAssets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	save := func(name string, c color.NRGBA) {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := imaging.Save(imaging.New(16, 16, c), p); err != nil {
			t.Fatal(err)
		}
	}
	save(TemplateRanked, rankedBg)
	save(TemplatePlain, plainBg)
	for _, name := range []string{"warrior", "elite", "master", "grandmaster", "epic", "legend",
		"mythic", "mythic_honor", "mythic_glory", "mythic_immortal"} {
		save("ranks/"+name+".png", iconFill)
	}
	return dir
}

type stubFetcher struct {
	body []byte
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) ([]byte, error) { return s.body, s.err }

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// recordingAssets remembers every asset name requested.
type recordingAssets struct {
	AssetLoader
	mu    sync.Mutex
	names []string
}

func (r *recordingAssets) Load(name string) (image.Image, error) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return r.AssetLoader.Load(name)
}

func newCompositor(t *testing.T, assets AssetLoader, f Fetcher) *Compositor {
	t.Helper()
	fonts, err := DefaultFonts()
	if err != nil {
		t.Fatalf("DefaultFonts() failed: %v", err)
	}
	return NewCompositor(assets, f, fonts)
}

func render(t *testing.T, c *Compositor, req RenderRequest) image.Image {
	t.Helper()
	out, err := c.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	return img
}

func colorAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestRender_Dimensions(t *testing.T) {
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{})
	for _, raw := range []string{"", "legend", "unknowntext", "神話の栄光"} {
		img := render(t, c, RenderRequest{RawRank: raw})
		if b := img.Bounds(); b.Dx() != CanvasWidth || b.Dy() != CanvasHeight {
			t.Errorf("rank %q: got %dx%d, want %dx%d", raw, b.Dx(), b.Dy(), CanvasWidth, CanvasHeight)
		}
	}
}

func TestRender_TemplateSelection(t *testing.T) {
	tests := []struct {
		name      string
		rawRank   string
		wantBg    color.NRGBA
		wantNames []string
	}{
		{"no rank", "", rankedBg, []string{TemplateRanked}},
		{"unknown rank", "unknowntext", rankedBg, []string{TemplateRanked}},
		{"legend", "legend", plainBg, []string{TemplatePlain, "ranks/legend.png"}},
		{"japanese honor", " 神話的な名誉 ", plainBg, []string{TemplatePlain, "ranks/mythic_honor.png"}},
	}
	dir := writeAssets(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingAssets{AssetLoader: DirAssets{Dir: dir}}
			img := render(t, newCompositor(t, rec, stubFetcher{}), RenderRequest{RawRank: tt.rawRank})

			if got := colorAt(img, 50, 50); got != tt.wantBg {
				t.Errorf("background = %v, want %v", got, tt.wantBg)
			}
			if len(rec.names) != len(tt.wantNames) {
				t.Fatalf("loaded %v, want %v", rec.names, tt.wantNames)
			}
			for i := range rec.names {
				if rec.names[i] != tt.wantNames[i] {
					t.Errorf("asset %d = %q, want %q", i, rec.names[i], tt.wantNames[i])
				}
			}
		})
	}
}

func TestRender_RankIconOnlyWithRank(t *testing.T) {
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{})

	withRank := render(t, c, RenderRequest{RawRank: "Legend"})
	if got := colorAt(withRank, 540, 740); got != iconFill {
		t.Errorf("icon centre = %v, want %v", got, iconFill)
	}
	if got := colorAt(withRank, 419, 740); got != plainBg {
		t.Errorf("left of icon = %v, want background", got)
	}

	noRank := render(t, c, RenderRequest{})
	if got := colorAt(noRank, 540, 740); got != rankedBg {
		t.Errorf("no-rank icon area = %v, want untouched background", got)
	}
}

func TestRender_Avatar(t *testing.T) {
	avatar := pngBytes(t, imaging.New(64, 64, faceFill))
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{body: avatar})

	img := render(t, c, RenderRequest{AvatarURL: "http://avatar.test/a.png"})
	if got := colorAt(img, 540, 450); got != faceFill {
		t.Errorf("avatar centre = %v, want %v", got, faceFill)
	}
	// Corners lie outside the rounded clip.
	for _, p := range []image.Point{{421, 331}, {658, 331}, {421, 568}, {658, 568}} {
		if got := colorAt(img, p.X, p.Y); got != rankedBg {
			t.Errorf("corner %v = %v, want background", p, got)
		}
	}

	without := render(t, c, RenderRequest{})
	if got := colorAt(without, 540, 450); got != rankedBg {
		t.Errorf("avatar area without avatar = %v, want background", got)
	}
}

func TestRender_AvatarOnlyChangesAvatarBox(t *testing.T) {
	avatar := pngBytes(t, imaging.New(8, 8, faceFill))
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{body: avatar})

	with := render(t, c, RenderRequest{AvatarURL: "http://avatar.test/a.png", RawRank: "epic"})
	without := render(t, c, RenderRequest{RawRank: "epic"})

	b := with.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			if image.Pt(x, y).In(avatarBox) {
				continue
			}
			if colorAt(with, x, y) != colorAt(without, x, y) {
				t.Fatalf("pixel (%d,%d) outside the avatar box differs", x, y)
			}
		}
	}
}

func TestRender_DefaultNickname(t *testing.T) {
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{})

	empty := render(t, c, RenderRequest{})
	named := render(t, c, RenderRequest{Nickname: DefaultNickname})

	found := false
	for y := 260; y < 320; y++ {
		for x := 400; x < 680; x++ {
			if colorAt(empty, x, y) != colorAt(named, x, y) {
				t.Fatalf("empty nickname differs from %q at (%d,%d)", DefaultNickname, x, y)
			}
			if colorAt(empty, x, y) == nickFill {
				found = true
			}
		}
	}
	if !found {
		t.Error("no nickname pixels found above the avatar")
	}
}

func TestRender_Errors(t *testing.T) {
	dir := writeAssets(t)

	tests := []struct {
		name     string
		assets   AssetLoader
		fetcher  Fetcher
		req      RenderRequest
		wantKind Kind
	}{
		{
			name:     "missing template",
			assets:   DirAssets{Dir: t.TempDir()},
			req:      RenderRequest{},
			wantKind: KindAsset,
		},
		{
			name:     "fetch failure",
			assets:   DirAssets{Dir: dir},
			fetcher:  stubFetcher{err: errors.New("connection refused")},
			req:      RenderRequest{AvatarURL: "http://unreachable.test/a.png"},
			wantKind: KindFetch,
		},
		{
			name:     "bad avatar bytes",
			assets:   DirAssets{Dir: dir},
			fetcher:  stubFetcher{body: []byte("<html>not an image</html>")},
			req:      RenderRequest{AvatarURL: "http://avatar.test/a.png"},
			wantKind: KindDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompositor(t, tt.assets, tt.fetcher)
			out, err := c.Render(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != nil {
				t.Error("partial output returned with error")
			}
			var re *RenderError
			if !errors.As(err, &re) {
				t.Fatalf("error %T is not a *RenderError", err)
			}
			if re.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", re.Kind, tt.wantKind)
			}
		})
	}
}

func TestRender_MissingIconFile(t *testing.T) {
	dir := writeAssets(t)
	if err := os.Remove(filepath.Join(dir, "ranks", "legend.png")); err != nil {
		t.Fatal(err)
	}
	c := newCompositor(t, DirAssets{Dir: dir}, stubFetcher{})

	_, err := c.Render(context.Background(), RenderRequest{RawRank: "legend"})
	if KindOf(err) != KindAsset {
		t.Fatalf("got %v, want asset error", err)
	}
}

func TestRender_Concurrent(t *testing.T) {
	avatar := pngBytes(t, imaging.New(8, 8, faceFill))
	c := newCompositor(t, DirAssets{Dir: writeAssets(t)}, stubFetcher{body: avatar})

	ranks := []string{"", "warrior", "マスター", "mythic glory"}
	var wg sync.WaitGroup
	errs := make(chan error, len(ranks)*2)
	for i := 0; i < len(ranks)*2; i++ {
		wg.Add(1)
		go func(raw string) {
			defer wg.Done()
			_, err := c.Render(context.Background(), RenderRequest{
				AvatarURL: "http://avatar.test/a.png",
				Nickname:  "player",
				RawRank:   raw,
			})
			errs <- err
		}(ranks[i%len(ranks)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Render() failed: %v", err)
		}
	}
}

func TestTemplateFor(t *testing.T) {
	if got := TemplateFor(""); got != TemplateRanked {
		t.Errorf("TemplateFor(none) = %q", got)
	}
	if got := TemplateFor("legend"); got != TemplatePlain {
		t.Errorf("TemplateFor(legend) = %q", got)
	}
}

func TestRender_LabelCenteredAboveBaseline(t *testing.T) {
	c := NewCompositor(DirAssets{Dir: writeAssets(t)}, stubFetcher{}, japaneseFonts(t))
	img := render(t, c, RenderRequest{RawRank: "legend"})

	labelFill := color.NRGBA{R: 0xff, G: 0xd9, B: 0x66, A: 255}
	minX, maxX := CanvasWidth, -1
	for y := 860; y < 900; y++ {
		for x := 0; x < CanvasWidth; x++ {
			if near(colorAt(img, x, y), labelFill) {
				minX, maxX = min(minX, x), max(maxX, x)
			}
		}
	}
	if maxX < 0 {
		t.Fatal("no label pixels above the label baseline")
	}
	if mid := (minX + maxX) / 2; mid < 538 || mid > 542 {
		t.Errorf("label spans x=%d..%d, centre %d, want 540", minX, maxX, mid)
	}
	for x := 0; x < CanvasWidth; x++ {
		if near(colorAt(img, x, 900), labelFill) {
			t.Fatalf("label pixel at (%d,900) below the baseline", x)
		}
	}
}

func TestRender_NoRankLeavesLowerHalf(t *testing.T) {
	c := NewCompositor(DirAssets{Dir: writeAssets(t)}, stubFetcher{}, japaneseFonts(t))
	for _, raw := range []string{"", "unknowntext"} {
		img := render(t, c, RenderRequest{RawRank: raw})
		for y := 600; y < CanvasHeight; y++ {
			for x := 0; x < CanvasWidth; x++ {
				if got := colorAt(img, x, y); got != rankedBg {
					t.Fatalf("rank %q: pixel (%d,%d) = %v, want background", raw, x, y, got)
				}
			}
		}
	}
}

func near(a, b color.NRGBA) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= 8 && d(a.G, b.G) <= 8 && d(a.B, b.B) <= 8
}
