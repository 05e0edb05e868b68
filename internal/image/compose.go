package imagepkg

import (
	"bytes"
	"context"
	"image"
	"path"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/youruser/rankcard/internal/rank"
)

// Output dimensions. Fixed, not configurable.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1920
)

// Background templates. TemplateRanked already shows a generic rank, so
// exactly one of "template shows a rank" and "we draw a rank" holds.
const (
	TemplatePlain  = "template_polos.png"
	TemplateRanked = "template_rank.png"
)

// DefaultNickname is drawn when the request has no nickname.
const DefaultNickname = "NoName"

const ranksDir = "ranks"

var (
	avatarBox    = image.Rect(420, 330, 660, 570)
	avatarRadius = 24.0
	iconBox      = image.Rect(420, 620, 660, 860)

	nicknameText = textStyle{size: 48, color: "#4cff4c", x: 540, y: 310}
	labelText    = textStyle{size: 40, color: "#ffd966", x: 540, y: 900}
)

// textStyle places bold text centered on x with its baseline at y.
type textStyle struct {
	size  float64
	color string
	x, y  float64
}

// RenderRequest is the input of a single render.
type RenderRequest struct {
	AvatarURL string
	Nickname  string
	RawRank   string
}

func (r RenderRequest) nickname() string {
	if r.Nickname == "" {
		return DefaultNickname
	}
	return r.Nickname
}

// Compositor renders rank cards. It is safe for concurrent use: every call
// to Render owns its canvas and font faces.
type Compositor struct {
	assets  AssetLoader
	fetcher Fetcher
	fonts   *Fonts
}

func NewCompositor(assets AssetLoader, fetcher Fetcher, fonts *Fonts) *Compositor {
	return &Compositor{assets: assets, fetcher: fetcher, fonts: fonts}
}

// TemplateFor picks the background for a resolved rank.
func TemplateFor(k rank.Key) string {
	if k != rank.None {
		return TemplatePlain
	}
	return TemplateRanked
}

// Render composes the card for req and returns it PNG-encoded. Steps run in
// a fixed order so later layers paint over earlier ones. Any failure aborts
// the whole render with a *RenderError.
func (c *Compositor) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	key := rank.Normalize(req.RawRank)

	bg, err := c.assets.Load(TemplateFor(key))
	if err != nil {
		return nil, renderErr(KindAsset, "load template: %w", err)
	}

	dc := gg.NewContext(CanvasWidth, CanvasHeight)
	dc.DrawImage(imaging.Resize(bg, CanvasWidth, CanvasHeight, imaging.Lanczos), 0, 0)

	if req.AvatarURL != "" {
		avatar, err := DownloadImage(ctx, c.fetcher, req.AvatarURL)
		if err != nil {
			return nil, err
		}
		drawAvatar(dc, avatar)
	}

	if err := c.drawText(dc, req.nickname(), nicknameText); err != nil {
		return nil, err
	}

	if key != rank.None {
		if err := c.drawRank(dc, key); err != nil {
			return nil, err
		}
	}

	return encodePNG(dc)
}

func drawAvatar(dc *gg.Context, avatar image.Image) {
	b := avatarBox
	avatar = imaging.Resize(avatar, b.Dx(), b.Dy(), imaging.Lanczos)

	dc.DrawRoundedRectangle(float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()), avatarRadius)
	dc.Clip()
	dc.DrawImage(avatar, b.Min.X, b.Min.Y)
	dc.ResetClip()
}

// drawRank draws the icon and label for k. A key missing from either table
// only skips that element.
func (c *Compositor) drawRank(dc *gg.Context, k rank.Key) error {
	if file, ok := rank.Icon(k); ok {
		icon, err := c.assets.Load(path.Join(ranksDir, file))
		if err != nil {
			return renderErr(KindAsset, "load rank icon %s: %w", file, err)
		}
		b := iconBox
		dc.DrawImage(imaging.Resize(icon, b.Dx(), b.Dy(), imaging.Lanczos), b.Min.X, b.Min.Y)
	}
	if label, ok := rank.Label(k); ok {
		return c.drawText(dc, label, labelText)
	}
	return nil
}

func (c *Compositor) drawText(dc *gg.Context, s string, st textStyle) error {
	face, err := c.fonts.Face(st.size)
	if err != nil {
		return renderErr(KindAsset, "font face %.0fpx: %w", st.size, err)
	}
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetHexColor(st.color)
	dc.DrawStringAnchored(s, st.x, st.y, 0.5, 0)
	return nil
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512 * 1024)
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, renderErr(KindEncode, "encode png: %w", err)
	}
	return buf.Bytes(), nil
}
