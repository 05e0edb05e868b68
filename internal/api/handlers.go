package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	imagepkg "github.com/youruser/rankcard/internal/image"
)

// canvasError is the only failure body clients ever see.
const canvasError = "Canvas Error"

// Renderer produces PNG bytes for a render request.
type Renderer interface {
	Render(ctx context.Context, req imagepkg.RenderRequest) ([]byte, error)
}

type Handlers struct {
	renderer Renderer
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fakeML renders a rank card from the avatar, nickname and rank query params.
func (h *Handlers) fakeML(c *gin.Context) {
	req := imagepkg.RenderRequest{
		AvatarURL: c.Query("avatar"),
		Nickname:  c.Query("nickname"),
		RawRank:   c.Query("rank"),
	}

	out, err := h.renderer.Render(c.Request.Context(), req)
	if err != nil {
		loggerFrom(c).Error("render failed",
			"kind", imagepkg.KindOf(err),
			"avatar", req.AvatarURL,
			"rank", req.RawRank,
			"err", err,
		)
		c.String(http.StatusInternalServerError, canvasError)
		return
	}

	etag := strconv.Quote(strconv.FormatUint(xxhash.Sum64(out), 16))
	c.Header("ETag", etag)
	if etagMatch(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "image/png", out)
}

// etagMatch reports whether an If-None-Match header value lists etag.
// Weak validators compare equal to strong ones.
func etagMatch(header, etag string) bool {
	for _, v := range strings.Split(header, ",") {
		v = strings.TrimPrefix(strings.TrimSpace(v), "W/")
		if v == "*" || v == etag {
			return true
		}
	}
	return false
}
