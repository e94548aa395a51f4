package rest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

// assetHandler serves files from an fs.FS with content-hash ETags, so browsers
// revalidate with If-None-Match and get a 304 when nothing changed.
type assetHandler struct {
	fsys      fs.FS
	generated map[string][]byte
}

func newAssetHandler(fsys fs.FS) *assetHandler {
	return &assetHandler{
		fsys:      fsys,
		generated: make(map[string][]byte),
	}
}

// withGenerated serves data under name in place of any file of that name.
func (h *assetHandler) withGenerated(name string, data []byte) *assetHandler {
	h.generated[name] = data
	return h
}

func (h *assetHandler) serve(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	if name == "" || !fs.ValidPath(name) {
		c.Status(http.StatusNotFound)
		return
	}

	data, ok := h.generated[name]
	if !ok {
		if h.fsys == nil {
			c.Status(http.StatusNotFound)
			return
		}
		var err error
		data, err = fs.ReadFile(h.fsys, name)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Debug().Err(err).Str("asset", name).Msg("Failed to read asset")
			}
			c.Status(http.StatusNotFound)
			return
		}
	}

	c.Header("ETag", etag(data))
	c.Header("Cache-Control", "public, max-age=0, must-revalidate")
	http.ServeContent(c.Writer, c.Request, name, time.Time{}, bytes.NewReader(data))
}

func etag(data []byte) string {
	sum := blake3.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
