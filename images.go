package texted

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/texted/cache"
)

const (
	maxImageWidth = 2400
	jpegQuality   = 80
)

// resizeImage scales the image at path down to width, keeping its aspect
// ratio. PNGs stay PNG, everything else is encoded as JPEG. Images already
// narrower than width are re-encoded unscaled.
func resizeImage(path string, width int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > width {
		newH := max(h*width/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if format == "png" {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// handleAsset serves a file stored next to a directory post. Images asked
// for with ?w=<width> are resized once and kept in the image cache until the
// file changes.
func (a *App) handleAsset(c echo.Context) error {
	path, err := a.Store.AssetPath(c.Param("post"), c.Param("file"))
	if err != nil {
		return err
	}
	raw := c.QueryParam("w")
	if raw == "" {
		return c.File(path)
	}
	width, err := strconv.Atoi(raw)
	if err != nil || width < 1 || width > maxImageWidth {
		return echo.NewHTTPError(http.StatusBadRequest, "w must be between 1 and "+strconv.Itoa(maxImageWidth))
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	key := path + "?w=" + raw + "@" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	data, err := a.images.GetOr(key, cache.Never, func() ([]byte, error) {
		return resizeImage(path, width)
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "not a resizable image").SetInternal(err)
	}
	return writeETagged(c, http.DetectContentType(*data), *data)
}
