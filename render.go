package texted

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// RenderETag renders cmp into memory, tags it with a content hash and answers
// 304 when the client already holds that version.
func RenderETag(c echo.Context, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return writeETagged(c, echo.MIMETextHTMLCharsetUTF8, buf.Bytes())
}

func writeETagged(c echo.Context, contentType string, body []byte) error {
	tag := ETag(body)
	c.Response().Header().Set("ETag", tag)
	if match := c.Request().Header.Get("If-None-Match"); match != "" && etagMatches(match, tag) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, contentType, body)
}
