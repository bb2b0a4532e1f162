package middleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/labstack/echo/v4"
)

type zstdResponseWriter struct {
	http.ResponseWriter
	encoder *zstd.Encoder
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	return w.encoder.Write(b)
}

// Zstd compresses responses for clients that send Accept-Encoding: zstd.
// Long multi-year histories shrink by an order of magnitude.
func Zstd() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !strings.Contains(c.Request().Header.Get(echo.HeaderAcceptEncoding), "zstd") {
				return next(c)
			}

			res := c.Response()
			encoder, err := zstd.NewWriter(res.Writer)
			if err != nil {
				return err
			}
			res.Header().Set(echo.HeaderContentEncoding, "zstd")
			res.Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)
			res.Header().Del(echo.HeaderContentLength)

			original := res.Writer
			res.Writer = &zstdResponseWriter{ResponseWriter: original, encoder: encoder}
			defer func() {
				_ = encoder.Close()
				res.Writer = original
			}()
			if err := next(c); err != nil {
				// render the error while the encoder is still in place
				c.Error(err)
			}
			return nil
		}
	}
}
