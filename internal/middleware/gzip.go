package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// gzipWriter сжимает тело ответа; gzip.Writer создаётся при первой записи,
// чтобы ответы без тела (204, 304) уходили как есть.
type gzipWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
	compress    bool
}

func (w *gzipWriter) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if statusCode != http.StatusNoContent && statusCode != http.StatusNotModified && statusCode >= 200 {
		// длина сжатого тела другая
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Encoding", "gzip")
		w.compress = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzipWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if !w.compress {
		return w.ResponseWriter.Write(b)
	}
	if w.zw == nil {
		w.zw = gzip.NewWriter(w.ResponseWriter)
	}
	return w.zw.Write(b)
}

func (w *gzipWriter) close() error {
	if w.zw == nil {
		return nil
	}
	return w.zw.Close()
}

type gzipReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

func (c *gzipReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *gzipReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// WithGzip сжимает ответ, если клиент принимает gzip, и распаковывает тело запроса
// с Content-Encoding: gzip.
func WithGzip(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, "invalid gzip body", http.StatusBadRequest)
				return
			}
			r.Body = &gzipReader{r: r.Body, zr: zr}
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Accept-Encoding")
		gw := &gzipWriter{ResponseWriter: w}
		defer gw.close()
		h.ServeHTTP(gw, r)
	})
}
