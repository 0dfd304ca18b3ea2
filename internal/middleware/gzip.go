package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

type compressWriter struct {
	http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
	compress    bool
}

func (c *compressWriter) WriteHeader(status int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	// Ответ, уже закодированный обработчиком (например, promhttp), отдаётся как есть.
	alreadyEncoded := c.Header().Get("Content-Encoding") != ""
	if !alreadyEncoded && status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified {
		c.compress = true
		c.Header().Set("Content-Encoding", "gzip")
		c.Header().Del("Content-Length")
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if !c.compress {
		return c.ResponseWriter.Write(p)
	}
	if c.zw == nil {
		c.zw = gzip.NewWriter(c.ResponseWriter)
	}
	return c.zw.Write(p)
}

// Close дописывает gzip-поток. Пустой ответ со сжатием тоже должен быть корректным gzip.
func (c *compressWriter) Close() error {
	if !c.compress {
		return nil
	}
	if c.zw == nil {
		c.zw = gzip.NewWriter(c.ResponseWriter)
	}
	return c.zw.Close()
}

type compressReader struct {
	io.ReadCloser
	zr *gzip.Reader
}

func (c *compressReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *compressReader) Close() error {
	if err := c.ReadCloser.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// GzipMiddleware распаковывает тела запросов с Content-Encoding: gzip и сжимает
// ответы для клиентов, передавших Accept-Encoding: gzip.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Malformed gzip body")
				return
			}
			r.Body = &compressReader{ReadCloser: r.Body, zr: zr}
			r.Header.Del("Content-Encoding")
		}

		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		cw := &compressWriter{ResponseWriter: w}
		defer cw.Close()

		next.ServeHTTP(cw, r)
	})
}
