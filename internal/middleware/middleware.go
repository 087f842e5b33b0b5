// Package middlewareinternal carries the HTTP middleware for the observation
// query API: structured request logging and gzip compression of series
// payloads. The "internal" suffix keeps the import distinct from chi's own
// middleware package, which the router also uses.
//
// Series responses repeat period labels and country names for every point,
// so compressing them is worth the CPU even at gzip.BestSpeed.
package middlewareinternal

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// responseData accumulates what the handler wrote, for the request log line.
type responseData struct {
	status int
	size   int
}

// loggingResponseWriter records status and body size as the handler writes.
type loggingResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

func (r *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.responseData.size += size
	return size, err
}

func (r *loggingResponseWriter) WriteHeader(statusCode int) {
	r.ResponseWriter.WriteHeader(statusCode)
	r.responseData.status = statusCode
}

// LoggingMiddleware logs one line per request: method, URI, status, response
// size and handler duration. Duration covers the handler only, not the time
// spent writing to a slow client.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			data := &responseData{}
			lw := loggingResponseWriter{ResponseWriter: w, responseData: data}

			next.ServeHTTP(&lw, r)

			logger.Infow("request",
				"uri", r.RequestURI,
				"method", r.Method,
				"status", data.status,
				"duration", time.Since(start),
				"size", data.size,
			)
		})
	}
}

// Writers are pooled because every series request allocates one otherwise.
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	},
}

type gzipWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (w gzipWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// GzipMiddleware compresses the response body when the client advertises
// gzip support, and passes the request through untouched when it does not.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Encoding", "gzip")
		gzw := gzipWriterPool.Get().(*gzip.Writer)
		gzw.Reset(w)
		defer func() {
			gzw.Close()
			gzipWriterPool.Put(gzw)
		}()
		next.ServeHTTP(&gzipWriter{ResponseWriter: w, Writer: gzw}, r)
	})
}
