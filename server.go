package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deflix-tv/go-stremio"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type routerOptions struct {
	RedirectURL string
	CacheAge    time.Duration
	// Records is the number of records in the index, reported by the health endpoint
	Records int
}

func createRouter(manifest stremio.Manifest, streamHandlers map[string]streamHandler, subtitlesHandlers map[string]subtitlesHandler, options routerOptions, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	s := r.Methods("GET", "HEAD").Subrouter()

	s.HandleFunc("/health", createHealthHandler(options.Records, logger))
	s.HandleFunc("/manifest.json", createManifestHandler(manifest, logger))

	streamRoute := createStreamRoute(streamHandlers, options.CacheAge, logger)
	s.HandleFunc("/stream/{type}/{id}.json", streamRoute)

	subtitlesRoute := createSubtitlesRoute(subtitlesHandlers, options.CacheAge, logger)
	s.HandleFunc("/subtitles/{type}/{id}.json", subtitlesRoute)
	// Stremio sends extra arguments like the video hash and size, which we don't need
	s.HandleFunc("/subtitles/{type}/{id}/{extra}.json", subtitlesRoute)

	if options.RedirectURL != "" {
		s.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, options.RedirectURL, http.StatusFound)
		})
	}

	var h http.Handler = r
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "HEAD", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "Accept-Language"}),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, createAccessLogFormatter(logger))
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{logger}))(h)
	return h
}

func createHealthHandler(records int, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"records": records,
		}, nil, logger)
	}
}

func createManifestHandler(manifest stremio.Manifest, logger *zap.Logger) http.HandlerFunc {
	manifestBody, err := json.Marshal(manifest)
	if err != nil {
		logger.Fatal("Couldn't marshal manifest", zap.Error(err))
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(manifestBody); err != nil {
			logger.Warn("Couldn't write manifest response", zap.Error(err))
		}
	}
}

func createStreamRoute(streamHandlers map[string]streamHandler, cacheAge time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := mux.Vars(r)
		handler, ok := streamHandlers[params["type"]]
		if !ok {
			writeNotFound(w, logger)
			return
		}
		streams, err := handler(params["id"])
		if !handleError(w, err, params, logger) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"streams": streams}, cacheHeaders(cacheAge), logger)
	}
}

func createSubtitlesRoute(subtitlesHandlers map[string]subtitlesHandler, cacheAge time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := mux.Vars(r)
		handler, ok := subtitlesHandlers[params["type"]]
		if !ok {
			writeNotFound(w, logger)
			return
		}
		subtitles, err := handler(params["id"])
		if !handleError(w, err, params, logger) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"subtitles": subtitles}, cacheHeaders(cacheAge), logger)
	}
}

// handleError writes an error response if err isn't nil and reports whether the caller should continue.
func handleError(w http.ResponseWriter, err error, params map[string]string, logger *zap.Logger) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, stremio.NotFound) {
		logger.Debug("Got request for unknown ID", zap.String("type", params["type"]), zap.String("id", params["id"]))
		writeNotFound(w, logger)
		return false
	}
	logger.Error("Couldn't handle request", zap.Error(err), zap.String("type", params["type"]), zap.String("id", params["id"]))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"err": "Internal server error"}, nil, logger)
	return false
}

func writeNotFound(w http.ResponseWriter, logger *zap.Logger) {
	writeJSON(w, http.StatusNotFound, map[string]string{"err": "Not found"}, nil, logger)
}

func cacheHeaders(cacheAge time.Duration) map[string]string {
	if cacheAge <= 0 {
		return nil
	}
	return map[string]string{
		"Cache-Control": fmt.Sprintf("max-age=%d, public", int(cacheAge.Seconds())),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}, headers map[string]string, logger *zap.Logger) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Couldn't write response", zap.Error(err))
	}
}

func createAccessLogFormatter(logger *zap.Logger) handlers.LogFormatter {
	return func(_ io.Writer, params handlers.LogFormatterParams) {
		logger.Debug("Handled request",
			zap.String("method", params.Request.Method),
			zap.String("url", params.URL.String()),
			zap.Int("status", params.StatusCode),
			zap.Int("size", params.Size),
			zap.Duration("duration", time.Since(params.TimeStamp)),
			zap.String("userAgent", params.Request.UserAgent()))
	}
}

// recoveryLogger lets gorilla's recovery handler log panics via zap.
type recoveryLogger struct {
	logger *zap.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from panic", zap.String("panic", fmt.Sprint(v...)))
}
