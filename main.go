package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/deflix-tv/go-stremio"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/deflix-tv/stremio-wheresthejump/internal/jumpscare"
)

const (
	version = "1.0.0"
)

var (
	bindAddr    = flag.String("bindAddr", "0.0.0.0", `Local interface address to bind to. "localhost" only allows access from the local host. "0.0.0.0" binds to all network interfaces. The port is set via the "PORT" environment variable.`)
	datasetPath = flag.String("dataset", "wheresthejump.csv", "Path to the CSV file with the jump scare data from wheresthejump.com")
	logLevel    = flag.String("logLevel", "info", `Log level to show only logs with the given and more severe levels. Can be "debug", "info", "warn", "error"`)
	logFile     = flag.String("logFile", "", "Additionally write JSON logs to this file, with size based rotation. Empty means no file logging.")
	cacheAge    = flag.String("cacheAge", "24h", "Max age for a client or proxy cache. The format must be acceptable by Go's 'time.ParseDuration()', for example \"24h\".")
)

var (
	manifest = stremio.Manifest{
		ID:          "org.stremio.wheresthejump",
		Name:        "Where's The Jump",
		Description: "Adds jump scare information from wheresthejump.com",
		Version:     version,

		ResourceItems: []stremio.ResourceItem{
			{
				Name: "stream",
			},
			{
				Name: "subtitles",
			},
		},
		Types:    []string{"movie", "series"},
		Catalogs: []stremio.CatalogItem{},

		IDprefixes: []string{"tt"},
	}
)

const (
	redirectURL = "https://wheresthejump.com"
)

func main() {
	flag.Parse()

	// Prep

	logger, err := stremio.NewLogger(*logLevel)
	if err != nil {
		panic(err)
	}
	if *logFile != "" {
		if logger, err = teeToFile(logger, *logFile, *logLevel); err != nil {
			logger.Fatal("Couldn't set up file logging", zap.Error(err))
		}
	}
	defer logger.Sync()

	port, err := portFromEnv()
	if err != nil {
		logger.Fatal("Couldn't parse PORT environment variable", zap.Error(err))
	}
	cacheAgeDuration, err := time.ParseDuration(*cacheAge)
	if err != nil {
		logger.Fatal("Couldn't parse cacheAge", zap.Error(err))
	}
	logger.Info("Cache age set", zap.Duration("duration", cacheAgeDuration))

	// Load data

	logger.Info("Loading dataset...", zap.String("path", *datasetPath))
	index := jumpscare.Load(afero.NewOsFs(), *datasetPath, logger)
	resolver := jumpscare.NewResolver(index)

	// Set up addon

	handleStream := createStreamHandler(resolver)
	handleSubtitles := createSubtitlesHandler(resolver)
	streamHandlers := map[string]streamHandler{"movie": handleStream, "series": handleStream}
	subtitlesHandlers := map[string]subtitlesHandler{"movie": handleSubtitles, "series": handleSubtitles}
	options := routerOptions{
		RedirectURL: redirectURL,
		CacheAge:    cacheAgeDuration,
		Records:     index.Len(),
	}
	srv := &http.Server{
		Addr:              net.JoinHostPort(*bindAddr, strconv.Itoa(port)),
		Handler:           createRouter(manifest, streamHandlers, subtitlesHandlers, options, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Go!

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Couldn't start server", zap.Error(err))
		}
	}()

	<-done
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}
	logger.Info("Finished shutting down server")
}

// teeToFile returns a logger that additionally writes JSON logs to a rotated log file.
func teeToFile(logger *zap.Logger, filePath string, logLevel string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return logger, err
	}
	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // Days
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), fileWriter, level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
