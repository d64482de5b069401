package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/deflix-tv/go-stremio"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/deflix-tv/stremio-wheresthejump/internal/jumpscare"
)

var (
	datasetPath = flag.String("dataset", "wheresthejump.csv", "Path to the CSV file with the jump scare data from wheresthejump.com")
	concurrency = flag.Int("concurrency", 4, "Max number of records that are checked at the same time")
	logLevel    = flag.String("logLevel", "info", `Log level to show only logs with the given and more severe levels. Can be "debug", "info", "warn", "error"`)
)

const (
	cinemetaBaseURL = "https://v3-cinemeta.strem.io"
)

func main() {
	flag.Parse()

	logger, err := stremio.NewLogger(*logLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	index := jumpscare.Load(afero.NewOsFs(), *datasetPath, logger)
	if index.Len() == 0 {
		logger.Fatal("Dataset is empty or missing", zap.String("path", *datasetPath))
	}

	c := checker{
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		cinemetaBaseURL: cinemetaBaseURL,
		resolver:        jumpscare.NewResolver(index),
		logger:          logger,
	}

	var failed atomic.Int64
	p := pool.New().WithMaxGoroutines(*concurrency)
	for _, id := range index.IDs() {
		p.Go(func() {
			if !c.check(id) {
				failed.Add(1)
			}
		})
	}
	p.Wait()

	logger.Info("Finished checking dataset", zap.Int("records", index.Len()), zap.Int64("failed", failed.Load()))
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

type checker struct {
	httpClient      *http.Client
	cinemetaBaseURL string
	resolver        *jumpscare.Resolver
	logger          *zap.Logger
}

// check reports whether the ID is known to Cinemeta and all subtitle files of the record exist.
// A missing merged subtitle file is only logged, because not every movie has one.
func (c checker) check(id string) bool {
	logger := c.logger.With(zap.String("id", id))
	ok := true

	name, err := c.fetchName(id)
	if err != nil {
		logger.Warn("Couldn't find ID on Cinemeta", zap.Error(err))
		ok = false
	} else {
		logger.Debug("Found ID on Cinemeta", zap.String("name", name))
	}

	subtitles, err := c.resolver.Subtitles(id)
	if err != nil {
		logger.Error("Couldn't resolve subtitles", zap.Error(err))
		return false
	}
	for i, subtitle := range subtitles {
		if err := c.head(subtitle.URL); err != nil {
			merged := i == 0
			if merged {
				logger.Info("Merged subtitle file is missing", zap.String("url", subtitle.URL), zap.Error(err))
				continue
			}
			logger.Warn("Subtitle file is missing", zap.String("url", subtitle.URL), zap.Error(err))
			ok = false
		}
	}

	return ok
}

// fetchName returns the movie or series name from Cinemeta.
// The dataset doesn't say whether an ID is a movie or a series, so both are tried.
func (c checker) fetchName(id string) (string, error) {
	var lastErr error
	for _, mediaType := range []string{"movie", "series"} {
		url := c.cinemetaBaseURL + "/meta/" + mediaType + "/" + id + ".json"
		resBody, err := c.get(url)
		if err != nil {
			lastErr = err
			continue
		}
		name := gjson.GetBytes(resBody, "meta.name").String()
		if name == "" {
			lastErr = fmt.Errorf("response body of %v doesn't contain a \"meta.name\" element", url)
			continue
		}
		return name, nil
	}
	return "", lastErr
}

func (c checker) get(url string) ([]byte, error) {
	res, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("couldn't GET %v: %w", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad GET response for %v: %v", url, res.StatusCode)
	}
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("couldn't read response body: %w", err)
	}
	return resBody, nil
}

func (c checker) head(url string) error {
	res, err := c.httpClient.Head(url)
	if err != nil {
		return fmt.Errorf("couldn't HEAD %v: %w", url, err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("bad HEAD response: %v", res.StatusCode)
	}
	return nil
}
