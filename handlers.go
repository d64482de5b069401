package main

import (
	"errors"

	"github.com/deflix-tv/go-stremio"

	"github.com/deflix-tv/stremio-wheresthejump/internal/jumpscare"
)

type streamHandler func(id string) ([]jumpscare.Stream, error)

type subtitlesHandler func(id string) ([]jumpscare.Subtitle, error)

func createStreamHandler(resolver *jumpscare.Resolver) streamHandler {
	return func(id string) ([]jumpscare.Stream, error) {
		stream, err := resolver.Stream(id)
		if errors.Is(err, jumpscare.ErrNotFound) {
			return nil, stremio.NotFound
		} else if err != nil {
			return nil, err
		}
		return []jumpscare.Stream{stream}, nil
	}
}

func createSubtitlesHandler(resolver *jumpscare.Resolver) subtitlesHandler {
	return func(id string) ([]jumpscare.Subtitle, error) {
		subtitles, err := resolver.Subtitles(id)
		if errors.Is(err, jumpscare.ErrNotFound) {
			return nil, stremio.NotFound
		}
		return subtitles, err
	}
}
