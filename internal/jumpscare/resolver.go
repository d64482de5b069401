package jumpscare

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

const (
	// SubtitleSourcePrefix is how SRT links in the dataset start.
	SubtitleSourcePrefix = "https://wheresthejump.com/subtitles/"
	// SubtitleAssetBase is where the SRT files (and their merged variants) are actually served from.
	SubtitleAssetBase = "https://raw.githubusercontent.com/neon-ninja/wheresthejump/refs/heads/main/srt/"

	StreamName = "WheresTheJump?"
)

// ErrNotFound is returned when the index doesn't contain a record for an ID.
var ErrNotFound = errors.New("no jump scare record")

// Stream is what Stremio shows in the stream list.
// It doesn't play anything, it links to the wheresthejump.com page of the movie.
type Stream struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ExternalURL string `json:"externalUrl"`
}

// Subtitle is one entry of Stremio's subtitle list.
type Subtitle struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Lang string `json:"lang"`
	Name string `json:"name"`
}

// Resolver answers stream and subtitle queries from an index.
// All methods only read from the index and are safe for concurrent use.
type Resolver struct {
	index Index
}

// NewResolver creates a resolver that reads from the given index.
func NewResolver(index Index) *Resolver {
	return &Resolver{index: index}
}

// NormalizeID cuts off the season and episode of series IDs like "tt0944947:1:2".
func NormalizeID(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		return id[:i]
	}
	return id
}

func (r *Resolver) lookup(id string) (Record, error) {
	record, ok := r.index.Lookup(id)
	if !ok {
		return Record{}, fmt.Errorf("%w for ID %q", ErrNotFound, id)
	}
	return record, nil
}

// Stream returns the jump scare summary and rating of the movie or series.
func (r *Resolver) Stream(id string) (Stream, error) {
	record, err := r.lookup(NormalizeID(id))
	if err != nil {
		return Stream{}, err
	}
	return Stream{
		Name:        StreamName,
		Description: record.Summary + "\n" + record.Rating,
		ExternalURL: record.DetailURL,
	}, nil
}

// Subtitles returns the merged subtitle (jump scares and dialogue) first and then the jump scare only one.
// Records without a usable SRT link lead to an empty list, which isn't an error.
func (r *Resolver) Subtitles(id string) ([]Subtitle, error) {
	id = NormalizeID(id)
	record, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	fileName := subtitleFileName(record.SubtitleLink)
	if fileName == "" {
		return []Subtitle{}, nil
	}
	mergedFileName := strings.TrimSuffix(fileName, path.Ext(fileName)) + "_merged.srt"

	return []Subtitle{
		{
			ID:   "wheresthejump-merged-" + id,
			URL:  SubtitleAssetBase + escapeFileName(mergedFileName),
			Lang: "en",
			Name: "Jump Scare + EN SRT",
		},
		{
			ID:   "wheresthejump-" + id,
			URL:  SubtitleAssetBase + escapeFileName(fileName),
			Lang: "en",
			Name: "Jump Scare SRT",
		},
	}, nil
}

// subtitleFileName returns the name of the SRT file in the asset store, or an empty string.
// Links from other sites are stored under their last path element.
func subtitleFileName(link string) string {
	fileName := strings.TrimPrefix(strings.TrimSpace(link), SubtitleSourcePrefix)
	if i := strings.LastIndexByte(fileName, '/'); i >= 0 {
		fileName = fileName[i+1:]
	}
	return fileName
}

// escapeFileName makes names with spaces etc. safe for a URL path, without double escaping already escaped names.
func escapeFileName(fileName string) string {
	if unescaped, err := url.PathUnescape(fileName); err == nil {
		fileName = unescaped
	}
	return url.PathEscape(fileName)
}
