package jumpscare

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const header = "Movie Name,Director,Year,Jump Count,Jump Scare Rating,IMDB,Summary,Rating,SRT Link,URL\n"

func writeDataset(t *testing.T, content string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/wheresthejump.csv", []byte(content), 0600))
	return fs
}

func TestLoad(t *testing.T) {
	fs := writeDataset(t, header+
		"The Shawshank Redemption,Frank Darabont,1994,0,0.0,tt0111161,S,R,https://wheresthejump.com/subtitles/shawshank.srt,https://wheresthejump.com/movie/shawshank\n"+
		"Alien,Ridley Scott,1979,4,3.5, tt0078748 ,\"Crew, cat and alien\",Rating line,,https://wheresthejump.com/jump-scares-in-alien-1979/\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	require.Equal(t, 2, index.Len())
	shawshank, ok := index.Lookup("tt0111161")
	require.True(t, ok)
	assert.Equal(t, Record{
		ID:           "tt0111161",
		Title:        "The Shawshank Redemption",
		Director:     "Frank Darabont",
		Year:         "1994",
		JumpCount:    "0",
		JumpRating:   "0.0",
		Summary:      "S",
		Rating:       "R",
		SubtitleLink: "https://wheresthejump.com/subtitles/shawshank.srt",
		DetailURL:    "https://wheresthejump.com/movie/shawshank",
	}, shawshank)

	alien, ok := index.Lookup("tt0078748")
	require.True(t, ok, "ID must be trimmed")
	assert.Equal(t, "tt0078748", alien.ID)
	assert.Equal(t, "Crew, cat and alien", alien.Summary)
	assert.Empty(t, alien.SubtitleLink)
}

func TestLoad_MissingFile(t *testing.T) {
	index := Load(afero.NewMemMapFs(), "/data/wheresthejump.csv", zap.NewNop())
	assert.Equal(t, 0, index.Len())
	_, ok := index.Lookup("tt0111161")
	assert.False(t, ok)
}

func TestLoad_EmptyFile(t *testing.T) {
	fs := writeDataset(t, "")
	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())
	assert.Equal(t, 0, index.Len())
}

func TestLoad_DropsRowsWithoutID(t *testing.T) {
	fs := writeDataset(t, header+
		"No ID,Someone,2000,1,1.0,,S,R,,https://example.com\n"+
		"Blank ID,Someone,2000,1,1.0,   ,S,R,,https://example.com\n"+
		"\n"+
		",,,,,,,,,\n"+
		"Kept,Someone,2000,1,1.0,tt1,S,R,,https://example.com\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	assert.Equal(t, []string{"tt1"}, index.IDs())
}

func TestLoad_DuplicateIDLaterRowWins(t *testing.T) {
	fs := writeDataset(t, header+
		"First,A,2000,1,1.0,tt1,first summary,first rating,,https://example.com/1\n"+
		"Second,B,2001,2,2.0,tt1,second summary,second rating,,https://example.com/2\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	require.Equal(t, 1, index.Len())
	record, _ := index.Lookup("tt1")
	assert.Equal(t, "Second", record.Title)
	assert.Equal(t, "second summary", record.Summary)
	assert.Equal(t, "https://example.com/2", record.DetailURL)
}

func TestLoad_Idempotent(t *testing.T) {
	fs := writeDataset(t, header+
		"A,A,2000,1,1.0,tt1,S1,R1,https://wheresthejump.com/subtitles/a.srt,https://example.com/1\n"+
		"B,B,2001,2,2.0,tt2,S2,R2,,https://example.com/2\n")

	first := Load(fs, "/data/wheresthejump.csv", zap.NewNop())
	second := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	assert.Equal(t, first, second)
}

func TestLoad_ToleratesIrregularCSV(t *testing.T) {
	fs := writeDataset(t, "\ufeffIMDB, Movie Name ,Unknown Column\n"+
		"tt1,Short row\n"+
		"tt2,Bad\"Quote,x\n"+
		"tt3,After the bad row,x,extra,fields\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	assert.Equal(t, []string{"tt1", "tt3"}, index.IDs())
	record, _ := index.Lookup("tt1")
	assert.Equal(t, "Short row", record.Title)
	assert.Empty(t, record.Summary)
	assert.Empty(t, record.DetailURL)
}

func TestNewIndex(t *testing.T) {
	index := NewIndex(Record{ID: "tt2", Title: "old"}, Record{ID: "tt1"}, Record{ID: "tt2", Title: "new"})

	assert.Equal(t, 2, index.Len())
	assert.Equal(t, []string{"tt1", "tt2"}, index.IDs())
	record, ok := index.Lookup("tt2")
	assert.True(t, ok)
	assert.Equal(t, "new", record.Title)
	_, ok = index.Lookup("TT2")
	assert.False(t, ok, "lookups are case-sensitive")
}

func TestLoad_UnterminatedQuoteKeepsLaterRows(t *testing.T) {
	fs := writeDataset(t, header+
		"One,A,2000,1,1.0,tt1,S1,R1,,https://example.com/1\n"+
		"Two,B,2001,2,2.0,tt2,\"Unterminated summary,R2,,https://example.com/2\n"+
		"Three,C,2002,3,3.0,tt3,S3,R3,,https://example.com/3\n"+
		"Four,D,2003,4,4.0,tt4,S4,R4,,https://example.com/4\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	assert.Equal(t, []string{"tt1", "tt3", "tt4"}, index.IDs())
	record, _ := index.Lookup("tt4")
	assert.Equal(t, "S4", record.Summary)
	assert.Equal(t, "https://example.com/4", record.DetailURL)
}

func TestLoad_MultiLineField(t *testing.T) {
	fs := writeDataset(t, header+
		"One,A,2000,1,1.0,tt1,\"First line\nsecond line\",R1,,https://example.com/1\n"+
		"Two,B,2001,2,2.0,tt2,S2,R2,,https://example.com/2\n")

	index := Load(fs, "/data/wheresthejump.csv", zap.NewNop())

	assert.Equal(t, []string{"tt1", "tt2"}, index.IDs())
	record, _ := index.Lookup("tt1")
	assert.Equal(t, "First line\nsecond line", record.Summary)
}

func TestLineOffset(t *testing.T) {
	data := []byte("a\nbb\nccc")
	assert.Equal(t, 0, lineOffset(data, 0))
	assert.Equal(t, 2, lineOffset(data, 1))
	assert.Equal(t, 5, lineOffset(data, 2))
	assert.Equal(t, len(data), lineOffset(data, 3))
	assert.Equal(t, len(data), lineOffset(data, 10))
}
