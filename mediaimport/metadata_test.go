package mediaimport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitMime(t *testing.T) {
	ty, subty := splitMime("image/png")
	require.Equal(t, "image", ty)
	require.Equal(t, "png", subty)

	ty, subty = splitMime("video/x-matroska")
	require.Equal(t, "video", ty)
	require.Equal(t, "x-matroska", subty)
}

func TestFfmpegContainer(t *testing.T) {
	require.Equal(t, "matroska", ffmpegContainer("x-matroska"))
	require.Equal(t, "mov", ffmpegContainer("quicktime"))
	require.Equal(t, "webm", ffmpegContainer("webm"))
}

func TestParsePdfinfo(t *testing.T) {
	out := []byte("Title:          My Doc\nAuthor:         Jane\nPages:          12\nPage size:      612 x 792 pts\n")
	meta, err := parsePdfinfo(out)
	require.NoError(t, err)
	require.Equal(t, int64(12), *meta.Pages)
	require.Equal(t, "My Doc", *meta.Title)
	require.Equal(t, "Jane", *meta.Author)
	require.Equal(t, int64(612), *meta.Width)
	require.Equal(t, int64(792), *meta.Height)
}

func TestParsePdfinfoMissingPages(t *testing.T) {
	_, err := parsePdfinfo([]byte("Title: x\n"))
	require.Error(t, err)
}

func TestParseWxH(t *testing.T) {
	w, h, err := parseWxH("1920x1080")
	require.NoError(t, err)
	require.Equal(t, int64(1920), w)
	require.Equal(t, int64(1080), h)

	_, _, err = parseWxH("bogus")
	require.Error(t, err)
}
