package mediaimport

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ffmpegContainer maps a MIME subtype to the container name ffmpeg expects
// via -f, per §4.4's thumbnail-derivation table.
func ffmpegContainer(subty string) string {
	switch subty {
	case "x-matroska":
		return "matroska"
	case "quicktime":
		return "mov"
	default:
		return subty
	}
}

// deriveThumbnail produces a JPEG thumbnail at outPath for the media at
// path with the given MIME type. Thumbnails are always JPEG; their own
// metadata is derived separately from the thumbnail file itself.
func deriveThumbnail(ctx context.Context, log zerolog.Logger, mimeType, path, outPath string) error {
	ty, subty := splitMime(mimeType)

	switch {
	case ty == "image", subty == "pdf":
		source := fmt.Sprintf("%s:%s[0]", mimeType, path)
		_, err := runTool(ctx, log, "convert", []string{
			source, "-strip", "-quality", "50", "-resize", "300x300",
			"-background", "white", "-alpha", "remove", "-alpha", "off",
			"jpg:" + outPath,
		}, nil)
		return err

	case ty == "video":
		durOut, err := runTool(ctx, log, "ffprobe", []string{
			"-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", path,
		}, nil)
		if err != nil {
			return err
		}
		seekTo := strings.TrimSpace(string(durOut))
		container := ffmpegContainer(subty)
		_, err = runTool(ctx, log, "ffmpeg", []string{
			"-ss", halveDuration(seekTo), "-f", container, "-i", path,
			"-vframes", "1", "-c:v", "mjpeg", "-f", "mjpeg", outPath,
		}, nil)
		return err

	default:
		return fmt.Errorf("no thumbnail strategy for %s/%s", ty, subty)
	}
}

// halveDuration divides a decimal-seconds duration string in two, for
// ffmpeg's -ss seek-to-midpoint thumbnail frame.
func halveDuration(s string) string {
	var whole, frac float64
	fmt.Sscanf(s, "%f", &whole)
	frac = whole / 2
	return fmt.Sprintf("%f", frac)
}
