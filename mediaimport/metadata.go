package mediaimport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"mediavault/index"
	"mediavault/vaulterr"
)

// officeXMLSubtypes are the Office Open XML subtypes, plus the legacy
// msword and vnd.ms-excel subtypes, routed through unoconv | pdfinfo (§4.4
// metadata table, "document/*, Office XML" row).
var officeXMLSubtypes = map[string]bool{
	"vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"vnd.openxmlformats-officedocument.spreadsheetml.sheet":        true,
	"vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"msword":      true,
	"vnd.ms-excel": true,
}

func splitMime(mimeType string) (ty, subty string) {
	parts := strings.SplitN(mimeType, "/", 2)
	if len(parts) != 2 {
		return mimeType, ""
	}
	return parts[0], parts[1]
}

// deriveMetadata runs the external probe matching the MIME type's ty/subty
// against the §4.4 metadata table and parses the typed payload.
func deriveMetadata(ctx context.Context, log zerolog.Logger, mimeType, path string) (index.MediaMetadata, error) {
	ty, subty := splitMime(mimeType)

	switch {
	case ty == "image":
		return deriveImageMetadata(ctx, log, path)
	case ty == "video":
		return deriveVideoMetadata(ctx, log, path)
	case subty == "pdf":
		out, err := runTool(ctx, log, "pdfinfo", []string{path}, nil)
		if err != nil {
			return index.MediaMetadata{}, err
		}
		return parsePdfinfo(out)
	case ty == "document" || officeXMLSubtypes[subty]:
		out, err := pipeTools(ctx, log,
			toolInvocation{name: "unoconv", args: []string{"--stdout", "-f", "pdf", path}},
			toolInvocation{name: "pdfinfo", args: []string{"-"}})
		if err != nil {
			return index.MediaMetadata{}, err
		}
		return parsePdfinfo(out)
	default:
		return index.MediaMetadata{}, vaulterr.UnsupportedMimeType.New("%s/%s", ty, subty)
	}
}

func deriveImageMetadata(ctx context.Context, log zerolog.Logger, path string) (index.MediaMetadata, error) {
	out, err := runTool(ctx, log, "identify", []string{"-ping", "-format", "%wx%h", path}, nil)
	if err != nil {
		return index.MediaMetadata{}, err
	}
	w, h, err := parseWxH(string(out))
	if err != nil {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("identify output %q: %v", out, err)
	}
	return index.MediaMetadata{Kind: index.MetadataImage, Width: &w, Height: &h}, nil
}

func deriveVideoMetadata(ctx context.Context, log zerolog.Logger, path string) (index.MediaMetadata, error) {
	dimOut, err := runTool(ctx, log, "ffprobe", []string{
		"-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name",
		"-of", "csv=p=0", path,
	}, nil)
	if err != nil {
		return index.MediaMetadata{}, err
	}
	fields := strings.Split(strings.TrimSpace(string(dimOut)), ",")
	if len(fields) < 3 {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("ffprobe stream output %q", dimOut)
	}
	w, err1 := strconv.ParseInt(fields[0], 10, 64)
	h, err2 := strconv.ParseInt(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("ffprobe dims %q", dimOut)
	}
	codec := fields[2]

	durOut, err := runTool(ctx, log, "ffprobe", []string{
		"-v", "error", "-show_entries", "format=duration", "-of", "csv=p=0", path,
	}, nil)
	if err != nil {
		return index.MediaMetadata{}, err
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(durOut)), 64)
	if err != nil {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("ffprobe duration %q: %v", durOut, err)
	}

	return index.MediaMetadata{
		Kind: index.MetadataVideo, Width: &w, Height: &h,
		DurationSeconds: &duration, Codec: &codec,
	}, nil
}

func parseWxH(s string) (int64, int64, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	w, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// parsePdfinfo parses pdfinfo's "Key:    Value" text output into a
// Document-kind MediaMetadata.
func parsePdfinfo(out []byte) (index.MediaMetadata, error) {
	fields := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		fields[key] = value
	}

	pagesStr, ok := fields["Pages"]
	if !ok {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("pdfinfo output missing Pages: %q", out)
	}
	pages, err := strconv.ParseInt(pagesStr, 10, 64)
	if err != nil {
		return index.MediaMetadata{}, vaulterr.UnexpectedOutput.New("pdfinfo Pages %q: %v", pagesStr, err)
	}

	meta := index.MediaMetadata{Kind: index.MetadataDocument, Pages: &pages}
	if title, ok := fields["Title"]; ok && title != "" {
		meta.Title = &title
	}
	if author, ok := fields["Author"]; ok && author != "" {
		meta.Author = &author
	}

	if sizeStr, ok := fields["Page size"]; ok {
		if w, h, err := parsePageSize(sizeStr); err == nil {
			meta.Width = &w
			meta.Height = &h
		}
	}

	return meta, nil
}

// parsePageSize parses pdfinfo's "612 x 792 pts" style page size.
func parsePageSize(s string) (int64, int64, error) {
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return 0, 0, fmt.Errorf("unexpected page size %q", s)
	}
	w, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, err
	}
	return int64(w), int64(h), nil
}
