package mcp

import (
	"encoding/base64"
	"net/http"
	"regexp"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/m-mizutani/browserpilot"
)

var (
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:[a-z0-9]*)\\n([A-Za-z0-9+/=\\s]+)```")
	dataURLPattern     = regexp.MustCompile(`data:(image/[a-z.+-]+);base64,([A-Za-z0-9+/=]+)`)
)

// extractSnapshot finds a visual capture in a tool response, trying the
// encoding strategies in order of reliability: a dedicated image content
// item, a fenced base64 block, an inline data URL, then the whole text as
// raw base64.
func extractSnapshot(contents []mcpgo.Content, text string) *browserpilot.Snapshot {
	if s := imageContentSnapshot(contents); s != nil {
		return s
	}
	if s := fencedBlockSnapshot(text); s != nil {
		return s
	}
	if s := dataURLSnapshot(text); s != nil {
		return s
	}
	return rawBase64Snapshot(text)
}

func imageContentSnapshot(contents []mcpgo.Content) *browserpilot.Snapshot {
	for _, content := range contents {
		img, ok := mcpgo.AsImageContent(content)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			continue
		}
		mediaType := img.MIMEType
		if mediaType == "" {
			mediaType = http.DetectContentType(data)
		}
		return &browserpilot.Snapshot{MediaType: mediaType, Data: data}
	}
	return nil
}

func fencedBlockSnapshot(text string) *browserpilot.Snapshot {
	m := fencedBlockPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	compact := strings.Map(dropSpace, m[1])
	return decodeImage(compact)
}

func dataURLSnapshot(text string) *browserpilot.Snapshot {
	m := dataURLPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil
	}
	return &browserpilot.Snapshot{MediaType: m[1], Data: data}
}

// rawBase64Snapshot treats the entire text as base64 image data. The decoded
// bytes must sniff as an image, otherwise ordinary text results would be
// misread as captures.
func rawBase64Snapshot(text string) *browserpilot.Snapshot {
	trimmed := strings.Map(dropSpace, text)
	if len(trimmed) < 64 {
		return nil
	}
	return decodeImage(trimmed)
}

func decodeImage(encoded string) *browserpilot.Snapshot {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return nil
	}
	return &browserpilot.Snapshot{MediaType: mediaType, Data: data}
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\n', '\r', '\t':
		return -1
	}
	return r
}
