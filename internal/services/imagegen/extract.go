package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// assistantMessage is the response message shape the extraction strategies
// inspect. Content stays raw because providers return either a string or a
// list of typed parts.
type assistantMessage struct {
	Content json.RawMessage `json:"content"`
	Images  []imageAttachment `json:"images"`
}

type imageAttachment struct {
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

// ExtractionError reports that no strategy recovered an image, naming the
// strategies in the order they were attempted.
type ExtractionError struct {
	Attempted []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no image found in response (tried strategies: %s)",
		strings.Join(e.Attempted, ", "))
}

// strategy recovers image bytes from one known response layout. ok is false
// when the layout does not apply; an applicable layout with undecodable data
// also reports false so later strategies get a chance.
type strategy struct {
	name    string
	extract func(assistantMessage) ([]byte, bool)
}

// Strategies run in declaration order; the first hit wins. The order matters:
// structured attachments are most reliable, raw base64 scraping is the last
// resort.
var strategies = []strategy{
	{"message-images", extractMessageImages},
	{"content-parts", extractContentParts},
	{"content-data-url", extractContentDataURL},
	{"content-raw-base64", extractContentRawBase64},
}

var (
	dataURLPattern   = regexp.MustCompile(`data:image/[a-zA-Z+]+;base64,([A-Za-z0-9+/=]+)`)
	rawBase64Pattern = regexp.MustCompile(`[A-Za-z0-9+/=]{100,}`)
)

// ExtractImage tries each strategy in order and returns the decoded image
// bytes plus the name of the strategy that produced them.
func ExtractImage(message assistantMessage) ([]byte, string, error) {
	attempted := make([]string, 0, len(strategies))
	for _, s := range strategies {
		attempted = append(attempted, s.name)
		if data, ok := s.extract(message); ok {
			return data, s.name, nil
		}
	}
	return nil, "", &ExtractionError{Attempted: attempted}
}

func extractMessageImages(message assistantMessage) ([]byte, bool) {
	for _, attachment := range message.Images {
		if data, ok := decodeDataURL(attachment.ImageURL.URL); ok {
			return data, true
		}
	}
	return nil, false
}

func extractContentParts(message assistantMessage) ([]byte, bool) {
	var parts []struct {
		Type     string `json:"type"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	if err := json.Unmarshal(message.Content, &parts); err != nil {
		return nil, false
	}
	for _, part := range parts {
		if part.Type != "image_url" {
			continue
		}
		if data, ok := decodeDataURL(part.ImageURL.URL); ok {
			return data, true
		}
	}
	return nil, false
}

func extractContentDataURL(message assistantMessage) ([]byte, bool) {
	content, ok := contentString(message)
	if !ok {
		return nil, false
	}
	match := dataURLPattern.FindStringSubmatch(content)
	if match == nil {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(match[1])
	if err != nil {
		return nil, false
	}
	return data, true
}

func extractContentRawBase64(message assistantMessage) ([]byte, bool) {
	content, ok := contentString(message)
	if !ok {
		return nil, false
	}
	match := rawBase64Pattern.FindString(content)
	if match == "" {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(match)
	if err != nil {
		return nil, false
	}
	return data, true
}

func contentString(message assistantMessage) (string, bool) {
	var content string
	if err := json.Unmarshal(message.Content, &content); err != nil {
		return "", false
	}
	return content, content != ""
}

func decodeDataURL(url string) ([]byte, bool) {
	idx := strings.Index(url, "base64,")
	if idx < 0 {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(url[idx+len("base64,"):])
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
