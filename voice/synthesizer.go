// Package voice converts mitigation text to speech through an external
// synthesis endpoint. Synthesis failures are isolated per result and never
// block display of the text already obtained.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the Google Translate TTS endpoint.
const DefaultEndpoint = "https://translate.google.com"

// DefaultTimeout bounds one synthesis round trip, covering all chunks.
const DefaultTimeout = 30 * time.Second

// maxChunkRunes caps the text length per synthesis request. Longer texts
// are split on sentence and word boundaries and the MP3 segments are
// concatenated.
const maxChunkRunes = 200

// Synthesizer converts text to audio. Implementations return a single
// supported encoding, reported by ContentType.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	ContentType() string
}

// SpokenText applies the input selection policy: prefer the rewritten text,
// fall back to the advisory, and report false when neither is present so
// the caller can skip synthesis entirely.
func SpokenText(rewritten, advisory string) (string, bool) {
	if rewritten != "" {
		return rewritten, true
	}
	if advisory != "" {
		return advisory, true
	}
	return "", false
}

// GoogleSynthesizer fetches MP3 audio from the Google Translate TTS
// endpoint, one request per text chunk.
type GoogleSynthesizer struct {
	endpoint string
	language string
	client   *http.Client
}

// NewGoogleSynthesizer creates a synthesizer against the given endpoint
// (DefaultEndpoint when empty) speaking the given language ("en" when
// empty).
func NewGoogleSynthesizer(endpoint, language string) *GoogleSynthesizer {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if language == "" {
		language = "en"
	}
	return &GoogleSynthesizer{
		endpoint: strings.TrimRight(endpoint, "/"),
		language: language,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
}

// ContentType returns the audio encoding produced by Synthesize.
func (g *GoogleSynthesizer) ContentType() string {
	return "audio/mpeg"
}

// Synthesize converts text to MP3 bytes. Empty or whitespace-only text is
// rejected; callers are expected to have applied SpokenText first.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text to synthesize")
	}

	var audio bytes.Buffer
	for _, chunk := range SplitText(text, maxChunkRunes) {
		segment, err := g.fetchChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		audio.Write(segment)
	}
	return audio.Bytes(), nil
}

// fetchChunk requests one MP3 segment for a single chunk of text.
func (g *GoogleSynthesizer) fetchChunk(ctx context.Context, chunk string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.language)
	params.Set("q", chunk)

	reqURL := g.endpoint + "/translate_tts?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis endpoint returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SplitText splits text into chunks of at most maxRunes runes, preferring
// sentence boundaries, then word boundaries. A single word longer than
// maxRunes is hard-split.
func SplitText(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return []string{text}
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= maxRunes {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := splitPoint(runes, maxRunes)
		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && (runes[0] == ' ' || runes[0] == '\n' || runes[0] == '\t') {
			runes = runes[1:]
		}
	}
	return chunks
}

// splitPoint finds the best cut index within runes[:maxRunes+1].
func splitPoint(runes []rune, maxRunes int) int {
	limit := maxRunes
	if limit > len(runes) {
		limit = len(runes)
	}

	// Prefer a sentence boundary.
	for i := limit - 1; i > 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	// Then a word boundary.
	for i := limit - 1; i > 0; i-- {
		if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t' {
			return i
		}
	}
	// Hard split.
	return limit
}
