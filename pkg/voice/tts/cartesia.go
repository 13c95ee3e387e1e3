package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	cartesiaBaseURL = "https://api.cartesia.ai"
	cartesiaVersion = "2025-04-16"
	cartesiaModelID = "sonic-3"
)

// Default voice ID - users should provide their own voice IDs
const defaultVoiceID = "a0e99841-438c-4a64-b679-ae501e7d6091"

// CartesiaSynthesizer implements Synthesizer on Cartesia's /tts/bytes API,
// returning 24 kHz 16-bit mono WAV.
type CartesiaSynthesizer struct {
	apiKey     string
	voiceID    string
	baseURL    string
	httpClient *http.Client
}

// CartesiaOption customizes the synthesizer.
type CartesiaOption func(*CartesiaSynthesizer)

// WithVoice selects a voice ID.
func WithVoice(voiceID string) CartesiaOption {
	return func(c *CartesiaSynthesizer) {
		if voiceID != "" {
			c.voiceID = voiceID
		}
	}
}

// WithHTTPClient swaps the HTTP client.
func WithHTTPClient(client *http.Client) CartesiaOption {
	return func(c *CartesiaSynthesizer) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different endpoint. Used by tests.
func WithBaseURL(baseURL string) CartesiaOption {
	return func(c *CartesiaSynthesizer) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewCartesia creates a Cartesia synthesizer.
func NewCartesia(apiKey string, opts ...CartesiaOption) *CartesiaSynthesizer {
	c := &CartesiaSynthesizer{
		apiKey:     apiKey,
		voiceID:    defaultVoiceID,
		baseURL:    cartesiaBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize converts text to WAV audio.
func (c *CartesiaSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	reqBody := cartesiaTTSRequest{
		ModelID:    cartesiaModelID,
		Transcript: text,
		Voice: cartesiaVoiceSpec{
			Mode: "id",
			ID:   c.voiceID,
		},
		OutputFormat: cartesiaOutputFormat{
			Container:  "wav",
			Encoding:   "pcm_s16le",
			SampleRate: 24000,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/tts/bytes", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Cartesia-Version", cartesiaVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cartesia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cartesia error %d: %s", resp.StatusCode, string(errBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}

type cartesiaTTSRequest struct {
	ModelID      string               `json:"model_id"`
	Transcript   string               `json:"transcript"`
	Voice        cartesiaVoiceSpec    `json:"voice"`
	OutputFormat cartesiaOutputFormat `json:"output_format"`
}

type cartesiaVoiceSpec struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaOutputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}
