package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	speechmodel "github.com/VIRTUALGOD325/Grievance-Portal/internal/model/speech"
)

var (
	// ErrUnavailable marks failures of the transcription backend itself, as
	// opposed to bad input from the caller.
	ErrUnavailable = errors.New("transcription backend unavailable")
	// ErrEmptyAudio rejects submissions with no audio payload.
	ErrEmptyAudio = errors.New("audio data is empty")
)

// Config holds the connection settings for the external speech-to-text
// server.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the whisper transcription server over HTTP. The model
// itself is an external collaborator; this client only moves audio in and
// text out.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a transcription client against the configured base URL.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// transcribeEnvelope is the wire shape the backend returns for both the
// multipart and base64 endpoints.
type transcribeEnvelope struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Transcribe submits raw audio bytes as a multipart upload and returns the
// recognized text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (*speechmodel.TranscriptionResult, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if filename == "" {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.do(req)
}

// TranscribeBase64 submits base64-encoded audio as a JSON body. The backend
// decodes it; this client passes the payload through untouched.
func (c *Client) TranscribeBase64(ctx context.Context, audioBase64 string) (*speechmodel.TranscriptionResult, error) {
	if strings.TrimSpace(audioBase64) == "" {
		return nil, ErrEmptyAudio
	}

	payload, err := json.Marshal(map[string]string{"audio": audioBase64})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe-base64", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// Health queries the backend readiness endpoint.
func (c *Client) Health(ctx context.Context) (*speechmodel.Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: health returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var health speechmodel.Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("%w: decode health response: %v", ErrUnavailable, err)
	}
	return &health, nil
}

func (c *Client) do(req *http.Request) (*speechmodel.TranscriptionResult, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var envelope transcribeEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}

	return &speechmodel.TranscriptionResult{
		Text:      envelope.Text,
		RequestID: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}, nil
}
