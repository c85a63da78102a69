package speech

import "time"

// TranscriptionResult is the text produced by the speech-to-text backend for
// one audio submission.
type TranscriptionResult struct {
	SessionID string    `json:"sessionId,omitempty"`
	Text      string    `json:"text"`
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Health reports the readiness of the transcription backend.
type Health struct {
	Status      string `json:"status"`
	Model       string `json:"model,omitempty"`
	Device      string `json:"device,omitempty"`
	ModelLoaded bool   `json:"model_loaded"`
}
