package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VIRTUALGOD325/Grievance-Portal/internal/logstore"
	speechmodel "github.com/VIRTUALGOD325/Grievance-Portal/internal/model/speech"
	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
	speechsvc "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/speech"
)

type fakeTranscriber struct {
	text      string
	err       error
	lastAudio []byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, _ string) (*speechmodel.TranscriptionResult, error) {
	f.lastAudio = audio
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TranscriptionResult{Text: f.text, CreatedAt: time.Now()}, nil
}

func (f *fakeTranscriber) TranscribeBase64(_ context.Context, _ string) (*speechmodel.TranscriptionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.TranscriptionResult{Text: f.text, CreatedAt: time.Now()}, nil
}

func (f *fakeTranscriber) Health(_ context.Context) (*speechmodel.Health, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.Health{Status: "healthy", Model: "whisper-base", ModelLoaded: true}, nil
}

func newTestRouter(t *testing.T, transcriber Transcriber) (chi.Router, *intakeservice.Service) {
	t.Helper()
	store := logstore.New(filepath.Join(t.TempDir(), "grievance_outputs.jsonl"))
	intake := intakeservice.NewService(store, nil)

	r := chi.NewRouter()
	New(transcriber, intake).RegisterRoutes(r)
	return r, intake
}

func multipartAudio(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", "complaint.wav")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake wav bytes")); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestTranscribeMultipart(t *testing.T) {
	fake := &fakeTranscriber{text: "paani nahi aa raha"}
	r, _ := newTestRouter(t, fake)

	body, contentType := multipartAudio(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["text"] != "paani nahi aa raha" || resp["success"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
	if _, ok := resp["output"]; ok {
		t.Error("output must only appear when categorize is requested")
	}
	if string(fake.lastAudio) != "fake wav bytes" {
		t.Errorf("audio bytes not forwarded: %q", fake.lastAudio)
	}
}

func TestTranscribeWithCategorize(t *testing.T) {
	fake := &fakeTranscriber{text: "paani nahi aa raha, pipe phoot gaya"}
	r, intake := newTestRouter(t, fake)

	body, contentType := multipartAudio(t, map[string]string{
		"categorize": "true",
		"fast_mode":  "true",
		"user_id":    "user_42",
	})
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	output, ok := resp["output"].(map[string]any)
	if !ok {
		t.Fatalf("output missing: %v", resp)
	}
	if output["department"] != "water" {
		t.Errorf("department = %v", output["department"])
	}
	if resp["model_used"] != intakeservice.FastModelName {
		t.Errorf("model_used = %v", resp["model_used"])
	}

	records, err := intake.Recent(10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if !records[0].Metadata.VoiceInput {
		t.Error("voice_input must be set on records from the speech path")
	}
	if records[0].Metadata.UserID != "user_42" {
		t.Errorf("user_id = %q", records[0].Metadata.UserID)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	r, _ := newTestRouter(t, &fakeTranscriber{text: "x"})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("categorize", "true")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribeBackendDown(t *testing.T) {
	r, _ := newTestRouter(t, &fakeTranscriber{err: speechsvc.ErrUnavailable})

	body, contentType := multipartAudio(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestTranscribeBase64(t *testing.T) {
	r, _ := newTestRouter(t, &fakeTranscriber{text: "sadak kharab hai"})

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe-base64",
		strings.NewReader(`{"audio":"ZmFrZQ=="}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["text"] != "sadak kharab hai" {
		t.Errorf("text = %v", resp["text"])
	}
}

func TestTranscribeBase64MissingAudio(t *testing.T) {
	r, _ := newTestRouter(t, &fakeTranscriber{text: "x"})

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe-base64",
		strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSpeechHealth(t *testing.T) {
	r, _ := newTestRouter(t, &fakeTranscriber{})

	req := httptest.NewRequest(http.MethodGet, "/speech/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health speechmodel.Health
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if health.Status != "healthy" || !health.ModelLoaded {
		t.Errorf("unexpected health: %+v", health)
	}
}
