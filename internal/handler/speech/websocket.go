package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	intakeservice "github.com/VIRTUALGOD325/Grievance-Portal/internal/service/grievance"
)

// WebSocketHandler runs the live voice intake channel: binary audio frames
// in, transcription and categorization events out.
type WebSocketHandler struct {
	transcriber Transcriber
	intake      *intakeservice.Service
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates the websocket intake handler.
func NewWebSocketHandler(transcriber Transcriber, intake *intakeservice.Service) *WebSocketHandler {
	return &WebSocketHandler{
		transcriber: transcriber,
		intake:      intake,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes mounts the websocket endpoint.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// controlMessage is the text-frame protocol: the client sends audio as
// binary frames and finishes an utterance with {"event":"stop"}.
type controlMessage struct {
	Event    string `json:"event"`
	UserID   string `json:"userId,omitempty"`
	FastMode bool   `json:"fastMode,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type outgoingMessage struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	Output    any    `json:"output,omitempty"`
	ModelUsed string `json:"modelUsed,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for session=%s: %v", sessionID, err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] voice intake opened, session=%s", sessionID)
	h.send(conn, outgoingMessage{Event: "ready", SessionID: sessionID})

	var buffer bytes.Buffer
	ctx := r.Context()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close, session=%s: %v", sessionID, err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			buffer.Write(data)
		case websocket.TextMessage:
			var control controlMessage
			if err := json.Unmarshal(data, &control); err != nil {
				h.send(conn, outgoingMessage{Event: "error", SessionID: sessionID, Error: "invalid control message"})
				continue
			}
			switch control.Event {
			case "stop":
				h.flushUtterance(ctx, conn, sessionID, &buffer, control)
			case "reset":
				buffer.Reset()
			default:
				h.send(conn, outgoingMessage{Event: "error", SessionID: sessionID,
					Error: fmt.Sprintf("unknown event %q", control.Event)})
			}
		}
	}
}

// flushUtterance transcribes the buffered audio and runs the result through
// the intake pipeline, emitting a transcript event and then an output event.
func (h *WebSocketHandler) flushUtterance(ctx context.Context, conn *websocket.Conn, sessionID string, buffer *bytes.Buffer, control controlMessage) {
	defer buffer.Reset()

	if buffer.Len() == 0 {
		h.send(conn, outgoingMessage{Event: "error", SessionID: sessionID, Error: "no audio buffered"})
		return
	}

	filename := control.Filename
	if filename == "" {
		filename = "utterance.wav"
	}

	result, err := h.transcriber.Transcribe(ctx, buffer.Bytes(), filename)
	if err != nil {
		h.send(conn, outgoingMessage{Event: "error", SessionID: sessionID, Error: err.Error()})
		return
	}
	h.send(conn, outgoingMessage{Event: "transcript", SessionID: sessionID, Text: result.Text})

	processed, err := h.intake.Process(ctx, intakeservice.Request{
		Text:       result.Text,
		FastMode:   control.FastMode,
		UserID:     control.UserID,
		SessionID:  sessionID,
		VoiceInput: true,
	})
	if err != nil {
		h.send(conn, outgoingMessage{Event: "error", SessionID: sessionID, Error: err.Error()})
		return
	}

	h.send(conn, outgoingMessage{
		Event:     "output",
		SessionID: sessionID,
		Output:    processed.Output,
		ModelUsed: processed.ModelUsed,
	})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
