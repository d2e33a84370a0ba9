package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/pennywise/internal/platform/errors"
	"github.com/louisbranch/pennywise/internal/platform/id"
	"github.com/louisbranch/pennywise/internal/platform/requestctx"
	"github.com/louisbranch/pennywise/internal/platform/timeouts"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"golang.org/x/net/websocket"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxDecodeErrorsPerConn = 3
	maxFramesPerSecond     = 10
)

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsReply struct {
	MessageID string `json:"message_id"`
	Response  string `json:"response"`
	Mode      string `json:"mode"`
}

type wsCleared struct {
	Dropped int `json:"dropped"`
}

// newChatSocket serves the chat websocket. Each connection keeps its own
// bounded history so follow-up questions carry context.
func newChatSocket(svc *service.Service) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		handleChatConn(conn, svc)
	})
}

func handleChatConn(conn *websocket.Conn, svc *service.Service) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := conn.Request().Context()
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)
	conversation := chatbot.NewConversation(chatbot.MaxConversationMessages)

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		_ = conn.SetReadDeadline(time.Now().Add(timeouts.WebSocketIdle))
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) || isTimeout(err) {
				return
			}
			decodeErrors++
			_ = writeWSError(encoder, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			// The decoder cannot resync after a syntax error.
			decoder = json.NewDecoder(conn)
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(encoder, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(encoder, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		switch frame.Type {
		case "ask":
			var payload chatRequest
			if err := json.Unmarshal(frame.Payload, &payload); err != nil {
				_ = writeWSError(encoder, frame.RequestID, "INVALID_ARGUMENT", "invalid ask payload")
				continue
			}
			response, err := svc.Ask(ctx, chatbot.Request{
				Prompt:  payload.Prompt,
				APIKey:  payload.APIKey,
				History: conversation.Messages(),
			})
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindInvalidInput {
					_ = writeWSError(encoder, frame.RequestID, "INVALID_ARGUMENT", apperrors.PublicMessage(err))
					continue
				}
				log.Printf("chat: ask failed request_id=%s frame_id=%q err=%v", requestctx.RequestIDFromContext(ctx), frame.RequestID, err)
				_ = writeWSError(encoder, frame.RequestID, "UNAVAILABLE", "assistant unavailable")
				continue
			}
			conversation.Append(
				chatbot.Message{Role: chatbot.RoleUser, Text: strings.TrimSpace(payload.Prompt)},
				chatbot.Message{Role: chatbot.RoleAssistant, Text: response.Text},
			)
			messageID, err := id.NewID()
			if err != nil {
				log.Printf("chat: message id failed err=%v", err)
			}
			if err := writeWSFrame(encoder, "reply", frame.RequestID, wsReply{
				MessageID: messageID,
				Response:  response.Text,
				Mode:      string(response.Mode),
			}); err != nil {
				return
			}
		case "clear":
			dropped := conversation.Len()
			conversation = chatbot.NewConversation(chatbot.MaxConversationMessages)
			if err := writeWSFrame(encoder, "cleared", frame.RequestID, wsCleared{Dropped: dropped}); err != nil {
				return
			}
		default:
			_ = writeWSError(encoder, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
		}
	}
}

func writeWSFrame(encoder *json.Encoder, frameType, requestID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return encoder.Encode(wsFrame{Type: frameType, RequestID: requestID, Payload: raw})
}

func writeWSError(encoder *json.Encoder, requestID, code, message string) error {
	return writeWSFrame(encoder, "error", requestID, wsErrorEnvelope{Error: wsError{Code: code, Message: message}})
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}
