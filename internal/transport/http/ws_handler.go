package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"academy-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

const writeWait = 10 * time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type tickPayload struct {
	RemainingSeconds int `json:"remainingSeconds"`
}

// ServeAttempt upgrades to a websocket that streams one attempt to its
// student. Browsers cannot set headers on the handshake, so the user may
// also be passed as the userId query parameter.
func (h *Handler) ServeAttempt(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")
	user := r.Header.Get("X-User-ID")
	if user == "" {
		user = r.URL.Query().Get("userId")
	}
	if user == "" {
		writeError(w, r, errMissingUser)
		return
	}

	ctx := r.Context()
	updates, cancel, err := h.attempts.Subscribe(ctx, attemptID, user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "attempt_id", attemptID, "error", err)
		return
	}
	defer conn.Close()
	// The server's timeouts carry over to the hijacked connection.
	_ = conn.SetReadDeadline(time.Time{})

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches the connection for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				slog.Debug("ws write failed", "attempt_id", attemptID, "error", err)
				return
			}
		}
	}()

	push := func(msg outboundMessage) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		ticker := time.NewTicker(h.tick)
		defer ticker.Stop()
		ticks := ticker.C
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				if view.Status.Terminal() {
					ticks = nil
				}
				if !push(outboundMessage{Type: "attempt", Payload: view}) {
					return
				}
			case <-ticks:
				view, err := h.attempts.EnforceDeadline(ctx, attemptID, user)
				if err != nil {
					if !push(errorMessage(err)) {
						return
					}
					continue
				}
				// A timeout is published through the feed.
				if view.Status == domain.StatusInProgress && view.TimeLimit > 0 {
					if !push(outboundMessage{Type: "tick", Payload: tickPayload{RemainingSeconds: view.RemainingSeconds}}) {
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.handleInbound(r, attemptID, user, inbound); err != nil {
			if !push(errorMessage(err)) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleInbound applies one client message. Resulting views reach the client
// through the attempt feed.
func (h *Handler) handleInbound(r *http.Request, attemptID, user string, msg inboundMessage) error {
	ctx := r.Context()
	var req answersRequest
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return errBadRequest
		}
	}

	var err error
	switch msg.Type {
	case "answer":
		_, err = h.attempts.SubmitAnswers(ctx, attemptID, user, req.Answers)
	case "complete":
		_, err = h.attempts.Complete(ctx, attemptID, user, req.Answers)
	case "abandon":
		_, err = h.attempts.Abandon(ctx, attemptID, user)
	default:
		err = errUnsupportedMessage
	}
	return err
}

var errUnsupportedMessage = fmt.Errorf("%w: unsupported message type", errBadRequest)

func errorMessage(err error) outboundMessage {
	msg := err.Error()
	if statusFor(err) == http.StatusInternalServerError {
		slog.Error("live attempt action failed", "error", err)
		msg = "internal error"
	}
	return outboundMessage{Type: "error", Payload: errorResponse{Error: msg}}
}
