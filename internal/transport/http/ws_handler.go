package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/opentdb"
)

// WSHandler runs live quiz play over a websocket: the server owns the
// session state machine and its countdown, streaming question, tick,
// timeout, and finished events while the client drives navigation.
type WSHandler struct {
	quiz       *app.QuizService
	scores     *app.ScoreService
	upgrader   websocket.Upgrader
	newSession func() *app.Session
}

func NewWSHandler(quiz *app.QuizService, scores *app.ScoreService) *WSHandler {
	return &WSHandler{
		quiz:   quiz,
		scores: scores,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newSession: app.NewSession,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type savePayload struct {
	Username string `json:"username"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type loadedPayload struct {
	Total     int                     `json:"total"`
	Questions []domain.PublicQuestion `json:"questions"`
}

// ServePlay upgrades the request and runs one quiz attempt until the
// connection closes.
func (h *WSHandler) ServePlay(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.newSession()
	// The session's timer dies with the connection.
	defer session.Reset()

	if err := h.quiz.LoadSession(r.Context(), fetchRequest(r), session); err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	questions := session.Questions()
	public := make([]domain.PublicQuestion, len(questions))
	for i, q := range questions {
		public[i] = q.Public()
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: event.Type, Payload: event}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "loaded", Payload: loadedPayload{Total: len(public), Questions: public}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handleMessage(r, session, inbound); ok {
			select {
			case send <- msg:
			case <-writerDone:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleMessage applies one client command; the returned message, if any,
// is the direct reply (session events flow separately).
func (h *WSHandler) handleMessage(r *http.Request, session *app.Session, inbound inboundMessage) (outboundMessage[any], bool) {
	fail := func(err error) (outboundMessage[any], bool) {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}, true
	}

	switch inbound.Type {
	case "start":
		if err := session.Start(); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{}, false

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(errors.New("invalid answer payload"))
		}
		if err := session.SelectAnswer(payload.Answer); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{}, false

	case "next":
		if err := session.Advance(); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{}, false

	case "previous":
		if err := session.Retreat(); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{}, false

	case "finish":
		if err := session.Finish(); err != nil {
			return fail(err)
		}
		return outboundMessage[any]{}, false

	case "reset":
		session.Reset()
		return outboundMessage[any]{Type: "reset", Payload: struct{}{}}, true

	case "save":
		var payload savePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return fail(errors.New("invalid save payload"))
		}
		if session.State() != app.StateFinished {
			return fail(domain.ErrInvalidTransition)
		}
		score, total := session.Result()
		record, err := h.scores.Save(r.Context(), app.SaveScoreRequest{
			Username:       payload.Username,
			Score:          score,
			TotalQuestions: total,
		})
		if err != nil {
			return fail(err)
		}
		return outboundMessage[any]{Type: "saved", Payload: record}, true

	default:
		return fail(errors.New("unsupported message type"))
	}
}

func fetchRequest(r *http.Request) opentdb.Request {
	q := r.URL.Query()
	req := opentdb.Request{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Type:       q.Get("type"),
	}
	if amount, err := strconv.Atoi(q.Get("amount")); err == nil {
		req.Amount = amount
	}
	return req
}
