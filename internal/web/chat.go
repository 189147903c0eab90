package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming websocket message format.
type chatRequest struct {
	Type    string `json:"type"` // "message" or "key"
	Content string `json:"content"`
}

// chatResponse is the outgoing websocket message format.
type chatResponse struct {
	Type      string `json:"type"` // "response", "prompt" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// KeySaved confirms a stored credential.
const KeySaved = "API key saved."

// handleWebSocket runs one chat session per connection. The history lives
// as long as the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.factory == nil {
		http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
		return
	}
	opts := slices.Clone(s.chatOpts)
	if c := s.chatCourse(r.URL.Query().Get("course")); c != nil {
		a := c.Assistant
		opts = append(opts, chat.WithSystemPrompt(a.SystemPrompt), chat.WithGreeting(a.Greeting), chat.WithChips(a.Chips))
	}
	opts = append(opts, chat.WithLogger(s.logger))

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	svc := chat.New(s.kv, nil, s.factory, opts...)
	sid := svc.SessionID()

	greeting := svc.Transcript()[0].Text
	s.send(conn, chatResponse{Type: "response", SessionID: sid, Content: greeting})
	if !svc.HasCredential(ctx) {
		s.send(conn, chatResponse{Type: "prompt", SessionID: sid, Content: chat.NoKeyMessage})
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Printf("web: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.send(conn, chatResponse{Type: "error", SessionID: sid, Content: "invalid message format"})
			continue
		}
		if req.Content == "" {
			s.send(conn, chatResponse{Type: "error", SessionID: sid, Content: "content is required"})
			continue
		}

		switch req.Type {
		case "message":
			s.send(conn, reply(ctx, svc, req.Content))
		case "key":
			if err := svc.SaveKey(ctx, req.Content); err != nil {
				s.logger.Printf("web: save key: %v", err)
				s.send(conn, chatResponse{Type: "error", SessionID: sid, Content: "could not save the key"})
				continue
			}
			s.send(conn, chatResponse{Type: "response", SessionID: sid, Content: KeySaved})
		default:
			s.send(conn, chatResponse{Type: "error", SessionID: sid, Content: "unknown message type: " + req.Type})
		}
	}
}

// reply sends text and maps the outcome to a websocket message.
func reply(ctx context.Context, svc *chat.Service, text string) chatResponse {
	resp := chatResponse{SessionID: svc.SessionID()}
	err := svc.Send(ctx, text)
	switch {
	case errors.Is(err, chat.ErrNoCredential):
		resp.Type, resp.Content = "prompt", chat.NoKeyMessage
	case errors.Is(err, chat.ErrBusy):
		resp.Type, resp.Content = "error", "still answering the previous message"
	case err != nil:
		resp.Type, resp.Content = "error", chat.ConnectionError
	default:
		resp.Type, resp.Content = "response", lastBot(svc.Transcript())
	}
	return resp
}

func lastBot(entries []chat.Entry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == chat.RoleBot {
			return entries[i].Text
		}
	}
	return ""
}

func (s *Server) send(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		s.logger.Printf("web: websocket write: %v", err)
	}
}

// chatCourse picks the course whose assistant answers: the named one, or
// the first loaded course.
func (s *Server) chatCourse(id string) *course.Course {
	if c, ok := s.course(id); ok {
		return c
	}
	if len(s.courses) > 0 {
		return s.courses[0]
	}
	return nil
}
