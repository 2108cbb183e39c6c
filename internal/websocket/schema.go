package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError       Event = "error"
	EventPong        Event = "pong"
	EventNewResponse Event = "new_response"
)

// NewResponseEvent notifies a listening operator that a submission landed
// on one of their forms. The full answers stay behind the REST API; the
// stream only carries enough to update a live counter or feed.
type NewResponseEvent struct {
	Event       Event     `json:"event"`
	FormID      int64     `json:"form_id"`
	ResponseID  int64     `json:"response_id"`
	Respondent  string    `json:"respondent"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
