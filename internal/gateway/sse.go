package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *SSEWriter) Send(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, b)
	return s.rc.Flush()
}

// SendData writes a bare data frame, the framing OpenAI-compatible
// clients expect for chat completion chunks.
func (s *SSEWriter) SendData(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.w, "data: %s\n\n", b)
	return s.rc.Flush()
}

// SendDone terminates an OpenAI-compatible stream.
func (s *SSEWriter) SendDone() error {
	fmt.Fprint(s.w, "data: [DONE]\n\n")
	return s.rc.Flush()
}
