package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// complete forwards a non-streaming request and shapes the reply.
func (s *Server) complete(w http.ResponseWriter, r *http.Request, d *domain.Decision, body []byte) {
	start := time.Now()
	out, err := s.Upstream.Complete(r.Context(), body)
	s.observeUpstream(false, start, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if s.mode == ModeCompact {
		text := gjson.GetBytes(out, "choices.0.message.content").String()
		if d.Advanced() {
			writeJSON(w, http.StatusOK, map[string]string{"content": text})
		} else {
			writeJSON(w, http.StatusOK, map[string]string{"error": text})
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// stream relays upstream chunks as server-sent events.
// Headers are sent with the first chunk so that an upstream that fails
// up front still gets a proper error status.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, d *domain.Decision, body []byte) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported")
		s.logger.Error("ChatCompletions: Streaming not supported")
		return
	}

	started := false
	begin := func() {
		if started {
			return
		}
		started = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
	}

	var writeErr error
	start := time.Now()
	err := s.Upstream.Stream(r.Context(), body, func(data []byte) error {
		begin()
		if _, werr := fmt.Fprintf(w, "data: %s\n\n", data); werr != nil {
			writeErr = werr
			return werr
		}
		flusher.Flush()
		return nil
	})

	switch {
	case err == nil:
		s.observeUpstream(true, start, nil)
		begin()
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	case writeErr != nil, r.Context().Err() != nil:
		s.observeUpstream(true, start, nil)
		s.logger.Debug("Stream client disconnected", "call_id", d.CallID)
	case !started:
		s.observeUpstream(true, start, err)
		s.fail(w, r, err)
	default:
		s.observeUpstream(true, start, err)
		s.logger.Error("Upstream stream broke", "call_id", d.CallID, "err", err)
		fmt.Fprintf(w, "data: %s\n\n", errorEvent(err))
		flusher.Flush()
	}
}

func errorEvent(err error) []byte {
	b, _ := sjson.SetBytes(nil, "error", err.Error())
	return b
}
