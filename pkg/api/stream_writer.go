package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// streamWriter writes newline-delimited JSON and flushes after every message.
type streamWriter struct {
	rc *http.ResponseController
	w  http.ResponseWriter
	l  *zap.Logger

	sent uint64
}

func newStreamWriter(l *zap.Logger, w http.ResponseWriter) *streamWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")

	return &streamWriter{
		rc: http.NewResponseController(w),
		w:  w,
		l:  l.With(zap.String("component", "stream_writer")),
	}
}

func (s *streamWriter) Send(msg any) error {
	if err := json.NewEncoder(s.w).Encode(msg); err != nil {
		s.l.Error("failed to write message",
			zap.Error(err))
		return fmt.Errorf("write failed: %w", err)
	}

	if err := s.rc.Flush(); err != nil {
		s.l.Error("flush failed",
			zap.Error(err))
		return fmt.Errorf("flush failed: %w", err)
	}

	s.sent++
	return nil
}

func (s *streamWriter) Sent() uint64 {
	return s.sent
}
