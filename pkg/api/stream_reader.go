package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

type streamReader struct {
	decoder  *json.Decoder
	respBody io.ReadCloser
	l        *zap.Logger
}

func newStreamReader(l *zap.Logger, respBody io.ReadCloser) *streamReader {
	return &streamReader{
		decoder:  json.NewDecoder(respBody),
		respBody: respBody,
		l:        l.With(zap.String("component", "stream_reader")),
	}
}

// Next returns io.EOF once the server ends the stream.
func (r *streamReader) Next() (*SampleEvent, error) {
	var event SampleEvent

	if err := r.decoder.Decode(&event); err != nil {
		if errors.Is(err, io.EOF) {
			r.l.Debug("streaming connection closed")
			return nil, io.EOF
		}

		r.l.Error("decode message failed", zap.Error(err))
		return nil, fmt.Errorf("decode message failed: %w", err)
	}

	return &event, nil
}

func (r *streamReader) Close() error {
	return r.respBody.Close()
}
