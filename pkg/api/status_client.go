package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type StatusClient struct {
	l *zap.Logger
	c *resty.Client
}

func NewStatusClient(l *zap.Logger, endpoint string) *StatusClient {
	c := resty.New().
		SetHostURL(endpoint).
		SetTransport(&http.Transport{
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		})

	return &StatusClient{
		l: l.With(zap.String("component", "status_client")),
		c: c,
	}
}

func (c *StatusClient) Status(ctx context.Context) (*Status, error) {
	rsp, err := c.c.R().
		SetContext(ctx).
		SetResult(&Status{}).
		Get("/status")
	if err != nil {
		c.l.Error("status request failed", zap.Error(err))
		return nil, fmt.Errorf("status request failed: %w", err)
	}

	if rsp.IsError() {
		c.l.Error("unexpected status",
			zap.Int("status", rsp.StatusCode()),
			zap.ByteString("body", rsp.Body()))
		return nil, fmt.Errorf("unexpected status: %d, Body: %s", rsp.StatusCode(), rsp.String())
	}

	return rsp.Result().(*Status), nil
}

// Watch calls fn for every streamed sample until fn returns false, the stream
// ends or ctx is done. A limit of zero streams until then.
func (c *StatusClient) Watch(ctx context.Context, limit uint64, fn func(*SampleEvent) bool) error {
	req := c.c.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.FormatUint(limit, 10))
	}

	rsp, err := req.Get("/watch")
	if err != nil {
		c.l.Error("watch request failed", zap.Error(err))
		return fmt.Errorf("watch request failed: %w", err)
	}

	reader := newStreamReader(c.l, rsp.RawBody())
	defer func() { _ = reader.Close() }()

	if rsp.StatusCode() != http.StatusOK {
		body, _ := io.ReadAll(rsp.RawBody())
		c.l.Error("unexpected status",
			zap.Int("status", rsp.StatusCode()),
			zap.ByteString("body", body))
		return fmt.Errorf("unexpected status: %d, Body: %s", rsp.StatusCode(), string(body))
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		if !fn(event) {
			return nil
		}
	}
}
