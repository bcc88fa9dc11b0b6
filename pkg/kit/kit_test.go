package kit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestChainOrder(t *testing.T) {
	var calls []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				calls = append(calls, name)
				return next(ctx, req)
			}
		}
	}
	ep := Chain(mw("a"), mw("b"), mw("c"))(func(context.Context, any) (any, error) {
		calls = append(calls, "endpoint")
		return nil, nil
	})
	if _, err := ep(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(calls, ","); got != "a,b,c,endpoint" {
		t.Errorf("call order = %s, want a,b,c,endpoint", got)
	}
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	if GetTransport(ctx) != "http" {
		t.Errorf("default transport = %q, want http", GetTransport(ctx))
	}
	ctx = WithTransport(ctx, "mcp")
	if GetTransport(ctx) != "mcp" {
		t.Errorf("transport = %q, want mcp", GetTransport(ctx))
	}

	if id := GetRequestID(WithRequestID(ctx, "req-1")); id != "req-1" {
		t.Errorf("request id = %q, want req-1", id)
	}
	a := GetRequestID(WithRequestID(ctx, ""))
	b := GetRequestID(WithRequestID(ctx, ""))
	if a == "" || a == b {
		t.Errorf("generated ids %q and %q should be distinct and non-empty", a, b)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ok := Logging(logger, "echo")(func(_ context.Context, req any) (any, error) { return req, nil })
	if resp, err := ok(WithRequestID(context.Background(), "r1"), "x"); err != nil || resp != "x" {
		t.Fatalf("resp = %v, err = %v", resp, err)
	}
	if !strings.Contains(buf.String(), "endpoint served") || !strings.Contains(buf.String(), "request_id=r1") {
		t.Errorf("log = %q", buf.String())
	}

	buf.Reset()
	boom := errors.New("boom")
	failing := Logging(logger, "fail")(func(context.Context, any) (any, error) { return nil, boom })
	if _, err := failing(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "error=boom") {
		t.Errorf("log = %q", buf.String())
	}
}
