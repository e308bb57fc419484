package cassette

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Mode mirrors vcrpy's record modes.
type Mode string

const (
	ModeDisabled Mode = "disabled" // pass every request through
	ModeOnce     Mode = "once"     // replay if the cassette exists, otherwise record it
	ModeReplay   Mode = "replay"   // never touch the network
	ModeRecord   Mode = "record"   // always hit the network and overwrite
)

// ParseMode accepts the mode names above; "none" is an alias for replay.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDisabled:
		return ModeDisabled, nil
	case ModeOnce:
		return ModeOnce, nil
	case ModeReplay, "none":
		return ModeReplay, nil
	case ModeRecord, "all":
		return ModeRecord, nil
	}
	return "", fmt.Errorf("unknown cassette mode %q", s)
}

// Recorder serves one cassette file. Requests are matched on method and URI,
// in recorded order.
type Recorder struct {
	path      string
	mode      Mode
	logger    *slog.Logger
	mu        sync.Mutex
	cassette  *Cassette
	used      []bool
	replaying bool
}

// Open prepares a recorder for path in the given mode.
func Open(path string, mode Mode, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{path: path, mode: mode, logger: logger}

	switch mode {
	case ModeDisabled, ModeRecord:
		r.cassette = &Cassette{Version: 1}
	case ModeReplay:
		c, err := Load(path)
		if err != nil {
			return nil, err
		}
		r.cassette, r.replaying = c, true
	case ModeOnce:
		c, err := Load(path)
		switch {
		case err == nil:
			r.cassette, r.replaying = c, true
		case errors.Is(err, ErrCassetteNotFound):
			r.cassette = &Cassette{Version: 1}
		default:
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown cassette mode %q", mode)
	}
	r.used = make([]bool, len(r.cassette.Interactions))
	return r, nil
}

// Replaying reports whether responses come from disk.
func (r *Recorder) Replaying() bool { return r.replaying }

// Path is the cassette file location.
func (r *Recorder) Path() string { return r.path }

// Len is the number of interactions currently held.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cassette.Interactions)
}

func (r *Recorder) roundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if r.mode == ModeDisabled {
		return next.RoundTrip(req)
	}
	if r.replaying {
		return r.replay(req)
	}
	return r.record(req, next)
}

func (r *Recorder) replay(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	uri := req.URL.String()
	for i, in := range r.cassette.Interactions {
		if r.used[i] || !strings.EqualFold(in.Request.Method, req.Method) || in.Request.URI != uri {
			continue
		}
		r.used[i] = true
		body, err := DecodeBody(in.Response.Body.String)
		if err != nil {
			return nil, fmt.Errorf("cassette %s: %w", r.path, err)
		}
		header := in.Response.Headers.toHTTP()
		header.Del("Content-Encoding")
		header.Set("Content-Length", strconv.Itoa(len(body)))

		code := in.Response.Status.Code
		if code == 0 {
			code = http.StatusOK
		}
		r.logger.Debug("cassette.replay.hit", "path", r.path, "method", req.Method, "uri", uri, "index", i)
		return &http.Response{
			Status:        fmt.Sprintf("%d %s", code, in.Response.Status.Message),
			StatusCode:    code,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        header,
			Body:          io.NopCloser(bytes.NewReader(body)),
			ContentLength: int64(len(body)),
			Request:       req,
		}, nil
	}
	r.logger.Warn("cassette.replay.miss", "path", r.path, "method", req.Method, "uri", uri)
	return nil, fmt.Errorf("%w: %s %s in %s", ErrInteractionNotFound, req.Method, uri, r.path)
}

func (r *Recorder) record(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	var reqBody []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		reqBody = b
		req.Body = io.NopCloser(bytes.NewReader(b))
	}

	resp, err := next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	msg := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	in := Interaction{
		Request: Request{
			Body:    string(reqBody),
			Headers: fromHTTP(req.Header),
			Method:  req.Method,
			URI:     req.URL.String(),
		},
		Response: Response{
			Body:    Body{String: string(respBody)},
			Headers: fromHTTP(resp.Header),
			Status:  Status{Code: resp.StatusCode, Message: msg},
		},
	}

	r.mu.Lock()
	r.cassette.Interactions = append(r.cassette.Interactions, in)
	r.used = append(r.used, true)
	err = r.cassette.Save(r.path)
	r.mu.Unlock()
	if err != nil {
		r.logger.Error("cassette.record.save_failed", "path", r.path, "error", err)
		return nil, err
	}
	r.logger.Info("cassette.record.ok", "path", r.path, "method", req.Method, "uri", in.Request.URI, "status", resp.StatusCode)
	return resp, nil
}

type recorderKey struct{}

// WithRecorder routes requests made under ctx through rec.
func WithRecorder(ctx context.Context, rec *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, rec)
}

// RecorderFromContext returns the recorder attached to ctx, if any.
func RecorderFromContext(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(recorderKey{}).(*Recorder)
	return rec
}

// Transport sends each request through the Recorder found on its context,
// or straight to Next when there is none. One Transport can therefore serve
// a different cassette per input file.
type Transport struct {
	Next http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.Next
	if next == nil {
		next = http.DefaultTransport
	}
	if rec := RecorderFromContext(req.Context()); rec != nil {
		return rec.roundTrip(req, next)
	}
	return next.RoundTrip(req)
}
