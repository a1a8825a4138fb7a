package monitor

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/flowactor/internal/ctxlog"
	"github.com/specialistvlad/flowactor/internal/engine"
	"github.com/specialistvlad/flowactor/internal/fault"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// EventActorFired carries one firing.
	EventActorFired = "actor_fired"
	// EventRunFinished carries one run summary.
	EventRunFinished = "run_finished"
)

// DialTimeout bounds how long Dial waits for the connection.
var DialTimeout = 15 * time.Second

// Options configure the connection of a Publisher.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Publisher streams engine events to a socket.io server.
type Publisher struct {
	emit  func(event string, payload map[string]any)
	close func()
}

var _ engine.Observer = (*Publisher)(nil)

// Dial connects to the monitoring server and returns a Publisher bound to the
// connection.
func Dial(ctx context.Context, o Options) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("monitor", "socketio", "url", o.URL)
	logger.Info("Connecting to monitor...")

	parsedURL, err := url.Parse(o.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(DialTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DialTimeout)
	}

	return &Publisher{
		emit: func(event string, payload map[string]any) {
			if !io.Connected() {
				logger.Warn("Monitor disconnected, dropping event.", "event", event)
				return
			}
			io.Emit(event, payload)
		},
		close: func() {
			logger.Info("Disconnecting from monitor", "sid", io.Id())
			io.Disconnect()
		},
	}, nil
}

func (p *Publisher) ActorFired(ctx context.Context, ev engine.Event) {
	p.emit(EventActorFired, firedPayload(ev))
}

func (p *Publisher) RunFinished(ctx context.Context, s engine.Summary) {
	p.emit(EventRunFinished, summaryPayload(s))
}

// Close disconnects from the server.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}

func firedPayload(ev engine.Event) map[string]any {
	payload := map[string]any{
		"run_id":    ev.RunID.String(),
		"actor":     ev.Name,
		"role":      ev.Role.String(),
		"context":   uint64(ev.Context),
		"worker_id": ev.WorkerID,
		"branch":    ev.Branch,
		"result":    ev.Result,
		"drained":   ev.Drained,
	}
	if ev.Call != nil {
		payload["call"] = string(ev.Call.Callee)
		payload["return_address"] = int(ev.Call.BranchID)
	}
	return payload
}

func summaryPayload(s engine.Summary) map[string]any {
	payload := map[string]any{
		"run_id":      s.RunID.String(),
		"context":     uint64(s.Context),
		"firings":     s.Firings,
		"drained":     s.Drained,
		"duration_ms": s.Duration.Milliseconds(),
		"ok":          s.Err == nil,
	}
	if s.Err != nil {
		payload["error"] = s.Err.Error()
		if kind, ok := fault.KindOf(s.Err); ok {
			payload["kind"] = kind.String()
		}
	}
	return payload
}
