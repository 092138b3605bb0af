package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mzorec/renderscope/internal/domain"
	"github.com/mzorec/renderscope/internal/registry"
)

// Client is the websocket connection to an instrumented app. It fans
// structural signals out on a channel and serves registry queries over the
// same connection via request/response correlation.
//
// Registry calls are bounded by their context; wrap a Client in
// registry.NewBoundedClient to get the standard deadline and error taxonomy.
type Client struct {
	conn    *websocket.Conn
	log     *zap.SugaredLogger
	signals chan domain.Signal
	errs    chan error

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Frame
	closed  bool
	done    chan struct{}
}

// Dial connects to the app's signal endpoint and starts the read pump.
func Dial(ctx context.Context, url string, log *zap.SugaredLogger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:    conn,
		log:     log,
		signals: make(chan domain.Signal, 256),
		errs:    make(chan error, 8),
		pending: make(map[string]chan Frame),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Signals delivers structural frames (edges, events, disposals) in arrival
// order. The channel closes when the connection dies.
func (c *Client) Signals() <-chan domain.Signal {
	return c.signals
}

// Errors delivers non-fatal read problems (undecodable frames). Best-effort;
// dropped if the consumer is slow.
func (c *Client) Errors() <-chan error {
	return c.errs
}

// Close tears down the connection and fails all pending calls.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		for id, ch := range c.pending {
			close(ch)
			delete(c.pending, id)
		}
		c.mu.Unlock()
		close(c.signals)
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.reportErr(fmt.Errorf("read: %w", err))
			}
			return
		}
		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.reportErr(fmt.Errorf("undecodable frame: %w", err))
			continue
		}
		c.route(frame)
	}
}

func (c *Client) route(frame Frame) {
	switch frame.Type {
	case frameEdge:
		c.emit(domain.Signal{Edge: &domain.EdgeSignal{
			ChildID:  frame.ChildID,
			ParentID: frame.ParentID,
			TypeName: frame.TypeName,
		}})
	case frameEvent:
		if frame.Event != nil {
			c.emit(domain.Signal{Event: frame.Event})
		}
	case frameDispose:
		c.emit(domain.Signal{Dispose: &domain.DisposeSignal{ComponentID: frame.ComponentID}})
	case frameResponse:
		c.mu.Lock()
		ch, ok := c.pending[frame.RequestID]
		if ok {
			delete(c.pending, frame.RequestID)
		}
		c.mu.Unlock()
		if ok {
			ch <- frame
			close(ch)
		}
	default:
		c.reportErr(fmt.Errorf("unknown frame type %q", frame.Type))
	}
}

func (c *Client) emit(sig domain.Signal) {
	select {
	case c.signals <- sig:
	case <-c.done:
	}
}

func (c *Client) reportErr(err error) {
	if c.log != nil {
		c.log.Warnf("transport: %v", err)
	}
	select {
	case c.errs <- err:
	default:
	}
}

// call performs one request/response exchange. It honors ctx for the wait
// and cleans up its pending slot on timeout so a late response is dropped.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan Frame, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: connection closed", registry.ErrFailure)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	req := Frame{Type: frameRequest, RequestID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = raw
	}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}

	select {
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("%w: connection closed", registry.ErrFailure)
		}
		if resp.Error != "" {
			return nil, fmt.Errorf("%w: %s", registry.ErrFailure, resp.Error)
		}
		return resp.Result, nil
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// GetAllComponents implements registry.Client.
func (c *Client) GetAllComponents(ctx context.Context) ([]registry.ComponentInfo, error) {
	raw, err := c.call(ctx, methodGetAll, nil)
	if err != nil {
		return nil, err
	}
	var infos []registry.ComponentInfo
	if err := json.Unmarshal(raw, &infos); err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}
	return infos, nil
}

// GetComponentByID implements registry.Client.
func (c *Client) GetComponentByID(ctx context.Context, id string) (*registry.ComponentInfo, error) {
	raw, err := c.call(ctx, methodGetByID, map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var info registry.ComponentInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}
	return &info, nil
}

// GetComponentCount implements registry.Client.
func (c *Client) GetComponentCount(ctx context.Context) (int, error) {
	raw, err := c.call(ctx, methodGetCount, nil)
	if err != nil {
		return 0, err
	}
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}
	return count, nil
}

// GetCircuitID implements registry.Client.
func (c *Client) GetCircuitID(ctx context.Context) (string, error) {
	raw, err := c.call(ctx, methodGetCircuit, nil)
	if err != nil {
		return "", err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}
	return id, nil
}

// PollEvents fetches buffered events after the source-side cursor. Used by
// the engine's poll loop while a session is recording.
func (c *Client) PollEvents(ctx context.Context, cursor int64) ([]domain.Event, int64, error) {
	raw, err := c.call(ctx, methodEventsSince, map[string]int64{"cursor": cursor})
	if err != nil {
		return nil, cursor, err
	}
	var batch eventBatch
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, cursor, fmt.Errorf("%w: %v", registry.ErrFailure, err)
	}
	return batch.Events, batch.NextCursor, nil
}
