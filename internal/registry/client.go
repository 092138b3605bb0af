package registry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ComponentInfo is the registry's authoritative record for one component.
type ComponentInfo struct {
	ID           string `json:"id"`
	TypeName     string `json:"type_name"`
	FullTypeName string `json:"full_type_name,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
}

// Client is the reflection registry's query surface. Every call is bounded
// by its context; implementations must return, never hang.
type Client interface {
	GetAllComponents(ctx context.Context) ([]ComponentInfo, error)
	GetComponentByID(ctx context.Context, id string) (*ComponentInfo, error)
	GetComponentCount(ctx context.Context) (int, error)
	GetCircuitID(ctx context.Context) (string, error)
}

var (
	// ErrTimeout marks a registry call that exceeded its deadline. The
	// call is abandoned; a recording session is never aborted by it.
	ErrTimeout = errors.New("registry call timed out")
	// ErrFailure marks a registry call that errored below the deadline.
	ErrFailure = errors.New("registry call failed")
)

// IsTimeout reports whether err is (or wraps) a registry timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// DefaultTimeout bounds registry calls when no other bound is configured.
const DefaultTimeout = 5 * time.Second

// BoundedClient decorates a Client with a per-call deadline and folds
// transport errors into the ErrTimeout/ErrFailure taxonomy.
type BoundedClient struct {
	inner   Client
	timeout time.Duration
}

// NewBoundedClient wraps inner. A non-positive timeout uses DefaultTimeout.
func NewBoundedClient(inner Client, timeout time.Duration) *BoundedClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &BoundedClient{inner: inner, timeout: timeout}
}

// GetAllComponents implements Client.
func (c *BoundedClient) GetAllComponents(ctx context.Context) ([]ComponentInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	infos, err := c.inner.GetAllComponents(ctx)
	return infos, classify(err)
}

// GetComponentByID implements Client.
func (c *BoundedClient) GetComponentByID(ctx context.Context, id string) (*ComponentInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	info, err := c.inner.GetComponentByID(ctx, id)
	return info, classify(err)
}

// GetComponentCount implements Client.
func (c *BoundedClient) GetComponentCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	count, err := c.inner.GetComponentCount(ctx)
	return count, classify(err)
}

// GetCircuitID implements Client.
func (c *BoundedClient) GetCircuitID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	id, err := c.inner.GetCircuitID(ctx)
	return id, classify(err)
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrFailure):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrFailure, err)
	}
}
