package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient lets each call be scripted: block until the context dies, fail,
// or answer.
type fakeClient struct {
	block bool
	err   error
	infos []ComponentInfo
}

func (f *fakeClient) wait(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeClient) GetAllComponents(ctx context.Context) ([]ComponentInfo, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.infos, nil
}

func (f *fakeClient) GetComponentByID(ctx context.Context, id string) (*ComponentInfo, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	for i := range f.infos {
		if f.infos[i].ID == id {
			return &f.infos[i], nil
		}
	}
	return nil, nil
}

func (f *fakeClient) GetComponentCount(ctx context.Context) (int, error) {
	if err := f.wait(ctx); err != nil {
		return 0, err
	}
	return len(f.infos), nil
}

func (f *fakeClient) GetCircuitID(ctx context.Context) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	return "circuit-1", nil
}

func TestBoundedClientTimeout(t *testing.T) {
	c := NewBoundedClient(&fakeClient{block: true}, 20*time.Millisecond)

	_, err := c.GetAllComponents(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBoundedClientFailure(t *testing.T) {
	boom := errors.New("socket closed")
	c := NewBoundedClient(&fakeClient{err: boom}, time.Second)

	_, err := c.GetComponentCount(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFailure)
	assert.False(t, IsTimeout(err))
}

func TestBoundedClientPassesResultsThrough(t *testing.T) {
	infos := []ComponentInfo{
		{ID: "1", TypeName: "Root"},
		{ID: "2", TypeName: "Child", ParentID: "1"},
	}
	c := NewBoundedClient(&fakeClient{infos: infos}, time.Second)

	got, err := c.GetAllComponents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, infos, got)

	byID, err := c.GetComponentByID(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "Child", byID.TypeName)

	count, err := c.GetComponentCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	circuit, err := c.GetCircuitID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "circuit-1", circuit)
}

func TestNewBoundedClientDefaultsTimeout(t *testing.T) {
	c := NewBoundedClient(&fakeClient{}, 0)
	assert.Equal(t, DefaultTimeout, c.timeout)
}
