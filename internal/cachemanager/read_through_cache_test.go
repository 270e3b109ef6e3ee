package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/aftershock/internal/mocks"
)

type query struct {
	ID string
}

func load(calls *int) func(context.Context, query) ([]sequence, error) {
	return func(_ context.Context, q query) ([]sequence, error) {
		*calls++
		return []sequence{{ID: q.ID}}, nil
	}
}

func TestReadThroughCache_SkipBypassesCache(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []sequence](t)
	calls := 0
	rt := NewReadThroughCache[string, []sequence, query](managerMock, load(&calls), true)

	got, err := rt.Get(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []sequence{{ID: "us1"}}, got)

	_, err = rt.GetWithRefresh(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestReadThroughCache_Hit(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []sequence](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]sequence{{ID: "cached"}}, true)
	calls := 0
	rt := NewReadThroughCache[string, []sequence, query](managerMock, load(&calls), false)

	got, err := rt.Get(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []sequence{{ID: "cached"}}, got)
	require.Zero(t, calls)
}

func TestReadThroughCache_MissLoadsAndStores(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []sequence](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]sequence{}, false)
	managerMock.EXPECT().Set(mock.Anything, "key", []sequence{{ID: "us1"}}, time.Minute).Return()
	calls := 0
	rt := NewReadThroughCache[string, []sequence, query](managerMock, load(&calls), false)

	got, err := rt.Get(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []sequence{{ID: "us1"}}, got)
	require.Equal(t, 1, calls)
}

func TestReadThroughCache_LoadErrorNotStored(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []sequence](t)
	managerMock.EXPECT().Get(mock.Anything, "key").Return([]sequence{}, false)
	rt := NewReadThroughCache[string, []sequence, query](managerMock,
		func(context.Context, query) ([]sequence, error) { return nil, errors.New("fetch failed") },
		false,
	)

	_, err := rt.Get(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.EqualError(t, err, "fetch failed")
}

func TestReadThroughCache_GetWithRefresh(t *testing.T) {
	managerMock := mocks.NewMockCacheManager[string, []sequence](t)
	managerMock.EXPECT().GetWithRefresh(mock.Anything, "key", time.Minute).Return([]sequence{{ID: "cached"}}, true)
	calls := 0
	rt := NewReadThroughCache[string, []sequence, query](managerMock, load(&calls), false)

	got, err := rt.GetWithRefresh(context.Background(), "key", query{ID: "us1"}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []sequence{{ID: "cached"}}, got)
	require.Zero(t, calls)
}
