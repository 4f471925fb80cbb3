package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/covidtrack/registry/internal/domain/patient/mocks"
	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (bool, bool, error) {
	return false, false, errors.New("connection refused")
}
func (brokenStore) Set(context.Context, string, bool, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenStore) Close() error { return nil }

func TestLookupCache_Names(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	upstream := mocks.NewMockNameRegistry(ctrl)
	upstream.EXPECT().NameExists(gomock.Any(), "Иван").Return(true, nil).Times(1)
	upstream.EXPECT().NameExists(gomock.Any(), "Ыван").Return(false, nil).Times(1)

	names := NewLookupCache(NewInMemoryAnswerStore(), time.Hour, nil).Names(upstream)

	for range 3 {
		found, err := names.NameExists(ctx, "Иван")
		require.NoError(t, err)
		assert.True(t, found)
	}
	for range 2 {
		found, err := names.NameExists(ctx, "Ыван")
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestLookupCache_Surnames(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	store := NewInMemoryAnswerStore()
	cache := NewLookupCache(store, time.Hour, nil)

	upstream := mocks.NewMockSurnameRegistry(ctrl)
	upstream.EXPECT().SurnameExists(gomock.Any(), "Иванов").Return(true, nil).Times(1)

	surnames := cache.Surnames(upstream)
	for range 2 {
		found, err := surnames.SurnameExists(ctx, "Иванов")
		require.NoError(t, err)
		assert.True(t, found)
	}

	// names and surnames do not share keys
	names := mocks.NewMockNameRegistry(ctrl)
	names.EXPECT().NameExists(gomock.Any(), "Иванов").Return(false, nil).Times(1)
	found, err := cache.Names(names).NameExists(ctx, "Иванов")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 2, store.Len())
}

func TestLookupCache_UpstreamErrorIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	upstream := mocks.NewMockNameRegistry(ctrl)
	gomock.InOrder(
		upstream.EXPECT().NameExists(gomock.Any(), "Иван").Return(false, errors.New("timeout")),
		upstream.EXPECT().NameExists(gomock.Any(), "Иван").Return(true, nil),
	)

	names := NewLookupCache(NewInMemoryAnswerStore(), time.Hour, nil).Names(upstream)

	_, err := names.NameExists(ctx, "Иван")
	require.Error(t, err)

	found, err := names.NameExists(ctx, "Иван")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestLookupCache_BrokenStoreFallsThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	core, recorded := observer.New(zapcore.WarnLevel)

	upstream := mocks.NewMockNameRegistry(ctrl)
	upstream.EXPECT().NameExists(gomock.Any(), "Иван").Return(true, nil).Times(2)

	names := NewLookupCache(brokenStore{}, time.Hour, zap.New(core)).Names(upstream)
	for range 2 {
		found, err := names.NameExists(context.Background(), "Иван")
		require.NoError(t, err)
		assert.True(t, found)
	}

	assert.Len(t, recorded.FilterMessage("lookup cache read failed").All(), 2)
	assert.Len(t, recorded.FilterMessage("lookup cache write failed").All(), 2)
}

func TestLookupCache_NilUpstream(t *testing.T) {
	cache := NewLookupCache(NewInMemoryAnswerStore(), time.Hour, nil)
	assert.Nil(t, cache.Names(nil))
	assert.Nil(t, cache.Surnames(nil))
}

func TestInMemoryAnswerStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryAnswerStore()
	now := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "name:Иван", true, time.Minute))

	exists, ok, err := store.Get(ctx, "name:Иван")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, exists)

	now = now.Add(time.Minute)
	_, ok, err = store.Get(ctx, "name:Иван")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestNewAnswerStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis uses memory", func(t *testing.T) {
		store, err := NewAnswerStore(ctx, config.RedisConfig{}, zap.NewNop(), false)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryAnswerStore{}, store)
	})

	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	t.Run("unreachable redis falls back", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		store, err := NewAnswerStore(ctx, unreachable, zap.New(core), true)
		require.NoError(t, err)
		assert.IsType(t, &InMemoryAnswerStore{}, store)
		assert.Len(t, recorded.All(), 1)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		_, err := NewAnswerStore(ctx, unreachable, zap.NewNop(), false)
		require.Error(t, err)
	})
}
