package share

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"citechat/internal/models"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, ttl, zap.NewNop()), mr
}

func sampleConversation() ([]models.Message, *models.ContextBundle) {
	msgs := []models.Message{
		{Role: models.RoleUser, Content: "read https://a.org/p"},
		{Role: models.RoleAssistant, Content: "done [a.org/p]", ContextFromURLs: &models.ContextBundle{
			Content:   "\nContent from [a.org/p]:\npage text\n",
			Citations: map[string]string{"a.org/p": "https://a.org/p"},
		}},
	}
	return msgs, msgs[1].ContextFromURLs
}

func TestPutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, 0)
	msgs, bundle := sampleConversation()

	id, err := store.Put(context.Background(), msgs, bundle)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	conv, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, msgs, conv.Messages)
	assert.Equal(t, bundle, conv.ContextFromURLs)
	assert.False(t, conv.CreatedAt.IsZero())
}

func TestPutGeneratesDistinctIDs(t *testing.T) {
	store, _ := newTestStore(t, 0)
	msgs, bundle := sampleConversation()

	a, err := store.Put(context.Background(), msgs, bundle)
	require.NoError(t, err)
	b, err := store.Put(context.Background(), msgs, bundle)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGetUnknownIDIsNotFound(t *testing.T) {
	store, _ := newTestStore(t, 0)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTLExpiresConversation(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	msgs, bundle := sampleConversation()

	id, err := store.Put(context.Background(), msgs, bundle)
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStoreErrorIsWrapped(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, 0, zap.NewNop())

	mock.ExpectGet("conversation:abc").SetErr(errors.New("connection reset"))
	_, err := store.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "load conversation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCorruptBlobIsError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewStore(rdb, 0, zap.NewNop())

	mock.ExpectGet("conversation:abc").SetVal("{not json")
	_, err := store.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode conversation")
}
