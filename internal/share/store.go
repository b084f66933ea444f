// Package share persists conversations as opaque JSON blobs in Redis so
// they can be retrieved by link. The core treats the store as a black box
// keyed by generated IDs.
package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"citechat/internal/metrics"
	"citechat/internal/models"
)

// ErrNotFound indicates no conversation is stored under the given ID.
var ErrNotFound = errors.New("shared conversation not found")

const keyPrefix = "conversation:"

// Conversation is the shared blob: the full message history plus the last
// turn's context bundle, stamped at creation.
type Conversation struct {
	Messages        []models.Message      `json:"messages"`
	ContextFromURLs *models.ContextBundle `json:"contextFromUrls,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

type Store struct {
	rdb    redis.UniversalClient
	ttl    time.Duration // zero means no expiry
	logger *zap.Logger
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{rdb: rdb, ttl: ttl, logger: logger}
}

// Put stores the conversation under a fresh ID and returns the ID.
func (s *Store) Put(ctx context.Context, messages []models.Message, bundle *models.ContextBundle) (string, error) {
	conv := Conversation{
		Messages:        messages,
		ContextFromURLs: bundle,
		CreatedAt:       time.Now().UTC(),
	}
	blob, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("marshal conversation: %w", err)
	}

	id := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+id, blob, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store conversation: %w", err)
	}

	metrics.SharesCreated.Inc()
	s.logger.Info("stored shared conversation",
		zap.String("share_id", id),
		zap.Int("messages", len(messages)),
	)
	return id, nil
}

// Get retrieves a shared conversation by ID.
func (s *Store) Get(ctx context.Context, id string) (*Conversation, error) {
	blob, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(blob, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	metrics.SharesFetched.Inc()
	return &conv, nil
}
