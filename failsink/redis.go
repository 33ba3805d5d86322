package failsink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	berr "github.com/next-trace/scg-user-event-relay/contract/errors"
	"github.com/next-trace/scg-user-event-relay/contract/event"
)

// DefaultRedisKey is the list failures are pushed to when no key is configured.
const DefaultRedisKey = "relay:failed-events"

// Redis pushes each failure as a JSON Record onto the tail of a list.
type Redis struct {
	client redis.Cmdable
	key    string
	now    func() time.Time
}

func NewRedis(client redis.Cmdable, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}

	return &Redis{client: client, key: key, now: time.Now}
}

func (s *Redis) Sink(ctx context.Context, msg event.Message, cause error) error {
	b, err := json.Marshal(newRecord(s.now(), msg, cause))
	if err != nil {
		return errors.Join(berr.ErrSerializationFailed, err)
	}

	if err := s.client.RPush(ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("redis sink rpush %s: %w", s.key, errors.Join(berr.ErrSinkFailed, err))
	}

	return nil
}
