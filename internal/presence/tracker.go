package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"social-service/internal/models"
	"social-service/internal/observability"
)

const (
	recordKeyPrefix = "presence:record:"
	aliveKeyPrefix  = "presence:alive:"
	onlineSetKey    = "presence:online"
	channelPrefix   = "presence:events:"
)

// Tracker maintains the best-effort "is this user active" signal. The
// durable record lives in a redis hash; a separate liveness key with a TTL
// stands in for a server-side disconnect hook: when a client vanishes
// without saying goodbye, the key expires and the reaper flips the record
// offline with no client code running.
type Tracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTracker constructs a Tracker. ttl is the liveness window a heartbeat
// must refresh; it bounds the staleness of an ungraceful disconnect.
func NewTracker(rdb *redis.Client, ttl time.Duration) *Tracker {
	return &Tracker{rdb: rdb, ttl: ttl}
}

// GoOnline overwrites the user's record as online and arms the liveness key.
func (t *Tracker) GoOnline(ctx context.Context, userID, location string) error {
	record := models.Presence{Online: true, LastSeen: time.Now().UnixMilli(), Location: location}

	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, recordKeyPrefix+userID, fieldsFromRecord(record))
	pipe.Set(ctx, aliveKeyPrefix+userID, "1", t.ttl)
	added := pipe.SAdd(ctx, onlineSetKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	// Gauge follows set membership so repeated calls don't drift it.
	if added.Val() > 0 {
		observability.IncPresenceOnline()
	}
	return t.publish(ctx, userID, record)
}

// Heartbeat refreshes the liveness key and last-seen without publishing.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) error {
	pipe := t.rdb.TxPipeline()
	pipe.Expire(ctx, aliveKeyPrefix+userID, t.ttl)
	pipe.HSet(ctx, recordKeyPrefix+userID, fieldLastSeen, time.Now().UnixMilli())
	_, err := pipe.Exec(ctx)
	return err
}

// GoOffline flips the record offline and disarms the liveness key.
func (t *Tracker) GoOffline(ctx context.Context, userID string) error {
	record, err := t.Get(ctx, userID)
	if err != nil {
		return err
	}
	record.Online = false
	record.LastSeen = time.Now().UnixMilli()

	pipe := t.rdb.TxPipeline()
	pipe.HSet(ctx, recordKeyPrefix+userID, fieldsFromRecord(record))
	pipe.Del(ctx, aliveKeyPrefix+userID)
	removed := pipe.SRem(ctx, onlineSetKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if removed.Val() > 0 {
		observability.DecPresenceOnline()
	}
	return t.publish(ctx, userID, record)
}

// Get reads the user's record. A user that never connected reads as
// offline with no last-seen. A record still marked online whose liveness
// key has expired reads as offline; the reaper repairs the stored copy.
func (t *Tracker) Get(ctx context.Context, userID string) (models.Presence, error) {
	fields, err := t.rdb.HGetAll(ctx, recordKeyPrefix+userID).Result()
	if err != nil {
		return models.Presence{}, err
	}
	record := recordFromFields(fields)
	if record.Online {
		alive, err := t.rdb.Exists(ctx, aliveKeyPrefix+userID).Result()
		if err != nil {
			return models.Presence{}, err
		}
		if alive == 0 {
			record.Online = false
		}
	}
	return record, nil
}

// Subscribe registers onChange for the user's presence updates and returns
// an unsubscribe function. Updates for one subscription arrive in publish
// order; nothing is guaranteed across different subscriptions.
func (t *Tracker) Subscribe(ctx context.Context, userID string, onChange func(models.Presence)) (func(), error) {
	sub := t.rdb.Subscribe(ctx, channelPrefix+userID)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	go func() {
		for msg := range sub.Channel() {
			var record models.Presence
			if err := json.Unmarshal([]byte(msg.Payload), &record); err != nil {
				slog.Warn("presence: dropping malformed event", "user_id", userID, "err", err)
				continue
			}
			onChange(record)
		}
	}()

	return func() { _ = sub.Close() }, nil
}

// Sweep flips records whose liveness key expired. It returns how many
// users were moved offline.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	userIDs, err := t.rdb.SMembers(ctx, onlineSetKey).Result()
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, userID := range userIDs {
		alive, err := t.rdb.Exists(ctx, aliveKeyPrefix+userID).Result()
		if err != nil {
			return swept, err
		}
		if alive > 0 {
			continue
		}
		if err := t.GoOffline(ctx, userID); err != nil {
			return swept, err
		}
		observability.IncPresenceSweep()
		swept++
	}
	return swept, nil
}

// RunReaper sweeps on the given interval until ctx is cancelled. This is
// the disconnect-hook half of the tracker: it runs server-side so an
// abrupt client disconnect still flips the flag.
func (t *Tracker) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := t.Sweep(ctx)
			if err != nil {
				slog.Error("presence: sweep failed", "err", err)
				continue
			}
			if swept > 0 {
				slog.Info("presence: swept stale records", "count", swept)
			}
		}
	}
}

func (t *Tracker) publish(ctx context.Context, userID string, record models.Presence) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return t.rdb.Publish(ctx, channelPrefix+userID, payload).Err()
}
