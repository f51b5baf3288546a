// README: Dispatch bookkeeping backed by Redis.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MacTheAnon/joco-exec/internal/types"
)

const (
	dispatchedAtKeyPrefix = "dispatch:reservation:%s:dispatched_at"
	notifiedKeyPrefix     = "dispatch:reservation:%s:notified"
	// Reservations resolve well within a week of dispatch.
	keyTTL = 7 * 24 * time.Hour
)

// Store records which drivers were told about a reservation and when, so
// operators can audit fan-out after delivery failures.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func (s *Store) RecordDispatch(ctx context.Context, reservationID types.ID, driverIDs []types.ID) error {
	pipe := s.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(reservationID), time.Now().UTC().Format(time.RFC3339), keyTTL)
	if len(driverIDs) > 0 {
		members := make([]interface{}, len(driverIDs))
		for i, d := range driverIDs {
			members[i] = string(d)
		}
		pipe.SAdd(ctx, notifiedKey(reservationID), members...)
		pipe.Expire(ctx, notifiedKey(reservationID), keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// DispatchedAt returns when the reservation was first fanned out, and
// whether it has been dispatched at all.
func (s *Store) DispatchedAt(ctx context.Context, reservationID types.ID) (time.Time, bool, error) {
	val, err := s.redis.Get(ctx, dispatchedAtKey(reservationID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// NotifiedDrivers lists the drivers that received the fan-out for a reservation.
func (s *Store) NotifiedDrivers(ctx context.Context, reservationID types.ID) ([]types.ID, error) {
	members, err := s.redis.SMembers(ctx, notifiedKey(reservationID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

func dispatchedAtKey(id types.ID) string {
	return fmt.Sprintf(dispatchedAtKeyPrefix, string(id))
}

func notifiedKey(id types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(id))
}
