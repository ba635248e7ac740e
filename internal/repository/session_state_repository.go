package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/class-series-api/internal/models"
)

const sessionKeyPrefix = "class-series:session:"

// SessionStateRepository keeps per-session detector state in Redis so it
// survives restarts and is shared across replicas. The notified ids live in
// a set and pending proposals in a list; both expire with the session.
type SessionStateRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStateRepository constructs the repository.
func NewSessionStateRepository(client *redis.Client, ttl time.Duration) *SessionStateRepository {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStateRepository{client: client, ttl: ttl}
}

func notifiedKey(sessionID string) string {
	return sessionKeyPrefix + sessionID + ":notified"
}

func proposalsKey(sessionID string) string {
	return sessionKeyPrefix + sessionID + ":proposals"
}

// Notified returns the series ids already proposed in the session.
func (r *SessionStateRepository) Notified(ctx context.Context, sessionID string) ([]string, error) {
	ids, err := r.client.SMembers(ctx, notifiedKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", sessionID, err)
	}
	return ids, nil
}

// MarkNotified adds seriesID to the session set. SADD reports whether the
// member was new, which makes the check and the write a single step.
func (r *SessionStateRepository) MarkNotified(ctx context.Context, sessionID, seriesID string) (bool, error) {
	key := notifiedKey(sessionID)
	var added *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, key, seriesID)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis sadd %s: %w", sessionID, err)
	}
	return added.Val() == 1, nil
}

// pushIfNotified appends ARGV[2] to the proposals list only while ARGV[1]
// is a member of the notified set. Clear deletes that set.
var pushIfNotified = redis.NewScript(`
if redis.call("SISMEMBER", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("RPUSH", KEYS[2], ARGV[2])
redis.call("PEXPIRE", KEYS[2], ARGV[3])
return 1
`)

// PushProposal appends a proposal to the session's pending list unless the
// session was cleared after the proposal was detected.
func (r *SessionStateRepository) PushProposal(ctx context.Context, sessionID string, proposal models.ExtensionProposal) (bool, error) {
	payload, err := json.Marshal(proposal)
	if err != nil {
		return false, fmt.Errorf("marshal proposal: %w", err)
	}
	keys := []string{notifiedKey(sessionID), proposalsKey(sessionID)}
	stored, err := pushIfNotified.Run(ctx, r.client, keys, proposal.Series.ID, payload, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis rpush %s: %w", sessionID, err)
	}
	return stored == 1, nil
}

// Proposals lists the pending proposals in delivery order.
func (r *SessionStateRepository) Proposals(ctx context.Context, sessionID string) ([]models.ExtensionProposal, error) {
	raw, err := r.client.LRange(ctx, proposalsKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", sessionID, err)
	}
	out := make([]models.ExtensionProposal, 0, len(raw))
	for _, item := range raw {
		var p models.ExtensionProposal
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("unmarshal proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// Clear drops all state of the session.
func (r *SessionStateRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, notifiedKey(sessionID), proposalsKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", sessionID, err)
	}
	return nil
}
