package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sendit/messenger/internal/model"
)

// ChallengeRepository stores at most one pending OTP challenge per email.
type ChallengeRepository interface {
	// Save replaces any existing challenge for the email and resets its
	// failed-attempt counter.
	Save(ctx context.Context, challenge *model.Challenge) error
	Get(ctx context.Context, email string) (*model.Challenge, error)
	// Consume deletes the challenge only if it is still the one passed in.
	// It returns false if the challenge was replaced or already consumed.
	Consume(ctx context.Context, challenge *model.Challenge) (bool, error)
	Delete(ctx context.Context, email string) error
	// RecordFailure counts a failed verification. Once maxAttempts is reached
	// the challenge is discarded and discarded is true. Without a live
	// challenge nothing is counted and attempts is 0.
	RecordFailure(ctx context.Context, email string, maxAttempts int) (attempts int, discarded bool, err error)
}

var consumeScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	redis.call('DEL', KEYS[1], KEYS[2])
	return 1
end
return 0
`)

var failureScript = redis.NewScript(`
local ttl = redis.call('PTTL', KEYS[1])
if ttl <= 0 then
	redis.call('DEL', KEYS[2])
	return 0
end
local n = redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ttl)
if n >= tonumber(ARGV[1]) then
	redis.call('DEL', KEYS[1], KEYS[2])
	return -n
end
return n
`)

type challengeRepository struct {
	rdb *redis.Client
}

func NewChallengeRepository(rdb *redis.Client) ChallengeRepository {
	return &challengeRepository{rdb: rdb}
}

func (r *challengeRepository) challengeKey(email string) string {
	return fmt.Sprintf("otp:challenge:%s", email)
}

func (r *challengeRepository) attemptsKey(email string) string {
	return fmt.Sprintf("otp:attempts:%s", email)
}

func encodeChallenge(challenge *model.Challenge) ([]byte, error) {
	normalized := *challenge
	normalized.IssuedAt = normalized.IssuedAt.UTC()
	normalized.ExpiresAt = normalized.ExpiresAt.UTC()
	return json.Marshal(normalized)
}

func (r *challengeRepository) Save(ctx context.Context, challenge *model.Challenge) error {
	if challenge.Email == "" {
		return fmt.Errorf("challenge email cannot be empty")
	}

	ttl := challenge.ExpiresAt.Sub(challenge.IssuedAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge expires before it is issued")
	}

	data, err := encodeChallenge(challenge)
	if err != nil {
		return fmt.Errorf("failed to marshal challenge: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.challengeKey(challenge.Email), data, ttl)
		pipe.Del(ctx, r.attemptsKey(challenge.Email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save challenge to redis: %w", err)
	}

	return nil
}

func (r *challengeRepository) Get(ctx context.Context, email string) (*model.Challenge, error) {
	value, err := r.rdb.Get(ctx, r.challengeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge from redis: %w", err)
	}

	var challenge model.Challenge
	if err := json.Unmarshal(value, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	return &challenge, nil
}

func (r *challengeRepository) Consume(ctx context.Context, challenge *model.Challenge) (bool, error) {
	data, err := encodeChallenge(challenge)
	if err != nil {
		return false, fmt.Errorf("failed to marshal challenge: %w", err)
	}

	keys := []string{r.challengeKey(challenge.Email), r.attemptsKey(challenge.Email)}
	deleted, err := consumeScript.Run(ctx, r.rdb, keys, string(data)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume challenge: %w", err)
	}

	return deleted == 1, nil
}

func (r *challengeRepository) Delete(ctx context.Context, email string) error {
	if err := r.rdb.Del(ctx, r.challengeKey(email), r.attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) RecordFailure(ctx context.Context, email string, maxAttempts int) (int, bool, error) {
	keys := []string{r.challengeKey(email), r.attemptsKey(email)}
	n, err := failureScript.Run(ctx, r.rdb, keys, maxAttempts).Int()
	if err != nil {
		return 0, false, fmt.Errorf("failed to record otp failure: %w", err)
	}

	if n < 0 {
		return -n, true, nil
	}
	return n, false, nil
}
