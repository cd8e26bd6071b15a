package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	ErrLockNotAcquired = errors.New("doctor booking lock not acquired")
)

// BusyError reports a doctor lock held by another booking.
type BusyError struct {
	DoctorID uuid.UUID
	Key      string
	// Remaining is the holder's TTL left when we gave up, zero if unknown.
	Remaining time.Duration
}

func (e *BusyError) Error() string {
	if e.Remaining > 0 {
		return fmt.Sprintf("doctor %s is being booked (%s held for another %s)", e.DoctorID, e.Key, e.Remaining)
	}
	return fmt.Sprintf("doctor %s is being booked (%s held)", e.DoctorID, e.Key)
}

func (e *BusyError) Is(target error) bool {
	return target == ErrLockNotAcquired
}

// Locker serialises the conflict check and the write for one doctor.
type Locker interface {
	WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error
}

// LockOptions tunes the redis doctor lock.
type LockOptions struct {
	// TTL bounds how long one booking may hold a doctor.
	TTL time.Duration
	// Wait is how long a booking retries a held doctor before giving up.
	Wait time.Duration
}

const retryStep = 25 * time.Millisecond

type redisDoctorLocker struct {
	client *redis.Client
	opts   LockOptions
}

// NewRedisDoctorLocker creates a locker keyed by doctor id.
func NewRedisDoctorLocker(client *redis.Client, opts LockOptions) Locker {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Second
	}
	return &redisDoctorLocker{client: client, opts: opts}
}

func lockKey(doctorID uuid.UUID) string {
	return "lock:doctor:" + doctorID.String()
}

func (l *redisDoctorLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lockKey(doctorID)
	token := uuid.NewString()

	ok, err := acquireWithin(ctx, l.opts.Wait, func() (bool, error) {
		return l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
	})
	if err != nil {
		return fmt.Errorf("acquire doctor lock %s: %w", key, err)
	}
	if !ok {
		busy := &BusyError{DoctorID: doctorID, Key: key}
		if ttl, err := l.client.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
			busy.Remaining = ttl
		}
		return busy
	}

	defer func() {
		// release must run even if the request context is already done
		if err := l.release(context.WithoutCancel(ctx), key, token); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("doctor lock release failed, waiting for ttl")
		}
	}()

	held, cancel := context.WithTimeout(ctx, l.opts.TTL)
	defer cancel()

	return fn(held)
}

// acquireWithin calls try until it succeeds, fails, or wait has passed.
// A zero wait makes a single attempt.
func acquireWithin(ctx context.Context, wait time.Duration, try func() (bool, error)) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		ok, err := try()
		if err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}

		t := time.NewTimer(retryStep)
		select {
		case <-ctx.Done():
			t.Stop()
			return false, ctx.Err()
		case <-t.C:
		}
	}
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *redisDoctorLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release doctor lock %s: %w", key, err)
	}
	return nil
}

type noopLocker struct{}

// NewNoopLocker runs fn directly. The check-then-write race stays open.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) WithDoctorLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
