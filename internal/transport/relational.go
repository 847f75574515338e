package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"opsboard/internal/apperrors"
	"opsboard/internal/registry"
)

const (
	deviceChannel = "opsboard:devices"
	sensorChannel = "opsboard:sensors"
)

const relationalSchema = `
CREATE TABLE IF NOT EXISTS devices (
	id TEXT PRIMARY KEY,
	state BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS sensors (
	id TEXT PRIMARY KEY,
	state BOOLEAN NOT NULL DEFAULT FALSE,
	last_triggered TIMESTAMPTZ
);`

// RelationalTransport keeps device state in Postgres rows. Change
// notifications travel over a separate Redis pub/sub feed, mirroring the
// split between the relational store and its realtime service; each
// notification triggers a full table re-read, so subscribers always see
// a complete replacement snapshot. Writes are confirmed: local state
// changes only when the feed echoes the write.
type RelationalTransport struct {
	dsn       string
	redisAddr string

	mu   sync.Mutex
	pool *pgxpool.Pool
	rdb  *redis.Client
	up   bool
	drop func(err error)
}

// NewRelationalTransport creates a transport over the given Postgres DSN
// and Redis address.
func NewRelationalTransport(dsn, redisAddr string) *RelationalTransport {
	return &RelationalTransport{dsn: dsn, redisAddr: redisAddr}
}

func (t *RelationalTransport) Name() string                      { return "postgres" }
func (t *RelationalTransport) Confirmed() bool                   { return true }
func (t *RelationalTransport) SetDropHandler(fn func(err error)) { t.drop = fn }

func (t *RelationalTransport) Connect(ctx context.Context) error {
	if t.dsn == "" {
		return fmt.Errorf("%w: POSTGRES_DSN belum diatur", apperrors.ErrTransportUnavailable)
	}

	pool, err := pgxpool.New(ctx, t.dsn)
	if err != nil {
		return fmt.Errorf("%w: pool: %v", apperrors.ErrTransportError, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: ping postgres: %v", apperrors.ErrTransportError, err)
	}
	if _, err := pool.Exec(ctx, relationalSchema); err != nil {
		pool.Close()
		return fmt.Errorf("%w: schema: %v", apperrors.ErrTransportError, err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: t.redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		rdb.Close()
		return fmt.Errorf("%w: ping redis: %v", apperrors.ErrTransportError, err)
	}

	t.mu.Lock()
	t.pool = pool
	t.rdb = rdb
	t.up = true
	t.mu.Unlock()
	return nil
}

func (t *RelationalTransport) Disconnect() error {
	t.mu.Lock()
	pool, rdb := t.pool, t.rdb
	t.pool, t.rdb = nil, nil
	t.up = false
	t.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	return nil
}

func (t *RelationalTransport) SubscribeDevices(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	return t.subscribe(deviceChannel, t.readDevices, onChange, onErr)
}

func (t *RelationalTransport) SubscribeSensors(onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	return t.subscribe(sensorChannel, t.readSensors, onChange, onErr)
}

// relationalSubscription cancels the feed goroutine and closes the
// Redis subscription.
type relationalSubscription struct {
	cancel context.CancelFunc
	sub    *redis.PubSub
}

func (s *relationalSubscription) Close() error {
	s.cancel()
	return s.sub.Close()
}

func (t *RelationalTransport) subscribe(channel string, read func(context.Context) (registry.Snapshot, error), onChange ChangeHandler, onErr ErrorHandler) (Subscription, error) {
	t.mu.Lock()
	rdb := t.rdb
	t.mu.Unlock()
	if rdb == nil {
		return nil, apperrors.ErrTransportUnavailable
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		sub.Close()
		wrapped := fmt.Errorf("%w: subscribe %s: %v", apperrors.ErrTransportError, channel, err)
		if onErr != nil {
			onErr(wrapped)
		}
		return nil, wrapped
	}

	emit := func() {
		snap, err := read(ctx)
		if err != nil {
			if ctx.Err() == nil && onErr != nil {
				onErr(fmt.Errorf("%w: baca snapshot: %v", apperrors.ErrTransportError, err))
			}
			return
		}
		onChange(snap)
	}

	go func() {
		// Cold-start snapshot, then one re-read per feed message.
		emit()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return &relationalSubscription{cancel: cancel, sub: sub}, nil
}

// WriteState upserts the row and pokes the change feed.
func (t *RelationalTransport) WriteState(ctx context.Context, deviceID string, state bool) error {
	t.mu.Lock()
	pool, rdb := t.pool, t.rdb
	t.mu.Unlock()
	if pool == nil || rdb == nil {
		return apperrors.ErrTransportUnavailable
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO devices (id, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		deviceID, state, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert: %v", apperrors.ErrTransportError, err)
	}

	if err := rdb.Publish(ctx, deviceChannel, deviceID).Err(); err != nil {
		return fmt.Errorf("%w: publish feed: %v", apperrors.ErrTransportError, err)
	}
	return nil
}

func (t *RelationalTransport) readDevices(ctx context.Context) (registry.Snapshot, error) {
	t.mu.Lock()
	pool := t.pool
	t.mu.Unlock()
	if pool == nil {
		return nil, apperrors.ErrTransportUnavailable
	}

	rows, err := pool.Query(ctx, "SELECT id, state FROM devices")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := registry.Snapshot{}
	for rows.Next() {
		var id string
		var state bool
		if err := rows.Scan(&id, &state); err != nil {
			return nil, err
		}
		snap[id] = registry.RemoteState{State: state}
	}
	return snap, rows.Err()
}

func (t *RelationalTransport) readSensors(ctx context.Context) (registry.Snapshot, error) {
	t.mu.Lock()
	pool := t.pool
	t.mu.Unlock()
	if pool == nil {
		return nil, apperrors.ErrTransportUnavailable
	}

	rows, err := pool.Query(ctx, "SELECT id, state, last_triggered FROM sensors")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := registry.Snapshot{}
	for rows.Next() {
		var id string
		var state bool
		var lastTriggered *time.Time
		if err := rows.Scan(&id, &state, &lastTriggered); err != nil {
			return nil, err
		}
		snap[id] = registry.RemoteState{State: state, LastTriggered: lastTriggered}
	}
	return snap, rows.Err()
}
