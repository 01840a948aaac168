package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wifi-voucher/internal/domain/ports/adapter"
	"wifi-voucher/internal/infra/metrics"
	"wifi-voucher/internal/infra/redis"
	"wifi-voucher/internal/infra/worker"
	"wifi-voucher/internal/pool"

	"github.com/rs/zerolog"
)

// StatsSource reports per-pool counts. *pool.Store implements it.
type StatsSource interface {
	Stats() []pool.PoolStat
}

// Submitter queues background work. *worker.Pool implements it.
type Submitter interface {
	Submit(task worker.Task) error
}

// AlertGate suppresses repeated alerts for the same pool within a cooldown.
// The Redis locker implements it so several instances share one cooldown.
type AlertGate interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

type MonitorOptions struct {
	Interval  time.Duration
	Threshold int
	Cooldown  time.Duration
	// OnTick runs after each pass, e.g. to publish DB pool stats.
	OnTick func()
}

// PoolMonitor publishes credential pool gauges and warns the operator when a
// pool runs low.
type PoolMonitor struct {
	opts     MonitorOptions
	stats    StatsSource
	alerts   Submitter
	gate     AlertGate
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func NewPoolMonitor(opts MonitorOptions, stats StatsSource, alerts Submitter, gate AlertGate, notifier adapter.Notifier, logger *zerolog.Logger) *PoolMonitor {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = time.Hour
	}
	if gate == nil {
		gate = NewLocalGate()
	}
	l := logger.With().Str("component", "PoolMonitor").Logger()
	return &PoolMonitor{opts: opts, stats: stats, alerts: alerts, gate: gate, notifier: notifier, log: &l}
}

func (m *PoolMonitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.opts.Interval).Int("threshold", m.opts.Threshold).Msg("Starting pool monitor")
	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("Stopping pool monitor")
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check runs one pass and returns how many alerts were queued.
func (m *PoolMonitor) Check(ctx context.Context) int {
	stats := m.stats.Stats()
	metrics.ResetPoolSize()
	queued := 0
	for _, s := range stats {
		metrics.SetPoolSize(s.LocationID, string(s.PlanType), s.Available, s.Used)
		if m.notifier == nil || s.Available > m.opts.Threshold {
			continue
		}
		if m.queueAlert(ctx, s) {
			queued++
		}
	}
	if m.opts.OnTick != nil {
		m.opts.OnTick()
	}
	return queued
}

func (m *PoolMonitor) queueAlert(ctx context.Context, s pool.PoolStat) bool {
	key := fmt.Sprintf("lowstock:%s:%s", s.LocationID, s.PlanType)
	token, err := m.gate.TryLock(ctx, key, m.opts.Cooldown)
	if err != nil {
		if !isLocked(err) {
			m.log.Warn().Err(err).Str("pool", key).Msg("alert gate unavailable")
		}
		return false
	}

	text := fmt.Sprintf("Low stock: location %s, plan %s has %d credentials left (%d used).",
		s.LocationID, s.PlanType, s.Available, s.Used)
	task := func(taskCtx context.Context) error {
		if err := m.notifier.NotifyAdmin(taskCtx, text); err != nil {
			// reopen the gate so the next tick retries
			_ = m.gate.Unlock(context.WithoutCancel(taskCtx), key, token)
			return fmt.Errorf("low stock alert %s: %w", key, err)
		}
		m.log.Info().Str("pool", key).Int("available", s.Available).Msg("low stock alert sent")
		return nil
	}
	if err := m.alerts.Submit(task); err != nil {
		_ = m.gate.Unlock(ctx, key, token)
		m.log.Warn().Err(err).Str("pool", key).Msg("could not queue low stock alert")
		return false
	}
	return true
}

func isLocked(err error) bool {
	return errors.Is(err, ErrGateClosed) || errors.Is(err, redis.ErrLocked)
}

// ErrGateClosed is returned by LocalGate while a key is cooling down.
var ErrGateClosed = errors.New("alert gate closed")

// LocalGate is an in-process AlertGate for single instance deployments.
type LocalGate struct {
	mu    sync.Mutex
	until map[string]gateEntry
	now   func() time.Time
	seq   int
}

type gateEntry struct {
	token string
	until time.Time
}

func NewLocalGate() *LocalGate {
	return &LocalGate{until: make(map[string]gateEntry), now: time.Now}
}

func (g *LocalGate) TryLock(_ context.Context, key string, ttl time.Duration) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if e, ok := g.until[key]; ok && now.Before(e.until) {
		return "", ErrGateClosed
	}
	g.seq++
	token := fmt.Sprintf("%d", g.seq)
	g.until[key] = gateEntry{token: token, until: now.Add(ttl)}
	return token, nil
}

func (g *LocalGate) Unlock(_ context.Context, key, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.until[key]; ok && e.token == token {
		delete(g.until, key)
	}
	return nil
}
