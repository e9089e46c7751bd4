package grooming

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often expired rooms are reclaimed.
const DefaultSweepInterval = 12 * time.Hour

// Sweep removes every expired room together with its session and the users
// scoped to it. The expired ids are collected before anything is removed.
func (m *Manager) Sweep() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.reg.expiredIds(m.now())
	for _, id := range ids {
		m.reg.remove(id)
		m.dir.Purge(id)
		m.stats.Decr(metricActiveRooms)
		m.stats.Incr(metricSweptRooms)
	}

	m.log.Info().
		Strs("room_ids", ids).
		Int("remaining", len(m.reg.rooms)).
		Msg("rooms and users cleaned")
	return ids
}

// Sweeper periodically runs Manager.Sweep.
type Sweeper struct {
	m        *Manager
	log      zerolog.Logger
	interval time.Duration
	// onSweep is called with the ids removed by a sweep, if any.
	onSweep func(roomIds []string)
}

func NewSweeper(logger zerolog.Logger, m *Manager, interval time.Duration, onSweep func([]string)) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	return &Sweeper{
		m:        m,
		log:      logger,
		interval: interval,
		onSweep:  onSweep,
	}
}

// Run sweeps on every tick until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("starting room sweeper")
	for {
		select {
		case <-ticker.C:
			ids := s.m.Sweep()
			if len(ids) > 0 && s.onSweep != nil {
				s.onSweep(ids)
			}
		case <-ctx.Done():
			s.log.Info().Msg("room sweeper stopped")
			return
		}
	}
}
