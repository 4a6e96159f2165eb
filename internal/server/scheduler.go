package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/minutelab/minuted/internal/search"
	"github.com/minutelab/minuted/internal/store"
)

// Scheduler periodically rebuilds the conversation search index so it
// converges after missed incremental updates. A Redis lock keeps
// multiple replicas from rebuilding at once.
type Scheduler struct {
	Store    *store.Store
	Index    *search.Index
	Rdb      *redis.Client
	CronSpec string
	Stop     chan struct{}
	Logger   *log.Logger

	lastRun time.Time
}

func (s *Scheduler) Start() {
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	if s.Index == nil || !s.due(time.Now()) {
		return
	}
	ctx := context.Background()

	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "minuted:sched:search-rebuild", "1", 10*time.Minute).Result()
		if !ok {
			s.lastRun = time.Now()
			return
		}
		defer s.Rdb.Del(ctx, "minuted:sched:search-rebuild")
	}

	count, err := s.Index.Rebuild(ctx, s.Store)
	if err != nil {
		s.Logger.Printf("search rebuild failed: %v", err)
		return
	}
	s.lastRun = time.Now()
	s.Logger.Printf("search rebuild indexed %d conversation blocks", count)
}

// due reports whether the cron spec has a fire time between the last run
// and now. An unparseable spec falls back to daily.
func (s *Scheduler) due(now time.Time) bool {
	last := s.lastRun
	if last.IsZero() {
		last = now.Add(-time.Minute)
	}
	expr, err := cronexpr.Parse(s.CronSpec)
	if err != nil {
		return now.Sub(s.lastRun) >= 24*time.Hour
	}
	next := expr.Next(last)
	return !next.IsZero() && !next.After(now)
}
