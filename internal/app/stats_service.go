package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/domain"
)

const (
	historyLimit     = 50
	leaderboardLimit = 50
	refreshTimeout   = 10 * time.Second
)

// AttemptReader queries persisted attempts.
type AttemptReader interface {
	// ListByUser returns newest attempts first; limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error)
	// ListSince returns attempts created at or after since; a zero since means all.
	ListSince(ctx context.Context, since time.Time) ([]domain.Attempt, error)
}

// StatsService derives history, per-user stats and leaderboards from recorded attempts.
type StatsService struct {
	attempts AttemptReader
	hub      *LeaderboardHub
	logger   logrus.FieldLogger
	now      func() time.Time
	// refresh holds at most one pending leaderboard refresh.
	refresh chan struct{}
}

func NewStatsService(attempts AttemptReader, hub *LeaderboardHub, logger logrus.FieldLogger) *StatsService {
	return NewStatsServiceWithClock(attempts, hub, logger, time.Now)
}

// NewStatsServiceWithClock is test-only for deterministic leaderboard windows.
func NewStatsServiceWithClock(attempts AttemptReader, hub *LeaderboardHub, logger logrus.FieldLogger, now func() time.Time) *StatsService {
	return &StatsService{attempts: attempts, hub: hub, logger: logger, now: now, refresh: make(chan struct{}, 1)}
}

func (s *StatsService) History(ctx context.Context, userID string) ([]domain.AttemptSummary, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.AttemptSummary, len(attempts))
	for i, a := range attempts {
		out[i] = domain.AttemptSummary{
			ID:                a.ID,
			Score:             a.Score,
			Percentage:        a.Percentage,
			CategoryBreakdown: a.CategoryBreakdown,
			Date:              a.CreatedAt,
		}
	}
	return out, nil
}

func (s *StatsService) Stats(ctx context.Context, userID string) (domain.UserStats, error) {
	attempts, err := s.attempts.ListByUser(ctx, userID, 0)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("list attempts: %w", err)
	}

	stats := domain.UserStats{
		TotalAttempts:    len(attempts),
		CategoryAccuracy: make(map[domain.Category]int, len(domain.Categories())),
	}
	totals := domain.NewCategoryBreakdown()
	sum := 0
	for i, a := range attempts {
		sum += a.Score
		if i == 0 || a.Score > stats.BestScore {
			stats.BestScore = a.Score
		}
		for c, cs := range a.CategoryBreakdown {
			if !c.Valid() {
				continue
			}
			t := totals[c]
			t.Correct += cs.Correct
			t.Total += cs.Total
			totals[c] = t
		}
	}
	if len(attempts) > 0 {
		stats.AverageScore = int(math.Round(float64(sum) / float64(len(attempts))))
	}
	for _, c := range domain.Categories() {
		t := totals[c]
		if t.Total > 0 {
			stats.CategoryAccuracy[c] = int(math.Round(float64(t.Correct) / float64(t.Total) * 100))
		} else {
			stats.CategoryAccuracy[c] = 0
		}
	}
	return stats, nil
}

// Leaderboard ranks each user's best attempt in the period. Ties go to the earlier attempt.
func (s *StatsService) Leaderboard(ctx context.Context, period domain.Period) (domain.Leaderboard, error) {
	now := s.now()
	attempts, err := s.attempts.ListSince(ctx, period.Since(now))
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list attempts: %w", err)
	}

	best := make(map[string]domain.Attempt)
	for _, a := range attempts {
		cur, ok := best[a.UserID]
		if !ok || a.Score > cur.Score || (a.Score == cur.Score && a.CreatedAt.Before(cur.CreatedAt)) {
			best[a.UserID] = a
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(best))
	for _, a := range best {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      a.UserID,
			DisplayName: a.DisplayName,
			Score:       a.Score,
			Percentage:  a.Percentage,
			Date:        a.CreatedAt,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].DisplayName != entries[j].DisplayName {
			return entries[i].DisplayName < entries[j].DisplayName
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > leaderboardLimit {
		entries = entries[:leaderboardLimit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Leaderboard{
		Period:     period,
		Entries:    entries,
		TotalUsers: len(entries),
		UpdatedAt:  now,
	}, nil
}

// Subscribe streams leaderboard snapshots for period, starting with the current one.
func (s *StatsService) Subscribe(ctx context.Context, period domain.Period) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Leaderboard(ctx, period)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.Subscribe(period, initial)
	return ch, cancel, nil
}

// AttemptRecorded schedules a refresh of every leaderboard with live subscribers.
// It never blocks the submission; Run performs the refresh.
func (s *StatsService) AttemptRecorded(context.Context, domain.Attempt) error {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
	return nil
}

// Run refreshes subscribed leaderboards until ctx is done. Attempts recorded while a
// refresh is running collapse into a single follow-up refresh.
func (s *StatsService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.refresh:
			s.broadcast(ctx)
		}
	}
}

func (s *StatsService) broadcast(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	for _, period := range s.hub.Periods() {
		lb, err := s.Leaderboard(ctx, period)
		if err != nil {
			s.logger.WithField("period", period).WithError(err).Warn("leaderboard refresh failed")
			continue
		}
		s.hub.Broadcast(lb)
		s.logger.WithFields(logrus.Fields{"period": period, "entries": len(lb.Entries)}).Debug("leaderboard broadcast")
	}
}
