package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/metrics"
	"duomatch_server/models"
)

// HistoryLimit is how many past matches the history view returns
const HistoryLimit = 10

var (
	ErrNoMatch         = errors.New("no match found for this user")
	ErrArchiveDisabled = errors.New("match archive is not enabled")
)

// MatchReader is the read side of the WeeklyMatches table
type MatchReader interface {
	HasMatches(ctx context.Context, week time.Time) (bool, error)
	MatchesForWeek(ctx context.Context, week time.Time) ([]models.WeeklyMatch, error)
	MatchesForUser(ctx context.Context, userID string, limit int) ([]models.WeeklyMatch, error)
}

type ProfileReader interface {
	GetUserProfiles(ctx context.Context, userIDs []string) (map[string]models.UserProfile, error)
}

type WeekArchiver interface {
	Archive(ctx context.Context, res *matching.Result, now time.Time) (string, error)
	ReadURL(ctx context.Context, week time.Time) (string, error)
}

type MatchNotifier interface {
	NotifyMatches(week time.Time, matches []models.WeeklyMatch) int
}

// MatchService runs the weekly matching and serves its results
type MatchService struct {
	Engine   *matching.Engine
	Matches  MatchReader
	Profiles ProfileReader
	Archive  WeekArchiver  // nil when archiving is off
	Notifier MatchNotifier // nil when no socket server is attached
	Anchor   time.Weekday
	Now      func() time.Time
	Log      *logger.Logger

	// runs for any week are serialized
	mu sync.Mutex
}

// Status describes the current cycle
type Status struct {
	CurrentWeek   string `json:"currentWeek"`
	AnchorWeekday string `json:"anchorWeekday"`
	IsReleaseTime bool   `json:"isReleaseTime"`
	NextRelease   string `json:"nextRelease"`
	HasMatches    bool   `json:"hasMatches"`
}

func (ms *MatchService) now() time.Time {
	if ms.Now == nil {
		return time.Now().UTC()
	}
	return ms.Now().UTC()
}

// CurrentWeek is the start of the cycle containing now
func (ms *MatchService) CurrentWeek() time.Time {
	return matching.WeekStart(ms.now(), ms.Anchor)
}

// Run executes one matching run for week. Archive and notification failures are
// logged and counted, never returned.
func (ms *MatchService) Run(ctx context.Context, week time.Time, force bool) (*matching.Result, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	log := ms.Log.With("week", models.FormatMatchWeek(week), "force", force)
	log.Info("Starting matching run")
	start := time.Now()

	res, err := ms.Engine.Run(ctx, week, force)
	elapsed := time.Since(start)
	switch {
	case errors.Is(err, matching.ErrWeekAlreadyMatched):
		metrics.RecordRunFailure("already_matched", elapsed)
		log.Warn("Matches already exist for this week; pass force to regenerate")
		return nil, err
	case err != nil:
		metrics.RecordRunFailure("error", elapsed)
		log.Error("Matching run failed", "error", err)
		return nil, err
	}

	metrics.RecordRun(string(res.Outcome), res.Reason, elapsed, metrics.RunCounts{
		Duos:     res.Stats.Duos,
		GroupA:   res.Stats.GroupA,
		GroupB:   res.Stats.GroupB,
		Feasible: res.Stats.Feasible,
		Repeats:  res.Stats.Repeats,
		Accepted: res.Stats.Accepted,
	})
	log.Info("Matching run finished",
		"outcome", res.Outcome, "reason", res.Reason, "matches", len(res.Matches),
		"replaced", res.Replaced, "elapsed", elapsed)

	ms.afterRun(ctx, log, res)
	return res, nil
}

func (ms *MatchService) afterRun(ctx context.Context, log *logger.Logger, res *matching.Result) {
	if ms.Archive != nil && (res.Outcome == matching.OutcomeCreated || res.Replaced) {
		key, err := ms.Archive.Archive(ctx, res, ms.now())
		if err != nil {
			metrics.RecordSideEffectFailure("archive")
			log.Warn("Failed to archive matches", "error", err)
		} else {
			log.Info("Archived matches", "key", key)
		}
	}
	if ms.Notifier != nil && len(res.Matches) > 0 {
		delivered := ms.Notifier.NotifyMatches(res.Week, res.Matches)
		log.Info("Notified matched users", "delivered", delivered, "matches", len(res.Matches))
	}
}

// CurrentMatch returns the user's match for the current week. When the week has no
// records at all, one non-forced run is attempted first.
func (ms *MatchService) CurrentMatch(ctx context.Context, userID string) (*models.MatchView, error) {
	week := ms.CurrentWeek()
	matches, err := ms.Matches.MatchesForWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to load current matches: %w", err)
	}

	if len(matches) == 0 {
		ms.Log.Info("No matches for the current week yet, running matching", "week", models.FormatMatchWeek(week))
		res, err := ms.Run(ctx, week, false)
		switch {
		case errors.Is(err, matching.ErrWeekAlreadyMatched):
			// a concurrent request ran it first
			if matches, err = ms.Matches.MatchesForWeek(ctx, week); err != nil {
				return nil, fmt.Errorf("failed to load current matches: %w", err)
			}
		case err != nil:
			return nil, err
		default:
			matches = res.Matches
		}
	}

	for _, m := range matches {
		if m.Includes(userID) {
			views, err := ms.views(ctx, []models.WeeklyMatch{m}, userID)
			if err != nil {
				return nil, err
			}
			return &views[0], nil
		}
	}
	return nil, ErrNoMatch
}

// History returns the user's latest matches, newest week first
func (ms *MatchService) History(ctx context.Context, userID string) ([]models.MatchView, error) {
	matches, err := ms.Matches.MatchesForUser(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return ms.views(ctx, matches, userID)
}

// WeekMatches returns every record of a week, best score first
func (ms *MatchService) WeekMatches(ctx context.Context, week time.Time) ([]models.WeeklyMatch, error) {
	return ms.Matches.MatchesForWeek(ctx, week)
}

// Analyze explains the hard filters over the current duo snapshot without writing anything
func (ms *MatchService) Analyze(ctx context.Context) (*matching.Analysis, error) {
	duos, err := ms.Engine.Duos.LoadActiveDuos(ctx)
	if err != nil {
		return nil, err
	}
	analysis := matching.Analyze(duos)
	return &analysis, nil
}

// Status reports the current cycle and whether it has been matched
func (ms *MatchService) Status(ctx context.Context) (*Status, error) {
	now := ms.now()
	week := matching.WeekStart(now, ms.Anchor)
	has, err := ms.Matches.HasMatches(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("failed to check current matches: %w", err)
	}

	release := week.Add(matching.ReleaseHour * time.Hour)
	if !now.Before(release) {
		release = release.AddDate(0, 0, 7)
	}
	return &Status{
		CurrentWeek:   models.FormatMatchWeek(week),
		AnchorWeekday: ms.Anchor.String(),
		IsReleaseTime: matching.IsReleaseTime(now, ms.Anchor),
		NextRelease:   models.FormatMatchWeek(release),
		HasMatches:    has,
	}, nil
}

// ArchiveURL returns a presigned download URL for a week's snapshot
func (ms *MatchService) ArchiveURL(ctx context.Context, week time.Time) (string, error) {
	if ms.Archive == nil {
		return "", ErrArchiveDisabled
	}
	return ms.Archive.ReadURL(ctx, week)
}

// views turns records into the user's perspective with profile summaries
func (ms *MatchService) views(ctx context.Context, matches []models.WeeklyMatch, userID string) ([]models.MatchView, error) {
	var ids []string
	for _, m := range matches {
		u := m.UserIDs()
		ids = append(ids, u[:]...)
	}
	profiles, err := ms.Profiles.GetUserProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load match profiles: %w", err)
	}

	summary := func(id string) models.ProfileSummary {
		if p, ok := profiles[id]; ok {
			return p.Summary()
		}
		return models.ProfileSummary{UserID: id}
	}

	views := make([]models.MatchView, 0, len(matches))
	for _, m := range matches {
		duoA := []models.ProfileSummary{summary(m.User1ID), summary(m.User2ID)}
		duoB := []models.ProfileSummary{summary(m.User3ID), summary(m.User4ID)}
		view := models.MatchView{
			MatchID:            m.MatchID,
			CompatibilityScore: m.CompatibilityScore,
			Reasons:            m.MatchReasons,
			YourDuo:            duoA,
			MatchedDuo:         duoB,
			MatchWeek:          m.MatchWeek,
		}
		if !m.InFirstDuo(userID) {
			view.YourDuo, view.MatchedDuo = duoB, duoA
		}
		views = append(views, view)
	}
	return views, nil
}
