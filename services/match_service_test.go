package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	archived []*matching.Result
	err      error
}

func (f *fakeArchiver) Archive(ctx context.Context, res *matching.Result, now time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.archived = append(f.archived, res)
	return "weekly-matches/" + res.Week.Format("2006-01-02") + ".json", nil
}

func (f *fakeArchiver) ReadURL(ctx context.Context, week time.Time) (string, error) {
	return "https://archive.test/" + week.Format("2006-01-02"), nil
}

type fakeNotifier struct {
	weeks   []time.Time
	matches [][]models.WeeklyMatch
}

func (f *fakeNotifier) NotifyMatches(week time.Time, matches []models.WeeklyMatch) int {
	f.weeks = append(f.weeks, week)
	f.matches = append(f.matches, matches)
	return 4 * len(matches)
}

type serviceFixture struct {
	dynamo   *fakeDynamo
	archive  *fakeArchiver
	notifier *fakeNotifier
	service  *MatchService
}

// newServiceFixture wires the service to one in-memory DynamoDB holding two
// opposite duos without surveys, so their pair scores the neutral 50.
func newServiceFixture(t *testing.T) *serviceFixture {
	f := newFakeDynamo()
	seedProfiles(t, f,
		profile("u1", "u2", "male"),
		profile("u2", "u1", "male"),
		profile("u3", "u4", "female"),
		profile("u4", "u3", "female"),
	)

	now := time.Date(2025, 3, 4, 21, 30, 0, 0, time.UTC)
	store := newMatchStore(f)
	engine := matching.NewEngine(newRepo(f), store, store)
	engine.MinScore = 40
	engine.Observer = LogObserver{Log: logger.NewNop()}
	engine.Now = func() time.Time { return now }
	n := 0
	engine.NewID = func() string {
		n++
		return fmt.Sprintf("match-%d", n)
	}

	fx := &serviceFixture{dynamo: f, archive: &fakeArchiver{}, notifier: &fakeNotifier{}}
	fx.service = &MatchService{
		Engine:   engine,
		Matches:  store,
		Profiles: &UserProfileService{Dynamo: &DynamoService{Client: f}, Table: models.UserProfilesTable},
		Archive:  fx.archive,
		Notifier: fx.notifier,
		Anchor:   time.Tuesday,
		Now:      func() time.Time { return now },
		Log:      logger.NewNop(),
	}
	return fx
}

func TestMatchServiceRun(t *testing.T) {
	fx := newServiceFixture(t)
	week := fx.service.CurrentWeek()
	assert.Equal(t, thisWeek, week)

	res, err := fx.service.Run(context.Background(), week, false)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeCreated, res.Outcome)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, [4]string{"u1", "u2", "u3", "u4"}, m.UserIDs())
	assert.Equal(t, 50, m.CompatibilityScore)
	assert.Equal(t, "2025-03-04T00:00:00.000Z", m.MatchWeek)
	assert.Equal(t, []string{"match-1"}, storedIDs(t, fx.dynamo, week))

	require.Len(t, fx.archive.archived, 1)
	require.Len(t, fx.notifier.matches, 1)
	assert.Equal(t, week, fx.notifier.weeks[0])

	_, err = fx.service.Run(context.Background(), week, false)
	assert.ErrorIs(t, err, matching.ErrWeekAlreadyMatched)
	assert.Len(t, fx.archive.archived, 1)
}

func TestMatchServiceRunSideEffectFailures(t *testing.T) {
	fx := newServiceFixture(t)
	fx.archive.err = errors.New("bucket missing")

	res, err := fx.service.Run(context.Background(), thisWeek, false)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Len(t, fx.notifier.matches, 1, "notification still sent")
}

func TestMatchServiceRunNoCandidates(t *testing.T) {
	fx := newServiceFixture(t)
	fx.dynamo.tables[models.UserProfilesTable] = nil

	res, err := fx.service.Run(context.Background(), thisWeek, false)
	require.NoError(t, err)
	assert.Equal(t, matching.OutcomeNoCandidates, res.Outcome)
	assert.Equal(t, matching.ReasonTooFewDuos, res.Reason)
	assert.Empty(t, fx.archive.archived)
	assert.Empty(t, fx.notifier.matches)
	assert.Empty(t, fx.dynamo.transactions)
}

func TestMatchServiceRunRepositoryFailure(t *testing.T) {
	fx := newServiceFixture(t)
	fx.dynamo.scanErr = errors.New("no route to host")

	_, err := fx.service.Run(context.Background(), thisWeek, false)
	assert.ErrorIs(t, err, matching.ErrRepository)
	assert.Empty(t, fx.dynamo.transactions)
}

func TestCurrentMatchRunsWhenWeekIsEmpty(t *testing.T) {
	fx := newServiceFixture(t)

	view, err := fx.service.CurrentMatch(context.Background(), "u3")
	require.NoError(t, err)
	assert.Equal(t, "match-1", view.MatchID)
	assert.Equal(t, "u3", view.YourDuo[0].UserID)
	assert.Equal(t, "u4", view.YourDuo[1].UserID)
	assert.Equal(t, "u1", view.MatchedDuo[0].UserID)
	assert.Equal(t, "male", view.MatchedDuo[0].Gender)
	require.Len(t, fx.dynamo.transactions, 1)

	view, err = fx.service.CurrentMatch(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "u1", view.YourDuo[0].UserID)
	assert.Equal(t, "u3", view.MatchedDuo[0].UserID)
	assert.Len(t, fx.dynamo.transactions, 1, "second request reads the stored week")
}

func TestCurrentMatchUnmatchedUser(t *testing.T) {
	fx := newServiceFixture(t)

	_, err := fx.service.CurrentMatch(context.Background(), "u9")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestMatchServiceHistory(t *testing.T) {
	fx := newServiceFixture(t)
	seedMatches(t, fx.dynamo,
		record(lastWeek, "old", 66, "u1", "u2", "u3", "u4"),
		record(thisWeek, "new", 81, "u1", "u2", "u3", "u4"),
	)

	views, err := fx.service.History(context.Background(), "u4")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "new", views[0].MatchID)
	assert.Equal(t, "old", views[1].MatchID)
	assert.Equal(t, "u4", views[0].YourDuo[1].UserID)
}

func TestMatchServiceStatus(t *testing.T) {
	fx := newServiceFixture(t)

	status, err := fx.service.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Status{
		CurrentWeek:   "2025-03-04T00:00:00.000Z",
		AnchorWeekday: "Tuesday",
		IsReleaseTime: true,
		NextRelease:   "2025-03-11T21:00:00.000Z",
		HasMatches:    false,
	}, status)

	fx.service.Now = func() time.Time { return time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC) }
	status, err = fx.service.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.IsReleaseTime)
	assert.Equal(t, "2025-03-11T21:00:00.000Z", status.NextRelease)
}

func TestMatchServiceAnalyze(t *testing.T) {
	fx := newServiceFixture(t)

	analysis, err := fx.service.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, analysis.Duos)
	assert.Equal(t, 1, analysis.Feasible)
	assert.Empty(t, fx.dynamo.transactions)
}

func TestMatchServiceArchiveURL(t *testing.T) {
	fx := newServiceFixture(t)

	url, err := fx.service.ArchiveURL(context.Background(), thisWeek)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.test/2025-03-04", url)

	fx.service.Archive = nil
	_, err = fx.service.ArchiveURL(context.Background(), thisWeek)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}
