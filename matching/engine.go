package matching

import (
	"context"
	"errors"
	"time"

	"duomatch_server/models"

	"github.com/google/uuid"
)

// DuoSource loads the current snapshot of committed duos
type DuoSource interface {
	LoadActiveDuos(ctx context.Context) ([]models.Duo, error)
}

// HistorySource returns every match record with a week strictly before the given week
type HistorySource interface {
	PreviousMatches(ctx context.Context, before time.Time) ([]models.WeeklyMatch, error)
}

// MatchStore persists one week's records. ReplaceWeek must delete the week's existing
// records (when clearExisting is set) and insert the new ones as a single operation.
// It returns ErrWeekAlreadyMatched when another run wrote the week first.
type MatchStore interface {
	HasMatches(ctx context.Context, week time.Time) (bool, error)
	ReplaceWeek(ctx context.Context, week time.Time, records []models.WeeklyMatch, clearExisting bool) error
}

// Stage is a step of one run
type Stage string

const (
	StageIdle             Stage = "idle"
	StageLoading          Stage = "loading"
	StagePartitioning     Stage = "partitioning"
	StageFiltering        Stage = "filtering"
	StageScoring          Stage = "scoring"
	StageExcludingHistory Stage = "excluding_history"
	StageAssigning        Stage = "assigning"
	StagePersisting       Stage = "persisting"
	StageDone             Stage = "done"
)

// Outcome is how a successful run ended
type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeNoCandidates Outcome = "no_candidates"
)

// Why a run ended with no candidates
const (
	ReasonTooFewDuos            = "too_few_duos"
	ReasonEmptyGroup            = "empty_group"
	ReasonNoFeasiblePairs       = "no_feasible_pairs"
	ReasonNoPairsAboveThreshold = "no_pairs_above_threshold"
)

// Observer receives progress of a run. It must not influence the computation.
type Observer interface {
	StageStarted(stage Stage)
	DuoExcluded(duo models.Duo)
	PairScored(c Candidate)
	PairRepeated(c Candidate)
	MatchAccepted(c Candidate)
}

// Stats counts what each stage saw
type Stats struct {
	Duos           int `json:"duos"`
	GroupA         int `json:"groupA"`
	GroupB         int `json:"groupB"`
	Excluded       int `json:"excluded"`
	Pairs          int `json:"pairs"`
	Feasible       int `json:"feasible"`
	Repeats        int `json:"repeats"`
	BelowThreshold int `json:"belowThreshold"`
	Accepted       int `json:"accepted"`
}

// Result of one run. Matches is empty when Outcome is OutcomeNoCandidates.
type Result struct {
	Week       time.Time            `json:"week"`
	Outcome    Outcome              `json:"outcome"`
	Reason     string               `json:"reason,omitempty"`
	Stage      Stage                `json:"stage"`
	Replaced   bool                 `json:"replaced"` // earlier records of the week were deleted
	Matches    []models.WeeklyMatch `json:"matches"`
	Candidates []Candidate          `json:"-"`
	Stats      Stats                `json:"stats"`
}

// Engine runs the weekly duo matching over a storage snapshot
type Engine struct {
	Duos     DuoSource
	History  HistorySource
	Store    MatchStore
	MinScore int
	Observer Observer
	Now      func() time.Time
	NewID    func() string
}

// NewEngine wires an engine with the default threshold and clock
func NewEngine(duos DuoSource, history HistorySource, store MatchStore) *Engine {
	return &Engine{
		Duos:     duos,
		History:  history,
		Store:    store,
		MinScore: DefaultMinScore,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Run matches duos for the week starting at week. Without force, a week that already
// has records is refused with ErrWeekAlreadyMatched; with force, the old records are
// deleted in the same write as the new ones.
func (e *Engine) Run(ctx context.Context, week time.Time, force bool) (*Result, error) {
	obs := e.observer()
	res := &Result{Week: week.UTC(), Stage: StageIdle}

	res.Stage = StageLoading
	obs.StageStarted(StageLoading)
	existing, err := e.Store.HasMatches(ctx, week)
	if err != nil {
		return nil, asRepositoryError("check existing matches", err)
	}
	if existing && !force {
		return nil, ErrWeekAlreadyMatched
	}
	clearExisting := existing && force

	duos, err := e.Duos.LoadActiveDuos(ctx)
	if err != nil {
		return nil, asRepositoryError("load active duos", err)
	}
	res.Stats.Duos = len(duos)
	if len(duos) < 2 {
		return e.noCandidates(ctx, res, ReasonTooFewDuos, clearExisting)
	}

	res.Stage = StagePartitioning
	obs.StageStarted(StagePartitioning)
	groupA, groupB := Partition(duos)
	for _, duo := range duos {
		if ClassifyDuo(duo) == GroupNone {
			obs.DuoExcluded(duo)
		}
	}
	res.Stats.GroupA, res.Stats.GroupB = len(groupA), len(groupB)
	res.Stats.Excluded = len(duos) - len(groupA) - len(groupB)
	if len(groupA) == 0 || len(groupB) == 0 {
		return e.noCandidates(ctx, res, ReasonEmptyGroup, clearExisting)
	}

	res.Stage = StageFiltering
	obs.StageStarted(StageFiltering)
	candidates := FeasibleOnly(EvaluatePairs(groupA, groupB))
	res.Stats.Pairs = len(groupA) * len(groupB)
	res.Stats.Feasible = len(candidates)
	if len(candidates) == 0 {
		return e.noCandidates(ctx, res, ReasonNoFeasiblePairs, clearExisting)
	}

	res.Stage = StageScoring
	obs.StageStarted(StageScoring)
	ScoreCandidates(candidates)
	for _, c := range candidates {
		obs.PairScored(c)
	}

	res.Stage = StageExcludingHistory
	obs.StageStarted(StageExcludingHistory)
	previous, err := e.History.PreviousMatches(ctx, week)
	if err != nil {
		return nil, asRepositoryError("load previous matches", err)
	}
	res.Stats.Repeats = MarkRepeats(candidates, KeysFromRecords(previous))
	for _, c := range candidates {
		if c.PreviouslyMatched {
			obs.PairRepeated(c)
		}
	}
	res.Candidates = candidates

	res.Stage = StageAssigning
	obs.StageStarted(StageAssigning)
	accepted, below := Greedy(candidates, e.minScore())
	res.Stats.BelowThreshold = below
	res.Stats.Accepted = len(accepted)
	if len(accepted) == 0 {
		return e.noCandidates(ctx, res, ReasonNoPairsAboveThreshold, clearExisting)
	}

	now := e.now().UTC()
	for _, c := range accepted {
		obs.MatchAccepted(c)
		res.Matches = append(res.Matches, e.toRecord(c, week, now))
	}

	if err := e.persist(ctx, res, clearExisting); err != nil {
		return nil, err
	}
	res.Outcome = OutcomeCreated
	res.Stage = StageDone
	obs.StageStarted(StageDone)
	return res, nil
}

func (e *Engine) noCandidates(ctx context.Context, res *Result, reason string, clearExisting bool) (*Result, error) {
	res.Outcome = OutcomeNoCandidates
	res.Reason = reason
	res.Matches = nil
	if clearExisting {
		if err := e.persist(ctx, res, true); err != nil {
			return nil, err
		}
	}
	res.Stage = StageDone
	e.observer().StageStarted(StageDone)
	return res, nil
}

func (e *Engine) persist(ctx context.Context, res *Result, clearExisting bool) error {
	res.Stage = StagePersisting
	e.observer().StageStarted(StagePersisting)
	if err := e.Store.ReplaceWeek(ctx, res.Week, res.Matches, clearExisting); err != nil {
		if errors.Is(err, ErrWeekAlreadyMatched) {
			return err
		}
		var perr *PersistenceError
		if errors.As(err, &perr) {
			return perr
		}
		return &PersistenceError{Err: err}
	}
	res.Replaced = clearExisting
	return nil
}

func (e *Engine) toRecord(c Candidate, week, now time.Time) models.WeeklyMatch {
	a, b := c.A.IDs(), c.B.IDs()
	return models.WeeklyMatch{
		MatchWeek:          models.FormatMatchWeek(week),
		MatchID:            e.newID(),
		User1ID:            a[0],
		User2ID:            a[1],
		User3ID:            b[0],
		User4ID:            b[1],
		CompatibilityScore: c.Score.Value,
		MatchReasons:       append([]string(nil), c.Score.Reasons...),
		CreatedAt:          models.FormatMatchWeek(now),
	}
}

func (e *Engine) observer() Observer {
	if e.Observer == nil {
		return nopObserver{}
	}
	return e.Observer
}

func (e *Engine) minScore() int {
	if e.MinScore <= 0 {
		return DefaultMinScore
	}
	return e.MinScore
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) newID() string {
	if e.NewID == nil {
		return uuid.NewString()
	}
	return e.NewID()
}

func asRepositoryError(op string, err error) error {
	var rerr *RepositoryError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &RepositoryError{Op: op, Err: err}
}

type nopObserver struct{}

func (nopObserver) StageStarted(Stage)      {}
func (nopObserver) DuoExcluded(models.Duo)  {}
func (nopObserver) PairScored(Candidate)    {}
func (nopObserver) PairRepeated(Candidate)  {}
func (nopObserver) MatchAccepted(Candidate) {}
