package services

import (
	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/models"
)

// LogObserver narrates a matching run through the service logger
type LogObserver struct {
	Log *logger.Logger
}

func (o LogObserver) StageStarted(stage matching.Stage) {
	o.Log.Debug("Matching stage", "stage", stage)
}

func (o LogObserver) DuoExcluded(duo models.Duo) {
	ids := duo.IDs()
	o.Log.Info("Duo left out of both groups",
		"user1", ids[0], "gender1", duo.First.Profile.Gender,
		"user2", ids[1], "gender2", duo.Second.Profile.Gender)
}

func (o LogObserver) PairScored(c matching.Candidate) {
	o.Log.Debug("Pair scored", "duoA", c.A.IDs(), "duoB", c.B.IDs(),
		"score", c.Score.Value, "breakdown", c.Score.Breakdown.String())
}

func (o LogObserver) PairRepeated(c matching.Candidate) {
	o.Log.Info("Skipping pair matched in an earlier week", "duoA", c.A.IDs(), "duoB", c.B.IDs())
}

func (o LogObserver) MatchAccepted(c matching.Candidate) {
	o.Log.Info("Match accepted", "duoA", c.A.IDs(), "duoB", c.B.IDs(),
		"score", c.Score.Value, "reasons", c.Score.Reasons)
}
