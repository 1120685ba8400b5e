package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/models"
	"duomatch_server/services"
	"duomatch_server/utils"
)

// MatchAPI is what the match routes need from services.MatchService
type MatchAPI interface {
	CurrentWeek() time.Time
	Run(ctx context.Context, week time.Time, force bool) (*matching.Result, error)
	CurrentMatch(ctx context.Context, userID string) (*models.MatchView, error)
	History(ctx context.Context, userID string) ([]models.MatchView, error)
	WeekMatches(ctx context.Context, week time.Time) ([]models.WeeklyMatch, error)
	Analyze(ctx context.Context) (*matching.Analysis, error)
	Status(ctx context.Context) (*services.Status, error)
	ArchiveURL(ctx context.Context, week time.Time) (string, error)
}

// MatchController handles HTTP requests for the weekly matches
type MatchController struct {
	MatchService MatchAPI
	Anchor       time.Weekday
	Log          *logger.Logger
}

// NewMatchController creates a new MatchController instance
func NewMatchController(matchService MatchAPI, anchor time.Weekday, log *logger.Logger) *MatchController {
	return &MatchController{MatchService: matchService, Anchor: anchor, Log: log}
}

// week reads ?week, defaulting to the current cycle
func (c *MatchController) week(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return c.MatchService.CurrentWeek(), nil
	}
	return matching.ParseWeek(raw, c.Anchor)
}

// RunMatching handles POST /api/match/run?force=true&week=YYYY-MM-DD
func (c *MatchController) RunMatching(w http.ResponseWriter, r *http.Request) {
	week, err := c.week(r)
	if err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		if force, err = strconv.ParseBool(raw); err != nil {
			utils.WriteJSONError(w, http.StatusBadRequest, "force must be true or false")
			return
		}
	}

	res, err := c.MatchService.Run(r.Context(), week, force)
	switch {
	case errors.Is(err, matching.ErrWeekAlreadyMatched):
		utils.WriteJSONError(w, http.StatusConflict, "matches already exist for this week; use force=true to regenerate")
		return
	case err != nil:
		c.Log.Error("Matching run failed", "week", models.FormatMatchWeek(week), "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to run matching")
		return
	}

	message := "Matches created successfully"
	if res.Outcome == matching.OutcomeNoCandidates {
		message = "No eligible matches this week"
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": message,
		"result":  res,
	})
}

// GetCurrentMatch handles GET /api/match/current?userId=
func (c *MatchController) GetCurrentMatch(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.WriteJSONError(w, http.StatusBadRequest, "userId is required")
		return
	}

	view, err := c.MatchService.CurrentMatch(r.Context(), userID)
	switch {
	case errors.Is(err, services.ErrNoMatch):
		utils.WriteJSONError(w, http.StatusNotFound, "No match found for this week")
		return
	case err != nil:
		c.Log.Error("Failed to fetch current match", "userId", userID, "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch current match")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"match": view})
}

// GetMatchHistory handles GET /api/match/history?userId=
func (c *MatchController) GetMatchHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.WriteJSONError(w, http.StatusBadRequest, "userId is required")
		return
	}

	views, err := c.MatchService.History(r.Context(), userID)
	if err != nil {
		c.Log.Error("Failed to fetch match history", "userId", userID, "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch match history")
		return
	}
	if views == nil {
		views = []models.MatchView{}
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"matches": views})
}

// GetWeekMatches handles GET /api/match/week?week=YYYY-MM-DD
func (c *MatchController) GetWeekMatches(w http.ResponseWriter, r *http.Request) {
	week, err := c.week(r)
	if err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	matches, err := c.MatchService.WeekMatches(r.Context(), week)
	if err != nil {
		c.Log.Error("Failed to fetch week matches", "week", models.FormatMatchWeek(week), "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch matches")
		return
	}
	if matches == nil {
		matches = []models.WeeklyMatch{}
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"matchWeek": models.FormatMatchWeek(week),
		"matches":   matches,
	})
}

// GetAnalysis handles GET /api/match/analysis
func (c *MatchController) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := c.MatchService.Analyze(r.Context())
	if err != nil {
		c.Log.Error("Feasibility analysis failed", "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to analyze duos")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, analysis)
}

// GetStatus handles GET /api/match/status
func (c *MatchController) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.MatchService.Status(r.Context())
	if err != nil {
		c.Log.Error("Failed to fetch match status", "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, status)
}

// GetArchiveURL handles GET /api/match/archive?week=YYYY-MM-DD
func (c *MatchController) GetArchiveURL(w http.ResponseWriter, r *http.Request) {
	week, err := c.week(r)
	if err != nil {
		utils.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := c.MatchService.ArchiveURL(r.Context(), week)
	switch {
	case errors.Is(err, services.ErrArchiveDisabled):
		utils.WriteJSONError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		c.Log.Error("Failed to presign archive URL", "week", models.FormatMatchWeek(week), "error", err)
		utils.WriteJSONError(w, http.StatusInternalServerError, "Failed to generate archive URL")
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"matchWeek": models.FormatMatchWeek(week),
		"url":       url,
	})
}
