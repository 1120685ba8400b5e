package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"duomatch_server/logger"
	"duomatch_server/matching"
	"duomatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"
)

const defaultFetchConcurrency = 8

// DuoRepository loads committed duos and their surveys from DynamoDB
type DuoRepository struct {
	Dynamo        *DynamoService
	ProfilesTable string
	SurveysTable  string
	Concurrency   int
	Log           *logger.Logger
}

// SkippedPartnership is a partnered profile that did not form a duo
type SkippedPartnership struct {
	UserID    string
	PartnerID string
	Reason    string
}

// Reasons a partnership is skipped
const (
	SkipPartnerNotActive = "partner not partnered or survey incomplete"
	SkipNotMutual        = "partner named someone else"
	SkipSelfReference    = "partner is self"
)

// LoadActiveDuos returns every mutual partnership where both people finished the survey
func (r *DuoRepository) LoadActiveDuos(ctx context.Context) ([]models.Duo, error) {
	profiles, err := r.partneredProfiles(ctx)
	if err != nil {
		return nil, &matching.RepositoryError{Op: "load partnered profiles", Err: err}
	}

	duos, skipped := PairProfiles(profiles)
	for _, s := range skipped {
		r.Log.Info("Skipping partnership", "userId", s.UserID, "partnerId", s.PartnerID, "reason", s.Reason)
	}

	if err := r.attachSurveys(ctx, duos); err != nil {
		return nil, &matching.RepositoryError{Op: "load surveys", Err: err}
	}
	r.Log.Info("Loaded active duos", "profiles", len(profiles), "duos", len(duos), "skipped", len(skipped))
	return duos, nil
}

func (r *DuoRepository) partneredProfiles(ctx context.Context) ([]models.UserProfile, error) {
	items, err := r.Dynamo.ScanItems(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.ProfilesTable),
		FilterExpression: aws.String("attribute_exists(#partner) AND #partner <> :empty AND #done = :true"),
		ExpressionAttributeNames: map[string]string{
			"#partner": "partnerId",
			"#done":    "surveyCompleted",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberS{Value: ""},
			":true":  &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}

	var profiles []models.UserProfile
	if err := attributevalue.UnmarshalListOfMaps(items, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profiles: %w", err)
	}
	return profiles, nil
}

// PairProfiles groups partnered profiles into mutual duos. Profiles are visited in
// user id order, so the result does not depend on scan order. Each person ends up
// in at most one duo.
func PairProfiles(profiles []models.UserProfile) ([]models.Duo, []SkippedPartnership) {
	sorted := append([]models.UserProfile(nil), profiles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })

	byID := make(map[string]models.UserProfile, len(sorted))
	for _, p := range sorted {
		byID[p.UserID] = p
	}

	var duos []models.Duo
	var skipped []SkippedPartnership
	processed := map[string]bool{}
	for _, p := range sorted {
		if processed[p.UserID] || p.PartnerID == "" {
			continue
		}
		if p.PartnerID == p.UserID {
			skipped = append(skipped, SkippedPartnership{p.UserID, p.PartnerID, SkipSelfReference})
			continue
		}
		partner, ok := byID[p.PartnerID]
		if !ok {
			skipped = append(skipped, SkippedPartnership{p.UserID, p.PartnerID, SkipPartnerNotActive})
			continue
		}
		if partner.PartnerID != p.UserID || processed[partner.UserID] {
			skipped = append(skipped, SkippedPartnership{p.UserID, p.PartnerID, SkipNotMutual})
			continue
		}
		duos = append(duos, models.Duo{
			First:  models.Person{Profile: p},
			Second: models.Person{Profile: partner},
		})
		processed[p.UserID] = true
		processed[partner.UserID] = true
	}
	return duos, skipped
}

// attachSurveys reads every member's survey concurrently. A failed read leaves that
// member's survey nil; only cancellation of ctx aborts the load.
func (r *DuoRepository) attachSurveys(ctx context.Context, duos []models.Duo) error {
	limit := r.Concurrency
	if limit <= 0 {
		limit = defaultFetchConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range duos {
		for _, p := range []*models.Person{&duos[i].First, &duos[i].Second} {
			p := p // per-iteration copy (pre-Go 1.22 loop semantics)
			g.Go(func() error {
				survey, err := r.GetSurvey(gctx, p.ID())
				switch {
				case err == nil:
					p.Survey = survey
				case gctx.Err() != nil:
					return gctx.Err()
				case errors.Is(err, ErrItemNotFound):
					r.Log.Warn("No survey on record", "userId", p.ID())
				default:
					r.Log.Warn("Failed to load survey", "userId", p.ID(), "error", err)
				}
				return nil
			})
		}
	}
	return g.Wait()
}

// GetSurvey returns the answer bag of one user
func (r *DuoRepository) GetSurvey(ctx context.Context, userID string) (models.Survey, error) {
	item, err := r.Dynamo.GetItem(ctx, r.SurveysTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	})
	if err != nil {
		return nil, err
	}
	var resp models.SurveyResponse
	if err := attributevalue.UnmarshalMap(item, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey for %s: %w", userID, err)
	}
	if resp.Answers == nil {
		return nil, ErrItemNotFound
	}
	return resp.Answers, nil
}
