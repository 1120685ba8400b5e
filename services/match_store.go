package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"duomatch_server/matching"
	"duomatch_server/models"
	"duomatch_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// weekLockID is the matchId of the item that claims a week for one writer.
// It sorts before every generated match id and is never returned as a match.
const weekLockID = "#week"

// MatchStore reads and writes the WeeklyMatches table
type MatchStore struct {
	Dynamo *DynamoService
	Table  string
}

func weekKey(week time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":week": &types.AttributeValueMemberS{Value: models.FormatMatchWeek(week)},
	}
}

func (s *MatchStore) weekQuery(week time.Time) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:                 aws.String(s.Table),
		KeyConditionExpression:    aws.String("#week = :week"),
		ExpressionAttributeNames:  map[string]string{"#week": "matchWeek"},
		ExpressionAttributeValues: weekKey(week),
	}
}

// matchesQuery is weekQuery without the week's lock item
func (s *MatchStore) matchesQuery(week time.Time) *dynamodb.QueryInput {
	in := s.weekQuery(week)
	in.KeyConditionExpression = aws.String("#week = :week AND #id > :lock")
	in.ExpressionAttributeNames["#id"] = "matchId"
	in.ExpressionAttributeValues[":lock"] = &types.AttributeValueMemberS{Value: weekLockID}
	return in
}

func (s *MatchStore) lockKey(week time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"matchWeek": &types.AttributeValueMemberS{Value: models.FormatMatchWeek(week)},
		"matchId":   &types.AttributeValueMemberS{Value: weekLockID},
	}
}

// HasMatches reports whether the week already has at least one record
func (s *MatchStore) HasMatches(ctx context.Context, week time.Time) (bool, error) {
	return s.Dynamo.QueryExists(ctx, s.matchesQuery(week))
}

// MatchesForWeek returns the week's records, best score first
func (s *MatchStore) MatchesForWeek(ctx context.Context, week time.Time) ([]models.WeeklyMatch, error) {
	items, err := s.Dynamo.QueryItems(ctx, s.matchesQuery(week))
	if err != nil {
		return nil, err
	}
	matches, err := unmarshalMatches(items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CompatibilityScore > matches[j].CompatibilityScore
	})
	return matches, nil
}

// PreviousMatches returns every record from a week strictly before the given one.
// matchWeek has a fixed-width format, so string order is week order.
func (s *MatchStore) PreviousMatches(ctx context.Context, before time.Time) ([]models.WeeklyMatch, error) {
	items, err := s.Dynamo.ScanItems(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.Table),
		FilterExpression:          aws.String("#week < :week AND matchId <> :lock"),
		ExpressionAttributeNames:  map[string]string{"#week": "matchWeek"},
		ExpressionAttributeValues: lockFilter(weekKey(before)),
		ProjectionExpression:      aws.String("#week, matchId, user1Id, user2Id, user3Id, user4Id"),
	})
	if err != nil {
		return nil, err
	}
	return unmarshalMatches(items)
}

// MatchesForUser returns the user's records, newest week first, at most limit of them
func (s *MatchStore) MatchesForUser(ctx context.Context, userID string, limit int) ([]models.WeeklyMatch, error) {
	items, err := s.Dynamo.ScanItems(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(s.Table),
		FilterExpression:          aws.String("user1Id = :u OR user2Id = :u OR user3Id = :u OR user4Id = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: userID}},
	})
	if err != nil {
		return nil, err
	}
	matches, err := unmarshalMatches(items)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchWeek > matches[j].MatchWeek })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ReplaceWeek deletes the week's existing records when clearExisting is set and
// inserts records. Deletes and puts go out as one transaction while they fit in
// 100 actions; beyond that they are committed in order, deletes first.
//
// A week that gets records also gets a lock item, written with the first chunk
// under attribute_not_exists. A second writer that lost the race to an
// unforced run fails that chunk as a whole and gets ErrWeekAlreadyMatched.
// Forced runs keep an existing lock and replace the records under it.
func (s *MatchStore) ReplaceWeek(ctx context.Context, week time.Time, records []models.WeeklyMatch, clearExisting bool) error {
	var writes []types.TransactWriteItem
	locked := false

	if clearExisting {
		items, err := s.Dynamo.QueryItems(ctx, s.weekQuery(week))
		if err != nil {
			return &matching.PersistenceError{Err: fmt.Errorf("failed to list existing matches: %w", err)}
		}
		for _, item := range items {
			id := utils.ExtractString(item, "matchId")
			if id == weekLockID {
				locked = true
				continue
			}
			writes = append(writes, types.TransactWriteItem{Delete: &types.Delete{
				TableName: aws.String(s.Table),
				Key: map[string]types.AttributeValue{
					"matchWeek": &types.AttributeValueMemberS{Value: models.FormatMatchWeek(week)},
					"matchId":   &types.AttributeValueMemberS{Value: id},
				},
			}})
		}
	}

	lockIndex := -1
	switch {
	case len(records) > 0 && !locked:
		lockIndex = 0
		writes = append([]types.TransactWriteItem{{Put: &types.Put{
			TableName:           aws.String(s.Table),
			Item:                s.lockKey(week),
			ConditionExpression: aws.String("attribute_not_exists(matchId)"),
		}}}, writes...)
	case len(records) == 0 && locked:
		writes = append(writes, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(s.Table),
			Key:       s.lockKey(week),
		}})
	}
	firstRecord := len(writes)

	for _, r := range records {
		item, err := attributevalue.MarshalMap(r)
		if err != nil {
			return &matching.PersistenceError{Failed: recordIDs(records), Err: fmt.Errorf("failed to marshal match %s: %w", r.MatchID, err)}
		}
		writes = append(writes, types.TransactWriteItem{Put: &types.Put{
			TableName:           aws.String(s.Table),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(matchId)"),
		}})
	}
	if len(writes) == 0 {
		return nil
	}

	committed, err := s.Dynamo.TransactWrite(ctx, writes)
	if err != nil {
		if committed == 0 && lockIndex >= 0 && conditionFailedAt(err, lockIndex) {
			return fmt.Errorf("%w: %s was written by another run", matching.ErrWeekAlreadyMatched, models.FormatMatchWeek(week))
		}
		firstUnwritten := max(committed-firstRecord, 0)
		return &matching.PersistenceError{Failed: recordIDs(records[firstUnwritten:]), Err: err}
	}
	return nil
}

func lockFilter(values map[string]types.AttributeValue) map[string]types.AttributeValue {
	values[":lock"] = &types.AttributeValueMemberS{Value: weekLockID}
	return values
}

func unmarshalMatches(items []map[string]types.AttributeValue) ([]models.WeeklyMatch, error) {
	var kept []map[string]types.AttributeValue
	for _, item := range items {
		if utils.ExtractString(item, "matchId") != weekLockID {
			kept = append(kept, item)
		}
	}
	var matches []models.WeeklyMatch
	if err := attributevalue.UnmarshalListOfMaps(kept, &matches); err != nil {
		return nil, fmt.Errorf("failed to unmarshal matches: %w", err)
	}
	return matches, nil
}

func recordIDs(records []models.WeeklyMatch) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.MatchID
	}
	return ids
}
