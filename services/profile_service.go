package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"duomatch_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"
)

type UserProfileService struct {
	Dynamo *DynamoService
	Table  string
}

// GetUserProfile retrieves a user profile by ID
func (ups *UserProfileService) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}

	item, err := ups.Dynamo.GetItem(ctx, ups.Table, key)
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile %s: %w", userID, err)
	}
	return &profile, nil
}

// GetUserProfiles loads several profiles concurrently. Ids without a profile are
// left out of the result.
func (ups *UserProfileService) GetUserProfiles(ctx context.Context, userIDs []string) (map[string]models.UserProfile, error) {
	var mu sync.Mutex
	out := make(map[string]models.UserProfile, len(userIDs))

	seen := map[string]bool{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchConcurrency)
	for _, id := range userIDs {
		if seen[id] || id == "" {
			continue
		}
		seen[id] = true
		id := id // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			profile, err := ups.GetUserProfile(gctx, id)
			if errors.Is(err, ErrItemNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = *profile
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
