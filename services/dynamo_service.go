package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// maxTransactItems is the DynamoDB limit on actions in one TransactWriteItems call
const maxTransactItems = 100

// ErrItemNotFound is returned by GetItem when the key has no item
var ErrItemNotFound = errors.New("item not found")

// DynamoAPI is the part of *dynamodb.Client the services use
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

type DynamoService struct {
	Client DynamoAPI
}

// LoadAWSConfig loads the default credential chain for region
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewDynamoDBClient builds a client; endpoint points it at DynamoDB Local when set
func NewDynamoDBClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

// GetItem retrieves an item from DynamoDB
func (ds *DynamoService) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &tableName,
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}
	if output.Item == nil {
		return nil, ErrItemNotFound
	}
	return output.Item, nil
}

// QueryItems runs a query and follows LastEvaluatedKey until the last page
func (ds *DynamoService) QueryItems(ctx context.Context, input *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(ds.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query table '%s': %w", aws.ToString(input.TableName), err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// QueryExists reports whether the query matches at least one item
func (ds *DynamoService) QueryExists(ctx context.Context, input *dynamodb.QueryInput) (bool, error) {
	in := *input
	in.Limit = aws.Int32(1)
	output, err := ds.Client.Query(ctx, &in)
	if err != nil {
		return false, fmt.Errorf("failed to query table '%s': %w", aws.ToString(input.TableName), err)
	}
	return len(output.Items) > 0, nil
}

// ScanItems scans the whole table, applying the input's filter
func (ds *DynamoService) ScanItems(ctx context.Context, input *dynamodb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewScanPaginator(ds.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", aws.ToString(input.TableName), err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// TransactWrite commits items in transactions of at most 100 actions, in order.
// It returns how many items were committed before the first failed chunk.
func (ds *DynamoService) TransactWrite(ctx context.Context, items []types.TransactWriteItem) (int, error) {
	committed := 0
	for i := 0; i < len(items); i += maxTransactItems {
		end := min(i+maxTransactItems, len(items))
		_, err := ds.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items[i:end],
		})
		if err != nil {
			return committed, fmt.Errorf("failed to write transaction of %d items: %w", end-i, describeCancellation(err))
		}
		committed = end
	}
	return committed, nil
}

// describeCancellation adds the per-item cancellation reasons DynamoDB reports
func describeCancellation(err error) error {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) {
		return err
	}
	var reasons []string
	for i, r := range canceled.CancellationReasons {
		code := aws.ToString(r.Code)
		if code == "" || code == "None" {
			continue
		}
		reasons = append(reasons, fmt.Sprintf("item %d: %s", i, code))
	}
	if len(reasons) == 0 {
		return err
	}
	return fmt.Errorf("%w (%s)", err, strings.Join(reasons, ", "))
}

// conditionFailedAt reports whether a canceled transaction failed on the
// condition of the item at index
func conditionFailedAt(err error, index int) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) || index >= len(canceled.CancellationReasons) {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[index].Code) == "ConditionalCheckFailed"
}
