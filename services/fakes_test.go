package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo keeps tables in memory. Query matches on the partition key given as
// ":week" and, when ":lock" is set, only sort keys above it; Scan returns every
// item (filters are not evaluated) two per page. Transactions honour
// attribute_not_exists(matchId) on puts.
type fakeDynamo struct {
	mu     sync.Mutex
	tables map[string][]map[string]types.AttributeValue

	getErr   map[string]error // by userId
	scanErr  error
	queryErr error
	failTx   int // 1-based TransactWriteItems call that fails; 0 never

	scans        []*dynamodb.ScanInput
	queries      []*dynamodb.QueryInput
	transactions []*dynamodb.TransactWriteItemsInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{tables: map[string][]map[string]types.AttributeValue{}, getErr: map[string]error{}}
}

func str(av types.AttributeValue) string {
	if v, ok := av.(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func sameKey(item, key map[string]types.AttributeValue) bool {
	for k, v := range key {
		if str(item[k]) != str(v) {
			return false
		}
	}
	return true
}

func (f *fakeDynamo) put(table string, item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], item)
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[str(in.Key["userId"])]; err != nil {
		return nil, err
	}
	for _, item := range f.tables[aws.ToString(in.TableName)] {
		if sameKey(item, in.Key) {
			return &dynamodb.GetItemOutput{Item: item}, nil
		}
	}
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	week := str(in.ExpressionAttributeValues[":week"])
	lock, bounded := in.ExpressionAttributeValues[":lock"]
	var items []map[string]types.AttributeValue
	for _, item := range f.tables[aws.ToString(in.TableName)] {
		if str(item["matchWeek"]) != week {
			continue
		}
		if bounded && str(item["matchId"]) <= str(lock) {
			continue
		}
		items = append(items, item)
	}
	if in.Limit != nil && len(items) > int(*in.Limit) {
		items = items[:*in.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, in)
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	all := f.tables[aws.ToString(in.TableName)]
	start := 0
	if v, ok := in.ExclusiveStartKey["_offset"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(v.Value)
	}
	end := min(start+2, len(all))
	out := &dynamodb.ScanOutput{Items: all[start:end]}
	if end < len(all) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"_offset": &types.AttributeValueMemberN{Value: strconv.Itoa(end)}}
	}
	return out, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append(f.transactions, in)
	if len(f.transactions) == f.failTx {
		return nil, errors.New("transaction canceled")
	}
	if reasons, failed := f.conditionFailures(in.TransactItems); failed {
		return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled"), CancellationReasons: reasons}
	}
	for _, w := range in.TransactItems {
		switch {
		case w.Delete != nil:
			table := aws.ToString(w.Delete.TableName)
			kept := f.tables[table][:0]
			for _, item := range f.tables[table] {
				if !sameKey(item, w.Delete.Key) {
					kept = append(kept, item)
				}
			}
			f.tables[table] = kept
		case w.Put != nil:
			table := aws.ToString(w.Put.TableName)
			f.tables[table] = append(f.tables[table], w.Put.Item)
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// conditionFailures checks every attribute_not_exists put against the stored
// items before anything is applied, like a real transaction.
func (f *fakeDynamo) conditionFailures(writes []types.TransactWriteItem) ([]types.CancellationReason, bool) {
	reasons := make([]types.CancellationReason, len(writes))
	failed := false
	for i, w := range writes {
		reasons[i].Code = aws.String("None")
		if w.Put == nil || aws.ToString(w.Put.ConditionExpression) != "attribute_not_exists(matchId)" {
			continue
		}
		key := map[string]types.AttributeValue{"matchWeek": w.Put.Item["matchWeek"], "matchId": w.Put.Item["matchId"]}
		for _, item := range f.tables[aws.ToString(w.Put.TableName)] {
			if sameKey(item, key) {
				reasons[i].Code = aws.String("ConditionalCheckFailed")
				failed = true
				break
			}
		}
	}
	return reasons, failed
}
