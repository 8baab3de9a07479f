package geocache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// maxBatchWrite is DynamoDB's BatchWriteItem request limit.
const maxBatchWrite = 25

const (
	maxUnprocessedRetries = 3
	maxUnprocessedBackoff = 2 * time.Second
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoStore keeps the cache in a table whose partition key is "address".
type DynamoStore struct {
	client    DynamoAPI
	tableName string
	backoff   time.Duration
}

type dynamoItem struct {
	Address   string  `dynamodbav:"address"`
	Lat       float64 `dynamodbav:"lat"`
	Lng       float64 `dynamodbav:"lng"`
	Timestamp int64   `dynamodbav:"timestamp"`
}

// NewDynamoStore creates a DynamoDB-backed store.
func NewDynamoStore(client DynamoAPI, tableName string) *DynamoStore {
	return &DynamoStore{client: client, tableName: tableName, backoff: 100 * time.Millisecond}
}

// Load scans the whole table.
func (s *DynamoStore) Load(ctx context.Context) (map[string]geocode.Entry, error) {
	entries := make(map[string]geocode.Entry)
	p := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.tableName, err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal geocode items: %w", err)
		}
		for _, it := range items {
			entries[it.Address] = geocode.Entry{Lat: it.Lat, Lng: it.Lng, Timestamp: it.Timestamp}
		}
	}
	return entries, nil
}

// Save upserts entries in batches of 25, retrying unprocessed items a few
// times before giving up.
func (s *DynamoStore) Save(ctx context.Context, entries map[string]geocode.Entry) error {
	requests := make([]dynamodbtypes.WriteRequest, 0, len(entries))
	for addr, e := range entries {
		item, err := attributevalue.MarshalMap(dynamoItem{Address: addr, Lat: e.Lat, Lng: e.Lng, Timestamp: e.Timestamp})
		if err != nil {
			return fmt.Errorf("marshal geocode item: %w", err)
		}
		requests = append(requests, dynamodbtypes.WriteRequest{
			PutRequest: &dynamodbtypes.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(requests))
		if err := s.writeBatch(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoStore) writeBatch(ctx context.Context, batch []dynamodbtypes.WriteRequest) error {
	pending := batch
	backoff := s.backoff
	for attempt := 0; ; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]dynamodbtypes.WriteRequest{s.tableName: pending},
		})
		if err != nil {
			return fmt.Errorf("batch write %s: %w", s.tableName, err)
		}
		pending = out.UnprocessedItems[s.tableName]
		if len(pending) == 0 {
			return nil
		}
		if attempt == maxUnprocessedRetries {
			return fmt.Errorf("batch write %s: %d items unprocessed", s.tableName, len(pending))
		}
		if !retry.SleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxUnprocessedBackoff)
	}
}
