package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"ideatracker/infrastructure/persistence/keypath"
)

// API is the part of the DynamoDB client used by the path store.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// nodeItem is one leaf of the path tree. PK is the parent path and SK the
// key, so a collection read is a single-partition Query.
type nodeItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Value     string `dynamodbav:"Value"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

// PathStore implements ports.PathStore on a DynamoDB table with a PK/SK key
// schema.
type PathStore struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewPathStore creates a new PathStore
func NewPathStore(client API, tableName string, logger *zap.Logger) *PathStore {
	return &PathStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Get returns the leaf at path, or the object of its direct children.
func (s *PathStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if err := keypath.Validate(path); err != nil {
		return nil, false, err
	}

	parent, key := keypath.Split(path)
	if parent == "" {
		// DynamoDB rejects empty key attributes; a top-level path is only
		// ever a collection.
		return s.getChildren(ctx, path)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: parent},
			"SK": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", path, err)
	}
	if len(out.Item) > 0 {
		var item nodeItem
		if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
		return []byte(item.Value), true, nil
	}

	return s.getChildren(ctx, path)
}

// Ping checks that the table exists and accepts traffic; used by readiness
// checks.
func (s *PathStore) Ping(ctx context.Context) error {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.tableName, err)
	}
	if out.Table == nil {
		return fmt.Errorf("table %s not found", s.tableName)
	}
	switch out.Table.TableStatus {
	case types.TableStatusActive, types.TableStatusUpdating:
		return nil
	default:
		return fmt.Errorf("table %s is %s", s.tableName, out.Table.TableStatus)
	}
}

func (s *PathStore) getChildren(ctx context.Context, path string) ([]byte, bool, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(path))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build query: %w", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var children []keypath.Child
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("failed to query %s: %w", path, err)
		}
		var items []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal %s: %w", path, err)
		}
		for _, item := range items {
			children = append(children, keypath.Child{Key: item.SK, Value: json.RawMessage(item.Value)})
		}
	}
	if len(children) == 0 {
		return nil, false, nil
	}

	s.logger.Debug("Read collection", zap.String("path", path), zap.Int("children", len(children)))

	data, err := keypath.EncodeChildren(children)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the leaf at path. Unconditional put: last write wins.
func (s *PathStore) Set(ctx context.Context, path string, value []byte) error {
	if err := keypath.Validate(path); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value at %s is not valid JSON", path)
	}

	parent, key := keypath.Split(path)
	av, err := attributevalue.MarshalMap(nodeItem{
		PK:        parent,
		SK:        key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to put %s: %w", path, err)
	}
	return nil
}
