package dynamodb

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeTable keeps items keyed by PK then SK.
type fakeTable struct {
	mu      sync.Mutex
	items   map[string]map[string]map[string]types.AttributeValue
	failGet error
	status  types.TableStatus
	gets    []string
}

func newFakeTable() *fakeTable {
	return &fakeTable{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeTable) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	f.gets = append(f.gets, str(in.Key["PK"]))
	item := f.items[str(in.Key["PK"])][str(in.Key["SK"])]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := str(in.Item["PK"]), str(in.Item["SK"])
	if f.items[pk] == nil {
		f.items[pk] = map[string]map[string]types.AttributeValue{}
	}
	f.items[pk][sk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

// Query supports the single "PK = :v" key condition used by the store.
func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(in.ExpressionAttributeValues) != 1 {
		return nil, errors.New("unexpected key condition")
	}
	var pk string
	for _, v := range in.ExpressionAttributeValues {
		pk = str(v)
	}
	out := &dynamodb.QueryOutput{}
	for _, item := range f.items[pk] {
		out.Items = append(out.Items, item)
	}
	out.Count = int32(len(out.Items))
	return out, nil
}

func (f *fakeTable) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.status == "" {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: f.status,
	}}, nil
}

func TestPathStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	s := NewPathStore(table, "ideas", zap.NewNop())

	require.NoError(t, s.Set(ctx, "users/u1/ideas/20", []byte(`{"title":"b"}`)))
	require.NoError(t, s.Set(ctx, "users/u1/ideas/3", []byte(`{"title":"a"}`)))

	stored := table.items["users/u1/ideas"]["3"]
	require.NotNil(t, stored)
	assert.Equal(t, `{"title":"a"}`, str(stored["Value"]))

	leaf, ok, err := s.Get(ctx, "users/u1/ideas/3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"a"}`, string(leaf))

	coll, ok, err := s.Get(ctx, "users/u1/ideas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"3":{"title":"a"},"20":{"title":"b"}}`, string(coll))
}

func TestPathStore_Missing(t *testing.T) {
	s := NewPathStore(newFakeTable(), "ideas", zap.NewNop())

	_, ok, err := s.Get(context.Background(), "users/u1/ideas")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPathStore_ClientErrorsPropagate(t *testing.T) {
	table := newFakeTable()
	table.failGet = errors.New("AccessDeniedException")
	s := NewPathStore(table, "ideas", zap.NewNop())

	_, _, err := s.Get(context.Background(), "users/u1/ideas/1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDeniedException")
}

func TestPathStore_Ping(t *testing.T) {
	ctx := context.Background()
	table := newFakeTable()
	s := NewPathStore(table, "ideas", zap.NewNop())

	err := s.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Requested resource not found")

	table.status = types.TableStatusCreating
	assert.Error(t, s.Ping(ctx))

	table.status = types.TableStatusActive
	assert.NoError(t, s.Ping(ctx))
}

func TestPathStore_TopLevelGetSkipsEmptyKey(t *testing.T) {
	table := newFakeTable()
	s := NewPathStore(table, "ideas", zap.NewNop())

	_, ok, err := s.Get(context.Background(), "health")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, table.gets, "no GetItem with an empty partition key")
}
