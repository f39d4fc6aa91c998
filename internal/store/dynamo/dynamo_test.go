package dynamo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waitlist-service/internal/waitlist"
)

// fakeDynamo emula uma tabela com chave "email" e paginação de 2 itens.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	order    []string
	exists   bool
	created  bool
	lastPut  *dynamodb.PutItemInput
	scanErr  error
	pageSize int
}

func newFake() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}, exists: true, pageSize: 2}
}

func keyOf(m map[string]types.AttributeValue) string {
	return m["email"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPut = in
	k := keyOf(in.Item)
	if _, ok := f.items[k]; ok && aws.ToString(in.ConditionExpression) == "attribute_not_exists(email)" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	f.items[k] = in.Item
	f.order = append(f.order, k)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return nil, f.scanErr
	}

	start := 0
	if in.ExclusiveStartKey != nil {
		last := keyOf(in.ExclusiveStartKey)
		for i, k := range f.order {
			if k == last {
				start = i + 1
			}
		}
	}
	end := start + f.pageSize
	if end > len(f.order) {
		end = len(f.order)
	}

	out := &dynamodb.ScanOutput{Count: int32(end - start)}
	if in.Select != types.SelectCount {
		for _, k := range f.order[start:end] {
			out.Items = append(out.Items, f.items[k])
		}
	}
	if end < len(f.order) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: f.order[end-1]},
		}
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if !f.exists {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

func (f *fakeDynamo) CreateTable(context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.exists, f.created = true, true
	return &dynamodb.CreateTableOutput{}, nil
}

var (
	ctx  = context.Background()
	base = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
)

func TestStore_CreateFindRoundTrip(t *testing.T) {
	s := New(newFake(), "")
	rec := waitlist.Record{ID: "u1", Email: "a@b.co", Name: "Ann", CreatedAt: base, IPAddress: "1.2.3.4"}
	require.NoError(t, s.Create(ctx, rec))

	got, err := s.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.FindByEmail(ctx, "nobody@b.co")
	assert.ErrorIs(t, err, waitlist.ErrNotFound)
}

func TestStore_CreateUsesConditionalPut(t *testing.T) {
	fake := newFake()
	s := New(fake, "custom")
	require.NoError(t, s.Create(ctx, waitlist.Record{ID: "1", Email: "a@b.co", CreatedAt: base}))

	assert.Equal(t, "custom", aws.ToString(fake.lastPut.TableName))
	assert.Equal(t, "attribute_not_exists(email)", aws.ToString(fake.lastPut.ConditionExpression))

	err := s.Create(ctx, waitlist.Record{ID: "2", Email: "a@b.co", CreatedAt: base})
	assert.ErrorIs(t, err, waitlist.ErrDuplicate)
}

func TestStore_ListPaginatesAndSortsNewestFirst(t *testing.T) {
	s := New(newFake(), "")
	for i, email := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"} {
		require.NoError(t, s.Create(ctx, waitlist.Record{ID: email, Email: email, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "e@x.io", got[0].Email)
	assert.Equal(t, "a@x.io", got[4].Email)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestStore_ListWrapsScanErrors(t *testing.T) {
	fake := newFake()
	fake.scanErr = errors.New("throttled")

	_, err := New(fake, "").List(ctx)
	assert.ErrorIs(t, err, fake.scanErr)
}

func TestStore_PingCreatesMissingTableWhenEnabled(t *testing.T) {
	fake := newFake()
	fake.exists = false

	err := New(fake, "").Ping(ctx)
	var notFound *types.ResourceNotFoundException
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, New(fake, "", WithAutoCreate(true)).Ping(ctx))
	assert.True(t, fake.created)
}
