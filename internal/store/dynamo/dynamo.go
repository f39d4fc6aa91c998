// Package dynamo guarda as inscrições numa tabela DynamoDB com chave de
// partição "email". A unicidade vem do PutItem condicional.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/waitlist"
)

const DefaultTable = "waitlist-emails"

// API é o subconjunto do *dynamodb.Client usado aqui (fakes nos testes).
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Store struct {
	api        API
	table      string
	autoCreate bool
}

type Option func(*Store)

// WithAutoCreate cria a tabela no Ping quando ela não existe (DynamoDB local).
func WithAutoCreate(on bool) Option { return func(s *Store) { s.autoCreate = on } }

func New(api API, table string, opts ...Option) *Store {
	if table == "" {
		table = DefaultTable
	}
	s := &Store{api: api, table: table}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewClient monta o client a partir da aws.Config; endpoint != "" aponta para
// um DynamoDB local.
func NewClient(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}

func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if s.autoCreate && errors.As(err, &notFound) {
		return s.createTable(ctx)
	}
	return fmt.Errorf("describing table %s: %w", s.table, err)
}

func (s *Store) createTable(ctx context.Context) error {
	_, err := s.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if err != nil && !errors.As(err, &inUse) {
		return fmt.Errorf("creating table %s: %w", s.table, err)
	}
	logger.Info("dynamodb table created", "table", s.table)
	return nil
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: email},
	}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (waitlist.Record, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            emailKey(email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return waitlist.Record{}, fmt.Errorf("getting item: %w", err)
	}
	if len(out.Item) == 0 {
		return waitlist.Record{}, waitlist.ErrNotFound
	}

	var rec waitlist.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return waitlist.Record{}, fmt.Errorf("unmarshaling item: %w", err)
	}
	return rec, nil
}

func (s *Store) Create(ctx context.Context, rec waitlist.Record) error {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return waitlist.ErrDuplicate
		}
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]waitlist.Record, error) {
	var recs []waitlist.Record
	p := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		var batch []waitlist.Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshaling items: %w", err)
		}
		recs = append(recs, batch...)
	}

	// Scan não tem ordem; ordena aqui.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	total := 0
	p := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Select:    types.SelectCount,
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("counting items: %w", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

func (s *Store) Close() error { return nil }
