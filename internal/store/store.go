// Package store abre o backend de persistência escolhido por STORE_DRIVER.
package store

import (
	"context"
	"fmt"

	"waitlist-service/internal/pkg/awsconf"
	"waitlist-service/internal/store/dynamo"
	"waitlist-service/internal/store/memory"
	"waitlist-service/internal/store/postgres"
	"waitlist-service/internal/waitlist"
)

const (
	DriverMemory   = "memory"
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string

	DatabaseURL string

	DynamoTable    string
	DynamoEndpoint string
	AWS            awsconf.Options
}

// Open monta o store sem exigir que o backend esteja no ar: erros aqui são de
// configuração. A conectividade é verificada depois, via Ping.
func Open(ctx context.Context, cfg Config) (waitlist.Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return memory.New(), nil

	case DriverPostgres:
		return postgres.Open(cfg.DatabaseURL)

	case DriverDynamoDB:
		awsCfg, err := awsconf.Load(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		client := dynamo.NewClient(awsCfg, cfg.DynamoEndpoint)
		// endpoint local (DynamoDB Local/LocalStack): cria a tabela se faltar.
		return dynamo.New(client, cfg.DynamoTable, dynamo.WithAutoCreate(cfg.DynamoEndpoint != "")), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
