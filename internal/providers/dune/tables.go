package dune

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/feral-file/pkp-indexer/internal/logger"
)

// EventsTable returns the create request of the mint events table
func EventsTable(namespace, table string, private bool) CreateTableRequest {
	return CreateTableRequest{
		Namespace:   namespace,
		TableName:   table,
		Description: "PKPMinted events resolved to ETH addresses",
		Schema: []Column{
			{Name: "blockchain", Type: "varchar"},
			{Name: "network", Type: "varchar"},
			{Name: "token_id", Type: "varchar"},
			{Name: "eth_address", Type: "varchar"},
		},
		IsPrivate: private,
	}
}

// EndBlockTable returns the create request of the checkpoint table
func EndBlockTable(namespace, table string, private bool) CreateTableRequest {
	return CreateTableRequest{
		Namespace:   namespace,
		TableName:   table,
		Description: "PKP indexer end blocks",
		Schema: []Column{
			{Name: "blockchain", Type: "varchar"},
			{Name: "network", Type: "varchar"},
			{Name: "end_block", Type: "integer"},
			{Name: "updated_at", Type: "integer"},
		},
		IsPrivate: private,
	}
}

// CreateTables creates the tables concurrently. Tables that already exist are left as they are.
func CreateTables(ctx context.Context, client Client, reqs ...CreateTableRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	pool := pond.NewPool(len(reqs), pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for _, req := range reqs {
		group.SubmitErr(func() error {
			err := client.CreateTable(ctx, req)
			switch {
			case errors.Is(err, ErrTableExists):
				logger.InfoCtx(ctx, "Dune table already exists",
					zap.String("namespace", req.Namespace),
					zap.String("table", req.TableName))
				return nil
			case err != nil:
				return fmt.Errorf("failed to create table %s.%s: %w", req.Namespace, req.TableName, err)
			}

			logger.InfoCtx(ctx, "Created Dune table",
				zap.String("namespace", req.Namespace),
				zap.String("table", req.TableName))
			return nil
		})
	}

	return group.Wait()
}
