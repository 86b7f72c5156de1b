package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/finagent/usdthub/db/models"
)

// The init migration creates tables from the current model definitions, so a
// fresh db already has every column. Later column migrations must use
// IfNotExists/IfExists to stay re-runnable.
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if _, err := db.NewCreateTable().Model((*models.Invoice)(nil)).Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.WebhookEvent)(nil)).Exec(ctx); err != nil {
			return err
		}

		return nil
	}, nil)
}
