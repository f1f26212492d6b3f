package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createCoreTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS lottery_draw_records;
				DROP TABLE IF EXISTS participants;
				DROP TABLE IF EXISTS scoring_rules;
				DROP TABLE IF EXISTS answer_records;
				DROP TABLE IF EXISTS questions;
			`)
			return err
		},
	)
}
