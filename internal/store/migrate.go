package store

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// UserProgressColumns holds the columns for the "user_progress" table.
	UserProgressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeInt64},
		{Name: "level", Type: field.TypeString},
		{Name: "correct_answers", Type: field.TypeJSON},
		{Name: "completed_tests", Type: field.TypeInt, Default: 0},
		{Name: "weak_topics", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeInt64, Default: 0},
	}
	// UserProgressTable holds the schema information for the "user_progress" table.
	UserProgressTable = &schema.Table{
		Name:       "user_progress",
		Columns:    UserProgressColumns,
		PrimaryKey: []*schema.Column{UserProgressColumns[0]},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		UserProgressTable,
	}
)

// migrate creates or updates Tables through ent's schema migrator.
func migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
