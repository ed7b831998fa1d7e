package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	progressTable = "user_progress"
	eventTable    = "progress_events"
)

var (
	// progressColumns holds one JSON-encoded record per user.
	progressColumns = []*schema.Column{
		{Name: "user_id", Type: field.TypeString},
		{Name: "data", Type: field.TypeString, Size: 2147483647},
		{Name: "updated_at", Type: field.TypeTime},
	}
	progressSchema = &schema.Table{
		Name:       progressTable,
		Columns:    progressColumns,
		PrimaryKey: []*schema.Column{progressColumns[0]},
	}

	// eventColumns is the append-only mutation log. sequence comes from the
	// global counter, not the row ID.
	eventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "user_id", Type: field.TypeString},
		{Name: "op", Type: field.TypeString},
		{Name: "detail", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	eventSchema = &schema.Table{
		Name:       eventTable,
		Columns:    eventColumns,
		PrimaryKey: []*schema.Column{eventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "progressevent_user_id_sequence", Columns: []*schema.Column{eventColumns[3], eventColumns[1]}},
			{Name: "progressevent_timestamp", Columns: []*schema.Column{eventColumns[2]}},
		},
	}

	tables = []*schema.Table{progressSchema, eventSchema}
)
