package postgres

// SQL queries for metric definition storage.

const (
	// queryCreateDefinition inserts a definition keyed by name.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	queryCreateDefinition = `
		INSERT INTO metric_definitions (
			id, name, kind, column_name, subtrahend, order_column,
			partition_by, window_length, offset_units, unit, strategy,
			fingerprint, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`

	// queryGetDefinition fetches one definition by name.
	queryGetDefinition = `
		SELECT
			id, name, kind, column_name, subtrahend, order_column,
			partition_by, window_length, offset_units, unit, strategy,
			fingerprint, created_at, updated_at
		FROM metric_definitions
		WHERE name = $1
	`

	// queryListDefinitions fetches all definitions, optionally filtered by
	// kind ($1 = '' disables the filter).
	queryListDefinitions = `
		SELECT
			id, name, kind, column_name, subtrahend, order_column,
			partition_by, window_length, offset_units, unit, strategy,
			fingerprint, created_at, updated_at
		FROM metric_definitions
		WHERE ($1 = '' OR kind = $1)
		ORDER BY name ASC
	`
)
