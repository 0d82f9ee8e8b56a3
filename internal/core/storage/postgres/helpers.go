package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/windrose-analytics/windrose/internal/catalog"
	"github.com/windrose-analytics/windrose/internal/core/metric"
	"github.com/windrose-analytics/windrose/internal/core/window"
)

// marshalPartitionBy marshals a definition's partition columns to JSON for
// the JSONB column.
func marshalPartitionBy(def *catalog.Definition) ([]byte, error) {
	partitionJSON, err := json.Marshal(def.PartitionBy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal partition_by: %w", err)
	}
	return partitionJSON, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanDefinitionRow scans a database row into a Definition. Compatible with
// both sql.Row (single) and sql.Rows (multiple).
func scanDefinitionRow(row scanner) (*catalog.Definition, error) {
	var def catalog.Definition
	var kind, unit, strategy string
	var partitionJSON []byte

	err := row.Scan(
		&def.ID,
		&def.Name,
		&kind,
		&def.Column,
		&def.Subtrahend,
		&def.OrderColumn,
		&partitionJSON,
		&def.WindowLength,
		&def.Offset,
		&unit,
		&strategy,
		&def.Fingerprint,
		&def.CreatedAt,
		&def.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan definition row: %w", err)
	}

	if err := json.Unmarshal(partitionJSON, &def.PartitionBy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal partition_by: %w", err)
	}

	def.Kind = catalog.Kind(kind)
	def.Unit = window.Unit(unit)
	def.Strategy = metric.Strategy(strategy)
	return &def, nil
}
