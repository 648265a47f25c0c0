package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

var ErrInvalidTable = errors.New("invalid table name")

// TableReader reads whole tables as text, header row first.
type TableReader struct {
	db *sql.DB
}

func NewTableReader(db *sql.DB) *TableReader {
	return &TableReader{db: db}
}

// ReadTable runs SELECT * on table, which may be schema-qualified. NULL cells
// come back as empty strings.
func (t *TableReader) ReadTable(ctx context.Context, table string) ([][]string, error) {
	ident, err := parseIdentifier(table)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, "SELECT * FROM "+ident.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", table, err)
	}

	out := [][]string{cols}
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func parseIdentifier(table string) (pgx.Identifier, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, ErrInvalidTable
	}
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
		}
		parts[i] = p
	}
	return pgx.Identifier(parts), nil
}
