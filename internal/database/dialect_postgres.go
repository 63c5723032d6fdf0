package database

import (
	"fmt"
)

// PostgresDialect implements Dialect for github.com/lib/pq.
type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

// Placeholder returns "$N" for the given position.
func (d *PostgresDialect) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// InitStatements is empty; PostgreSQL needs no session setup for the store.
func (d *PostgresDialect) InitStatements() []string {
	return nil
}

func (d *PostgresDialect) BodyType() string {
	return "JSONB"
}
