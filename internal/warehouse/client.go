// Package warehouse reads the analytics warehouse over its
// postgres-compatible SQL endpoint. Access is read-oriented: the batch
// jobs and the REST layer pull behavioral data, they never write.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/lib/pq"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

type Client struct {
	db      *sql.DB
	catalog string
	schema  string
	logger  logger.Logger
}

func NewClient(dsn, catalog, schema string, log logger.Logger) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Client{
		db:      db,
		catalog: catalog,
		schema:  schema,
		logger:  log.WithFields(map[string]interface{}{"component": "warehouse"}),
	}, nil
}

// NewClientWithDB wires an existing handle, used by tests.
func NewClientWithDB(db *sql.DB, catalog, schema string, log logger.Logger) *Client {
	return &Client{
		db:      db,
		catalog: catalog,
		schema:  schema,
		logger:  log.WithFields(map[string]interface{}{"component": "warehouse"}),
	}
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// ListCatalogs returns the databases visible on the endpoint.
func (c *Client) ListCatalogs(ctx context.Context) ([]string, error) {
	return c.listColumn(ctx, "list_catalogs",
		`SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`)
}

// ListSchemas returns the schemas of the configured catalog.
func (c *Client) ListSchemas(ctx context.Context) ([]string, error) {
	return c.listColumn(ctx, "list_schemas",
		`SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`)
}

// ListTables returns the tables of the configured schema.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	return c.listColumn(ctx, "list_tables",
		`SELECT table_name FROM information_schema.tables WHERE table_schema = $1 ORDER BY table_name`,
		c.schema)
}

// FetchTable pulls up to limit rows of one warehouse table.
func (c *Client) FetchTable(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	if !identRe.MatchString(table) {
		return nil, errors.NewTableNotFoundError(table)
	}
	if limit <= 0 || limit > 10000 {
		limit = 1000
	}
	return c.ExecuteQuery(ctx, fmt.Sprintf("SELECT * FROM %s.%s LIMIT %d", c.schema, table, limit))
}

// ExecuteQuery runs a read query and returns generic records.
func (c *Client) ExecuteQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError("warehouse")
		}
		return nil, errors.NewQueryExecutionFailedError("warehouse", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("warehouse", err)
	}

	var records []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.NewQueryExecutionFailedError("warehouse", err)
		}
		record := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("warehouse", err)
	}

	c.logger.Debug("warehouse query complete", map[string]interface{}{
		"rows":       len(records),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return records, nil
}

func (c *Client) listColumn(ctx context.Context, queryType, query string, args ...interface{}) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewQueryExecutionFailedError(queryType, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
