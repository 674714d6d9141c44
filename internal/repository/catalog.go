package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
)

// identRe admits plain SQL identifiers. Table and column names arrive
// from HTTP callers and are interpolated into statements, so anything
// else is rejected outright.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Catalog gives controlled ad-hoc access to the operational database:
// table discovery, row browsing, guarded free-form queries.
type Catalog struct {
	db     *sql.DB
	logger logger.Logger
}

func NewCatalog(db *sql.DB, log logger.Logger) *Catalog {
	return &Catalog{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"repository": "catalog"}),
	}
}

// ListTables returns the table names in the public schema.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_tables", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_tables", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableExists reports whether the named table is present.
func (c *Catalog) TableExists(ctx context.Context, table string) (bool, error) {
	if !identRe.MatchString(table) {
		return false, errors.NewTableNotFoundError(table)
	}

	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM information_schema.tables
		 WHERE table_schema = 'public' AND table_name = $1`, table).Scan(&count)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("table_exists", err)
	}
	return count > 0, nil
}

// TableSchema returns the column definitions of a table.
func (c *Catalog) TableSchema(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := c.requireTable(ctx, table); err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT column_name, data_type, is_nullable FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("table_schema", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, errors.NewQueryExecutionFailedError("table_schema", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// RowCount returns the number of rows in a table.
func (c *Catalog) RowCount(ctx context.Context, table string) (int64, error) {
	if err := c.requireTable(ctx, table); err != nil {
		return 0, err
	}

	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("row_count", err)
	}
	return count, nil
}

// Rows returns a page of rows from a table as generic records.
func (c *Catalog) Rows(ctx context.Context, table string, limit, offset int) ([]map[string]interface{}, error) {
	if err := c.requireTable(ctx, table); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d OFFSET %d", table, limit, offset)
	return c.collectRows(ctx, "rows", query)
}

// Query runs a free-form read statement. Anything but a SELECT is
// rejected before touching the database.
func (c *Catalog) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT") {
		return nil, errors.NewInvalidQueryTypeError("expected SELECT")
	}
	return c.collectRows(ctx, "query", query)
}

// Exec runs a free-form write statement (INSERT/UPDATE/DELETE) and
// returns the number of affected rows.
func (c *Catalog) Exec(ctx context.Context, statement string) (int64, error) {
	verb := firstWord(statement)
	switch verb {
	case "INSERT", "UPDATE", "DELETE":
	default:
		return 0, errors.NewInvalidQueryTypeError(fmt.Sprintf("expected INSERT/UPDATE/DELETE, got %q", verb))
	}

	result, err := c.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, errors.NewQueryExecutionFailedError("exec", err)
	}
	affected, _ := result.RowsAffected()

	c.logger.Info("statement executed", map[string]interface{}{
		"verb":     verb,
		"affected": affected,
	})
	return affected, nil
}

// InsertRow inserts one generic record into a table. Column names are
// validated as identifiers; values travel as placeholders.
func (c *Catalog) InsertRow(ctx context.Context, table string, row map[string]interface{}) error {
	if err := c.requireTable(ctx, table); err != nil {
		return err
	}

	columns := make([]string, 0, len(row))
	placeholders := make([]string, 0, len(row))
	values := make([]interface{}, 0, len(row))
	i := 1
	for col, val := range row {
		if !identRe.MatchString(col) {
			return errors.NewInvalidQueryTypeError(fmt.Sprintf("invalid column name %q", col))
		}
		columns = append(columns, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
		values = append(values, val)
		i++
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if _, err := c.db.ExecContext(ctx, query, values...); err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// InsertMany inserts a batch of records in one transaction. Either all
// rows land or none do.
func (c *Catalog) InsertMany(ctx context.Context, table string, rows []map[string]interface{}) error {
	if err := c.requireTable(ctx, table); err != nil {
		return err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		columns := make([]string, 0, len(row))
		placeholders := make([]string, 0, len(row))
		values := make([]interface{}, 0, len(row))
		i := 1
		for col, val := range row {
			if !identRe.MatchString(col) {
				return errors.NewInvalidQueryTypeError(fmt.Sprintf("invalid column name %q", col))
			}
			columns = append(columns, col)
			placeholders = append(placeholders, fmt.Sprintf("$%d", i))
			values = append(values, val)
			i++
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return errors.NewDatabaseInsertFailedError(err)
		}
	}
	return tx.Commit()
}

// Search runs a LIKE match over one column.
func (c *Catalog) Search(ctx context.Context, table, column, value string, limit int) ([]map[string]interface{}, error) {
	if err := c.requireTable(ctx, table); err != nil {
		return nil, err
	}
	if !identRe.MatchString(column) {
		return nil, errors.NewInvalidQueryTypeError(fmt.Sprintf("invalid column name %q", column))
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s::text ILIKE $1 LIMIT %d", table, column, limit)
	return c.collectRows(ctx, "search", query, "%"+value+"%")
}

func (c *Catalog) requireTable(ctx context.Context, table string) error {
	exists, err := c.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewTableNotFoundError(table)
	}
	return nil
}

func (c *Catalog) collectRows(ctx context.Context, queryType, query string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewQueryTimeoutError(queryType)
		}
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	}

	var records []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.NewQueryExecutionFailedError(queryType, err)
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
	return records, rows.Err()
}

func firstWord(statement string) string {
	fields := strings.Fields(strings.TrimSpace(statement))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
