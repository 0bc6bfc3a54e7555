// Package adapter is the registry of database backends a dump can read
// from. Each backend lives in its own subpackage and registers itself from
// init.
package adapter

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/sqlcheck/internal/schema"
)

// ErrUnknownAdapter is returned by Get for a name nothing registered.
var ErrUnknownAdapter = errors.New("unknown adapter")

// Adapter creates database connections.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Connection, error)
	Name() string
	DefaultPort() int
}

// Connection represents an open database to dump.
type Connection interface {
	// Objects lists the user schema objects: tables ordered by name, then
	// indexes, triggers and views.
	Objects(ctx context.Context) ([]schema.Object, error)
	// Rows calls fn for every row of table with each value rendered as an
	// SQL literal.
	Rows(ctx context.Context, table string, fn func(values []string) error) error

	Ping(ctx context.Context) error
	Close() error

	DatabaseName() string
	AdapterName() string
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}

// Get looks up a registered adapter.
func Get(name string) (Adapter, error) {
	a, ok := Registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAdapter, name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names returns the registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for n := range Registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// QuoteIdent quotes an identifier with double quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// IdentQuoter is implemented by connections whose dialect quotes
// identifiers some other way than with double quotes.
type IdentQuoter interface {
	QuoteIdent(name string) string
}

// QuoteIdentFor quotes name the way conn's dialect expects.
func QuoteIdentFor(conn Connection, name string) string {
	if q, ok := conn.(IdentQuoter); ok {
		return q.QuoteIdent(name)
	}
	return QuoteIdent(name)
}

// QuoteString renders s as a single-quoted SQL string literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders a value scanned from a database/sql or pgx row as an SQL
// literal the way SQLite's quote() does.
func Literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return QuoteString(val)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(val)) + "'"
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return QuoteString(val.Format("2006-01-02"))
		}
		return QuoteString(val.Format("2006-01-02 15:04:05"))
	case [16]byte:
		return QuoteString(uuid.UUID(val).String())
	case uuid.UUID:
		return QuoteString(val.String())
	case fmt.Stringer:
		return QuoteString(val.String())
	default:
		return QuoteString(fmt.Sprint(v))
	}
}

// ScanLiterals walks a database/sql result set and calls fn with each row
// rendered through Literal.
func ScanLiterals(rows *sql.Rows, fn func(values []string) error) error {
	return ScanLiteralsWith(rows, func(_ string, v any) string { return Literal(v) }, fn)
}

// ScanLiteralsWith is ScanLiterals with a driver-specific renderer, which is
// handed each value along with its column's database type name. Drivers
// that hand back text as []byte only get a blob literal for binary column
// types.
func ScanLiteralsWith(rows *sql.Rows, literal func(dbType string, v any) string, fn func(values []string) error) error {
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	names := make([]string, len(types))
	binary := make([]bool, len(types))
	for i, ct := range types {
		names[i] = ct.DatabaseTypeName()
		binary[i] = isBinaryType(names[i])
	}
	vals := make([]any, len(types))
	ptrs := make([]any, len(types))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		out := make([]string, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok && !binary[i] {
				v = string(b)
			}
			out[i] = literal(names[i], v)
		}
		if err := fn(out); err != nil {
			return err
		}
	}
	return rows.Err()
}

func isBinaryType(name string) bool {
	name = strings.ToUpper(name)
	for _, s := range []string{"BLOB", "BINARY", "BYTEA", "RAW"} {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}
