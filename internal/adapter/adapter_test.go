package adapter

import (
	"context"
	"errors"
	"maps"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// mockAdapter is a minimal adapter for testing the registry.
type mockAdapter struct {
	name string
	port int
}

func (m *mockAdapter) Name() string     { return m.name }
func (m *mockAdapter) DefaultPort() int { return m.port }
func (m *mockAdapter) Connect(_ context.Context, _ string) (Connection, error) {
	return nil, errors.New("mock: not implemented")
}

func withRegistry(t *testing.T, adapters ...Adapter) {
	t.Helper()
	orig := maps.Clone(Registry)
	t.Cleanup(func() { Registry = orig })
	Registry = map[string]Adapter{}
	for _, a := range adapters {
		Register(a)
	}
}

func TestRegister(t *testing.T) {
	withRegistry(t, &mockAdapter{name: "testdb", port: 9999})

	got, ok := Registry["testdb"]
	if !ok {
		t.Fatal("expected adapter 'testdb' to be registered")
	}
	if got.DefaultPort() != 9999 {
		t.Errorf("DefaultPort() = %d, want %d", got.DefaultPort(), 9999)
	}
}

func TestGet(t *testing.T) {
	withRegistry(t, &mockAdapter{name: "beta"}, &mockAdapter{name: "alpha"})

	a, err := Get("ALPHA")
	if err != nil {
		t.Fatalf("Get(ALPHA) error = %v", err)
	}
	if a.Name() != "alpha" {
		t.Errorf("Get(ALPHA).Name() = %q", a.Name())
	}

	_, err = Get("gamma")
	if !errors.Is(err, ErrUnknownAdapter) {
		t.Fatalf("Get(gamma) error = %v, want ErrUnknownAdapter", err)
	}
	if want := `unknown adapter: "gamma" (available: alpha, beta)`; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestNames(t *testing.T) {
	withRegistry(t, &mockAdapter{name: "c"}, &mockAdapter{name: "a"}, &mockAdapter{name: "b"})
	got := Names()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

type stringer struct{}

func (stringer) String() string { return "it's" }

func TestLiteral(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "O'Brien", "'O''Brien'"},
		{"empty string", "", "''"},
		{"blob", []byte{0x01, 0xab}, "X'01AB'"},
		{"int64", int64(-42), "-42"},
		{"int32", int32(7), "7"},
		{"uint8", uint8(255), "255"},
		{"float", 1.5, "1.5"},
		{"float32", float32(0.25), "0.25"},
		{"bool", true, "1"},
		{"date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "'2024-03-01'"},
		{"timestamp", time.Date(2024, 3, 1, 13, 4, 5, 0, time.UTC), "'2024-03-01 13:04:05'"},
		{"uuid bytes", [16]byte(id), "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{"stringer", stringer{}, "'it''s'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Literal(tt.in); got != tt.want {
				t.Errorf("Literal(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdent = %s", got)
	}
}

func TestQuoteIdentForDefault(t *testing.T) {
	if got := QuoteIdentFor(nil, "order items"); got != `"order items"` {
		t.Errorf("QuoteIdentFor = %s", got)
	}
}

func TestScanLiteralsWith(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(mock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("name").OfType("VARCHAR", []byte(nil)),
		sqlmock.NewColumn("body").OfType("BLOB", []byte(nil)),
	).AddRow([]byte("it's"), []byte{0xca, 0xfe}))

	rows, err := db.Query("SELECT name, body FROM t")
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	var types []string
	var got [][]string
	err = ScanLiteralsWith(rows, func(dbType string, v any) string {
		types = append(types, dbType)
		return Literal(v)
	}, func(values []string) error {
		got = append(got, values)
		return nil
	})
	if err != nil {
		t.Fatalf("ScanLiteralsWith() error = %v", err)
	}
	if want := []string{"VARCHAR", "BLOB"}; !reflect.DeepEqual(types, want) {
		t.Errorf("column types = %v, want %v", types, want)
	}
	if want := [][]string{{"'it''s'", "X'CAFE'"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("rows = %q, want %q", got, want)
	}
}
