package sqlfmt

import (
	"reflect"
	"strings"
	"testing"

	"github.com/sadopc/sqlcheck/internal/textutil"
)

func lines(s ...string) []string { return s }

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "case is normalized",
			in:   "SELECT * FROM users",
			want: lines("SELECT *", "FROM USERS"),
		},
		{
			name: "select list and conditions",
			in:   "select id, name from users where age between 18 and 30 and name like 'A%' order by id desc, name;",
			want: lines(
				"SELECT ID,",
				"       NAME",
				"FROM USERS",
				"WHERE AGE BETWEEN 18 AND 30",
				"  AND NAME LIKE 'A%'",
				"ORDER BY ID DESC,",
				"         NAME;",
			),
		},
		{
			name: "subquery aligned after its parenthesis",
			in:   "select name from users where id in (select user_id from orders where total > 100);",
			want: lines(
				"SELECT NAME",
				"FROM USERS",
				"WHERE ID IN (SELECT USER_ID",
				"             FROM ORDERS",
				"             WHERE TOTAL > 100);",
			),
		},
		{
			name: "function calls are tight",
			in:   "select count(*), max(price) from items group by category having count(*) > 1;",
			want: lines(
				"SELECT COUNT(*),",
				"       MAX(PRICE)",
				"FROM ITEMS",
				"GROUP BY CATEGORY",
				"HAVING COUNT(*) > 1;",
			),
		},
		{
			name: "join conditions",
			in:   "select u.name, o.total from users u left outer join orders o on u.id = o.user_id and o.total > 0;",
			want: lines(
				"SELECT U.NAME,",
				"       O.TOTAL",
				"FROM USERS U",
				"LEFT OUTER JOIN ORDERS O ON U.ID = O.USER_ID",
				"  AND O.TOTAL > 0;",
			),
		},
		{
			name: "operators",
			in:   "select -1, a-b, x>=2 from t",
			want: lines(
				"SELECT -1,",
				"       A - B,",
				"       X >= 2",
				"FROM T",
			),
		},
		{
			name: "double quotes removed",
			in:   `SELECT "name" FROM "users"`,
			want: lines("SELECT NAME", "FROM USERS"),
		},
		{
			name: "embedded comments stripped",
			in:   "select a -- the a column\nfrom t /* table */;",
			want: lines("SELECT A", "FROM T;"),
		},
		{
			name: "comment lines and blank lines",
			in:   "# Q1\nselect a from t;\n\n\n-- Q2\nselect b from t; select c from t;\n\n",
			want: lines(
				"# Q1",
				"SELECT A",
				"FROM T;",
				"",
				"-- Q2",
				"SELECT B",
				"FROM T;",
				"",
				"SELECT C",
				"FROM T;",
			),
		},
		{
			name: "leading blank lines dropped",
			in:   "\n\n  \nselect 1;",
			want: lines("SELECT 1;"),
		},
		{
			name: "create table as select",
			in:   "create table t as select * from s;",
			want: lines("CREATE TABLE T AS", "SELECT *", "FROM S;"),
		},
		{
			name: "string prefixes and bracket names kept whole",
			in:   `select e'\n', [other col] from t;`,
			want: lines(
				`SELECT e'\n',`,
				"       [other col]",
				"FROM T;",
			),
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Format(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatTable(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "names padded to display width",
			in:   "CREATE TABLE users (id INTEGER PRIMARY KEY, 名前 TEXT NOT NULL, age INTEGER);",
			want: lines(
				"CREATE TABLE USERS (",
				"    ID   INTEGER PRIMARY KEY,",
				"    名前 TEXT NOT NULL,",
				"    AGE  INTEGER",
				");",
			),
		},
		{
			name: "wide name narrower than ascii name",
			in:   "create table users (id integer, 名前 text, email text)",
			want: lines(
				"CREATE TABLE USERS (",
				"    ID    INTEGER,",
				"    名前  TEXT,",
				"    EMAIL TEXT",
				");",
			),
		},
		{
			name: "nested commas do not split records",
			in:   "create table t (a int, b int, foreign key (a, b) references s(x, y));",
			want: lines(
				"CREATE TABLE T (",
				"    A INT,",
				"    B INT,",
				"    FOREIGN KEY (A, B) REFERENCES S(X, Y)",
				");",
			),
		},
		{
			name: "type arguments stay tight",
			in:   "create table p (code varchar(10) not null, price decimal(10, 2), primary key (code))",
			want: lines(
				"CREATE TABLE P (",
				"    CODE  VARCHAR(10) NOT NULL,",
				"    PRICE DECIMAL(10, 2),",
				"    PRIMARY KEY (CODE)",
				");",
			),
		},
		{
			name: "trailing clause",
			in:   "create table t (id int) without rowid;",
			want: lines(
				"CREATE TABLE T (",
				"    ID INT",
				")",
				"WITHOUT ROWID;",
			),
		},
		{
			name: "if not exists",
			in:   "create table if not exists t (id int);",
			want: lines(
				"CREATE TABLE IF NOT EXISTS T (",
				"    ID INT",
				");",
			),
		},
		{
			name: "empty body",
			in:   "create table t ();",
			want: lines("CREATE TABLE T (", ");"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Format(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatColumnAlignment(t *testing.T) {
	got := Format("create table users (id integer, 名前 text, email text);")
	// every type column starts at the same display column
	col := -1
	for _, l := range got[1 : len(got)-1] {
		fields := strings.SplitN(strings.TrimSpace(l), " ", 2)
		name := fields[0]
		rest := strings.TrimLeft(fields[1], " ")
		c := textutil.DisplayWidth(l) - textutil.DisplayWidth(rest)
		if col < 0 {
			col = c
		}
		if c != col {
			t.Errorf("line %q: type starts at column %d, want %d (name %q)", l, c, col, name)
		}
	}
}

func TestFormatIdempotent(t *testing.T) {
	inputs := []string{
		"SELECT * FROM users",
		"select id, name from users where age between 18 and 30 and name like 'A%' order by id desc, name;",
		"select name from users where id in (select user_id from orders where total > 100 or total < 0);",
		"select count(*), max(price) from items group by category having count(*) > 1;",
		"select u.name from users u join orders o on u.id = o.user_id;",
		"# header\ncreate table users (id integer primary key, 名前 text, email text unique, foreign key (id) references x(id));\n\ninsert into users values (1, 'a', 'b');",
		"create table t (id int) without rowid; select -1, -(a), a - -1 from t;",
		"update t set a = 1, b = 'x' where id = 3;\ndelete from t where id in (1, 2, 3);",
		"with x as (select 1 as n) select n from x union all select 2;",
		"select case when a = 1 then 'one' else 'other' end from t",
	}
	for _, in := range inputs {
		first := Format(in)
		second := Format(textutil.JoinLines(first))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Format not idempotent for %q\nfirst:  %q\nsecond: %q", in, first, second)
		}
	}
}

func TestFormatDeterministic(t *testing.T) {
	in := "select a, b from t where x = 1 and y = 2"
	want := Format(in)
	for i := 0; i < 10; i++ {
		if got := Format(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %q, want %q", i, got, want)
		}
	}
}

func TestFormatStatementOptions(t *testing.T) {
	f := New(Options{
		KeywordCase:          CaseLower,
		IdentifierCase:       CaseUnchanged,
		SpaceAroundOperators: true,
	})
	got := f.FormatStatement("SELECT Id FROM T WHERE Id=1")
	if want := "select Id from T where Id = 1"; got != want {
		t.Errorf("FormatStatement = %q, want %q", got, want)
	}
}

func TestPrettyPrint(t *testing.T) {
	got := PrettyPrint("select a,b from t where x=1 or y=2", DefaultOptions())
	want := "SELECT A,\n       B\nFROM T\nWHERE X = 1\n  OR Y = 2"
	if got != want {
		t.Errorf("PrettyPrint =\n%s\nwant\n%s", got, want)
	}
}

func TestIsTableDefinition(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"CREATE TABLE t (a int)", true},
		{"create temporary table t (a int)", true},
		{"CREATE TABLE t AS SELECT 1", false},
		{"CREATE VIEW v AS SELECT 1", false},
		{"SELECT 1", false},
		{"CREATE TABLE t", false},
	}
	for _, tt := range tests {
		if got := IsTableDefinition(tt.in); got != tt.want {
			t.Errorf("IsTableDefinition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseCase(t *testing.T) {
	tests := []struct {
		in      string
		want    Case
		wantErr bool
	}{
		{"upper", CaseUpper, false},
		{"LOWER", CaseLower, false},
		{"", CaseUnchanged, false},
		{"title", CaseUnchanged, true},
	}
	for _, tt := range tests {
		got, err := ParseCase(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCase(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCase(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
