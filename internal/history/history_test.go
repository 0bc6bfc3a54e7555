package history

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sadopc/sqlcheck/internal/grade"
)

// newTestHistory opens a History backed by a SQLite file in a temp dir.
func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestOpenMigrates(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	v, err := h.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != 2 {
		t.Errorf("Version() = %d, want 2", v)
	}
	runs, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() on new DB error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Recent() on new DB = %d runs, want 0", len(runs))
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := h.Record(ctx, Run{Target: "subs", Answer: "answer.sql"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Close()

	h, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer h.Close()
	if _, err := h.Get(ctx, id); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}

func sampleResults() []FileResult {
	perfect := &grade.Report{Summary: grade.Summary{Unchanged: 3}}
	half := &grade.Report{Summary: grade.Summary{Unchanged: 1, Corrected: 1}}
	return []FileResult{
		NewFileResult("subs/alice.sql", perfect, 0x1, nil),
		NewFileResult("subs/bob.sql", half, 0x2, nil),
		NewFileResult("subs/carol.sql", perfect, 0x1, nil),
		NewFileResult("subs/dave.sql", nil, 0, errors.New("invalid UTF-8")),
	}
}

func TestRecordAndResults(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	id, err := h.Record(ctx, Run{StartedAt: started, Target: "subs", Answer: "answer.sql"}, sampleResults())
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if id == "" {
		t.Fatal("Record() returned an empty run ID")
	}

	run, err := h.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !run.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, started)
	}
	if run.Files != 4 || run.Failed != 1 {
		t.Errorf("Files/Failed = %d/%d, want 4/1", run.Files, run.Failed)
	}
	if want := (1 + 0.5 + 1) / 3.0; run.MeanScore < want-1e-9 || run.MeanScore > want+1e-9 {
		t.Errorf("MeanScore = %v, want %v", run.MeanScore, want)
	}

	results, err := h.Results(ctx, id)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("Results() = %d rows, want 4", len(results))
	}
	bob := results[1]
	if bob.Path != "subs/bob.sql" || bob.Corrected != 1 || bob.Score != 0.5 {
		t.Errorf("bob = %+v", bob)
	}
	if bob.Fingerprint != "0000000000000002" || bob.RunID != id {
		t.Errorf("bob fingerprint/run = %q/%q", bob.Fingerprint, bob.RunID)
	}
	if dave := results[3]; dave.Error != "invalid UTF-8" || dave.Fingerprint != "" {
		t.Errorf("dave = %+v", dave)
	}
}

func TestRecentOrdering(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, target := range []string{"first", "second", "third"} {
		_, err := h.Record(ctx, Run{
			ID:        target,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Target:    target,
			Answer:    "a.sql",
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	runs, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	var got []string
	for _, r := range runs {
		got = append(got, r.Target)
	}
	if want := []string{"third", "second"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Recent() targets = %v, want %v", got, want)
	}
	if runs[0].Files != 0 || runs[0].MeanScore != 0 {
		t.Errorf("empty run aggregates = %+v", runs[0])
	}
}

func TestSearch(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	if _, err := h.Record(ctx, Run{StartedAt: base, Target: "week1", Answer: "a.sql"}, sampleResults()); err != nil {
		t.Fatal(err)
	}
	week2 := []FileResult{{Path: "week2/zoe.sql"}}
	if _, err := h.Record(ctx, Run{StartedAt: base.Add(24 * time.Hour), Target: "week2", Answer: "a.sql"}, week2); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		pattern string
		want    []string
	}{
		{"week2", []string{"week2"}},
		{"%alice%", []string{"week1"}},
		{"week%", []string{"week2", "week1"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			runs, err := h.Search(ctx, tt.pattern, 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			var got []string
			for _, r := range runs {
				got = append(got, r.Target)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestSearchLiteralText(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, target := range []string{"quiz_1", "quizA1", "100% done", `c:\quiz`} {
		run := Run{StartedAt: base.Add(time.Duration(i) * time.Hour), Target: target, Answer: "a.sql"}
		if _, err := h.Record(ctx, run, nil); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		text string
		want []string
	}{
		{"quiz_1", []string{"quiz_1"}},
		{"%", []string{"100% done"}},
		{`c:\q`, []string{`c:\quiz`}},
		{"A1", []string{"quizA1"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			runs, err := h.Search(ctx, ContainsPattern(tt.text), 10)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			var got []string
			for _, r := range runs {
				got = append(got, r.Target)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(ContainsPattern(%q)) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsPattern(t *testing.T) {
	if got, want := ContainsPattern(`50%_a\b`), `%50\%\_a\\b%`; got != want {
		t.Errorf("ContainsPattern = %s, want %s", got, want)
	}
}

func TestDuplicates(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	id, err := h.Record(ctx, Run{Target: "subs", Answer: "a.sql"}, sampleResults())
	if err != nil {
		t.Fatal(err)
	}
	groups, err := h.Duplicates(ctx, id)
	if err != nil {
		t.Fatalf("Duplicates() error = %v", err)
	}
	want := [][]string{{"subs/alice.sql", "subs/carol.sql"}}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("Duplicates() = %v, want %v", groups, want)
	}
}

func TestGetUnknown(t *testing.T) {
	h := newTestHistory(t)
	if _, err := h.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()
	for _, id := range []string{"abc123", "abd456"} {
		if _, err := h.Record(ctx, Run{ID: id, Target: "subs", Answer: "a.sql"}, nil); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		prefix string
		want   string
		err    error
	}{
		{"abc", "abc123", nil},
		{"abd456", "abd456", nil},
		{"ab", "", ErrAmbiguous},
		{"zz", "", ErrNotFound},
		{"", "", ErrNotFound},
	}
	for _, tt := range tests {
		got, err := h.Resolve(ctx, tt.prefix)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.prefix, got, err, tt.want, tt.err)
		}
	}
}

func TestClear(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	id, err := h.Record(ctx, Run{Target: "subs", Answer: "a.sql"}, sampleResults())
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	runs, _ := h.Recent(ctx, 10)
	results, _ := h.Results(ctx, id)
	if len(runs) != 0 || len(results) != 0 {
		t.Errorf("after Clear: %d runs, %d results", len(runs), len(results))
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || len(a) != 36 {
		t.Errorf("NewRunID() = %q, %q", a, b)
	}
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		offset time.Duration
		want   string
	}{
		{5 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{2 * time.Hour, "2h ago"},
		{36 * time.Hour, "yesterday"},
		{72 * time.Hour, "3d ago"},
	}
	for _, tt := range tests {
		got := RelativeTime(time.Now().Add(-tt.offset))
		if got != tt.want {
			t.Errorf("RelativeTime(-%v) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}
