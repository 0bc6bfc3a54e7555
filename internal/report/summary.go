package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sadopc/sqlcheck/internal/grade"
)

// Entry is one graded file in a batch summary. Err is set when the file
// could not be graded.
type Entry struct {
	Path    string        `json:"path"`
	Summary grade.Summary `json:"summary"`
	Score   float64       `json:"score"`
	Err     error         `json:"-"`
}

// NewEntry summarizes the report for path.
func NewEntry(path string, r *grade.Report, err error) Entry {
	e := Entry{Path: path, Err: err}
	if r != nil {
		e.Summary = r.Summary
		e.Score = r.Score()
	}
	return e
}

var summaryHeader = []string{"file", "unchanged", "corrected", "missing", "extra", "score"}

func (e Entry) record() []string {
	if e.Err != nil {
		return []string{e.Path, "", "", "", "", "error: " + e.Err.Error()}
	}
	return []string{
		e.Path,
		strconv.Itoa(e.Summary.Unchanged),
		strconv.Itoa(e.Summary.Corrected),
		strconv.Itoa(e.Summary.Missing),
		strconv.Itoa(e.Summary.Extra),
		strconv.FormatFloat(e.Score, 'f', 2, 64),
	}
}

// SummaryTable renders one row per entry plus the mean score.
func SummaryTable(w io.Writer, entries []Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(summaryHeader))
	for i, h := range summaryHeader {
		header[i] = h
	}
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	var total float64
	var graded int
	for _, e := range entries {
		rec := e.record()
		row := make(table.Row, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		t.AppendRow(row)
		if e.Err == nil {
			total += e.Score
			graded++
		}
	}
	if graded > 0 {
		t.AppendFooter(table.Row{fmt.Sprintf("%d graded", graded), "", "", "", "mean", strconv.FormatFloat(total/float64(graded), 'f', 2, 64)})
	}
	t.Render()
}

// ExportCSV writes the entries to a CSV file at path.
func ExportCSV(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write(e.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ExportJSON writes the entries to path as a JSON array.
func ExportJSON(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	type jsonEntry struct {
		Entry
		Error string `json:"error,omitempty"`
	}
	out := make([]jsonEntry, 0, len(entries))
	for _, e := range entries {
		je := jsonEntry{Entry: e}
		if e.Err != nil {
			je.Error = e.Err.Error()
		}
		out = append(out, je)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return f.Close()
}
