// Package runlog keeps an append-only CSV audit trail of engine runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Outcomes of a run.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// FileName is the log file inside the logs directory.
const FileName = "runs.csv"

// Header is the CSV header of the run log.
const Header = "timestamp,command,project,revision,outcome,discrepancies,warnings,details"

const (
	numFields        = 8
	colTimestamp     = 0
	colCommand       = 1
	colProject       = 2
	colRevision      = 3
	colOutcome       = 4
	colDiscrepancies = 5
	colWarnings      = 6
	colDetails       = 7
)

// Entry records one command run against a revision.
type Entry struct {
	Timestamp     time.Time
	Command       string
	Project       string
	Revision      string
	Outcome       string
	Discrepancies int
	Warnings      int
	Details       string
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colCommand] = e.Command
	row[colProject] = e.Project
	row[colRevision] = e.Revision
	row[colOutcome] = e.Outcome
	row[colDiscrepancies] = strconv.Itoa(e.Discrepancies)
	row[colWarnings] = strconv.Itoa(e.Warnings)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	nd, err := strconv.Atoi(record[colDiscrepancies])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing discrepancies %q: %w", record[colDiscrepancies], err)
	}
	nw, err := strconv.Atoi(record[colWarnings])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing warnings %q: %w", record[colWarnings], err)
	}
	return Entry{
		Timestamp:     ts,
		Command:       record[colCommand],
		Project:       record[colProject],
		Revision:      record[colRevision],
		Outcome:       record[colOutcome],
		Discrepancies: nd,
		Warnings:      nw,
		Details:       record[colDetails],
	}, nil
}

// Append writes entries to <dir>/runs.csv, creating the file and header if needed.
func Append(dir string, entries ...Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry of <dir>/runs.csv, or nil if there is no log yet.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ForRevision filters entries to one project revision, newest last.
func ForRevision(entries []Entry, project, revision string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Project == project && e.Revision == revision {
			out = append(out, e)
		}
	}
	return out
}
