// Package revision ties the engine together: it resolves levels, recomputes
// aggregates, persists the result and reports discrepancies for one revision
// of a form at a time.
package revision

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Annarex/test-app-sub000/internal/calc"
	"github.com/Annarex/test-app-sub000/internal/deficit"
	"github.com/Annarex/test-app-sub000/internal/diff"
	"github.com/Annarex/test-app-sub000/internal/level"
	"github.com/Annarex/test-app-sub000/internal/model"
	"github.com/Annarex/test-app-sub000/internal/refs"
	"github.com/Annarex/test-app-sub000/internal/store"
)

// Store is the persistence the service needs.
type Store interface {
	Save(ctx context.Context, project, label string, form *model.Form, sourceFile string) (store.Revision, error)
	Load(ctx context.Context, project, label string) (*model.Form, store.Revision, error)
	SaveComputedOnly(ctx context.Context, project, label string, form *model.Form) error
	LoadReferences(ctx context.Context) (refs.Set, error)
}

// Result is the outcome of one run over a revision.
type Result struct {
	Revision      store.Revision
	Form          *model.Form
	Deficit       deficit.Result
	Discrepancies []diff.Discrepancy
	Warnings      []level.Warning
}

// Service runs the engine against stored revisions. Writes to the same
// revision are serialized; different revisions proceed in parallel.
type Service struct {
	store   Store
	columns model.Columns
	checker diff.Checker
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*revisionLock
}

// revisionLock is dropped from the map once its last holder or waiter
// unlocks.
type revisionLock struct {
	sync.Mutex
	refs int
}

// NewService creates a Service. A nil logger discards output.
func NewService(st Store, columns model.Columns, checker diff.Checker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:   st,
		columns: columns,
		checker: checker,
		logger:  logger,
		locks:   make(map[string]*revisionLock),
	}
}

func (s *Service) lock(project, label string) func() {
	key := project + "\x00" + label
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &revisionLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Ingest stores a freshly parsed form as a revision, replacing any previous
// content of that revision, with levels resolved and aggregates computed.
func (s *Service) Ingest(ctx context.Context, project, label string, form *model.Form, sourceFile string) (*Result, error) {
	unlock := s.lock(project, label)
	defer unlock()

	warnings, res, err := s.compute(ctx, form)
	if err != nil {
		return nil, err
	}

	rev, err := s.store.Save(ctx, project, label, form, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("saving revision %s/%s: %w", project, label, err)
	}
	s.logger.Info("revision ingested", "project", project, "revision", label, "rows", form.Len(), "source", sourceFile)
	return s.finish(rev, form, res, warnings), nil
}

// Recalculate reloads a revision, re-resolves levels against the current
// references and replaces its computed values.
func (s *Service) Recalculate(ctx context.Context, project, label string) (*Result, error) {
	unlock := s.lock(project, label)
	defer unlock()

	form, rev, err := s.store.Load(ctx, project, label)
	if err != nil {
		return nil, fmt.Errorf("loading revision %s/%s: %w", project, label, err)
	}

	warnings, res, err := s.compute(ctx, form)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveComputedOnly(ctx, project, label, form); err != nil {
		return nil, fmt.Errorf("saving computed values %s/%s: %w", project, label, err)
	}
	rev.Status = store.StatusCalculated
	s.logger.Info("revision recalculated", "project", project, "revision", label, "rows", form.Len())
	return s.finish(rev, form, res, warnings), nil
}

// Check reports the discrepancies of a revision as stored. Nothing is
// written.
func (s *Service) Check(ctx context.Context, project, label string) (*Result, error) {
	form, rev, err := s.store.Load(ctx, project, label)
	if err != nil {
		return nil, fmt.Errorf("loading revision %s/%s: %w", project, label, err)
	}
	res := deficit.FromForm(form, s.columns.Budget)
	return s.finish(rev, form, res, nil), nil
}

func (s *Service) compute(ctx context.Context, form *model.Form) ([]level.Warning, deficit.Result, error) {
	tables, err := s.store.LoadReferences(ctx)
	if err != nil {
		return nil, deficit.Result{}, fmt.Errorf("loading references: %w", err)
	}
	form.Sort()
	warnings := level.NewResolver(tables).ResolveForm(form)
	for _, w := range warnings {
		s.logger.Warn("level not resolved", "section", w.Section, "code", w.Code, "name", w.Name, "row", w.Ordinal, "nearest", w.Suggested)
	}
	return warnings, calc.ComputeForm(form, s.columns), nil
}

func (s *Service) finish(rev store.Revision, form *model.Form, res deficit.Result, warnings []level.Warning) *Result {
	ds := s.checker.CheckForm(form, s.columns, res)
	if len(ds) > 0 {
		s.logger.Info("discrepancies found", "revision", rev.Label, "count", len(ds))
	}
	return &Result{
		Revision:      rev,
		Form:          form,
		Deficit:       res,
		Discrepancies: ds,
		Warnings:      warnings,
	}
}
