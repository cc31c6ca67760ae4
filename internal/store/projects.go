package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Revision statuses, in lifecycle order.
const (
	StatusCreated    = "created"
	StatusParsed     = "parsed"
	StatusCalculated = "calculated"
	StatusExported   = "exported"
)

// Project groups the revisions of one reporting entity.
type Project struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

// Revision is one submitted version of a form within a project.
type Revision struct {
	ID         int64  `db:"id"`
	ProjectID  string `db:"project_id"`
	Label      string `db:"label"`
	Status     string `db:"status"`
	SourceFile string `db:"source_file"`
	CreatedAt  string `db:"created_at"`
	UpdatedAt  string `db:"updated_at"`
}

// CreateProject inserts a project with a fresh id.
func (s *Store) CreateProject(ctx context.Context, name string) (Project, error) {
	p := Project{ID: uuid.NewString(), Name: strings.TrimSpace(name), CreatedAt: now()}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO projects (id, name, created_at) VALUES (?, ?, ?)`),
		p.ID, p.Name, p.CreatedAt)
	if err != nil {
		return Project{}, wrap("create project", err)
	}
	return p, nil
}

// Project returns a project by name.
func (s *Store) Project(ctx context.Context, name string) (Project, error) {
	var p Project
	err := s.db.GetContext(ctx, &p, s.db.Rebind(`SELECT id, name, created_at FROM projects WHERE name = ?`), strings.TrimSpace(name))
	if err != nil {
		return Project{}, wrap("get project", err)
	}
	return p, nil
}

// Projects lists every project by name.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	projects := []Project{}
	if err := s.db.SelectContext(ctx, &projects, `SELECT id, name, created_at FROM projects ORDER BY name`); err != nil {
		return nil, wrap("list projects", err)
	}
	return projects, nil
}

// DeleteProject removes a project and everything under it.
func (s *Store) DeleteProject(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM projects WHERE name = ?`), strings.TrimSpace(name))
	if err != nil {
		return wrap("delete project", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return wrap("delete project", ErrNotFound)
	}
	return nil
}

// Revisions lists the revisions of a project in creation order.
func (s *Store) Revisions(ctx context.Context, project string) ([]Revision, error) {
	p, err := s.Project(ctx, project)
	if err != nil {
		return nil, err
	}
	revs := []Revision{}
	err = s.db.SelectContext(ctx, &revs, s.db.Rebind(`SELECT `+revisionColumns+` FROM revisions WHERE project_id = ? ORDER BY id`), p.ID)
	if err != nil {
		return nil, wrap("list revisions", err)
	}
	return revs, nil
}

// Revision returns one revision of a project.
func (s *Store) Revision(ctx context.Context, project, label string) (Revision, error) {
	return findRevision(ctx, s.db, project, label)
}

// SetRevisionStatus records a lifecycle step.
func (s *Store) SetRevisionStatus(ctx context.Context, project, label, status string) error {
	rev, err := s.Revision(ctx, project, label)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`UPDATE revisions SET status = ?, updated_at = ? WHERE id = ?`), status, now(), rev.ID)
	return wrap("set revision status", err)
}

// DeleteRevision removes a revision with its rows, values and metadata.
func (s *Store) DeleteRevision(ctx context.Context, project, label string) error {
	rev, err := s.Revision(ctx, project, label)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM revisions WHERE id = ?`), rev.ID)
	return wrap("delete revision", err)
}

const revisionColumns = `id, project_id, label, status, source_file, created_at, updated_at`

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	Rebind(string) string
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func findRevision(ctx context.Context, q queryer, project, label string) (Revision, error) {
	var rev Revision
	err := q.GetContext(ctx, &rev, q.Rebind(`SELECT r.id, r.project_id, r.label, r.status, r.source_file, r.created_at, r.updated_at
		FROM revisions r JOIN projects p ON p.id = r.project_id
		WHERE p.name = ? AND r.label = ?`), strings.TrimSpace(project), strings.TrimSpace(label))
	if err != nil {
		return Revision{}, wrap("get revision", err)
	}
	return rev, nil
}
