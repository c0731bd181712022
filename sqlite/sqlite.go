// Package sqlite provides a durable tern.Graph backed by a SQLite database.
// Terms are stored in their N-Quads text form; the empty string in the
// graph column marks the default graph.
package sqlite

import (
	"database/sql"
	"fmt"
	"iter"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/tern"
	"github.com/jward/tern/nquads"
)

// Store is a tern.Graph over a single SQLite statements table.
type Store struct {
	db   *sql.DB
	opts tern.Options
}

// Compile-time check: *Store satisfies tern.Graph.
var _ tern.Graph = (*Store)(nil)

// Option configures a Store at construction.
type Option func(*Store)

// WithValidation sets whether Insert and Apply reject invalid statements.
// The default is true.
func WithValidation(validate bool) Option {
	return func(s *Store) { s.opts[tern.OptValidate] = validate }
}

// NewStore opens (creating if necessary) a SQLite database at dbPath with
// WAL mode enabled and migrates the schema.
func NewStore(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, opts: tern.Options{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS statements (
  subject    TEXT NOT NULL,
  predicate  TEXT NOT NULL,
  object     TEXT NOT NULL,
  graph      TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (subject, predicate, object, graph)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_statements_object ON statements(object);
CREATE INDEX IF NOT EXISTS idx_statements_predicate_object ON statements(predicate, object);
`

// Options returns the configuration fixed at construction.
func (s *Store) Options() tern.Options { return s.opts }

// Durable reports true: SQLite state survives restart.
func (s *Store) Durable() bool { return true }

func encode(st tern.Statement) (subj, pred, obj, graph string) {
	subj = nquads.FormatTerm(st.Subject)
	pred = nquads.FormatTerm(st.Predicate)
	obj = nquads.FormatTerm(st.Object)
	if st.Graph != nil {
		graph = nquads.FormatTerm(st.Graph)
	}
	return subj, pred, obj, graph
}

func decode(subj, pred, obj, graph string) (tern.Statement, error) {
	s, err := nquads.ParseTerm(subj)
	if err != nil {
		return tern.Statement{}, fmt.Errorf("decode subject: %w", err)
	}
	p, err := nquads.ParseTerm(pred)
	if err != nil {
		return tern.Statement{}, fmt.Errorf("decode predicate: %w", err)
	}
	o, err := nquads.ParseTerm(obj)
	if err != nil {
		return tern.Statement{}, fmt.Errorf("decode object: %w", err)
	}
	st := tern.Statement{Subject: s, Predicate: p, Object: o}
	if graph != "" {
		g, err := nquads.ParseTerm(graph)
		if err != nil {
			return tern.Statement{}, fmt.Errorf("decode graph: %w", err)
		}
		st.Graph = g
	}
	return st, nil
}

// Insert adds st. Re-inserting an existing statement is a no-op.
func (s *Store) Insert(st tern.Statement) error {
	if s.opts.Validating() {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}
	subj, pred, obj, graph := encode(st)
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO statements (subject, predicate, object, graph) VALUES (?, ?, ?, ?)`,
		subj, pred, obj, graph,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

// Delete removes st. Deleting an absent statement is a no-op.
func (s *Store) Delete(st tern.Statement) error {
	subj, pred, obj, graph := encode(st)
	_, err := s.db.Exec(
		`DELETE FROM statements WHERE subject = ? AND predicate = ? AND object = ? AND graph = ?`,
		subj, pred, obj, graph,
	)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

// Has reports whether st is present.
func (s *Store) Has(st tern.Statement) (bool, error) {
	subj, pred, obj, graph := encode(st)
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM statements WHERE subject = ? AND predicate = ? AND object = ? AND graph = ?`,
		subj, pred, obj, graph,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has: %w", err)
	}
	return true, nil
}

// Count returns the number of stored statements.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM statements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// patternWhere builds WHERE constraints from the pattern's constant
// positions. Variable and nested-pattern positions contribute nothing here;
// tern.Pattern.Matches does the final filtering after decode.
func patternWhere(p *tern.Pattern) (string, []any) {
	if p == nil {
		return "", nil
	}
	var clauses []string
	var args []any
	addConst := func(col string, pt tern.PatternTerm) {
		switch c := pt.(type) {
		case nil, *tern.Pattern:
		case *tern.Variable:
			if c.Bound() {
				clauses = append(clauses, col+" = ?")
				args = append(args, nquads.FormatTerm(c.Value()))
			}
		default:
			clauses = append(clauses, col+" = ?")
			args = append(args, nquads.FormatTerm(c.(tern.Term)))
		}
	}
	addConst("subject", p.Subject)
	addConst("predicate", p.Predicate)
	addConst("object", p.Object)
	switch g := p.Graph.(type) {
	case nil:
	case *tern.Variable:
		if g.Bound() {
			clauses = append(clauses, "graph = ?")
			args = append(args, nquads.FormatTerm(g.Value()))
		}
	default:
		if t, ok := g.(tern.Term); ok && t == tern.DefaultGraph {
			clauses = append(clauses, "graph = ''")
		} else if ok {
			clauses = append(clauses, "graph = ?")
			args = append(args, nquads.FormatTerm(t))
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// QueryPattern yields the stored statements matching p. Each range runs a
// fresh query, so the sequence observes the store's state at that time.
func (s *Store) QueryPattern(p *tern.Pattern) iter.Seq2[tern.Statement, error] {
	return func(yield func(tern.Statement, error) bool) {
		where, args := patternWhere(p)
		rows, err := s.db.Query(`SELECT subject, predicate, object, graph FROM statements`+where, args...)
		if err != nil {
			yield(tern.Statement{}, fmt.Errorf("query pattern: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var subj, pred, obj, graph string
			if err := rows.Scan(&subj, &pred, &obj, &graph); err != nil {
				yield(tern.Statement{}, fmt.Errorf("query pattern: scan: %w", err))
				return
			}
			st, err := decode(subj, pred, obj, graph)
			if err != nil {
				yield(tern.Statement{}, fmt.Errorf("query pattern: %w", err))
				return
			}
			if p != nil && !p.Matches(st) {
				continue
			}
			if !yield(st, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(tern.Statement{}, fmt.Errorf("query pattern: rows: %w", err))
		}
	}
}

// Apply applies cs in a single SQL transaction: every delete and insert
// takes effect, or none do. Inserts are validated before any SQL runs.
func (s *Store) Apply(cs tern.Changeset) error {
	deletes, inserts := cs.Deletes(), cs.Inserts()
	if s.opts.Validating() {
		for _, st := range inserts {
			if err := st.Validate(); err != nil {
				return fmt.Errorf("apply changeset: %w", err)
			}
		}
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("apply changeset: begin: %w", err)
	}
	defer tx.Rollback()

	for _, st := range deletes {
		subj, pred, obj, graph := encode(st)
		if _, err := tx.Exec(
			`DELETE FROM statements WHERE subject = ? AND predicate = ? AND object = ? AND graph = ?`,
			subj, pred, obj, graph,
		); err != nil {
			return fmt.Errorf("apply changeset: delete: %w", err)
		}
	}
	for _, st := range inserts {
		subj, pred, obj, graph := encode(st)
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO statements (subject, predicate, object, graph) VALUES (?, ?, ?, ?)`,
			subj, pred, obj, graph,
		); err != nil {
			return fmt.Errorf("apply changeset: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply changeset: commit: %w", err)
	}
	return nil
}

// Transact runs fn inside a staged tern transaction whose commit lands as
// one Apply call, hence one SQL transaction.
func (s *Store) Transact(mutable bool, fn func(*tern.Transaction) error) error {
	return tern.RunTransaction(s, mutable, fn)
}
