package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vthunder/chronograph/internal/chronoerr"
)

// EdgeRow is the raw persisted shape of one edge validity interval.
// Historical rows are retained (primary key includes valid_from, per the
// relaxed-key option spec.md §4.1 documents) so edge history survives
// across updates; invariant 4 (no overlapping current edges) is enforced
// by always closing the prior current row before inserting a new one.
type EdgeRow struct {
	FromNode       string
	ToNode         string
	Relation       string
	Weight         float64
	MetadataJSON   sql.NullString
	CreatedAt      string
	ValidFrom      string
	ValidUntil     sql.NullString
	TemporalWeight float64
}

const edgeColumns = `from_node, to_node, relation, weight, metadata_json, created_at, valid_from, valid_until, temporal_weight`

func scanEdgeRow(scanner interface{ Scan(...any) error }) (*EdgeRow, error) {
	var r EdgeRow
	if err := scanner.Scan(&r.FromNode, &r.ToNode, &r.Relation, &r.Weight, &r.MetadataJSON,
		&r.CreatedAt, &r.ValidFrom, &r.ValidUntil, &r.TemporalWeight); err != nil {
		return nil, err
	}
	return &r, nil
}

// CurrentEdge returns the current (valid_until IS NULL) row for (from, to), if any.
func (s *Store) CurrentEdge(from, to string) (*EdgeRow, error) {
	row := s.db.QueryRow(`SELECT `+edgeColumns+` FROM edges WHERE from_node = ? AND to_node = ? AND valid_until IS NULL`, from, to)
	r, err := scanEdgeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "edge %s->%s not found", from, to)
	}
	if err != nil {
		return nil, fmt.Errorf("store: current edge: %w", err)
	}
	return r, nil
}

// EdgeAt returns the row valid at instant t for (from, to), if any.
func (s *Store) EdgeAt(from, to, t string) (*EdgeRow, error) {
	row := s.db.QueryRow(`
		SELECT `+edgeColumns+` FROM edges
		WHERE from_node = ? AND to_node = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)
		ORDER BY valid_from DESC
		LIMIT 1
	`, from, to, t, t)
	r, err := scanEdgeRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, chronoerr.New(chronoerr.KindNotFound, "edge %s->%s not found at %s", from, to, t)
	}
	if err != nil {
		return nil, fmt.Errorf("store: edge at: %w", err)
	}
	return r, nil
}

// CloseCurrentEdge closes the current row for (from, to) by setting its
// valid_until, if one exists. No-op (not an error) if there is none.
func (s *Store) CloseCurrentEdge(tx *sql.Tx, from, to, until string) error {
	_, err := tx.Exec(`UPDATE edges SET valid_until = ? WHERE from_node = ? AND to_node = ? AND valid_until IS NULL`, until, from, to)
	if err != nil {
		return fmt.Errorf("store: close current edge: %w", err)
	}
	return nil
}

// InsertEdge inserts a new validity-interval row for (from, to).
func (s *Store) InsertEdge(tx *sql.Tx, r *EdgeRow) error {
	_, err := tx.Exec(`
		INSERT INTO edges (from_node, to_node, relation, weight, metadata_json, created_at, valid_from, valid_until, temporal_weight)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`, r.FromNode, r.ToNode, r.Relation, r.Weight, r.MetadataJSON, r.CreatedAt, r.ValidFrom, r.TemporalWeight)
	if err != nil {
		return chronoerr.Wrap(chronoerr.KindConflict, err, "insert edge %s->%s", r.FromNode, r.ToNode)
	}
	return nil
}

// EdgeDirection selects which endpoint of an edge is matched against id.
type EdgeDirection string

const (
	DirOutgoing EdgeDirection = "outgoing"
	DirIncoming EdgeDirection = "incoming"
	DirBoth     EdgeDirection = "both"
)

// EdgesFor returns edges incident to id in the given direction, filtered
// either to current edges (atTime == nil) or to edges valid at *atTime,
// optionally restricted to a set of relation names.
func (s *Store) EdgesFor(id string, dir EdgeDirection, atTime *string, relations []string) ([]*EdgeRow, error) {
	var clauses []string
	var args []any

	switch dir {
	case DirOutgoing:
		clauses = append(clauses, "from_node = ?")
		args = append(args, id)
	case DirIncoming:
		clauses = append(clauses, "to_node = ?")
		args = append(args, id)
	default:
		clauses = append(clauses, "(from_node = ? OR to_node = ?)")
		args = append(args, id, id)
	}

	if atTime == nil {
		clauses = append(clauses, "valid_until IS NULL")
	} else {
		clauses = append(clauses, "valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)")
		args = append(args, *atTime, *atTime)
	}

	if len(relations) > 0 {
		placeholders := make([]string, len(relations))
		for i, rel := range relations {
			placeholders[i] = "?"
			args = append(args, rel)
		}
		clauses = append(clauses, "relation IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `SELECT ` + edgeColumns + ` FROM edges WHERE ` + strings.Join(clauses, " AND ")
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: edges for: %w", err)
	}
	defer rows.Close()
	return scanEdgeRows(rows)
}

// EdgesAmong returns edges (current, or valid at *atTime) whose both
// endpoints are in ids, for graph-map assembly.
func (s *Store) EdgesAmong(ids []string, atTime *string, limit int) ([]*EdgeRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)*2+2)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	inClause := "(" + strings.Join(placeholders, ", ") + ")"
	for _, id := range ids {
		args = append(args, id)
	}

	var timeClause string
	if atTime == nil {
		timeClause = "valid_until IS NULL"
	} else {
		timeClause = "valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)"
		args = append(args, *atTime, *atTime)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM edges
		WHERE from_node IN %s AND to_node IN %s AND %s
		LIMIT ?
	`, edgeColumns, inClause, inClause, timeClause)
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: edges among: %w", err)
	}
	defer rows.Close()
	return scanEdgeRows(rows)
}

// SnapshotEdges returns every edge row whose validity interval contains t.
func (s *Store) SnapshotEdges(t string) ([]*EdgeRow, error) {
	rows, err := s.db.Query(`
		SELECT `+edgeColumns+` FROM edges
		WHERE valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)
	`, t, t)
	if err != nil {
		return nil, fmt.Errorf("store: snapshot edges: %w", err)
	}
	defer rows.Close()
	return scanEdgeRows(rows)
}

// CountEdges returns the number of current edges.
func (s *Store) CountEdges() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM edges WHERE valid_until IS NULL`).Scan(&n)
	return n, err
}

// AllCurrentEdges returns every current edge, for maintenance scans
// (check_integrity) that need to walk the whole edge set rather than
// one node's incident edges.
func (s *Store) AllCurrentEdges() ([]*EdgeRow, error) {
	rows, err := s.db.Query(`SELECT ` + edgeColumns + ` FROM edges WHERE valid_until IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("store: all current edges: %w", err)
	}
	defer rows.Close()
	return scanEdgeRows(rows)
}

// DeleteEdgesIncident removes every version of every edge touching id, in
// either direction, as part of a hard node delete.
func (s *Store) DeleteEdgesIncident(tx *sql.Tx, id string) error {
	_, err := tx.Exec(`DELETE FROM edges WHERE from_node = ? OR to_node = ?`, id, id)
	if err != nil {
		return fmt.Errorf("store: delete incident edges: %w", err)
	}
	return nil
}

func scanEdgeRows(rows *sql.Rows) ([]*EdgeRow, error) {
	var out []*EdgeRow
	for rows.Next() {
		r, err := scanEdgeRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
