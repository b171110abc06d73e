package hierarchypgrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evaltrack/backend/hierarchy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// foreign_key_violation, raised by the ON DELETE RESTRICT parent reference
const pgForeignKeyViolation = "23503"

type PgHierarchyRepo struct {
	pool *pgxpool.Pool
}

func NewPgHierarchyRepo(pool *pgxpool.Pool) *PgHierarchyRepo {
	return &PgHierarchyRepo{pool: pool}
}

const selectNode = `SELECT id, kind, parent_id, name, code, created_at FROM hierarchy_nodes`

func scanNode(row pgx.Row) (hierarchy.Node, error) {
	var n hierarchy.Node
	var kind string
	err := row.Scan(&n.ID, &kind, &n.ParentID, &n.Name, &n.Code, &n.CreatedAt)
	n.Kind = hierarchy.Kind(kind)
	return n, err
}

func (r *PgHierarchyRepo) GetNode(ctx context.Context, id uuid.UUID) (hierarchy.Node, error) {
	n, err := scanNode(r.pool.QueryRow(ctx, selectNode+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return hierarchy.Node{}, hierarchy.ErrNodeNotFound(id)
	}
	if err != nil {
		return hierarchy.Node{}, fmt.Errorf("failed to get node: %w", err)
	}
	return n, nil
}

func (r *PgHierarchyRepo) ListNodes(ctx context.Context, f hierarchy.Filter) ([]hierarchy.Node, error) {
	where, args := filterClause(f)
	rows, err := r.pool.Query(ctx, selectNode+where+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	defer rows.Close()

	res := []hierarchy.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		res = append(res, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate nodes: %w", err)
	}
	return res, nil
}

func filterClause(f hierarchy.Filter) (string, []any) {
	conds := []string{}
	args := []any{}
	add := func(column string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.Kind != "" {
		add("kind", string(f.Kind))
	}
	if f.ParentID != nil {
		add("parent_id", *f.ParentID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PgHierarchyRepo) StoreNode(ctx context.Context, n hierarchy.Node) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO hierarchy_nodes (id, kind, parent_id, name, code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code
	`, n.ID, string(n.Kind), n.ParentID, n.Name, n.Code, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert node: %w", err)
	}
	return nil
}

func (r *PgHierarchyRepo) DeleteNode(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM hierarchy_nodes WHERE id = $1`, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return hierarchy.ErrHasChildren()
	}
	if err != nil {
		return fmt.Errorf("failed to delete node: %w", err)
	}
	return nil
}
