package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Domenick1991/partnerbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogRepository is append-only: there is no update or delete.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error)
}

type PGAuditLogRepository struct {
	db *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) AuditLogRepository {
	return &PGAuditLogRepository{db: db}
}

func (r *PGAuditLogRepository) Insert(ctx context.Context, entry *domain.AuditLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}
	_, err = querier(ctx, r.db).Exec(ctx, `INSERT INTO audit_logs
		(id, actor_type, actor_id, affected_user_id, action, target_type, target_id, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.ActorType, entry.ActorID, entry.AffectedUserID, entry.Action,
		entry.TargetType, entry.TargetID, entry.Reason, metadata, entry.CreatedAt)
	return err
}

func (r *PGAuditLogRepository) List(ctx context.Context, filter domain.AuditLogFilter) ([]domain.AuditLogEntry, error) {
	if err := filter.Normalize(); err != nil {
		return nil, err
	}
	where, args := auditWhere(filter)
	args = append(args, filter.Limit)

	rows, err := querier(ctx, r.db).Query(ctx, `SELECT id, actor_type, actor_id, affected_user_id, action,
		target_type, target_id, reason, metadata, created_at
		FROM audit_logs WHERE `+where+fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AuditLogEntry, 0)
	for rows.Next() {
		var (
			e        domain.AuditLogEntry
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.ActorType, &e.ActorID, &e.AffectedUserID, &e.Action,
			&e.TargetType, &e.TargetID, &e.Reason, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode audit metadata %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// auditWhere builds the predicate for an already normalized filter.
func auditWhere(f domain.AuditLogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ActorID != nil {
		add("actor_id = $%d", *f.ActorID)
	}
	if f.TargetType != "" {
		add("target_type = $%d", f.TargetType)
	}
	if f.TargetID != nil {
		add("target_id = $%d", *f.TargetID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	return strings.Join(conds, " AND "), args
}

var _ AuditLogRepository = (*PGAuditLogRepository)(nil)
