package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

const (
	auditColumns      = `id, user_id, action, resource_type, resource_id, ip_address, user_agent, metadata, created_at`
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditRepository handles audit log persistence
type AuditRepository struct {
	db *database.Postgres
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *database.Postgres) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create records an action. A nil metadata map is stored as an empty object.
func (r *AuditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	metadata := log.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, resource_type, resource_id,
		    ip_address, user_agent, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.IPAddress,
		log.UserAgent,
		metadataJSON,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// List returns the newest audit entries matching filter
func (r *AuditRepository) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, column+" = $"+strconv.Itoa(len(args)))
	}
	add("user_id", filter.UserID)
	add("resource_type", filter.ResourceType)
	add("resource_id", filter.ResourceID)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	args = append(args, limit)

	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	logs := []*model.AuditLog{}
	for rows.Next() {
		entry, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return logs, nil
}

func scanAuditLog(row rowScanner) (*model.AuditLog, error) {
	var (
		entry                            model.AuditLog
		userID, resourceType, resourceID sql.NullString
		ipAddress, userAgent             sql.NullString
		metadata                         []byte
	)
	err := row.Scan(
		&entry.ID,
		&userID,
		&entry.Action,
		&resourceType,
		&resourceID,
		&ipAddress,
		&userAgent,
		&metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit log: %w", err)
	}
	entry.UserID = nullable(userID)
	entry.ResourceType = nullable(resourceType)
	entry.ResourceID = nullable(resourceID)
	entry.IPAddress = nullable(ipAddress)
	entry.UserAgent = nullable(userAgent)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
		}
	}
	return &entry, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
