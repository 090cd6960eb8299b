package tenant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vantage/internal/tenant/models"
	"vantage/pkg/domain"
	"vantage/pkg/platform/sentinel"
)

// Postgres persists tenants with the settings document as JSONB. Execute
// serializes concurrent writers with SELECT ... FOR UPDATE and a version
// column, so two in-flight approval attempts cannot both succeed against a
// state that has since changed.
//
// Schema:
//
//	CREATE TABLE tenants (
//	    id             UUID PRIMARY KEY,
//	    name           TEXT NOT NULL,
//	    type           TEXT NOT NULL,
//	    agency_subtype TEXT NOT NULL DEFAULT '',
//	    status         TEXT NOT NULL,
//	    settings       JSONB NOT NULL,
//	    version        BIGINT NOT NULL DEFAULT 0,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE UNIQUE INDEX tenants_name_key ON tenants (LOWER(name));
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const tenantColumns = `id, name, type, agency_subtype, status, settings, version, created_at, updated_at`

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, tenant *models.Tenant) error {
	settings, err := json.Marshal(tenant.Settings)
	if err != nil {
		return fmt.Errorf("marshal tenant settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, type, agency_subtype, status, settings, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		tenant.ID.String(), tenant.Name, string(tenant.Type), tenant.AgencySubtype,
		string(tenant.Status), settings, tenant.Version, tenant.CreatedAt, tenant.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, tenantID domain.TenantID) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID.String())
	return scanTenant(row)
}

func (s *Postgres) FindByName(ctx context.Context, name string) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE LOWER(name) = LOWER($1)`, name)
	return scanTenant(row)
}

// Execute loads the tenant under FOR UPDATE, runs validate and mutate, and
// writes the settings document back with a version bump. The row lock spans
// validation, mutation, and write, so policy re-evaluation inside the
// callback always sees current state.
func (s *Postgres) Execute(
	ctx context.Context,
	tenantID domain.TenantID,
	validate func(t *models.Tenant) error,
	mutate func(t *models.Tenant),
) (*models.Tenant, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1 FOR UPDATE`, tenantID.String())
	tenant, err := scanTenant(row)
	if err != nil {
		return nil, err
	}

	if err := validate(tenant); err != nil {
		return nil, err
	}
	mutate(tenant)

	settings, err := json.Marshal(tenant.Settings)
	if err != nil {
		return nil, fmt.Errorf("marshal tenant settings: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE tenants
		SET settings = $1, status = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5
	`, settings, string(tenant.Status), tenant.UpdatedAt, tenant.ID.String(), tenant.Version)
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	if affected == 0 {
		// The FOR UPDATE lock makes this unreachable in practice; keep
		// the conflict signal so a schema change cannot silently drop it.
		return nil, sentinel.ErrConflict
	}
	tenant.Version++

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return tenant, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*models.Tenant, error) {
	var (
		tenant     models.Tenant
		rawID      string
		rawType    string
		rawStatus  string
		rawSetting []byte
	)
	err := row.Scan(&rawID, &tenant.Name, &rawType, &tenant.AgencySubtype,
		&rawStatus, &rawSetting, &tenant.Version, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	tenantID, err := domain.ParseTenantID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan tenant id: %w", err)
	}
	tenant.ID = tenantID
	tenant.Type = models.TenantType(rawType)
	tenant.Status = models.TenantStatus(rawStatus)
	if err := json.Unmarshal(rawSetting, &tenant.Settings); err != nil {
		return nil, fmt.Errorf("decode tenant settings: %w", err)
	}
	return &tenant, nil
}
