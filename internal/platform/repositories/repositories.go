package repositories

import (
	"database/sql"

	"fieldcrm/internal/platform/models"
)

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, org.ID, org.Name, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) Create(org *models.Organization) error {
	_, err := r.db.Exec(`
		INSERT INTO organizations (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, org.ID, org.Name, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	org := &models.Organization{}
	err := r.db.QueryRow(`
		SELECT id, name, created_at, updated_at
		FROM organizations WHERE id = ?
	`, id).Scan(&org.ID, &org.Name, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) CreateTx(tx *sql.Tx, m *models.Membership) error {
	_, err := tx.Exec(`
		INSERT INTO memberships (id, user_id, org_id, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.OrgID, m.Role, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *MembershipRepository) Create(m *models.Membership) error {
	_, err := r.db.Exec(`
		INSERT INTO memberships (id, user_id, org_id, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.OrgID, m.Role, m.IsActive, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *MembershipRepository) ListActiveByUser(userID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, org_id, role, is_active, created_at, updated_at
		FROM memberships WHERE user_id = ? AND is_active = 1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *MembershipRepository) ListByOrg(orgID string) ([]*models.Membership, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, org_id, role, is_active, created_at, updated_at
		FROM memberships WHERE org_id = ? ORDER BY created_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(p *models.Profile) error {
	_, err := r.db.Exec(`
		INSERT INTO profiles (id, email, password_hash, full_name, role, default_org, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Email, p.PasswordHash, p.FullName, p.Role, p.DefaultOrg, p.Metadata, p.CreatedAt, p.UpdatedAt)
	return err
}

// Upsert writes the profile fields the provisioning workflow owns. The
// password hash is deliberately left untouched on conflict.
func (r *ProfileRepository) Upsert(p *models.Profile) error {
	_, err := r.db.Exec(upsertProfileSQL,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.Role, p.DefaultOrg, p.Metadata, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProfileRepository) UpsertTx(tx *sql.Tx, p *models.Profile) error {
	_, err := tx.Exec(upsertProfileSQL,
		p.ID, p.Email, p.PasswordHash, p.FullName, p.Role, p.DefaultOrg, p.Metadata, p.CreatedAt, p.UpdatedAt)
	return err
}

const upsertProfileSQL = `
	INSERT INTO profiles (id, email, password_hash, full_name, role, default_org, metadata, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		email = excluded.email,
		full_name = excluded.full_name,
		role = excluded.role,
		default_org = excluded.default_org,
		updated_at = excluded.updated_at
`

func (r *ProfileRepository) GetByID(id string) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, full_name, role, default_org, metadata, created_at, updated_at
		FROM profiles WHERE id = ?
	`, id).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role, &p.DefaultOrg, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) GetByEmail(email string) (*models.Profile, error) {
	p := &models.Profile{}
	err := r.db.QueryRow(`
		SELECT id, email, password_hash, full_name, role, default_org, metadata, created_at, updated_at
		FROM profiles WHERE email = ?
	`, email).Scan(&p.ID, &p.Email, &p.PasswordHash, &p.FullName, &p.Role, &p.DefaultOrg, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) SetDefaultOrg(userID, orgID string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE profiles SET default_org = ?, updated_at = ? WHERE id = ?`, orgID, timestamp, userID)
	return err
}
