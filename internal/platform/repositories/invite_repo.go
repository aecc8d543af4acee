package repositories

import (
	"database/sql"
	"time"

	"fieldcrm/internal/platform/models"
)

type InviteRepository struct {
	db *sql.DB
}

func NewInviteRepository(db *sql.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(invite *models.Invite) error {
	_, err := r.db.Exec(`
		INSERT INTO invites (id, org_id, code, email, role, invited_by, status, max_uses, current_uses, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, invite.ID, invite.OrgID, invite.Code, invite.Email, invite.Role, invite.InvitedBy, invite.Status, invite.MaxUses, invite.CurrentUses, invite.ExpiresAt, invite.CreatedAt, invite.UpdatedAt)
	return err
}

func (r *InviteRepository) GetByCode(code string) (*models.Invite, error) {
	invite := &models.Invite{}
	err := r.db.QueryRow(`
		SELECT id, org_id, code, email, role, invited_by, status, max_uses, current_uses, expires_at, created_at, updated_at
		FROM invites WHERE code = ?
	`, code).Scan(&invite.ID, &invite.OrgID, &invite.Code, &invite.Email, &invite.Role, &invite.InvitedBy, &invite.Status, &invite.MaxUses, &invite.CurrentUses, &invite.ExpiresAt, &invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return invite, nil
}

func (r *InviteRepository) ListByOrg(orgID string) ([]*models.Invite, error) {
	rows, err := r.db.Query(`
		SELECT id, org_id, code, email, role, invited_by, status, max_uses, current_uses, expires_at, created_at, updated_at
		FROM invites WHERE org_id = ? ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*models.Invite
	for rows.Next() {
		invite := &models.Invite{}
		if err := rows.Scan(&invite.ID, &invite.OrgID, &invite.Code, &invite.Email, &invite.Role, &invite.InvitedBy, &invite.Status, &invite.MaxUses, &invite.CurrentUses, &invite.ExpiresAt, &invite.CreatedAt, &invite.UpdatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *InviteRepository) IncrementUses(id string) error {
	_, err := r.db.Exec(`UPDATE invites SET current_uses = current_uses + 1, updated_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}
