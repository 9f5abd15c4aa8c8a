package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gofreshmart.io/market/driver"
	"gofreshmart.io/market/models"
	"gofreshmart.io/market/models/enum"
)

// ErrProfileNotFound is returned when no profile exists for the user.
var ErrProfileNotFound = errors.New("profile not found")

var _ Repository = (*repository)(nil)

type Repository interface {
	GetByUserID(ctx context.Context, tx pgx.Tx, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, tx pgx.Tx, profile *models.Profile) error
	GetRole(ctx context.Context, tx pgx.Tx, userID string) (enum.Role, error)
}

type repository struct {
	conn   driver.PostgresPool
	logger *zap.Logger
}

func NewRepository(conn driver.PostgresPool, logger *zap.Logger) Repository {
	return &repository{
		conn:   conn,
		logger: logger,
	}
}

func (r *repository) q(tx pgx.Tx) driver.Querier {
	if tx != nil {
		return tx
	}
	return r.conn
}

func (r *repository) GetByUserID(ctx context.Context, tx pgx.Tx, userID string) (*models.Profile, error) {
	row := r.q(tx).QueryRow(ctx, `
		SELECT id, user_id, full_name, phone, address, role, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`,
		userID,
	)

	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FullName, &p.Phone, &p.Address, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &p, nil
}

func (r *repository) Upsert(ctx context.Context, tx pgx.Tx, profile *models.Profile) error {
	_, err := r.q(tx).Exec(ctx, `
		INSERT INTO profiles (id, user_id, full_name, phone, address, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    phone = EXCLUDED.phone,
		    address = EXCLUDED.address,
		    role = EXCLUDED.role,
		    updated_at = EXCLUDED.updated_at`,
		profile.ID,
		profile.UserID,
		profile.FullName,
		profile.Phone,
		profile.Address,
		profile.Role,
		profile.CreatedAt,
		time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", profile.UserID), zap.Error(err))
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *repository) GetRole(ctx context.Context, tx pgx.Tx, userID string) (enum.Role, error) {
	row := r.q(tx).QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, userID)

	var role enum.Role
	if err := row.Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// 沒有資料列的使用者預設為買家
			return enum.RoleBuyer, nil
		}
		r.logger.Error("Failed to get role", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("select role: %w", err)
	}
	return role, nil
}
