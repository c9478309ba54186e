package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"perpgate/src/database"
	"perpgate/src/model"
)

// CredentialRepository stores per-user, per-exchange encrypted
// credentials. Credentials satisfies the adapter factory's
// CredentialSource contract: "not found" is (nil, nil), never an
// error.
type CredentialRepository interface {
	Credentials(ctx context.Context, userID uint, exchange string) (*model.UserCredential, error)
	Upsert(ctx context.Context, cred *model.UserCredential) error
	Delete(ctx context.Context, userID uint, exchange string) error
	ListByUser(ctx context.Context, userID uint) ([]model.UserCredential, error)
}

type GormCredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository() *GormCredentialRepository {
	logger.WithField("component", "GormCredentialRepository").
		Info("Creating new CredentialRepository with MainDB")

	return &GormCredentialRepository{
		db: database.MainDB,
	}
}

func (r *GormCredentialRepository) Credentials(ctx context.Context, userID uint, exchange string) (*model.UserCredential, error) {
	var cred model.UserCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND exchange = ?", userID, exchange).
		First(&cred).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Upsert creates the credential or replaces the encrypted key material
// if the (user_id, exchange) pair already exists.
func (r *GormCredentialRepository) Upsert(ctx context.Context, cred *model.UserCredential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "user_id"},
				{Name: "exchange"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"key_enc",
				"secret_enc",
				"updated_at",
			}),
		}).
		Create(cred).Error
}

func (r *GormCredentialRepository) Delete(ctx context.Context, userID uint, exchange string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND exchange = ?", userID, exchange).
		Delete(&model.UserCredential{})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormCredentialRepository) ListByUser(ctx context.Context, userID uint) ([]model.UserCredential, error) {
	var creds []model.UserCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("exchange ASC").
		Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}
