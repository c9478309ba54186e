package model

import "time"

// Exchange identifiers accepted by the adapter factory.
const (
	ExchangeBinance = "binance"
	ExchangeAevo    = "aevo"
)

// UserCredential stores one user's credentials for one backend,
// encrypted at rest. The semantic meaning of the two secret fields is
// backend-dependent: API key / API secret for binance, wallet address /
// private key for aevo. Plaintext values exist only transiently inside
// the adapter factory and are never logged.
type UserCredential struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_credential,unique" json:"user_id"`
	Exchange  string    `gorm:"size:30;not null;index:idx_user_credential,unique" json:"exchange"`
	KeyEnc    string    `gorm:"column:key_enc;type:text" json:"-"`
	SecretEnc string    `gorm:"column:secret_enc;type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserCredential) TableName() string {
	return "user_credentials"
}
