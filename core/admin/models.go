package admin

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/erise-club/website/core"
)

// DefaultUsername is used when a login request names no account.
const DefaultUsername = "admin"

type Admin struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

// Session is one issued admin credential. A session is valid until it expires or is revoked.
type Session struct {
	ID        string    `db:"id"`
	AdminID   int64     `db:"admin_id"`
	CreatedAt time.Time `db:"created_at"` // UTC
	ExpiresAt time.Time `db:"expires_at"` // UTC
	RevokedAt null.Time `db:"revoked_at"` // UTC
}

func (s Session) IsActive(now time.Time) bool {
	return !s.RevokedAt.Valid && now.Before(s.ExpiresAt)
}

// NewAdmin contains information needed to create (or reset) an admin account.
type NewAdmin struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum_"`
	Password string `json:"password" validate:"required"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.Username = core.CleanString(na.Username, true /* lower */)
	return validate.Struct(na)
}
