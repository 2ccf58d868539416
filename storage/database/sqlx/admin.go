package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/erise-club/website/core"
	"github.com/erise-club/website/core/admin"
	"github.com/erise-club/website/storage/database"
)

var (
	adminColumns   = []string{"id", "username", "password_hash", "created_at", "updated_at", "last_login"}
	sessionColumns = []string{"id", "admin_id", "created_at", "expires_at", "revoked_at"}
)

type adminRepository struct {
	db core.DB
	sb sq.StatementBuilderType
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository(db *sqlx.DB) admin.Repository {
	return &adminRepository{
		db: db,
		sb: database.StatementBuilder(db.DriverName()),
	}
}

func isUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case sqlite3.Error:
		return e.ExtendedCode == sqlite3.ErrConstraintUnique || e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	case *pq.Error:
		return e.Code == "23505"
	}
	return false
}

func (repo *adminRepository) getAdmin(ctx context.Context, where sq.Sqlizer) (admin.Admin, error) {
	query, args, err := repo.sb.Select(adminColumns...).From("admins").Where(where).Limit(1).ToSql()
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "building query")
	}

	var adm admin.Admin
	if err = repo.db.GetContext(ctx, &adm, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return admin.Admin{}, admin.ErrNotFound
		}
		return admin.Admin{}, database.CheckConn(err)
	}
	return normAdmin(adm), nil
}

// normAdmin returns timestamps in UTC whatever the driver scanned.
func normAdmin(adm admin.Admin) admin.Admin {
	adm.CreatedAt = adm.CreatedAt.UTC()
	adm.UpdatedAt = adm.UpdatedAt.UTC()
	if adm.LastLogin.Valid {
		adm.LastLogin.Time = adm.LastLogin.Time.UTC()
	}
	return adm
}

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	query, args, err := repo.sb.
		Insert("admins").
		Columns(adminColumns[1:]...).
		Values(adm.Username, adm.PasswordHash, adm.CreatedAt, adm.UpdatedAt, adm.LastLogin).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "building query")
	}

	if err = repo.db.GetContext(ctx, &adm.ID, query, args...); err != nil {
		if isUniqueViolation(err) {
			return admin.Admin{}, admin.ErrUsernameExists
		}
		return admin.Admin{}, database.CheckConn(err)
	}
	return adm, nil
}

func (repo *adminRepository) GetAdminByID(ctx context.Context, id int64) (admin.Admin, error) {
	return repo.getAdmin(ctx, sq.Eq{"id": id})
}

func (repo *adminRepository) GetAdminByUsername(ctx context.Context, username string) (admin.Admin, error) {
	return repo.getAdmin(ctx, sq.Eq{"username": username})
}

func (repo *adminRepository) UpdateAdmin(ctx context.Context, adm admin.Admin) (admin.Admin, error) {
	query, args, err := repo.sb.
		Update("admins").
		Set("password_hash", adm.PasswordHash).
		Set("updated_at", adm.UpdatedAt).
		Set("last_login", adm.LastLogin).
		Where(sq.Eq{"id": adm.ID}).
		ToSql()
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "building query")
	}

	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return admin.Admin{}, database.CheckConn(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return admin.Admin{}, admin.ErrNotFound
	}
	return adm, nil
}

func (repo *adminRepository) CountAdmins(ctx context.Context) (int, error) {
	query, args, err := repo.sb.Select("COUNT(*)").From("admins").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var count int
	err = repo.db.GetContext(ctx, &count, query, args...)
	return count, database.CheckConn(err)
}

func (repo *adminRepository) CreateSession(ctx context.Context, sess admin.Session) error {
	query, args, err := repo.sb.
		Insert("sessions").
		Columns(sessionColumns...).
		Values(sess.ID, sess.AdminID, sess.CreatedAt, sess.ExpiresAt, sess.RevokedAt).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	return database.CheckConn(err)
}

func (repo *adminRepository) GetSession(ctx context.Context, id string) (admin.Session, error) {
	query, args, err := repo.sb.Select(sessionColumns...).From("sessions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return admin.Session{}, errors.Wrap(err, "building query")
	}

	var sess admin.Session
	if err = repo.db.GetContext(ctx, &sess, query, args...); err != nil {
		// postgres rejects malformed uuids
		if errors.Cause(err) == sql.ErrNoRows || isInvalidText(err) {
			return admin.Session{}, admin.ErrSessionNotFound
		}
		return admin.Session{}, database.CheckConn(err)
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.ExpiresAt = sess.ExpiresAt.UTC()
	return sess, nil
}

func isInvalidText(err error) bool {
	e, ok := errors.Cause(err).(*pq.Error)
	return ok && e.Code == "22P02"
}

func (repo *adminRepository) revokeSessions(ctx context.Context, where sq.Sqlizer, at time.Time) error {
	query, args, err := repo.sb.
		Update("sessions").
		Set("revoked_at", at).
		Where(sq.And{where, sq.Eq{"revoked_at": nil}}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	if isInvalidText(err) {
		return nil
	}
	return database.CheckConn(err)
}

func (repo *adminRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	return repo.revokeSessions(ctx, sq.Eq{"id": id}, at)
}

func (repo *adminRepository) RevokeAdminSessions(ctx context.Context, adminID int64, at time.Time) error {
	return repo.revokeSessions(ctx, sq.Eq{"admin_id": adminID}, at)
}

func (repo *adminRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	query, args, err := repo.sb.Delete("sessions").Where(sq.LtOrEq{"expires_at": now}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	_, err = repo.db.ExecContext(ctx, query, args...)
	return database.CheckConn(err)
}
