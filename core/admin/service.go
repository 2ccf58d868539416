package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/erise-club/website/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("admin not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUsernameExists     = errors.New("an admin with this username already exists")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrSessionInvalid     = errors.New("session expired or revoked")
)

type (
	Repository interface {
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		GetAdminByID(ctx context.Context, id int64) (Admin, error)
		GetAdminByUsername(ctx context.Context, username string) (Admin, error)
		// UpdateAdmin saves the password hash, UpdatedAt & LastLogin of an existing Admin.
		UpdateAdmin(ctx context.Context, adm Admin) (Admin, error)
		CountAdmins(ctx context.Context) (int, error)

		CreateSession(ctx context.Context, sess Session) error
		GetSession(ctx context.Context, id string) (Session, error)
		RevokeSession(ctx context.Context, id string, at time.Time) error
		RevokeAdminSessions(ctx context.Context, adminID int64, at time.Time) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) error
	}

	Service struct {
		repo       Repository
		sessionTTL time.Duration
	}
)

func NewService(repo Repository, sessionTTL time.Duration) *Service {
	return &Service{repo: repo, sessionTTL: sessionTTL}
}

func now() time.Time { return NowFunc().UTC() }

// Bootstrap creates the configured admin account unless it already exists.
func (svc *Service) Bootstrap(ctx context.Context, uname, pwd string) (bool, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" || pwd == "" {
		return false, nil
	}
	if _, err := svc.repo.GetAdminByUsername(ctx, uname); err == nil {
		return false, nil
	} else if errors.Cause(err) != ErrNotFound {
		return false, errors.Wrap(err, "finding admin by username")
	}
	if _, err := svc.Create(ctx, NewAdmin{Username: uname, Password: pwd}); err != nil {
		return false, err
	}
	return true, nil
}

func (svc *Service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountAdmins(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Admin, error) {
	return svc.repo.GetAdminByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Admin, error) {
	return svc.repo.GetAdminByUsername(ctx, core.CleanString(uname, true /* lower */))
}

// Create expects a validated NewAdmin.
func (svc *Service) Create(ctx context.Context, na NewAdmin) (Admin, error) {
	ts := now()
	adm := Admin{
		Username:  core.CleanString(na.Username, true /* lower */),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return Admin{}, errors.Wrap(err, "hashing password")
	}
	adm, err := svc.repo.CreateAdmin(ctx, adm)
	if err != nil {
		return Admin{}, errors.Wrap(err, "creating admin")
	}
	return adm, nil
}

// SetPassword changes the password of an admin and revokes all their sessions.
func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) error {
	adm, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = adm.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	adm.UpdatedAt = now()
	if _, err = svc.repo.UpdateAdmin(ctx, adm); err != nil {
		return errors.Wrap(err, "updating admin")
	}
	return svc.repo.RevokeAdminSessions(ctx, adm.ID, now())
}

// Authenticate checks the credentials of an admin. Unknown usernames and wrong passwords
// both yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (Admin, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		uname = DefaultUsername
	}
	if pwd == "" {
		return Admin{}, ErrInvalidCredentials
	}

	adm, err := svc.repo.GetAdminByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, errors.Wrap(err, "finding admin by username")
	}
	if err = adm.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCredentials
	}

	adm.LastLogin = null.TimeFrom(now())
	adm, err = svc.repo.UpdateAdmin(ctx, adm)
	if err != nil {
		return Admin{}, errors.Wrap(err, "setting lastLogin")
	}
	return adm, nil
}

// StartSession issues a new session for an authenticated admin.
func (svc *Service) StartSession(ctx context.Context, adm Admin) (Session, error) {
	ts := now()
	if err := svc.repo.DeleteExpiredSessions(ctx, ts); err != nil {
		return Session{}, errors.Wrap(err, "purging expired sessions")
	}

	sess := Session{
		ID:        uuid.New().String(),
		AdminID:   adm.ID,
		CreatedAt: ts,
		ExpiresAt: ts.Add(svc.sessionTTL),
	}
	if err := svc.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	return sess, nil
}

// VerifySession returns the session if it is still active.
func (svc *Service) VerifySession(ctx context.Context, id string) (Session, error) {
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return Session{}, ErrSessionInvalid
		}
		return Session{}, errors.Wrap(err, "finding session")
	}
	if !sess.IsActive(now()) {
		return Session{}, ErrSessionInvalid
	}
	return sess, nil
}

// EndSession revokes a session. Revoking an unknown session is a no-op.
func (svc *Service) EndSession(ctx context.Context, id string) error {
	return svc.repo.RevokeSession(ctx, id, now())
}

// RotateSession replaces an active session with a new one.
func (svc *Service) RotateSession(ctx context.Context, sess Session) (Session, error) {
	adm, err := svc.repo.GetAdminByID(ctx, sess.AdminID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Session{}, ErrSessionInvalid
		}
		return Session{}, errors.Wrap(err, "finding admin by ID")
	}
	if err = svc.EndSession(ctx, sess.ID); err != nil {
		return Session{}, errors.Wrap(err, "revoking session")
	}
	return svc.StartSession(ctx, adm)
}

// RevokeAll revokes every session of an admin.
func (svc *Service) RevokeAll(ctx context.Context, uname string) error {
	adm, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	return svc.repo.RevokeAdminSessions(ctx, adm.ID, now())
}
