package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/erise-club/website/core/admin"
)

type adminRepository struct {
	mutex    sync.RWMutex
	pkCount  int64
	admins   map[int64]*admin.Admin
	sessions map[string]*admin.Session
}

var _ admin.Repository = (*adminRepository)(nil)

func NewAdminRepository() admin.Repository {
	return &adminRepository{
		admins:   make(map[int64]*admin.Admin),
		sessions: make(map[string]*admin.Session),
	}
}

func (repo *adminRepository) CreateAdmin(_ context.Context, adm admin.Admin) (admin.Admin, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, a := range repo.admins {
		if a.Username == adm.Username {
			return admin.Admin{}, admin.ErrUsernameExists
		}
	}
	repo.pkCount++
	adm.ID = repo.pkCount
	repo.admins[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) GetAdminByID(_ context.Context, id int64) (admin.Admin, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if adm, ok := repo.admins[id]; ok {
		return *adm, nil
	}
	return admin.Admin{}, admin.ErrNotFound
}

func (repo *adminRepository) GetAdminByUsername(_ context.Context, username string) (admin.Admin, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	for _, adm := range repo.admins {
		if adm.Username == username {
			return *adm, nil
		}
	}
	return admin.Admin{}, admin.ErrNotFound
}

func (repo *adminRepository) UpdateAdmin(_ context.Context, adm admin.Admin) (admin.Admin, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	orig, ok := repo.admins[adm.ID]
	if !ok {
		return admin.Admin{}, admin.ErrNotFound
	}
	orig.PasswordHash = adm.PasswordHash
	orig.UpdatedAt = adm.UpdatedAt
	orig.LastLogin = adm.LastLogin
	return *orig, nil
}

func (repo *adminRepository) CountAdmins(context.Context) (int, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	return len(repo.admins), nil
}

func (repo *adminRepository) CreateSession(_ context.Context, sess admin.Session) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.sessions[sess.ID] = &sess
	return nil
}

func (repo *adminRepository) GetSession(_ context.Context, id string) (admin.Session, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if sess, ok := repo.sessions[id]; ok {
		return *sess, nil
	}
	return admin.Session{}, admin.ErrSessionNotFound
}

func (repo *adminRepository) revoke(match func(*admin.Session) bool, at time.Time) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, sess := range repo.sessions {
		if match(sess) && !sess.RevokedAt.Valid {
			sess.RevokedAt.SetValid(at)
		}
	}
}

func (repo *adminRepository) RevokeSession(_ context.Context, id string, at time.Time) error {
	repo.revoke(func(s *admin.Session) bool { return s.ID == id }, at)
	return nil
}

func (repo *adminRepository) RevokeAdminSessions(_ context.Context, adminID int64, at time.Time) error {
	repo.revoke(func(s *admin.Session) bool { return s.AdminID == adminID }, at)
	return nil
}

func (repo *adminRepository) DeleteExpiredSessions(_ context.Context, now time.Time) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for id, sess := range repo.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(repo.sessions, id)
		}
	}
	return nil
}
