package memory

import (
	"context"
	"time"

	"loanportal/internal/adapters/persistence/models"
	"loanportal/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email || u.Phone == user.Phone {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = r.s.nextID("users")
	r.s.stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt

	row := *user
	row.Profile, row.BankDetail = nil, nil
	r.s.users[user.ID] = row
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	return r.GetByID(ctx, id)
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) GetWithOnboarding(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	for _, p := range r.s.profiles {
		if p.UserID == id {
			u.Profile = &p
		}
	}
	for _, b := range r.s.banks {
		if b.UserID == id {
			u.BankDetail = &b
		}
	}
	return &u, nil
}

func (r *userRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = r.s.now()
	row := *user
	row.Profile, row.BankDetail = nil, nil
	r.s.users[user.ID] = row
	return nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.EmailVerified = true
	u.EmailVerifiedAt = &at
	u.IsActive = true
	r.s.users[id] = u
	return nil
}

func (r *userRepo) TouchLastLogin(_ context.Context, id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.LastLoginAt = &at
	r.s.users[id] = u
	return nil
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *models.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.sessions {
		if existing.TokenHash == session.TokenHash {
			return gorm.ErrDuplicatedKey
		}
	}
	session.ID = r.s.nextID("sessions")
	r.s.stamp(&session.CreatedAt)
	r.s.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, session := range r.s.sessions {
		if session.TokenHash == tokenHash && session.RevokedAt == nil {
			return &session, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *sessionRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, session := range r.s.sessions {
		if session.TokenHash == tokenHash {
			session.RevokedAt = &now
			r.s.sessions[id] = session
		}
	}
	return nil
}

func (r *sessionRepo) RevokeAllByUserID(_ context.Context, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, session := range r.s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
			r.s.sessions[id] = session
		}
	}
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, session := range r.s.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

type profileRepo struct{ s *Store }

func (r *profileRepo) GetByUserID(_ context.Context, userID uint) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *profileRepo) Save(_ context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if profile.ID == 0 {
		for _, p := range r.s.profiles {
			if p.UserID == profile.UserID {
				return gorm.ErrDuplicatedKey
			}
		}
		profile.ID = r.s.nextID("profiles")
		r.s.stamp(&profile.CreatedAt)
	}
	profile.UpdatedAt = r.s.now()
	r.s.profiles[profile.ID] = *profile
	return nil
}

type bankRepo struct{ s *Store }

func (r *bankRepo) GetByUserID(_ context.Context, userID uint) (*models.BankDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, b := range r.s.banks {
		if b.UserID == userID {
			return &b, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *bankRepo) Save(_ context.Context, detail *models.BankDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if detail.ID == 0 {
		for _, b := range r.s.banks {
			if b.UserID == detail.UserID {
				return gorm.ErrDuplicatedKey
			}
		}
		detail.ID = r.s.nextID("bank_details")
		r.s.stamp(&detail.CreatedAt)
	}
	detail.UpdatedAt = r.s.now()
	r.s.banks[detail.ID] = *detail
	return nil
}
