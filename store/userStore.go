package store

import (
	"advisory/models"
	"context"
	"errors"

	"gorm.io/gorm"
)

// GetUser returns the user registered under email (case-insensitive).
func (s *Store) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// PutUser inserts a new user. The email is normalized before insert and a
// second record for the same email fails with ErrAlreadyExists.
func (s *Store) PutUser(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	unlock := s.lock(UserKey(user.Email))
	defer unlock()

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyExists
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// UpdateUser applies fn to the stored user as one read-modify-write. An
// error from fn aborts the update and is returned as is.
func (s *Store) UpdateUser(ctx context.Context, email string, fn func(*models.User) error) (*models.User, error) {
	email = models.NormalizeEmail(email)
	unlock := s.lock(UserKey(email))
	defer unlock()

	var updated models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := forUpdate(tx).Where("email = ?", email).First(&user).Error; err != nil {
			return notFound(err)
		}
		if err := fn(&user); err != nil {
			return err
		}
		user.Email = email // the key never changes
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// FindUsers scans every user in id order and returns those matching
// predicate. Cost is O(n) in the table size; a nil predicate matches all.
func (s *Store) FindUsers(ctx context.Context, predicate func(*models.User) bool) ([]models.User, error) {
	var (
		batch []models.User
		out   []models.User
	)
	res := s.db.WithContext(ctx).FindInBatches(&batch, 200, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			if predicate == nil || predicate(&batch[i]) {
				out = append(out, batch[i])
			}
		}
		return nil
	})
	if res.Error != nil {
		return nil, res.Error
	}
	return out, nil
}

// RecordLogin stores a login tracking row.
func (s *Store) RecordLogin(ctx context.Context, entry *models.LoginTracking) error {
	return s.db.WithContext(ctx).Create(entry).Error
}
