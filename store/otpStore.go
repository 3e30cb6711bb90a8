package store

import (
	"advisory/models"
	"context"
	"time"

	"gorm.io/gorm"
)

// ReplaceOTP removes every unconsumed code for the record's identity and
// purpose and stores the new one, so at most one live code exists.
func (s *Store) ReplaceOTP(ctx context.Context, otp *models.OTP) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("identity = ? AND purpose = ? AND consumed = ?", otp.Identity, otp.Purpose, false).
			Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// LiveOTP returns the newest unconsumed code for identity and purpose,
// expired or not.
func (s *Store) LiveOTP(ctx context.Context, identity, purpose string) (*models.OTP, error) {
	var otp models.OTP
	err := s.db.WithContext(ctx).
		Where("identity = ? AND purpose = ? AND consumed = ?", identity, purpose, false).
		Order("id DESC").
		First(&otp).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &otp, nil
}

// ConsumeOTP marks a code as used.
func (s *Store) ConsumeOTP(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.OTP{}).
		Where("id = ? AND consumed = ?", id, false).
		Updates(map[string]interface{}{"consumed": true, "consumed_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteOTP(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.OTP{}, id).Error
}

// PurgeOTPs deletes codes that expired or were consumed before cutoff.
func (s *Store) PurgeOTPs(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("expires_at < ? OR (consumed = ? AND consumed_at < ?)", cutoff, true, cutoff).
		Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}
