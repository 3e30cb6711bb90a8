package store

import (
	"advisory/models"
	"context"
	"errors"

	"gorm.io/gorm"
)

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := s.db.WithContext(ctx).Create(payment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

// UpdatePayment applies fn to the stored payment as one read-modify-write.
func (s *Store) UpdatePayment(ctx context.Context, orderID string, fn func(*models.Payment) error) (*models.Payment, error) {
	unlock := s.lock(PaymentKey(orderID))
	defer unlock()

	var updated models.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := forUpdate(tx).Where("order_id = ?", orderID).First(&payment).Error; err != nil {
			return notFound(err)
		}
		if err := fn(&payment); err != nil {
			return err
		}
		payment.OrderID = orderID
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListPayments returns one page of payments, newest first, with the total count.
func (s *Store) ListPayments(ctx context.Context, status string, offset, limit int) ([]models.Payment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Payment{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
