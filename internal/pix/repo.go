package pix

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pc_shop/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) CreateCharge(ctx context.Context, charge *models.PixCharge) error {
	return r.DB.WithContext(ctx).Create(charge).Error
}

func (r *GormRepo) GetCharge(ctx context.Context, txID string) (*models.PixCharge, error) {
	var charge models.PixCharge
	if err := r.DB.WithContext(ctx).Where("transaction_id = ?", txID).First(&charge).Error; err != nil {
		return nil, err
	}
	return &charge, nil
}

// MarkCompleted flips a pending charge to completed. It reports false when the
// charge was already completed.
func (r *GormRepo) MarkCompleted(ctx context.Context, txID string, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.PixCharge{}).
		Where("transaction_id = ? AND status = ?", txID, models.PaymentStatusPending).
		Updates(map[string]any{"status": models.PaymentStatusCompleted, "completed_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
