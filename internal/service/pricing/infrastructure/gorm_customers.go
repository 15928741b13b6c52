package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricewise/internal/service/pricing/domain"
)

type GormCustomerDirectory struct {
	db *gorm.DB
}

func NewGormCustomerDirectory(db *gorm.DB) *GormCustomerDirectory {
	return &GormCustomerDirectory{db: db}
}

func (r *GormCustomerDirectory) Segment(ctx context.Context, userID string) (domain.UserSegment, bool, error) {
	var model CustomerModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "load customer %s", userID)
	}
	return domain.UserSegment(model.Segment), true, nil
}

func (r *GormCustomerDirectory) SetSegment(ctx context.Context, userID string, segment domain.UserSegment) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&CustomerModel{UserID: userID, Segment: string(segment)}).Error
	return errors.Wrapf(err, "save customer %s", userID)
}

// SeedSegment 只为尚无记录的用户写入分群。
func (r *GormCustomerDirectory) SeedSegment(ctx context.Context, userID string, segment domain.UserSegment) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CustomerModel{UserID: userID, Segment: string(segment)}).Error
	return errors.Wrapf(err, "seed customer %s", userID)
}
