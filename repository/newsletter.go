package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
)

// NewsletterRepository stores mailing-list subscriptions.
type NewsletterRepository struct {
	db *gorm.DB
}

func NewNewsletterRepository(db *gorm.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

// Subscribe adds email to the list; a second subscription fails with ErrAlreadySubscribed.
func (r *NewsletterRepository) Subscribe(ctx context.Context, email string) (*models.Newsletter, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	sub := models.Newsletter{Email: email}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Newsletter{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadySubscribed
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Count returns the number of subscribers.
func (r *NewsletterRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Newsletter{}).Count(&n).Error
	return n, err
}
