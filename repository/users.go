package repository

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/blogcms/models"
	"github.com/cppla/blogcms/utils"
)

// UserInput creates or edits an account. An empty Password on update keeps the old one.
type UserInput struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
	Bio      string
	Image    string
}

// UserRepository manages accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "invalid email address")
	}
	return email, nil
}

// Create registers a new account with a bcrypt hashed password.
func (r *UserRepository) Create(ctx context.Context, in UserInput) (*models.User, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, invalid("password", err.Error())
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, invalid("role", "unknown role")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:    email,
		Name:     strings.TrimSpace(in.Name),
		Password: hash,
		Role:     in.Role,
		Bio:      strings.TrimSpace(in.Bio),
		Image:    strings.TrimSpace(in.Image),
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateEmail
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UserPage is one page of accounts.
type UserPage struct {
	Items      []models.User `json:"items"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// List pages through accounts, newest first.
func (r *UserRepository) List(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = AdminPageSize
	}
	db := r.db.WithContext(ctx)
	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := db.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	return &UserPage{
		Items:      users,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// Update edits the profile, role and optionally the password.
func (r *UserRepository) Update(ctx context.Context, id string, in UserInput) (*models.User, error) {
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, invalid("role", "unknown role")
	}
	if in.Password != "" {
		if err := utils.ValidatePassword(in.Password); err != nil {
			return nil, invalid("password", err.Error())
		}
	}

	var user models.User
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicateEmail
		}
		user.Email = email
		user.Name = strings.TrimSpace(in.Name)
		user.Bio = strings.TrimSpace(in.Bio)
		user.Image = strings.TrimSpace(in.Image)
		if in.Role != "" {
			user.Role = in.Role
		}
		if in.Password != "" {
			hash, err := utils.HashPassword(in.Password)
			if err != nil {
				return err
			}
			user.Password = hash
		}
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes an account. Accounts that still author posts cannot be deleted.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		var n int64
		if err := tx.Model(&models.Post{}).Where("author_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return invalid("id", "user still owns posts")
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// Authenticate returns the account for valid credentials, ErrInvalidCredential otherwise.
func (r *UserRepository) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}
	if user.Password == "" || !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredential
	}
	return user, nil
}
