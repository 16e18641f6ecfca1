package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/db/models"
	"github.com/asookemart/asooke-backend/pkg/enums"
)

// Repository is the users table. Lookups return gorm.ErrRecordNotFound
// unwrapped so callers can map it to their own error.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateRider stores a rider together with the next rider number. Both
// happen in one transaction so a failed insert does not burn a number.
func (r *Repository) CreateRider(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	dto.Role = enums.RoleRider
	user := dto.ToModel()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := db.NextSequence(ctx, tx, db.SequenceRider)
		if err != nil {
			return err
		}
		number := db.FormatRiderNumber(seq)
		user.RiderNumber = &number
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "lower(email) = ?", NormalizeEmail(email))
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.set(ctx, id, map[string]any{"last_login_at": at})
}

// Activate marks the email as proven.
func (r *Repository) Activate(ctx context.Context, id uuid.UUID) error {
	return r.set(ctx, id, map[string]any{"is_active": true, "updated_at": time.Now().UTC()})
}

func (r *Repository) first(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(where, arg).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) set(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).UpdateColumns(cols).Error
}
