package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"lend_tracker/internal/models"
)

const pqUniqueViolation = "23505"

// Gorm is the Postgres-backed Store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pqErr.Constraint)
	}
	return err
}

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Gorm) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) UpdateUser(ctx context.Context, id uint, patch UserPatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.PreferredCurrency != nil {
		updates["preferred_currency"] = *patch.PreferredCurrency
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.UserByID(ctx, id)
}

func (s *Gorm) CreateFriend(ctx context.Context, f *models.Friend) error {
	return translate(s.db.WithContext(ctx).Create(f).Error)
}

func (s *Gorm) FriendByID(ctx context.Context, id uint) (*models.Friend, error) {
	var f models.Friend
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *Gorm) FriendByTrackingURL(ctx context.Context, token string) (*models.Friend, error) {
	var f models.Friend
	if err := s.db.WithContext(ctx).Where("tracking_url = ?", token).First(&f).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

func (s *Gorm) FriendsByAdmin(ctx context.Context, adminID uint) ([]models.Friend, error) {
	var friends []models.Friend
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at desc").
		Find(&friends).Error
	return friends, translate(err)
}

func (s *Gorm) UpdateFriend(ctx context.Context, id uint, patch FriendPatch) (*models.Friend, error) {
	updates := map[string]interface{}{}
	if patch.FullName != nil {
		updates["full_name"] = *patch.FullName
	}
	if patch.WhatsappNumber != nil {
		updates["whatsapp_number"] = *patch.WhatsappNumber
	}
	if patch.TrackingURL != nil {
		updates["tracking_url"] = *patch.TrackingURL
	}
	if patch.TrackingCode != nil {
		updates["tracking_code"] = *patch.TrackingCode
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Friend{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.FriendByID(ctx, id)
}

func (s *Gorm) DeleteFriend(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("friend_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Friend{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(err)
}

func (s *Gorm) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	return translate(s.db.WithContext(ctx).Create(tx).Error)
}

func (s *Gorm) TransactionsByFriend(ctx context.Context, friendID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where("friend_id = ?", friendID).
		Order("transaction_date desc").
		Find(&txs).Error
	return txs, translate(err)
}

func (s *Gorm) TransactionsByAdmin(ctx context.Context, adminID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Joins("JOIN friends ON friends.id = transactions.friend_id").
		Where("friends.admin_id = ?", adminID).
		Order("transactions.transaction_date desc").
		Find(&txs).Error
	return txs, translate(err)
}

var _ Store = (*Gorm)(nil)
