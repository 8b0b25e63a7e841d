package storage

import (
	"errors"
	"strings"
	"time"

	"sophia_companion_go_backend/internal/models"

	"gorm.io/gorm"
)

// GormStore implements Store on a relational database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.ToLower(username)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(user *models.User) error {
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	return s.db.Create(user).Error
}

func (s *GormStore) UpdateUser(id uint, updates map[string]interface{}) (*models.User, error) {
	result := s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetUser(id)
}

func (s *GormStore) ResetMessageCount(id uint) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("message_count", 0).Error
}

func (s *GormStore) IncrementMessageCount(id uint) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("message_count", gorm.Expr("message_count + 1")).Error
}

// TryConsumeQuota relies on the database to make the check-and-increment a
// single guarded update: the row only changes while the counter is below
// the limit.
func (s *GormStore) TryConsumeQuota(id uint, limit int) (bool, error) {
	result := s.db.Model(&models.User{}).
		Where("id = ? AND message_count < ?", id, limit).
		UpdateColumn("message_count", gorm.Expr("message_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) GetMessages(userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("user_id = ?", userID).
		Order("timestamp asc, id asc").Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) RecentMessages(userID uint, n int) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("user_id = ?", userID).
		Order("timestamp desc, id desc").Limit(n).Find(&messages).Error
	if err != nil {
		return nil, err
	}
	// Flip back into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *GormStore) CreateMessage(msg *models.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return s.db.Create(msg).Error
}

func (s *GormStore) GetSettings() (*models.Settings, error) {
	var settings models.Settings
	err := s.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = models.DefaultSettings()
		if err := s.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *GormStore) UpdateSettings(updates map[string]interface{}) (*models.Settings, error) {
	settings, err := s.GetSettings()
	if err != nil {
		return nil, err
	}
	updates["last_updated"] = time.Now()
	if err := s.db.Model(settings).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetSettings()
}

func (s *GormStore) GetPlans(activeOnly bool) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	query := s.db.Order("price asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *GormStore) GetPlan(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.First(&plan, id).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (s *GormStore) CreatePlan(plan *models.SubscriptionPlan) error {
	return s.db.Create(plan).Error
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
