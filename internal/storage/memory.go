package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"sophia_companion_go_backend/internal/models"
)

// MemoryStore implements Store on process memory. It backs tests and
// keyless local runs; semantics match GormStore, including the atomic
// quota consume.
type MemoryStore struct {
	mu sync.Mutex

	users    map[uint]*models.User
	messages []models.Message
	settings *models.Settings
	plans    map[uint]*models.SubscriptionPlan

	userSeq    uint
	messageSeq uint
	planSeq    uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uint]*models.User),
		plans: make(map[uint]*models.SubscriptionPlan),
	}
}

func (s *MemoryStore) GetUser(id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStore) GetUserByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username = strings.ToLower(username)
	for _, user := range s.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, user := range s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateUser(user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSeq++
	user.ID = s.userSeq
	user.Username = strings.ToLower(user.Username)
	user.Email = strings.ToLower(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = "free"
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStore) UpdateUser(id uint, updates map[string]interface{}) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	for column, value := range updates {
		applyUserUpdate(user, column, value)
	}
	copied := *user
	return &copied, nil
}

func applyUserUpdate(user *models.User, column string, value interface{}) {
	switch column {
	case "is_admin":
		user.IsAdmin = value.(bool)
	case "is_paid":
		user.IsPaid = value.(bool)
	case "subscription_tier":
		user.SubscriptionTier = value.(string)
	case "subscription_duration":
		user.SubscriptionDuration = value.(string)
	case "subscription_expiry":
		switch v := value.(type) {
		case *time.Time:
			user.SubscriptionExpiry = v
		case time.Time:
			user.SubscriptionExpiry = &v
		}
	case "paypal_subscription_id":
		user.PaypalSubscriptionID = value.(string)
	case "message_count":
		user.MessageCount = value.(int)
	case "last_login":
		switch v := value.(type) {
		case *time.Time:
			user.LastLogin = v
		case time.Time:
			user.LastLogin = &v
		}
	case "password_hash":
		user.PasswordHash = value.(string)
	}
}

func (s *MemoryStore) ResetMessageCount(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.MessageCount = 0
	return nil
}

func (s *MemoryStore) IncrementMessageCount(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.MessageCount++
	return nil
}

func (s *MemoryStore) TryConsumeQuota(id uint, limit int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return false, ErrNotFound
	}
	if user.MessageCount >= limit {
		return false, nil
	}
	user.MessageCount++
	return true, nil
}

func (s *MemoryStore) GetMessages(userID uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.UserID != nil && *msg.UserID == userID {
			out = append(out, msg)
		}
	}
	sortMessages(out)
	return out, nil
}

func (s *MemoryStore) RecentMessages(userID uint, n int) ([]models.Message, error) {
	all, err := s.GetMessages(userID)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (s *MemoryStore) CreateMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messageSeq++
	msg.ID = s.messageSeq
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *MemoryStore) GetSettings() (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		settings := models.DefaultSettings()
		settings.ID = 1
		s.settings = &settings
	}
	copied := *s.settings
	return &copied, nil
}

func (s *MemoryStore) UpdateSettings(updates map[string]interface{}) (*models.Settings, error) {
	if _, err := s.GetSettings(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for column, value := range updates {
		switch column {
		case "ai_model":
			s.settings.AIModel = value.(string)
		case "persona_prompt":
			s.settings.PersonaPrompt = value.(string)
		case "free_message_limit":
			s.settings.FreeMessageLimit = toInt(value)
		case "limit_message":
			s.settings.LimitMessage = value.(string)
		case "telegram_message_limit":
			s.settings.TelegramMessageLimit = toInt(value)
		case "telegram_redirect_message":
			s.settings.TelegramRedirectMessage = value.(string)
		case "instagram_message_limit":
			s.settings.InstagramMessageLimit = toInt(value)
		case "instagram_redirect_message":
			s.settings.InstagramRedirectMessage = value.(string)
		}
	}
	s.settings.LastUpdated = time.Now()
	copied := *s.settings
	return &copied, nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (s *MemoryStore) GetPlans(activeOnly bool) ([]models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var plans []models.SubscriptionPlan
	for _, plan := range s.plans {
		if activeOnly && !plan.IsActive {
			continue
		}
		plans = append(plans, *plan)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

func (s *MemoryStore) GetPlan(id uint) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *plan
	return &copied, nil
}

func (s *MemoryStore) CreatePlan(plan *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planSeq++
	plan.ID = s.planSeq
	now := time.Now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	copied := *plan
	s.plans[plan.ID] = &copied
	return nil
}

func sortMessages(messages []models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}
