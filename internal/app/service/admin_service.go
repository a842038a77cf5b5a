package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/pkg/clerk"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

const (
	defaultAvatarURL = "https://i.pravatar.cc/100"
	userListLimit    = 100
	stampingPeriod   = 1 // years between stampings
	stampingWarnDays = 30
)

var ErrIdentityProviderUnavailable = errors.New("identity provider not configured")

// IdentityProvider is the user directory, Clerk in production.
type IdentityProvider interface {
	ListUsers(ctx context.Context, params clerk.ListUsersParams) ([]clerk.User, error)
	GetUser(ctx context.Context, userID string) (*clerk.User, error)
}

type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type MachineStatus struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	DaysLeft int             `json:"daysLeft"`
	Expired  bool            `json:"expired"`
	Warning  bool            `json:"warning"`
}

type machineRecord struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	LastStamped string          `json:"lastStamped"`
}

type AdminService interface {
	ListUsers(ctx context.Context) ([]AdminUser, error)
	StampingStatus(ctx context.Context, userID string) ([]MachineStatus, error)
	ExportProducts(ctx context.Context) ([]byte, error)
}

type adminService struct {
	identity    IdentityProvider
	productRepo repository.ProductRepository
	now         func() time.Time
}

// NewAdminService builds the admin operations. identity may be nil when no provider is
// configured; now defaults to time.Now.
func NewAdminService(identity IdentityProvider, productRepo repository.ProductRepository, now func() time.Time) AdminService {
	if now == nil {
		now = time.Now
	}
	return &adminService{
		identity:    identity,
		productRepo: productRepo,
		now:         now,
	}
}

func (s *adminService) ListUsers(ctx context.Context) ([]AdminUser, error) {
	if s.identity == nil {
		return nil, ErrIdentityProviderUnavailable
	}

	users, err := s.identity.ListUsers(ctx, clerk.ListUsersParams{
		Limit:   userListLimit,
		OrderBy: "-created_at",
	})
	if err != nil {
		logger.Error("Failed to fetch users from identity provider", err)
		return nil, err
	}

	result := make([]AdminUser, 0, len(users))
	for _, u := range users {
		result = append(result, normalizeUser(u))
	}

	logger.Debug("Users listed", map[string]interface{}{
		"count": len(result),
	})
	return result, nil
}

func normalizeUser(u clerk.User) AdminUser {
	var email string
	if len(u.EmailAddresses) > 0 {
		email = u.EmailAddresses[0].EmailAddress
	}

	var first, last string
	if u.FirstName != nil {
		first = *u.FirstName
	}
	if u.LastName != nil {
		last = *u.LastName
	}

	imageURL := u.ImageURL
	if imageURL == "" {
		imageURL = defaultAvatarURL
	}

	return AdminUser{
		ID:        u.ID,
		Email:     email,
		Name:      strings.TrimSpace(first + " " + last),
		ImageURL:  imageURL,
		CreatedAt: u.CreatedTime(),
	}
}

// StampingStatus reports, for each machine in the user's public metadata, how many whole days
// remain before its yearly stamping falls due.
func (s *adminService) StampingStatus(ctx context.Context, userID string) ([]MachineStatus, error) {
	if s.identity == nil {
		return nil, ErrIdentityProviderUnavailable
	}

	user, err := s.identity.GetUser(ctx, userID)
	if err != nil {
		logger.Error("Failed to fetch user for stamping status", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var machines []machineRecord
	if raw, ok := user.PublicMetadata["machines"]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &machines); err != nil {
			logger.Warn("Ignoring malformed machines metadata", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			machines = nil
		}
	}

	now := s.now()
	statuses := make([]MachineStatus, 0, len(machines))
	for _, m := range machines {
		stamped, err := parseStampDate(m.LastStamped)
		if err != nil {
			logger.Warn("Skipping machine with unreadable stamp date", map[string]interface{}{
				"user_id":      userID,
				"machine":      m.Name,
				"last_stamped": m.LastStamped,
			})
			continue
		}

		due := stamped.AddDate(stampingPeriod, 0, 0)
		daysLeft := int(due.Sub(now) / (24 * time.Hour))
		statuses = append(statuses, MachineStatus{
			ID:       m.ID,
			Name:     m.Name,
			DaysLeft: daysLeft,
			Expired:  daysLeft < 0,
			Warning:  daysLeft >= 0 && daysLeft <= stampingWarnDays,
		})
	}
	return statuses, nil
}

var stampDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseStampDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range stampDateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (s *adminService) ExportProducts(ctx context.Context) ([]byte, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		logger.Error("Failed to load products for export", err)
		return nil, err
	}

	buf, err := WriteProductSheet(products)
	if err != nil {
		logger.Error("Failed to render product export", err)
		return nil, err
	}

	logger.Info("Products exported", map[string]interface{}{
		"count": len(products),
		"bytes": buf.Len(),
	})
	return buf.Bytes(), nil
}
