package member

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/team-progress-api/internal/domain"
	"github.com/team-progress-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldEmail        = "email"
	fieldCategory     = "category"
	fieldWorkSchedule = "work_schedule"
	fieldResponseTime = "response_time"
	fieldActive       = "active"
	fieldDeviceTokens = "device_tokens"
	fieldSymbolKeys   = "symbol_keys"
)

type Service interface {
	Register(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error)
	List(ctx context.Context) ([]domain.Member, error)
	Get(ctx context.Context, memberID string) (*domain.Member, error)
	Update(ctx context.Context, memberID string, req domain.UpdateMemberRequest) (*domain.Member, error)
	Delete(ctx context.Context, memberID string) error
	UpdateTokens(ctx context.Context, memberID string, tokens []string) (*domain.Member, error)
	UploadSymbol(ctx context.Context, memberID, filename, b64Data string) (string, error)
	DownloadSymbol(ctx context.Context, memberID, key string) (io.ReadCloser, error)
	DeleteSymbol(ctx context.Context, memberID, key string) error
}

type memberStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	Put(ctx context.Context, m *domain.Member) error
	Get(ctx context.Context, memberID string) (*domain.Member, error)
	Scan(ctx context.Context) ([]domain.Member, error)
	Update(ctx context.Context, memberID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, memberID string) error
}

type symbolStore interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    memberStore
	symbols symbolStore
}

func NewService(repo memberStore, symbols symbolStore) Service {
	return &service{repo: repo, symbols: symbols}
}

func (s *service) Register(ctx context.Context, req domain.CreateMemberRequest) (*domain.Member, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	category := req.Category
	if category == "" {
		category = domain.CategoryLatino
	}
	now := time.Now().UTC()
	m := &domain.Member{
		MemberID:     id.New(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
		DeviceTokens: req.DeviceTokens,
		Category:     category,
		WorkSchedule: req.WorkSchedule,
		ResponseTime: req.ResponseTime,
		Active:       true,
		// A fresh member has no progress history yet.
		ActivityState: domain.TierCritical,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) List(ctx context.Context) ([]domain.Member, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, memberID string) (*domain.Member, error) {
	return s.repo.Get(ctx, memberID)
}

func (s *service) Update(ctx context.Context, memberID string, req domain.UpdateMemberRequest) (*domain.Member, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Email != nil {
		if other, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && other.MemberID != memberID {
			return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Category != nil {
		updates[fieldCategory] = *req.Category
	}
	if req.WorkSchedule != nil {
		updates[fieldWorkSchedule] = *req.WorkSchedule
	}
	if req.ResponseTime != nil {
		updates[fieldResponseTime] = *req.ResponseTime
	}
	if req.Active != nil {
		updates[fieldActive] = *req.Active
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, memberID)
	}
	if err := s.repo.Update(ctx, memberID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, memberID)
}

// Delete removes the member record and best-effort removes its symbol
// objects. Object deletion failures are logged, not surfaced.
func (s *service) Delete(ctx context.Context, memberID string) error {
	m, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return err
	}
	for _, key := range m.SymbolKeys {
		if err := s.symbols.Delete(ctx, key); err != nil {
			log.Printf("delete symbol %s for member %s: %v", key, memberID, err)
		}
	}
	return s.repo.HardDelete(ctx, memberID)
}

func (s *service) UpdateTokens(ctx context.Context, memberID string, tokens []string) (*domain.Member, error) {
	if _, err := s.repo.Get(ctx, memberID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, memberID, map[string]interface{}{fieldDeviceTokens: tokens}); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, memberID)
}

// UploadSymbol stores a base64-encoded image under the member's symbol prefix
// and records the key on the member. Returns the generated object key.
func (s *service) UploadSymbol(ctx context.Context, memberID, filename, b64Data string) (string, error) {
	m, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("symbol must be a .jpg or .png image: %w", domain.ErrBadRequest)
	}
	key := fmt.Sprintf("symbols/%s/%s%s", memberID, id.New(), ext)
	if _, err := s.symbols.UploadBase64(ctx, key, b64Data); err != nil {
		return "", err
	}
	keys := append(m.SymbolKeys, key)
	if err := s.repo.Update(ctx, memberID, map[string]interface{}{fieldSymbolKeys: keys}); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) DownloadSymbol(ctx context.Context, memberID, key string) (io.ReadCloser, error) {
	m, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !hasKey(m.SymbolKeys, key) {
		return nil, fmt.Errorf("symbol not found: %w", domain.ErrNotFound)
	}
	return s.symbols.Download(ctx, key)
}

func (s *service) DeleteSymbol(ctx context.Context, memberID, key string) error {
	m, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return err
	}
	if !hasKey(m.SymbolKeys, key) {
		return fmt.Errorf("symbol not found: %w", domain.ErrNotFound)
	}
	if err := s.symbols.Delete(ctx, key); err != nil {
		return err
	}
	keys := make([]string, 0, len(m.SymbolKeys)-1)
	for _, k := range m.SymbolKeys {
		if k != key {
			keys = append(keys, k)
		}
	}
	return s.repo.Update(ctx, memberID, map[string]interface{}{fieldSymbolKeys: keys})
}

func hasKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
