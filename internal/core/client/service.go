package client

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service は顧客に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
}

// UseCase は顧客ユースケースの公開インターフェースです。
type UseCase interface {
	CreateClient(ctx context.Context, in CreateClientInput) (*Client, error)
	GetClient(ctx context.Context, in GetClientInput) (*Client, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	return &Service{repo: repo, clock: clock}
}

// CreateClientInput は顧客作成時の入力です。
type CreateClientInput struct {
	Name                  string
	Email                 *string
	Phone                 string
	ContactPersonPosition string
	Address               *string
	MapLocation           *string
}

// GetClientInput は顧客取得時の入力です。
type GetClientInput struct {
	ID string
}

// CreateClient は新しい顧客を登録します。
func (s *Service) CreateClient(ctx context.Context, in CreateClientInput) (*Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}

	position := strings.TrimSpace(in.ContactPersonPosition)
	if position == "" {
		return nil, ErrInvalidContactPersonPosition
	}

	email, err := normalizeOptionalEmail(in.Email)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	c := &Client{
		Name: name,
		ContactInfo: ContactInfo{
			Email:                 email,
			Phone:                 phone,
			ContactPersonPosition: position,
			Address:               trimOptional(in.Address),
			MapLocation:           trimOptional(in.MapLocation),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.repo.Create(ctx, c)
}

// GetClient は ID で顧客を取得します。
func (s *Service) GetClient(ctx context.Context, in GetClientInput) (*Client, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.repo.FindByID(ctx, id)
}

func normalizeOptionalEmail(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, nil
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	normalized := strings.ToLower(addr.Address)
	return &normalized, nil
}

func trimOptional(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
