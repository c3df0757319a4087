// Package pixconfig stores the PIX provider credentials entered by the
// store admin.
package pixconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/pc_shop/internal/models"
	"github.com/Skotchmaster/pc_shop/internal/transport"
)

const rowID = 1

var ErrValidation = errors.New("validation")

type GormRepo struct {
	DB *gorm.DB
}

// Get returns the stored configuration or an inactive zero value when none
// was saved yet.
func (r *GormRepo) Get(ctx context.Context) (*models.PixConfig, error) {
	var cfg models.PixConfig
	err := r.DB.WithContext(ctx).Where("id = ?", rowID).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PixConfig{ID: rowID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *GormRepo) Put(ctx context.Context, cfg *models.PixConfig) error {
	cfg.ID = rowID
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "client_id", "client_secret", "updated_at"}),
	}).Create(cfg).Error
}

type Service struct {
	Repo *GormRepo
}

func (s *Service) Get(ctx context.Context) (*models.PixConfig, error) {
	return s.Repo.Get(ctx)
}

func (s *Service) Put(ctx context.Context, req transport.PixConfigRequest) (*models.PixConfig, error) {
	cfg := &models.PixConfig{
		IsActive:     req.IsActive,
		ClientID:     strings.TrimSpace(req.ClientID),
		ClientSecret: strings.TrimSpace(req.ClientSecret),
	}
	if cfg.IsActive && (cfg.ClientID == "" || cfg.ClientSecret == "") {
		return nil, fmt.Errorf("active config needs clientId and clientSecret: %w", ErrValidation)
	}
	if err := s.Repo.Put(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Masked is the view sent to the admin UI; the secret never leaves the server.
type Masked struct {
	IsActive     bool   `json:"isActive"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Configured   bool   `json:"configured"`
}

func Mask(cfg *models.PixConfig) Masked {
	m := Masked{IsActive: cfg.IsActive, ClientID: cfg.ClientID, Configured: cfg.Usable()}
	if cfg.ClientSecret != "" {
		m.ClientSecret = maskSecret(cfg.ClientSecret)
	}
	return m
}

func maskSecret(s string) string {
	const visible = 4
	r := []rune(s)
	if len(r) <= visible {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-visible) + string(r[len(r)-visible:])
}
