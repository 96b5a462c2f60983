package services

import (
	"context"
	"fmt"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/ports"
	"budget/internal/session"
)

type SettingsService struct {
	store  ports.SettingsStore
	logger *log.Logger
}

func NewSettingsService(store ports.SettingsStore, logger *log.Logger) *SettingsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SettingsService{store: store, logger: logger.WithComponent(log.ComponentSettings)}
}

// Settings returns the current user's settings. Users who never saved any get
// the default currency and configured=false.
func (s *SettingsService) Settings(ctx context.Context) (settings core.UserSettings, configured bool, err error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return core.UserSettings{}, false, ErrNoUser
	}
	settings, ok, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.UserSettings{}, false, fmt.Errorf("get settings: %w", err)
	}
	if !ok {
		return core.UserSettings{UserID: userID, Currency: core.DefaultCurrency.Value}, false, nil
	}
	return settings, true, nil
}

// Currency resolves the current user's display currency
func (s *SettingsService) Currency(ctx context.Context) (core.Currency, error) {
	settings, _, err := s.Settings(ctx)
	if err != nil {
		return core.Currency{}, err
	}
	if c, ok := core.LookupCurrency(settings.Currency); ok {
		return c, nil
	}
	// a code removed from the table since it was saved
	return core.DefaultCurrency, nil
}

// UpdateCurrency validates and stores the user's currency choice
func (s *SettingsService) UpdateCurrency(ctx context.Context, code string) (core.Currency, error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return core.Currency{}, ErrNoUser
	}
	c, ok := core.LookupCurrency(code)
	if !ok {
		return core.Currency{}, core.ErrUnknownCurrency
	}
	settings := core.UserSettings{UserID: userID, Currency: c.Value}
	if err := settings.Validate(); err != nil {
		return core.Currency{}, err
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Currency{}, fmt.Errorf("save settings: %w", err)
	}
	s.logger.InfoContext(ctx, "Currency updated",
		log.FieldUserID, userID,
		log.FieldCurrency, c.Value,
		log.FieldOperation, log.OpUpdate)
	return c, nil
}
