package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/model"
)

// settingRules are validator tags for each allowed admin setting.
var settingRules = map[string]string{
	model.SettingAdminEmail:          "required,email",
	model.SettingBackupRetentionDays: "required,number",
	model.SettingAutoBackup:          "required,boolean",
	model.SettingAutoSSL:             "required,boolean",
	model.SettingSecurityLevel:       "required,oneof=low medium high",
}

// SettingsService stores admin settings. Keys that were never written
// fall back to the defaults the service was created with.
type SettingsService struct {
	db       DB
	defaults map[string]string
	validate *validator.Validate
}

func NewSettingsService(db DB, defaults map[string]string) *SettingsService {
	return &SettingsService{
		db:       db,
		defaults: defaults,
		validate: validator.New(),
	}
}

// GetAll returns every setting, stored values taking precedence over
// defaults.
func (s *SettingsService) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.Query(ctx, "SELECT key, value FROM settings ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string, len(s.defaults))
	for k, v := range s.defaults {
		result[k] = v
	}
	for rows.Next() {
		var st model.Setting
		if err := rows.Scan(&st.Key, &st.Value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		result[st.Key] = st.Value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return result, nil
}

// Get returns the value of key, or its default.
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.defaults[key], nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

// Bool returns a boolean setting. Unparseable values read as false.
func (s *SettingsService) Bool(ctx context.Context, key string) (bool, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	b, _ := strconv.ParseBool(v)
	return b, nil
}

// Int returns an integer setting, or fallback when unset or unparseable.
func (s *SettingsService) Int(ctx context.Context, key string, fallback int) (int, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return fallback, err
	}
	n, perr := strconv.Atoi(v)
	if perr != nil {
		return fallback, nil
	}
	return n, nil
}

// Validate checks that every key is known and every value is acceptable.
func (s *SettingsService) Validate(values map[string]string) error {
	if len(values) == 0 {
		return fault.Validation("no settings given")
	}
	for key, value := range values {
		rule, ok := settingRules[key]
		if !ok {
			return fault.Validation("unknown setting %q", key)
		}
		if err := s.validate.Var(value, rule); err != nil {
			return fault.Validation("invalid value for %s: %q", key, value)
		}
		if key == model.SettingBackupRetentionDays {
			if n, err := strconv.Atoi(value); err != nil || n < 1 {
				return fault.Validation("%s must be at least 1", key)
			}
		}
	}
	return nil
}

// Update validates and stores values, then returns the full settings map.
func (s *SettingsService) Update(ctx context.Context, values map[string]string) (map[string]string, error) {
	if err := s.Validate(values); err != nil {
		return nil, err
	}
	for key, value := range values {
		switch key {
		case model.SettingAutoBackup, model.SettingAutoSSL:
			b, _ := strconv.ParseBool(value)
			value = strconv.FormatBool(b)
		}
		if err := s.Set(ctx, key, value); err != nil {
			return nil, err
		}
	}
	return s.GetAll(ctx)
}

// Set upserts a single setting without validation.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
