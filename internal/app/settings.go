package app

import (
	"sync"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/internal/domain"
)

const settingsCacheTTL = 30 * time.Second

type cachedValue struct {
	value    string
	expireAt time.Time
}

// ConfigManager reads runtime settings from sys_config with a short TTL
// cache, coercing values on access.
type ConfigManager struct {
	app   *Application
	mu    sync.RWMutex
	cache map[string]cachedValue
}

func NewConfigManager(a *Application) *ConfigManager {
	return &ConfigManager{
		app:   a,
		cache: make(map[string]cachedValue),
	}
}

func (m *ConfigManager) GetString(category, name string) string {
	key := category + "." + name

	m.mu.RLock()
	if c, ok := m.cache[key]; ok && time.Now().Before(c.expireAt) {
		m.mu.RUnlock()
		return c.value
	}
	m.mu.RUnlock()

	var row domain.SysConfig
	err := m.app.gormDB.
		Where("type = ? and name = ?", category, name).
		First(&row).Error
	if err != nil {
		return ""
	}

	m.mu.Lock()
	m.cache[key] = cachedValue{value: row.Value, expireAt: time.Now().Add(settingsCacheTTL)}
	m.mu.Unlock()
	return row.Value
}

func (m *ConfigManager) GetInt64(category, name string) int64 {
	return cast.ToInt64(m.GetString(category, name))
}

func (m *ConfigManager) GetBool(category, name string) bool {
	return cast.ToBool(m.GetString(category, name))
}

// Set updates or creates a setting and invalidates its cache entry.
func (m *ConfigManager) Set(category, name, value string) error {
	var row domain.SysConfig
	err := m.app.gormDB.Where("type = ? and name = ?", category, name).First(&row).Error
	if err != nil {
		row = domain.SysConfig{Type: category, Name: name, Value: value}
		err = m.app.gormDB.Create(&row).Error
	} else {
		err = m.app.gormDB.Model(&domain.SysConfig{}).
			Where("id = ?", row.ID).Update("value", value).Error
	}
	if err != nil {
		zap.L().Error("setting update failed",
			zap.String("key", category+"."+name), zap.Error(err))
		return err
	}

	m.mu.Lock()
	delete(m.cache, category+"."+name)
	m.mu.Unlock()
	return nil
}
