package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kalorio/kalorio/config"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/pkg/common"
)

func getDatabase(cfg config.DBConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Passwd, cfg.Name, time.Local.String())

	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
		// lets unique-index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		panic(errors.Wrap(err, "database connect failed"))
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.IdleConn)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db
}

func (a *Application) checkSuper() {
	const superUsername = "admin"
	const defaultPassword = "kalorio"

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("failed to hash default password", zap.Error(err))
		return
	}

	var operator domain.SysOpr
	err = a.gormDB.Where("username = ?", superUsername).First(&operator).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := a.gormDB.Create(&domain.SysOpr{
			ID:        common.UUIDint64(),
			Realname:  "administrator",
			Mobile:    "0000",
			Email:     "N/A",
			Username:  superUsername,
			Password:  string(hashedPassword),
			Level:     "super",
			Status:    "enabled",
			Remark:    "super",
			LastLogin: time.Now(),
		}).Error; err != nil {
			zap.L().Error("failed to create default super admin", zap.Error(err))
		} else {
			zap.L().Info("initialized default super admin account", zap.String("username", superUsername))
		}
		return
	case err != nil:
		zap.L().Error("failed to query super admin", zap.Error(err))
		return
	}

	resetLevel := !strings.EqualFold(operator.Level, "super")
	resetStatus := !strings.EqualFold(operator.Status, "enabled")
	if !resetLevel && !resetStatus {
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if resetLevel {
		updates["level"] = "super"
	}
	if resetStatus {
		updates["status"] = "enabled"
	}
	if err := a.gormDB.Model(&domain.SysOpr{}).Where("id = ?", operator.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair super admin account", zap.Error(err))
		return
	}
	zap.L().Warn("repaired default super admin account",
		zap.String("username", superUsername),
		zap.Bool("levelReset", resetLevel),
		zap.Bool("statusEnabled", resetStatus))
}

// default runtime settings; values live in sys_config and are editable at
// runtime through the settings manager.
var defaultSettings = []domain.SysConfig{
	{Sort: 1, Type: "moderation", Name: "notify_email", Value: "", Remark: "Mailbox receiving moderation decision digests"},
	{Sort: 2, Type: "resolve", Name: "suggestion_limit", Value: "5", Remark: "Max suggestions returned on a resolve miss"},
	{Sort: 3, Type: "moderation", Name: "queue_digest_enable", Value: "true", Remark: "Log an hourly moderation queue digest"},
}

func (a *Application) checkSettings() {
	for _, setting := range defaultSettings {
		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", setting.Type, setting.Name).
			Count(&count)
		if count == 0 {
			setting.ID = common.UUIDint64()
			if err := a.gormDB.Create(&setting).Error; err != nil {
				zap.L().Error("failed to create default setting",
					zap.String("type", setting.Type),
					zap.String("name", setting.Name),
					zap.Error(err))
			} else {
				zap.L().Info("initialized config",
					zap.String("key", setting.Type+"."+setting.Name),
					zap.String("default", setting.Value))
			}
		}
	}
}
