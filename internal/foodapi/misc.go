package foodapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kalorio/kalorio/internal/app"
	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/domain"
	"github.com/kalorio/kalorio/internal/moderation"
	"github.com/kalorio/kalorio/internal/resolve"
	"github.com/kalorio/kalorio/pkg/common"
)

// Services bundles the pipeline components the handlers dispatch into.
type Services struct {
	Catalog  *catalog.Catalog
	Store    *community.Store
	Cascade  *resolve.Cascade
	Gate     *moderation.Gate
	Workflow *moderation.Workflow
	App      app.AppContext
}

var srv *Services

// InitRouter binds the services and registers all food API routes. The web
// server must be initialized first.
func InitRouter(s *Services) {
	srv = s
	registerResolveRoutes()
	registerSearchRoutes()
	registerSubmissionRoutes()
	registerModerationRoutes()
	registerSystemRoutes()
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	body := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if details != nil {
		body["details"] = details
	}
	return c.JSON(status, body)
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// lookupOperator resolves a token username against the local sys_opr
// roster. Moderation mutations are attributed to a registered, enabled
// operator, not just any super-level token.
func lookupOperator(name string) (*domain.SysOpr, error) {
	var opr domain.SysOpr
	err := srv.App.DB().
		Where("username = ? and status = ?", name, "enabled").
		First(&opr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opr, nil
}

// oprLog records a moderator action in sys_opr_log.
func oprLog(c echo.Context, oprName, action, desc string) {
	err := srv.App.DB().Create(&domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   oprName,
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}).Error
	if err != nil {
		zap.L().Warn("operator log write failed", zap.Error(err))
	}
}
