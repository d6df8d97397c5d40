package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kalorio/kalorio/assets"
	"github.com/kalorio/kalorio/config"
	"github.com/kalorio/kalorio/internal/app"
	"github.com/kalorio/kalorio/internal/catalog"
	"github.com/kalorio/kalorio/internal/community"
	"github.com/kalorio/kalorio/internal/foodapi"
	"github.com/kalorio/kalorio/internal/moderation"
	"github.com/kalorio/kalorio/internal/provider"
	"github.com/kalorio/kalorio/internal/resolve"
	"github.com/kalorio/kalorio/internal/webserver"
)

var (
	cfile  = flag.String("c", "/etc/kalorio.yml", "config file")
	initdb = flag.Bool("initdb", false, "drop and recreate the database schema")
)

func main() {
	flag.Parse()

	cfg := config.LoadConfig(*cfile)
	if err := cfg.InitDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "workdir init failed: %v\n", err)
		os.Exit(1)
	}

	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	cat, err := catalog.Load(assets.CuratedProductsData)
	if err != nil {
		zap.L().Fatal("curated catalog load failed", zap.Error(err))
	}
	zap.L().Info("curated catalog loaded", zap.Int("products", cat.Len()))

	store := community.NewStore(application.DB())
	client := provider.NewClient(cfg.Provider)

	cascade, err := resolve.NewCascade(
		[]resolve.Tier{
			&resolve.CuratedTier{Catalog: cat},
			&resolve.CommunityTier{Store: store},
			&resolve.ExternalTier{Client: client},
		},
		store, cat, cfg.Writeback,
	)
	if err != nil {
		zap.L().Fatal("cascade init failed", zap.Error(err))
	}
	defer cascade.Close()
	cascade.UseSuggestionLimit(func() int {
		return int(application.GetSettingsInt64Value("resolve", "suggestion_limit"))
	})

	bus := EventBus.New()
	workflow := moderation.NewWorkflow(store, bus)
	if _, err := moderation.NewMailNotifier(cfg.Mail, bus, func() string {
		return application.GetSettingsStringValue("moderation", "notify_email")
	}); err != nil {
		zap.L().Warn("mail notifier init failed", zap.Error(err))
	}

	webserver.Init(application)
	foodapi.InitRouter(&foodapi.Services{
		Catalog:  cat,
		Store:    store,
		Cascade:  cascade,
		Gate:     moderation.NewGate(store, cat),
		Workflow: workflow,
		App:      application,
	})

	go func() {
		if err := webserver.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("web server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down")
	_ = webserver.Shutdown()
}
