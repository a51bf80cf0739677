package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tuttoxa9/vahtarep10/internal/cache"
	"github.com/tuttoxa9/vahtarep10/internal/config"
	"github.com/tuttoxa9/vahtarep10/internal/database"
	"github.com/tuttoxa9/vahtarep10/internal/handlers"
	"github.com/tuttoxa9/vahtarep10/internal/services"
	"gorm.io/gorm"
)

type application struct {
	submissions *services.SubmissionService
	catalog     handlers.VacancyLister
	pages       services.Resolver

	db    *gorm.DB
	redis *cache.RedisCache
}

func wire(ctx context.Context, cfg *config.Config) (*application, error) {
	loc, err := time.LoadLocation(cfg.Telegram.Timezone)
	if err != nil {
		return nil, fmt.Errorf("telegram timezone: %w", err)
	}
	notifier := services.NewTelegramNotifier(services.TelegramConfig{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
		APIBase:  cfg.Telegram.APIBase,
		Timeout:  cfg.Telegram.Timeout,
		Location: loc,
	})
	if !notifier.Enabled() {
		log.Warn().Msg("Telegram credentials missing, notifications are disabled")
	}

	app := &application{}
	if cfg.Demo() {
		app.submissions = services.NewSubmissionService(services.SubmissionDeps{
			Notifier: notifier,
			Demo:     true,
		})
		return app, nil
	}

	db, err := database.Connect(cfg.Store)
	if err != nil {
		return nil, err
	}
	app.db = db
	store := services.NewGormStore(db)

	var vacancyCache cache.Cache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, vacancy catalog runs uncached")
		} else {
			app.redis = rc
			vacancyCache = rc
		}
	}
	catalog := services.NewVacancyCatalog(store, vacancyCache, cfg.Redis.TTL)
	app.catalog = catalog

	pages, err := services.NewVacancyResolver(services.ResolverConfig{
		Store:              store,
		IncrementViewCount: true,
		Strategies:         []string{services.StrategyDirect},
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	app.pages = pages

	resolver, err := services.NewVacancyResolver(services.ResolverConfig{
		Store:              store,
		Catalog:            catalog,
		IncrementViewCount: cfg.Submission.CountViews,
		Strategies:         cfg.Submission.Strategies,
	})
	if err != nil {
		app.Close()
		return nil, err
	}

	app.submissions = services.NewSubmissionService(services.SubmissionDeps{
		Resolver:     resolver,
		Store:        store,
		Notifier:     notifier,
		WriteTimeout: cfg.Store.WriteTimeout,
	})
	return app, nil
}

func (a *application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close database")
			}
		}
	}
}
