package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tuttoxa9/vahtarep10/internal/cache"
	"github.com/tuttoxa9/vahtarep10/internal/models"
)

const catalogCacheKey = "vahta:vacancies:active"

type VacancyLister interface {
	ListVacancies(ctx context.Context) ([]models.Vacancy, error)
}

// VacancyCatalog serves the list of visible vacancies, optionally through a cache.
type VacancyCatalog struct {
	store VacancyLister
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewVacancyCatalog builds a catalog. c may be nil to always read the store.
// A non-positive ttl disables the cache, entries must expire.
func NewVacancyCatalog(store VacancyLister, c cache.Cache, ttl time.Duration) *VacancyCatalog {
	vc := &VacancyCatalog{
		store: store,
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "vacancy_catalog").Logger(),
	}
	if c != nil && ttl <= 0 {
		vc.log.Warn().Dur("ttl", ttl).Msg("Catalog cache disabled, ttl must be positive")
		vc.cache = nil
	}
	return vc
}

// All returns the visible vacancies. Cache failures fall back to the store.
func (c *VacancyCatalog) All(ctx context.Context) ([]models.Vacancy, error) {
	if c.cache != nil {
		raw, err := c.cache.Get(ctx, catalogCacheKey)
		switch {
		case err == nil:
			var cached []models.Vacancy
			decodeErr := json.Unmarshal(raw, &cached)
			if decodeErr == nil {
				return cached, nil
			}
			c.log.Warn().Err(decodeErr).Msg("Discarding unreadable catalog cache entry")
		case !errors.Is(err, cache.ErrMiss):
			c.log.Warn().Err(err).Msg("Catalog cache read failed")
		}
	}

	vacancies, err := c.store.ListVacancies(ctx)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if raw, err := json.Marshal(vacancies); err == nil {
			if err := c.cache.Set(ctx, catalogCacheKey, raw, c.ttl); err != nil {
				c.log.Warn().Err(err).Msg("Catalog cache write failed")
			}
		}
	}
	return vacancies, nil
}

// Find looks a vacancy up by id in the visible catalog.
func (c *VacancyCatalog) Find(ctx context.Context, id string) (*models.Vacancy, error) {
	vacancies, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vacancies {
		if vacancies[i].ID == id {
			return &vacancies[i], nil
		}
	}
	return nil, ErrVacancyNotFound
}

// List filters, sorts and truncates the catalog.
func (c *VacancyCatalog) List(ctx context.Context, f VacancyFilter) ([]models.Vacancy, error) {
	vacancies, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	out := SortVacancies(FilterVacancies(vacancies, f), f.Sort)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
