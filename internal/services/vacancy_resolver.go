package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tuttoxa9/vahtarep10/internal/models"
)

// Lookup strategy names accepted by ResolverConfig.Strategies.
const (
	StrategyDirect  = "direct"
	StrategyCatalog = "catalog"
)

// Values reported when no strategy finds the vacancy.
const (
	PlaceholderTitle    = "Unknown vacancy"
	PlaceholderCompany  = "Not specified"
	PlaceholderLocation = "Not specified"
	PlaceholderSalary   = "Not specified"
)

type VacancyReader interface {
	LoadVacancy(ctx context.Context, id string) (*models.Vacancy, error)
	IncrementViewCount(ctx context.Context, id string) error
}

type VacancyFinder interface {
	Find(ctx context.Context, id string) (*models.Vacancy, error)
}

// ResolvedVacancy always carries display values. Resolved is false when
// they are placeholders, in which case Failure says why.
type ResolvedVacancy struct {
	VacancyID string
	Title     string
	Company   string
	Location  string
	Salary    string
	Resolved  bool
	Source    string
	Record    *models.Vacancy
	Failure   *ResolutionFailure
}

type ResolverConfig struct {
	Store   VacancyReader
	Catalog VacancyFinder
	// bump the view counter when the direct lookup hits
	IncrementViewCount bool
	// tried in order, defaults to direct then catalog
	Strategies []string
}

type lookupStrategy interface {
	name() string
	lookup(ctx context.Context, id string) (*models.Vacancy, error)
}

// VacancyResolver turns a vacancy id into display fields and never fails.
type VacancyResolver struct {
	strategies []lookupStrategy
}

func NewVacancyResolver(cfg ResolverConfig) (*VacancyResolver, error) {
	names := cfg.Strategies
	if len(names) == 0 {
		names = []string{StrategyDirect, StrategyCatalog}
	}

	r := &VacancyResolver{}
	for _, name := range names {
		switch name {
		case StrategyDirect:
			if cfg.Store == nil {
				return nil, fmt.Errorf("resolver strategy %q needs a vacancy store", name)
			}
			r.strategies = append(r.strategies, &directLookup{store: cfg.Store, incrementViewCount: cfg.IncrementViewCount})
		case StrategyCatalog:
			if cfg.Catalog == nil {
				return nil, fmt.Errorf("resolver strategy %q needs a vacancy catalog", name)
			}
			r.strategies = append(r.strategies, &catalogLookup{catalog: cfg.Catalog})
		default:
			return nil, fmt.Errorf("unknown resolver strategy %q", name)
		}
	}
	return r, nil
}

func (r *VacancyResolver) Resolve(ctx context.Context, vacancyID string) ResolvedVacancy {
	logger := componentLogger(ctx, "vacancy_resolver")
	id := strings.TrimSpace(vacancyID)
	failure := &ResolutionFailure{VacancyID: id}

	for _, s := range r.strategies {
		v, err := attempt(ctx, s, id)
		if err == nil && v != nil {
			logger.Debug().Str("vacancy_id", id).Str("strategy", s.name()).Msg("Vacancy resolved")
			return resolvedFrom(id, s.name(), v)
		}
		if err == nil {
			err = ErrVacancyNotFound
		}
		failure.Attempts = append(failure.Attempts, fmt.Errorf("%s: %w", s.name(), err))
	}

	logger.Warn().Err(failure).Str("vacancy_id", id).Msg("Vacancy not resolved, using placeholders")
	return ResolvedVacancy{
		VacancyID: id,
		Title:     PlaceholderTitle,
		Company:   PlaceholderCompany,
		Location:  PlaceholderLocation,
		Salary:    PlaceholderSalary,
		Failure:   failure,
	}
}

// attempt turns a panicking strategy into an ordinary miss.
func attempt(ctx context.Context, s lookupStrategy, id string) (v *models.Vacancy, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v, err = nil, fmt.Errorf("lookup panicked: %v", rec)
		}
	}()
	return s.lookup(ctx, id)
}

func resolvedFrom(id, source string, v *models.Vacancy) ResolvedVacancy {
	out := ResolvedVacancy{
		VacancyID: id,
		Title:     orDefault(v.DisplayTitle(), PlaceholderTitle),
		Company:   orDefault(v.DisplayCompany(), PlaceholderCompany),
		Location:  orDefault(v.DisplayLocation(), PlaceholderLocation),
		Salary:    orDefault(v.Salary.String(), PlaceholderSalary),
		Resolved:  true,
		Source:    source,
		Record:    v,
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type directLookup struct {
	store              VacancyReader
	incrementViewCount bool
}

func (d *directLookup) name() string { return StrategyDirect }

func (d *directLookup) lookup(ctx context.Context, id string) (*models.Vacancy, error) {
	v, err := d.store.LoadVacancy(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVacancyNotFound
	}
	// only visible vacancies collect views, increment errors never fail the lookup
	if d.incrementViewCount && v.Visible() {
		if err := d.store.IncrementViewCount(ctx, id); err != nil {
			logger := componentLogger(ctx, "vacancy_resolver")
			logger.Warn().Err(err).Str("vacancy_id", id).Msg("View count increment failed")
		} else {
			v.ViewCount++
		}
	}
	return v, nil
}

type catalogLookup struct {
	catalog VacancyFinder
}

func (c *catalogLookup) name() string { return StrategyCatalog }

func (c *catalogLookup) lookup(ctx context.Context, id string) (*models.Vacancy, error) {
	return c.catalog.Find(ctx, id)
}

// componentLogger returns the request logger from ctx tagged with the component.
func componentLogger(ctx context.Context, component string) zerolog.Logger {
	return zerolog.Ctx(ctx).With().Str("component", component).Logger()
}
