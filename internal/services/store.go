package services

import (
	"context"
	"errors"

	"github.com/tuttoxa9/vahtarep10/internal/models"
	"gorm.io/gorm"
)

// GormStore persists applications and reads vacancies.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		DB: db,
	}
}

// SaveApplication inserts the record and returns the store assigned id.
// There is no retry here, a failure is reported once to the caller.
func (s *GormStore) SaveApplication(ctx context.Context, app *models.Application) (string, error) {
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		return "", &StoreError{Op: "save application", Err: err}
	}
	return app.ID, nil
}

func (s *GormStore) SaveEmployerApplication(ctx context.Context, app *models.EmployerApplication) (string, error) {
	if err := s.DB.WithContext(ctx).Create(app).Error; err != nil {
		return "", &StoreError{Op: "save employer application", Err: err}
	}
	return app.ID, nil
}

// LoadVacancy returns nil without an error when no vacancy has the id.
func (s *GormStore) LoadVacancy(ctx context.Context, id string) (*models.Vacancy, error) {
	var vacancy models.Vacancy
	err := s.DB.WithContext(ctx).First(&vacancy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "load vacancy", Err: err}
	}
	return &vacancy, nil
}

// IncrementViewCount bumps the counter with a single UPDATE.
func (s *GormStore) IncrementViewCount(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Vacancy{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return &StoreError{Op: "increment view count", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return ErrVacancyNotFound
	}
	return nil
}

// ListVacancies returns every visible vacancy, newest first.
func (s *GormStore) ListVacancies(ctx context.Context) ([]models.Vacancy, error) {
	var vacancies []models.Vacancy
	err := s.DB.WithContext(ctx).
		Where("status IN ?", []string{models.VacancyStatusActive, ""}).
		Order("created_at desc").
		Find(&vacancies).Error
	if err != nil {
		return nil, &StoreError{Op: "list vacancies", Err: err}
	}
	return vacancies, nil
}
