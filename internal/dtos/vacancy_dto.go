package dtos

import (
	"time"

	"github.com/tuttoxa9/vahtarep10/internal/models"
	"github.com/tuttoxa9/vahtarep10/internal/services"
)

type VacancyListQuery struct {
	Search         string `form:"search"`
	SalaryMin      int    `form:"salaryMin" binding:"omitempty,gte=0"`
	SalaryMax      int    `form:"salaryMax" binding:"omitempty,gte=0"`
	Location       string `form:"location"`
	EmploymentType string `form:"employmentType"`
	Experience     string `form:"experience"`
	Sort           string `form:"sort" binding:"omitempty,oneof=date salary views"`
	Limit          int    `form:"limit" binding:"omitempty,gte=0,lte=200"`
}

func (q VacancyListQuery) ToFilter() services.VacancyFilter {
	return services.VacancyFilter{
		Search:         q.Search,
		SalaryMin:      q.SalaryMin,
		SalaryMax:      q.SalaryMax,
		Location:       q.Location,
		EmploymentType: q.EmploymentType,
		Experience:     q.Experience,
		Sort:           q.Sort,
		Limit:          q.Limit,
	}
}

// VacancyView is what the site renders. Display fields already have the
// legacy fallbacks applied.
type VacancyView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Company        string        `json:"company"`
	Location       string        `json:"location"`
	Salary         models.Salary `json:"salary"`
	SalaryText     string        `json:"salaryText"`
	Experience     string        `json:"experience"`
	EmploymentType string        `json:"employment_type"`
	Description    string        `json:"description"`
	Requirements   []string      `json:"requirements"`
	Benefits       []string      `json:"benefits"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	DetailsURL     string        `json:"detailsUrl,omitempty"`
	IsFeatured     bool          `json:"isFeatured"`
	ViewCount      int64         `json:"viewCount"`
	CreatedAt      time.Time     `json:"createdAt"`
}

func NewVacancyView(v *models.Vacancy) VacancyView {
	salaryText := v.Salary.String()
	if salaryText == "" {
		salaryText = services.PlaceholderSalary
	}
	return VacancyView{
		ID:             v.ID,
		Title:          v.DisplayTitle(),
		Company:        v.DisplayCompany(),
		Location:       v.DisplayLocation(),
		Salary:         v.Salary,
		SalaryText:     salaryText,
		Experience:     v.Experience,
		EmploymentType: v.EmploymentType,
		Description:    v.Description,
		Requirements:   nonNil(v.Requirements),
		Benefits:       nonNil(v.Benefits),
		ImageURL:       v.ImageURL,
		DetailsURL:     v.DetailsURL,
		IsFeatured:     v.IsFeatured,
		ViewCount:      v.ViewCount,
		CreatedAt:      v.CreatedAt,
	}
}

func NewVacancyViews(vacancies []models.Vacancy) []VacancyView {
	out := make([]VacancyView, 0, len(vacancies))
	for i := range vacancies {
		out = append(out, NewVacancyView(&vacancies[i]))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
