package services

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/tuttoxa9/vahtarep10/internal/models"
)

const (
	SortByDate   = "date"
	SortBySalary = "salary"
	SortByViews  = "views"

	filterAll = "all"
)

// VacancyFilter narrows the catalog. Zero values disable a criterion.
type VacancyFilter struct {
	Search         string
	SalaryMin      int
	SalaryMax      int
	Location       string
	EmploymentType string
	Experience     string
	Sort           string
	Limit          int
}

// phrases that count as "no experience needed"
var noExperiencePhrases = []string{
	"без опыта",
	"опыт не требуется",
	"не требуется опыт",
	"подойдет без опыта",
	"опыт не нужен",
	"новичкам",
	"0 лет",
}

// FilterVacancies keeps the vacancies matching every set criterion. Order is preserved.
func FilterVacancies(vacancies []models.Vacancy, f VacancyFilter) []models.Vacancy {
	out := make([]models.Vacancy, 0, len(vacancies))

	var terms []string
	if strings.TrimSpace(f.Search) != "" {
		terms = strings.Split(normalizeSearchText(f.Search), " ")
	}
	location := strings.ToLower(strings.TrimSpace(f.Location))
	employment := strings.ToLower(f.EmploymentType)
	experience := strings.ToLower(f.Experience)

	for _, v := range vacancies {
		if terms != nil && !matchesSearch(&v, terms) {
			continue
		}
		if f.SalaryMin > 0 || f.SalaryMax > 0 {
			min, max := v.Salary.Span()
			if f.SalaryMin > 0 && max < float64(f.SalaryMin) {
				continue
			}
			if f.SalaryMax > 0 && min > float64(f.SalaryMax) {
				continue
			}
		}
		if location != "" && !strings.Contains(strings.ToLower(v.DisplayLocation()), location) {
			continue
		}
		if employment != "" && employment != filterAll {
			vacancyType := strings.ToLower(v.EmploymentType)
			if vacancyType != employment && !strings.Contains(vacancyType, employment) {
				continue
			}
		}
		if experience != "" && experience != filterAll && !matchesExperience(strings.ToLower(v.Experience), experience) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func matchesSearch(v *models.Vacancy, terms []string) bool {
	text := normalizeSearchText(strings.Join([]string{
		v.DisplayTitle(),
		v.DisplayCompany(),
		v.Description,
		v.DisplayLocation(),
		v.Experience,
		v.EmploymentType,
	}, " "))

	for _, term := range terms {
		if term == "" || !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

func matchesExperience(vacancyExp, filterExp string) bool {
	if filterExp == "без опыта" {
		for _, phrase := range noExperiencePhrases {
			if strings.Contains(vacancyExp, phrase) {
				return true
			}
		}
		return vacancyExp == "" || vacancyExp == "нет" || vacancyExp == "не требуется"
	}

	if strings.Contains(filterExp, "от") {
		if years := models.DigitRuns(filterExp); len(years) > 0 {
			required, _ := strconv.Atoi(years[0])
			req := strconv.Itoa(required)
			if strings.Contains(vacancyExp, filterExp) ||
				strings.Contains(vacancyExp, "от "+req) ||
				strings.Contains(vacancyExp, req+" лет") ||
				strings.Contains(vacancyExp, req+" года") ||
				strings.Contains(vacancyExp, req+"+") {
				return true
			}
			for _, n := range models.DigitRuns(vacancyExp) {
				if got, err := strconv.Atoi(n); err == nil && got >= required {
					return true
				}
			}
			return false
		}
	}

	return strings.Contains(vacancyExp, filterExp)
}

// normalizeSearchText lowercases, folds ё into е and turns anything other
// than cyrillic, latin, digits and underscore into single spaces.
func normalizeSearchText(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'а' && r <= 'я',
			r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '_',
			unicode.IsSpace(r):
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// SortVacancies orders a copy of the slice. Unknown keys keep the input order.
func SortVacancies(vacancies []models.Vacancy, by string) []models.Vacancy {
	sorted := make([]models.Vacancy, len(vacancies))
	copy(sorted, vacancies)

	switch by {
	case SortByDate:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	case SortBySalary:
		sort.SliceStable(sorted, func(i, j int) bool {
			return salaryMidpoint(sorted[i].Salary) > salaryMidpoint(sorted[j].Salary)
		})
	case SortByViews:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ViewCount > sorted[j].ViewCount
		})
	}
	return sorted
}

func salaryMidpoint(s models.Salary) float64 {
	min, max := s.Span()
	return (min + max) / 2
}
