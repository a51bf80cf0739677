package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vacancy statuses. An empty status is treated the same as active.
const (
	VacancyStatusActive   = "active"
	VacancyStatusArchived = "archived"
)

const (
	ApplicationStatusNew    = "new"
	EmployerApplicationType = "employer_application"
)

type Vacancy struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`

	// older imported documents use these names instead of title/company/location
	Name        string `json:"name,omitempty"`
	Position    string `json:"position,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Employer    string `json:"employer,omitempty"`
	City        string `json:"city,omitempty"`
	Address     string `json:"address,omitempty"`

	Salary         Salary   `gorm:"type:text" json:"salary"`
	Experience     string   `json:"experience"`
	EmploymentType string   `json:"employment_type"`
	Description    string   `gorm:"type:text" json:"description"`
	Requirements   []string `gorm:"type:text;serializer:json" json:"requirements,omitempty"`
	Benefits       []string `gorm:"type:text;serializer:json" json:"benefits,omitempty"`
	ImageURL       string   `json:"imageUrl,omitempty"`
	DetailsURL     string   `json:"detailsUrl,omitempty"`
	IsFeatured     bool     `json:"isFeatured"`
	Status         string   `gorm:"index;size:32" json:"status"`
	ViewCount      int64    `gorm:"not null;default:0" json:"viewCount"`
}

func (v *Vacancy) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// Visible reports whether the vacancy should be shown in the public catalog.
func (v *Vacancy) Visible() bool {
	return v.Status == "" || v.Status == VacancyStatusActive
}

// DisplayTitle returns the first non-empty of title, name, position.
func (v *Vacancy) DisplayTitle() string {
	return firstNonEmpty(v.Title, v.Name, v.Position)
}

// DisplayCompany returns the first non-empty of company, companyName, employer.
func (v *Vacancy) DisplayCompany() string {
	return firstNonEmpty(v.Company, v.CompanyName, v.Employer)
}

// DisplayLocation returns the first non-empty of location, city, address.
func (v *Vacancy) DisplayLocation() string {
	return firstNonEmpty(v.Location, v.City, v.Address)
}

// Application is a persisted job-seeker submission.
type Application struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// request scoped id returned to the client, kept for correlating logs
	ApplicationID string `gorm:"index;size:64" json:"applicationId"`

	VacancyID      string `gorm:"index;size:64;not null" json:"vacancyId"`
	ApplicantName  string `gorm:"not null" json:"applicantName"`
	ApplicantPhone string `gorm:"not null" json:"applicantPhone"`
	ApplicantEmail string `json:"applicantEmail"`
	Message        string `gorm:"type:text" json:"message"`

	VacancyTitle    string `json:"vacancyTitle"`
	VacancyCompany  string `json:"vacancyCompany"`
	VacancyLocation string `json:"vacancyLocation"`
	// false when the vacancy fields above are placeholders
	VacancyFetchSuccess bool `json:"vacancyFetchSuccess"`

	Status string `gorm:"size:32;not null" json:"status"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// EmployerApplication is a request from a company looking for workers.
type EmployerApplication struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	ApplicationID string `gorm:"index;size:64" json:"applicationId"`

	CompanyName   string `gorm:"not null" json:"companyName"`
	ContactPerson string `gorm:"not null" json:"contactPerson"`
	Phone         string `gorm:"not null" json:"phone"`
	Email         string `json:"email"`
	WorkersNeeded string `json:"workersNeeded"`
	WorkType      string `json:"workType"`
	Location      string `json:"location"`
	Message       string `gorm:"type:text" json:"message"`

	Type   string `gorm:"size:32;not null" json:"type"`
	Status string `gorm:"size:32;not null" json:"status"`
}

func (e *EmployerApplication) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
