package dtos

import (
	"github.com/tuttoxa9/vahtarep10/internal/services"
)

// Fields are not tagged as required: missing values are reported by the
// submission service with the full list of required names.
type SubmitApplicationRequest struct {
	VacancyID      string `json:"vacancyId"`
	ApplicantName  string `json:"applicantName"`
	ApplicantPhone string `json:"applicantPhone"`
	ApplicantEmail string `json:"applicantEmail"`
	Message        string `json:"message"`
}

func (r SubmitApplicationRequest) ToInput() services.ApplicationInput {
	return services.ApplicationInput{
		VacancyID:      r.VacancyID,
		ApplicantName:  r.ApplicantName,
		ApplicantPhone: r.ApplicantPhone,
		ApplicantEmail: r.ApplicantEmail,
		Message:        r.Message,
	}
}

type EmployerApplicationRequest struct {
	CompanyName   string `json:"companyName"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	WorkersNeeded string `json:"workersNeeded"`
	WorkType      string `json:"workType"`
	Location      string `json:"location"`
	Message       string `json:"message"`
}

func (r EmployerApplicationRequest) ToInput() services.EmployerInput {
	return services.EmployerInput{
		CompanyName:   r.CompanyName,
		ContactPerson: r.ContactPerson,
		Phone:         r.Phone,
		Email:         r.Email,
		WorkersNeeded: r.WorkersNeeded,
		WorkType:      r.WorkType,
		Location:      r.Location,
		Message:       r.Message,
	}
}

// The firebase* names are kept for the existing frontend.
type SubmitApplicationResponse struct {
	Success       bool             `json:"success"`
	ApplicationID string           `json:"applicationId"`
	FirebaseDocID *string          `json:"firebaseDocId"`
	Message       string           `json:"message"`
	Debug         *SubmissionDebug `json:"debug,omitempty"`
}

type SubmissionDebug struct {
	VacancyFetchSuccess bool    `json:"vacancyFetchSuccess"`
	VacancyTitle        string  `json:"vacancyTitle"`
	VacancyCompany      string  `json:"vacancyCompany"`
	VacancyLocation     string  `json:"vacancyLocation"`
	FirebaseSaved       bool    `json:"firebaseSaved"`
	FirebaseDocID       *string `json:"firebaseDocId"`
	TelegramSent        bool    `json:"telegramSent"`
	FirebaseError       *string `json:"firebaseError"`
}

type EmployerApplicationResponse struct {
	Success       bool             `json:"success"`
	ApplicationID string           `json:"applicationId"`
	FirebaseDocID *string          `json:"firebaseDocId"`
	Message       string           `json:"message"`
	Results       *EmployerResults `json:"results,omitempty"`
}

type EmployerResults struct {
	FirebaseSaved bool    `json:"firebaseSaved"`
	FirebaseDocID *string `json:"firebaseDocId"`
	TelegramSent  bool    `json:"telegramSent"`
	FirebaseError *string `json:"firebaseError"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const demoMessage = "Application submitted successfully (demo mode)"

func NewSubmitApplicationResponse(res *services.SubmissionResult) SubmitApplicationResponse {
	if res.Demo {
		return SubmitApplicationResponse{Success: true, ApplicationID: res.ApplicationID, Message: demoMessage}
	}

	docID := optional(res.StoreID)
	return SubmitApplicationResponse{
		Success:       true,
		ApplicationID: res.ApplicationID,
		FirebaseDocID: docID,
		Message:       applicationMessage(res.Persisted, res.Notified),
		Debug: &SubmissionDebug{
			VacancyFetchSuccess: res.Vacancy.Resolved,
			VacancyTitle:        res.Vacancy.Title,
			VacancyCompany:      res.Vacancy.Company,
			VacancyLocation:     res.Vacancy.Location,
			FirebaseSaved:       res.Persisted,
			FirebaseDocID:       docID,
			TelegramSent:        res.Notified,
			FirebaseError:       errorText(res.StoreErr),
		},
	}
}

func NewEmployerApplicationResponse(res *services.EmployerSubmissionResult) EmployerApplicationResponse {
	if res.Demo {
		return EmployerApplicationResponse{Success: true, ApplicationID: res.ApplicationID, Message: demoMessage}
	}

	docID := optional(res.StoreID)
	msg := "Application submitted successfully"
	if res.Persisted {
		msg += " and saved to database"
	} else {
		msg += " (database save failed)"
	}
	if res.Notified {
		msg += ", notification sent"
	} else {
		msg += " (notification failed)"
	}
	return EmployerApplicationResponse{
		Success:       true,
		ApplicationID: res.ApplicationID,
		FirebaseDocID: docID,
		Message:       msg,
		Results: &EmployerResults{
			FirebaseSaved: res.Persisted,
			FirebaseDocID: docID,
			TelegramSent:  res.Notified,
			FirebaseError: errorText(res.StoreErr),
		},
	}
}

func applicationMessage(persisted, notified bool) string {
	msg := "Application submitted successfully"
	if persisted {
		msg += " and saved to database"
	} else {
		msg += " (database save failed)"
	}
	if notified {
		msg += " and notification sent"
	} else {
		msg += " (notification failed)"
	}
	return msg
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func errorText(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	return &msg
}
