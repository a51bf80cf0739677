package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tuttoxa9/vahtarep10/internal/models"
)

const defaultWriteTimeout = 10 * time.Second

type ApplicationStore interface {
	SaveApplication(ctx context.Context, app *models.Application) (string, error)
	SaveEmployerApplication(ctx context.Context, app *models.EmployerApplication) (string, error)
}

type Notifier interface {
	NotifyApplication(ctx context.Context, notice ApplicationNotice) error
	NotifyEmployerApplication(ctx context.Context, notice EmployerNotice) error
}

type Resolver interface {
	Resolve(ctx context.Context, vacancyID string) ResolvedVacancy
}

// ApplicationInput is a job-seeker submission as received.
type ApplicationInput struct {
	VacancyID      string
	ApplicantName  string
	ApplicantPhone string
	ApplicantEmail string
	Message        string
}

type EmployerInput struct {
	CompanyName   string
	ContactPerson string
	Phone         string
	Email         string
	WorkersNeeded string
	WorkType      string
	Location      string
	Message       string
}

// SubmissionResult reports each stage on its own. Only validation and a
// broken pipeline are returned as errors.
type SubmissionResult struct {
	ApplicationID string
	// empty when nothing was persisted
	StoreID   string
	Vacancy   ResolvedVacancy
	Persisted bool
	Notified  bool
	StoreErr  error
	NotifyErr error
	Demo      bool
}

type EmployerSubmissionResult struct {
	ApplicationID string
	StoreID       string
	Persisted     bool
	Notified      bool
	StoreErr      error
	NotifyErr     error
	Demo          bool
}

type SubmissionDeps struct {
	Resolver Resolver
	Store    ApplicationStore
	Notifier Notifier
	// demo mode skips persistence and notification
	Demo         bool
	WriteTimeout time.Duration
	// Now is overridable in tests
	Now func() time.Time
}

// SubmissionService runs validate, resolve, persist, notify for every submission.
type SubmissionService struct {
	resolver     Resolver
	store        ApplicationStore
	notifier     Notifier
	demo         bool
	writeTimeout time.Duration
	now          func() time.Time
}

func NewSubmissionService(deps SubmissionDeps) *SubmissionService {
	if deps.WriteTimeout <= 0 {
		deps.WriteTimeout = defaultWriteTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Demo {
		log.Warn().Str("component", "submission").Msg("Demo mode: submissions are neither persisted nor forwarded")
	}
	return &SubmissionService{
		resolver:     deps.Resolver,
		store:        deps.Store,
		notifier:     deps.Notifier,
		demo:         deps.Demo,
		writeTimeout: deps.WriteTimeout,
		now:          deps.Now,
	}
}

func (s *SubmissionService) Demo() bool { return s.demo }

func (s *SubmissionService) SubmitApplication(ctx context.Context, in ApplicationInput) (res *SubmissionResult, err error) {
	defer recoverPipeline(&err)

	in = in.trimmed()
	if verr := validateRequired(
		[]string{"vacancyId", "applicantName", "applicantPhone"},
		[]string{in.VacancyID, in.ApplicantName, in.ApplicantPhone},
	); verr != nil {
		return nil, verr
	}

	logger := componentLogger(ctx, "submission")
	now := s.now()

	if s.demo {
		id := newDemoID(now)
		logger.Warn().Str("application_id", id).Msg("Demo mode: application accepted without saving or notifying")
		return &SubmissionResult{ApplicationID: id, Demo: true}, nil
	}
	if s.store == nil || s.resolver == nil || s.notifier == nil {
		return nil, &OrchestrationError{Stage: "setup", Err: fmt.Errorf("submission service is not fully configured")}
	}

	res = &SubmissionResult{ApplicationID: newRequestID(applicationIDPrefix, now)}
	logger = logger.With().Str("application_id", res.ApplicationID).Str("vacancy_id", in.VacancyID).Logger()

	// 1. resolve, never fails
	res.Vacancy = s.resolver.Resolve(ctx, in.VacancyID)

	// 2. persist on a context the client cannot cancel
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	res.StoreID, res.StoreErr = s.store.SaveApplication(saveCtx, &models.Application{
		ApplicationID:       res.ApplicationID,
		VacancyID:           in.VacancyID,
		ApplicantName:       in.ApplicantName,
		ApplicantPhone:      in.ApplicantPhone,
		ApplicantEmail:      in.ApplicantEmail,
		Message:             in.Message,
		VacancyTitle:        res.Vacancy.Title,
		VacancyCompany:      res.Vacancy.Company,
		VacancyLocation:     res.Vacancy.Location,
		VacancyFetchSuccess: res.Vacancy.Resolved,
		Status:              models.ApplicationStatusNew,
		CreatedAt:           now,
	})
	res.Persisted = res.StoreErr == nil
	if res.StoreErr != nil {
		res.StoreID = ""
		logger.Error().Err(res.StoreErr).Msg("Application not saved")
	}

	// 3. notify, best effort; bounded by the notifier timeout, not by the client
	res.NotifyErr = s.notifier.NotifyApplication(context.WithoutCancel(ctx), ApplicationNotice{
		ApplicationID: res.ApplicationID,
		StoreID:       res.StoreID,
		Input:         in,
		Vacancy:       res.Vacancy,
		Persisted:     res.Persisted,
		StoreErr:      res.StoreErr,
		SubmittedAt:   now,
	})
	res.Notified = res.NotifyErr == nil
	if res.NotifyErr != nil {
		logger.Error().Err(res.NotifyErr).Msg("Application notification failed")
	}

	logger.Info().
		Bool("vacancy_resolved", res.Vacancy.Resolved).
		Bool("persisted", res.Persisted).
		Bool("notified", res.Notified).
		Msg("Application processed")
	return res, nil
}

func (s *SubmissionService) SubmitEmployerApplication(ctx context.Context, in EmployerInput) (res *EmployerSubmissionResult, err error) {
	defer recoverPipeline(&err)

	in = in.trimmed()
	if verr := validateRequired(
		[]string{"companyName", "contactPerson", "phone"},
		[]string{in.CompanyName, in.ContactPerson, in.Phone},
	); verr != nil {
		return nil, verr
	}

	logger := componentLogger(ctx, "submission")
	now := s.now()

	if s.demo {
		id := newDemoID(now)
		logger.Warn().Str("application_id", id).Msg("Demo mode: employer request accepted without saving or notifying")
		return &EmployerSubmissionResult{ApplicationID: id, Demo: true}, nil
	}
	if s.store == nil || s.notifier == nil {
		return nil, &OrchestrationError{Stage: "setup", Err: fmt.Errorf("submission service is not fully configured")}
	}

	res = &EmployerSubmissionResult{ApplicationID: newRequestID(employerIDPrefix, now)}
	logger = logger.With().Str("application_id", res.ApplicationID).Logger()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	res.StoreID, res.StoreErr = s.store.SaveEmployerApplication(saveCtx, &models.EmployerApplication{
		ApplicationID: res.ApplicationID,
		CompanyName:   in.CompanyName,
		ContactPerson: in.ContactPerson,
		Phone:         in.Phone,
		Email:         in.Email,
		WorkersNeeded: in.WorkersNeeded,
		WorkType:      in.WorkType,
		Location:      in.Location,
		Message:       in.Message,
		Type:          models.EmployerApplicationType,
		Status:        models.ApplicationStatusNew,
		CreatedAt:     now,
	})
	res.Persisted = res.StoreErr == nil
	if res.StoreErr != nil {
		res.StoreID = ""
		logger.Error().Err(res.StoreErr).Msg("Employer request not saved")
	}

	res.NotifyErr = s.notifier.NotifyEmployerApplication(context.WithoutCancel(ctx), EmployerNotice{
		ApplicationID: res.ApplicationID,
		StoreID:       res.StoreID,
		Input:         in,
		Persisted:     res.Persisted,
		StoreErr:      res.StoreErr,
		SubmittedAt:   now,
	})
	res.Notified = res.NotifyErr == nil
	if res.NotifyErr != nil {
		logger.Error().Err(res.NotifyErr).Msg("Employer notification failed")
	}

	logger.Info().Bool("persisted", res.Persisted).Bool("notified", res.Notified).Msg("Employer request processed")
	return res, nil
}

func validateRequired(names, values []string) error {
	var missing []string
	for i, v := range values {
		if v == "" {
			missing = append(missing, names[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Required: names, Missing: missing}
}

// recoverPipeline converts a panic in a stage into an OrchestrationError.
func recoverPipeline(err *error) {
	if rec := recover(); rec != nil {
		*err = &OrchestrationError{Stage: "pipeline", Err: fmt.Errorf("panic: %v", rec)}
	}
}

func (in ApplicationInput) trimmed() ApplicationInput {
	return ApplicationInput{
		VacancyID:      strings.TrimSpace(in.VacancyID),
		ApplicantName:  strings.TrimSpace(in.ApplicantName),
		ApplicantPhone: strings.TrimSpace(in.ApplicantPhone),
		ApplicantEmail: strings.TrimSpace(in.ApplicantEmail),
		Message:        strings.TrimSpace(in.Message),
	}
}

func (in EmployerInput) trimmed() EmployerInput {
	return EmployerInput{
		CompanyName:   strings.TrimSpace(in.CompanyName),
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		WorkersNeeded: strings.TrimSpace(in.WorkersNeeded),
		WorkType:      strings.TrimSpace(in.WorkType),
		Location:      strings.TrimSpace(in.Location),
		Message:       strings.TrimSpace(in.Message),
	}
}
