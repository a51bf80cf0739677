package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuttoxa9/vahtarep10/internal/models"
	"github.com/tuttoxa9/vahtarep10/internal/services"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeSubmitter struct {
	result         *services.SubmissionResult
	employerResult *services.EmployerSubmissionResult
	err            error
	lastInput      services.ApplicationInput
	calls          int
}

func (f *fakeSubmitter) SubmitApplication(_ context.Context, in services.ApplicationInput) (*services.SubmissionResult, error) {
	f.calls++
	f.lastInput = in
	return f.result, f.err
}

func (f *fakeSubmitter) SubmitEmployerApplication(_ context.Context, in services.EmployerInput) (*services.EmployerSubmissionResult, error) {
	f.calls++
	return f.employerResult, f.err
}

type fakeCatalog struct {
	vacancies  []models.Vacancy
	err        error
	lastFilter services.VacancyFilter
}

func (f *fakeCatalog) List(_ context.Context, filter services.VacancyFilter) ([]models.Vacancy, error) {
	f.lastFilter = filter
	return f.vacancies, f.err
}

type fakePages struct {
	result services.ResolvedVacancy
	ids    []string
}

func (f *fakePages) Resolve(_ context.Context, id string) services.ResolvedVacancy {
	f.ids = append(f.ids, id)
	return f.result
}

func newTestRouter(sub Submitter, catalog VacancyLister, pages services.Resolver, limiter *RateLimiter) *gin.Engine {
	r, err := NewRouter(RouterDeps{
		Applications: NewApplicationHandler(sub),
		Vacancies:    NewVacancyHandler(catalog, pages),
		Limiter:      limiter,
		Mode:         "live",
	})
	if err != nil {
		panic(err)
	}
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSubmitApplicationSuccess(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{
		ApplicationID: "app_1_abcdefghi",
		StoreID:       "doc-1",
		Vacancy:       services.ResolvedVacancy{Title: "Сварщик", Company: "СтройМонтаж", Location: "Тюмень", Resolved: true},
		Persisted:     true,
		Notified:      true,
	}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application",
		`{"vacancyId":"v1","applicantName":"Иван","applicantPhone":"+7999","applicantEmail":"i@example.com"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "i@example.com", sub.lastInput.ApplicantEmail)
	assert.JSONEq(t, `{
		"success": true,
		"applicationId": "app_1_abcdefghi",
		"firebaseDocId": "doc-1",
		"message": "Application submitted successfully and saved to database and notification sent",
		"debug": {
			"vacancyFetchSuccess": true,
			"vacancyTitle": "Сварщик",
			"vacancyCompany": "СтройМонтаж",
			"vacancyLocation": "Тюмень",
			"firebaseSaved": true,
			"firebaseDocId": "doc-1",
			"telegramSent": true,
			"firebaseError": null
		}
	}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestSubmitApplicationPartialFailure(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{
		ApplicationID: "app_1_abcdefghi",
		Vacancy:       services.ResolvedVacancy{Title: services.PlaceholderTitle},
		StoreErr:      &services.StoreError{Op: "save application", Err: errors.New("unavailable")},
	}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Nil(t, body["firebaseDocId"])
	assert.Equal(t, "Application submitted successfully (database save failed) (notification failed)", body["message"])
	debug := body["debug"].(map[string]any)
	assert.Equal(t, false, debug["firebaseSaved"])
	assert.Equal(t, "store save application: unavailable", debug["firebaseError"])
}

func TestSubmitApplicationValidationError(t *testing.T) {
	sub := &fakeSubmitter{err: &services.ValidationError{
		Required: []string{"vacancyId", "applicantName", "applicantPhone"},
		Missing:  []string{"vacancyId"},
	}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{"applicantName":"a","applicantPhone":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing required fields: vacancyId, applicantName, applicantPhone"}`, w.Body.String())
}

func TestSubmitApplicationEmptyBodyReachesValidation(t *testing.T) {
	sub := &fakeSubmitter{err: &services.ValidationError{Required: []string{"vacancyId"}}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, sub.calls)
}

func TestSubmitApplicationInvalidJSON(t *testing.T) {
	sub := &fakeSubmitter{}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{"vacancyId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON in request body"}`, w.Body.String())
	assert.Zero(t, sub.calls)
}

func TestSubmitApplicationOrchestrationError(t *testing.T) {
	sub := &fakeSubmitter{err: &services.OrchestrationError{Stage: "pipeline", Err: errors.New("panic: boom")}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "submission pipeline: panic: boom", body["details"])
}

func TestSubmitApplicationDemoResponse(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{ApplicationID: "mock-id-1", Demo: true}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"applicationId": "mock-id-1",
		"firebaseDocId": null,
		"message": "Application submitted successfully (demo mode)"
	}`, w.Body.String())
}

func TestSubmitApplicationMethodNotAllowed(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, nil, nil, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(r, method, "/submit-application", "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, method)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	}
}

func TestSubmitApplicationPreflight(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, nil, nil, nil)

	w := do(r, http.MethodOptions, "/submit-application", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))

	w = do(r, http.MethodOptions, "/submit-application", "",
		"Origin", "https://vahta.example",
		"Access-Control-Request-Method", "POST")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSubmitApplicationCORSOnResponse(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{ApplicationID: "x", Demo: true}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-application", `{}`, "Origin", "https://vahta.example")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubmitEmployerApplication(t *testing.T) {
	sub := &fakeSubmitter{employerResult: &services.EmployerSubmissionResult{
		ApplicationID: "emp_1_abcdefghi",
		StoreID:       "doc-2",
		Persisted:     true,
		Notified:      true,
	}}
	r := newTestRouter(sub, nil, nil, nil)

	w := do(r, http.MethodPost, "/submit-employer-application", `{"companyName":"ООО","contactPerson":"Пётр","phone":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"applicationId": "emp_1_abcdefghi",
		"firebaseDocId": "doc-2",
		"message": "Application submitted successfully and saved to database, notification sent",
		"results": {
			"firebaseSaved": true,
			"firebaseDocId": "doc-2",
			"telegramSent": true,
			"firebaseError": null
		}
	}`, w.Body.String())
}

func TestSubmissionRateLimit(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{ApplicationID: "x", Demo: true}}
	r := newTestRouter(sub, nil, nil, NewRateLimiter(0.001, 2))

	body := `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/submit-application", body).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/submit-application", body).Code)

	w := do(r, http.MethodPost, "/submit-application", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())
	assert.Equal(t, 2, sub.calls)

	// preflight is never limited
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodOptions, "/submit-application", "").Code)
}

func TestSubmissionRateLimitIgnoresForwardedFor(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{ApplicationID: "x", Demo: true}}
	r := newTestRouter(sub, nil, nil, NewRateLimiter(1, 1))

	body := `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`
	limited := 0
	for i := range 20 {
		w := do(r, http.MethodPost, "/submit-application", body, "X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.GreaterOrEqual(t, limited, 18)
}

func TestSubmissionRateLimitHonoursTrustedProxy(t *testing.T) {
	sub := &fakeSubmitter{result: &services.SubmissionResult{ApplicationID: "x", Demo: true}}
	r, err := NewRouter(RouterDeps{
		Applications: NewApplicationHandler(sub),
		Vacancies:    NewVacancyHandler(nil, nil),
		Limiter:      NewRateLimiter(1, 1),
		// httptest requests come from 192.0.2.1
		TrustedProxies: []string{"192.0.2.0/24"},
	})
	require.NoError(t, err)

	body := `{"vacancyId":"v1","applicantName":"a","applicantPhone":"1"}`
	for i := range 3 {
		w := do(r, http.MethodPost, "/submit-application", body, "X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestNewRouterRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewRouter(RouterDeps{
		Applications:   NewApplicationHandler(&fakeSubmitter{}),
		Vacancies:      NewVacancyHandler(nil, nil),
		TrustedProxies: []string{"not-an-ip"},
	})
	assert.Error(t, err)
}

func TestListVacancies(t *testing.T) {
	catalog := &fakeCatalog{vacancies: []models.Vacancy{
		{ID: "v1", Name: "Сварщик", City: "Тюмень", Salary: models.RangeSalary(0, 90000, "")},
	}}
	r := newTestRouter(&fakeSubmitter{}, catalog, &fakePages{}, nil)

	w := do(r, http.MethodGet, "/vacancies?search=сварщик&salaryMin=50000&sort=salary&limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, services.VacancyFilter{Search: "сварщик", SalaryMin: 50000, Sort: "salary", Limit: 5}, catalog.lastFilter)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Сварщик", views[0]["title"])
	assert.Equal(t, "Тюмень", views[0]["location"])
	assert.Equal(t, "up to 90000 RUB", views[0]["salaryText"])
}

func TestListVacanciesRejectsBadQuery(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, &fakeCatalog{}, &fakePages{}, nil)

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/vacancies?sort=random", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/vacancies?limit=abc", "").Code)
}

func TestListVacanciesStoreFailure(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, &fakeCatalog{err: errors.New("db down")}, &fakePages{}, nil)

	w := do(r, http.MethodGet, "/vacancies", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetVacancy(t *testing.T) {
	record := &models.Vacancy{ID: "v1", Title: "Повар", ViewCount: 3}
	pages := &fakePages{result: services.ResolvedVacancy{Resolved: true, Record: record}}
	r := newTestRouter(&fakeSubmitter{}, &fakeCatalog{}, pages, nil)

	w := do(r, http.MethodGet, "/vacancies/v1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"v1"}, pages.ids)

	body := decode(t, w)
	assert.Equal(t, "Повар", body["title"])
	assert.Equal(t, float64(3), body["viewCount"])
	assert.Equal(t, services.PlaceholderSalary, body["salaryText"])
}

func TestGetVacancyNotFound(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, &fakeCatalog{}, &fakePages{result: services.ResolvedVacancy{Title: services.PlaceholderTitle}}, nil)

	w := do(r, http.MethodGet, "/vacancies/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Vacancy not found"}`, w.Body.String())
}

func TestGetArchivedVacancyIsHidden(t *testing.T) {
	record := &models.Vacancy{ID: "v1", Title: "Повар", Status: models.VacancyStatusArchived}
	r := newTestRouter(&fakeSubmitter{}, &fakeCatalog{}, &fakePages{result: services.ResolvedVacancy{Resolved: true, Record: record}}, nil)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/vacancies/v1", "").Code)
}

func TestVacanciesUnavailableInDemoMode(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, nil, nil, nil)

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/vacancies", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/vacancies/v1", "").Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, nil, nil, nil)

	w := do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","mode":"live"}`, w.Body.String())
}

func TestRecoveryReturns500(t *testing.T) {
	r, err := NewRouter(RouterDeps{Applications: NewApplicationHandler(&fakeSubmitter{}), Vacancies: NewVacancyHandler(nil, nil)})
	require.NoError(t, err)
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	r := newTestRouter(&fakeSubmitter{}, nil, nil, nil)

	w := do(r, http.MethodGet, "/health", "", requestIDHeader, "req-42")
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
}
