package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSubmittedAt = time.Date(2024, 3, 15, 9, 30, 5, 0, time.UTC)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) (*TelegramNotifier, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	return NewTelegramNotifier(TelegramConfig{
		BotToken: "123:secret",
		ChatID:   "-100500",
		APIBase:  srv.URL,
		Timeout:  time.Second,
		Location: moscow,
	}), &calls
}

func sampleNotice() ApplicationNotice {
	return ApplicationNotice{
		ApplicationID: "app_1710495005000_abcdefghi",
		StoreID:       "doc-1",
		Input: ApplicationInput{
			VacancyID:      "v1",
			ApplicantName:  "Иван_Петров",
			ApplicantPhone: "+79990000000",
		},
		Vacancy: ResolvedVacancy{
			Title: "Сварщик", Company: "СтройМонтаж", Location: "Тюмень",
			Salary: "90000 - 120000 RUB", Resolved: true,
		},
		Persisted:   true,
		SubmittedAt: testSubmittedAt,
	}
}

func TestNotifyApplicationSendsMessage(t *testing.T) {
	var got sendMessageRequest
	var path string
	n, calls := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, n.NotifyApplication(context.Background(), sampleNotice()))

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, "/bot123:secret/sendMessage", path)
	assert.Equal(t, "-100500", got.ChatID)
	assert.Equal(t, "Markdown", got.ParseMode)
	assert.Contains(t, got.Text, "*Vacancy:* Сварщик\n")
	assert.Contains(t, got.Text, "*Salary:* 90000 - 120000 RUB")
	assert.Contains(t, got.Text, "✅ *Data status:* Full data received")
	assert.Contains(t, got.Text, `• Name: Иван\_Петров`)
	assert.Contains(t, got.Text, "• Email: not provided")
	assert.Contains(t, got.Text, `Application ID: app\_1710495005000\_abcdefghi`)
	assert.Contains(t, got.Text, "Store doc ID: doc-1")
	assert.Contains(t, got.Text, "DB status: ✅ Saved")
	// 09:30:05 UTC is 12:30:05 in Moscow
	assert.Contains(t, got.Text, "Submitted: 15.03.2024, 12:30:05")
}

func TestFormatApplicationPlaceholdersAndStoreError(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{})
	notice := sampleNotice()
	notice.StoreID = ""
	notice.Persisted = false
	notice.StoreErr = &StoreError{Op: "save application", Err: errors.New("deadline exceeded")}
	notice.Vacancy = ResolvedVacancy{
		Title: PlaceholderTitle, Company: PlaceholderCompany,
		Location: PlaceholderLocation, Salary: PlaceholderSalary,
	}

	text := n.formatApplication(notice)

	assert.Contains(t, text, "*Vacancy:* Unknown vacancy (full data unavailable)")
	assert.Contains(t, text, "⚠️ *Data status:* Placeholder data used")
	assert.Contains(t, text, "Store doc ID: not created")
	assert.Contains(t, text, "DB status: ❌ Not saved")
	assert.Contains(t, text, "DB error: store save application: deadline exceeded")
}

func TestFormatEmployerApplication(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{})
	text := n.formatEmployerApplication(EmployerNotice{
		ApplicationID: "emp_1_x",
		Input: EmployerInput{
			CompanyName: "ООО *Вахта*", ContactPerson: "Пётр", Phone: "+7999", WorkersNeeded: "15",
		},
		Persisted:   true,
		StoreID:     "doc-9",
		SubmittedAt: testSubmittedAt,
	})

	assert.Contains(t, text, `*Company:* ООО \*Вахта\*`)
	assert.Contains(t, text, "• Workers needed: 15")
	assert.Contains(t, text, "• Work type: not provided")
	assert.Contains(t, text, "Store doc ID: doc-9")
}

func TestNotifyDisabledWithoutCredentials(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, cfg := range []TelegramConfig{
		{APIBase: srv.URL, ChatID: "-1"},
		{APIBase: srv.URL, BotToken: "t"},
	} {
		n := NewTelegramNotifier(cfg)
		assert.False(t, n.Enabled())
		assert.ErrorIs(t, n.NotifyApplication(context.Background(), sampleNotice()), ErrNotifierDisabled)
	}
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNotifyNon2xxIsNotificationError(t *testing.T) {
	n, _ := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	})

	err := n.NotifyApplication(context.Background(), sampleNotice())
	var notifyErr *NotificationError
	require.ErrorAs(t, err, &notifyErr)
	assert.Equal(t, http.StatusBadRequest, notifyErr.StatusCode)
	assert.Contains(t, notifyErr.Body, "can't parse entities")
}

func TestNotifyTimeoutDoesNotLeakToken(t *testing.T) {
	release := make(chan struct{})
	n, _ := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	n.timeout = 50 * time.Millisecond
	n.client.Timeout = 50 * time.Millisecond

	start := time.Now()
	err := n.NotifyApplication(context.Background(), sampleNotice())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, strings.Contains(err.Error(), "secret"), err.Error())
}
