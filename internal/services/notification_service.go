package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTelegramAPIBase = "https://api.telegram.org"
	defaultTelegramTimeout = 5 * time.Second

	submittedAtLayout = "02.01.2006, 15:04:05"
	maxErrorBody      = 4 << 10
)

type TelegramConfig struct {
	BotToken string
	ChatID   string
	APIBase  string
	Timeout  time.Duration
	// timestamps in messages are rendered in this zone
	Location *time.Location
}

// TelegramNotifier posts submission summaries to a Telegram chat.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	timeout  time.Duration
	loc      *time.Location
	client   *http.Client
	log      zerolog.Logger
}

func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultTelegramAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTelegramTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.FixedZone("MSK", 3*60*60)
	}
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  strings.TrimRight(cfg.APIBase, "/"),
		timeout:  cfg.Timeout,
		loc:      cfg.Location,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log.With().Str("component", "telegram").Logger(),
	}
}

// Enabled reports whether both credentials are present.
func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// ApplicationNotice is everything the job-seeker message shows.
type ApplicationNotice struct {
	ApplicationID string
	StoreID       string
	Input         ApplicationInput
	Vacancy       ResolvedVacancy
	Persisted     bool
	StoreErr      error
	SubmittedAt   time.Time
}

type EmployerNotice struct {
	ApplicationID string
	StoreID       string
	Input         EmployerInput
	Persisted     bool
	StoreErr      error
	SubmittedAt   time.Time
}

func (n *TelegramNotifier) NotifyApplication(ctx context.Context, notice ApplicationNotice) error {
	return n.send(ctx, n.formatApplication(notice))
}

func (n *TelegramNotifier) NotifyEmployerApplication(ctx context.Context, notice EmployerNotice) error {
	return n.send(ctx, n.formatEmployerApplication(notice))
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if !n.Enabled() {
		n.log.Warn().
			Bool("bot_token_set", n.botToken != "").
			Bool("chat_id_set", n.chatID != "").
			Msg("Telegram credentials missing, notification skipped")
		return ErrNotifierDisabled
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return &NotificationError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	endpoint := n.apiBase + "/bot" + n.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{Err: redactURL(err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return &NotificationError{Err: redactURL(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NotificationError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// redactURL drops the request URL, which carries the bot token, from client errors.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// md escapes a user supplied value for Telegram's legacy Markdown.
func md(s string) string {
	return markdownEscaper.Replace(s)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return md(s)
}

func (n *TelegramNotifier) formatApplication(a ApplicationNotice) string {
	v := a.Vacancy
	var b strings.Builder

	statusEmoji, statusText, titleSuffix := "✅", "Full data received", ""
	if !v.Resolved {
		statusEmoji, statusText, titleSuffix = "⚠️", "Placeholder data used", " (full data unavailable)"
	}

	b.WriteString("🔔 *New vacancy application!*\n\n")
	fmt.Fprintf(&b, "📋 *Vacancy:* %s%s\n", md(v.Title), titleSuffix)
	fmt.Fprintf(&b, "🏢 *Company:* %s\n", md(v.Company))
	fmt.Fprintf(&b, "📍 *Location:* %s\n", md(v.Location))
	fmt.Fprintf(&b, "💰 *Salary:* %s\n", md(v.Salary))
	fmt.Fprintf(&b, "🆔 *Vacancy ID:* %s\n", md(a.Input.VacancyID))
	fmt.Fprintf(&b, "%s *Data status:* %s\n\n", statusEmoji, statusText)

	b.WriteString("👤 *Applicant:*\n")
	fmt.Fprintf(&b, "• Name: %s\n", md(a.Input.ApplicantName))
	fmt.Fprintf(&b, "• Phone: %s\n", md(a.Input.ApplicantPhone))
	fmt.Fprintf(&b, "• Email: %s\n", orNotProvided(a.Input.ApplicantEmail))
	fmt.Fprintf(&b, "• Message: %s\n\n", orNotProvided(a.Input.Message))

	n.writeFooter(&b, a.ApplicationID, a.StoreID, a.Persisted, a.StoreErr, a.SubmittedAt)
	return b.String()
}

func (n *TelegramNotifier) formatEmployerApplication(e EmployerNotice) string {
	in := e.Input
	var b strings.Builder

	b.WriteString("🏢 *New employer request!*\n\n")
	fmt.Fprintf(&b, "🏭 *Company:* %s\n\n", md(in.CompanyName))

	b.WriteString("👤 *Contacts:*\n")
	fmt.Fprintf(&b, "• Contact person: %s\n", md(in.ContactPerson))
	fmt.Fprintf(&b, "• Phone: %s\n", md(in.Phone))
	fmt.Fprintf(&b, "• Email: %s\n\n", orNotProvided(in.Email))

	b.WriteString("💼 *Requirements:*\n")
	fmt.Fprintf(&b, "• Workers needed: %s\n", orNotProvided(in.WorkersNeeded))
	fmt.Fprintf(&b, "• Work type: %s\n", orNotProvided(in.WorkType))
	fmt.Fprintf(&b, "• Work location: %s\n\n", orNotProvided(in.Location))

	b.WriteString("💬 *Additional information:*\n")
	fmt.Fprintf(&b, "%s\n\n", orNotProvided(in.Message))

	n.writeFooter(&b, e.ApplicationID, e.StoreID, e.Persisted, e.StoreErr, e.SubmittedAt)
	return b.String()
}

func (n *TelegramNotifier) writeFooter(b *strings.Builder, applicationID, storeID string, persisted bool, storeErr error, at time.Time) {
	fmt.Fprintf(b, "🆔 Application ID: %s\n", md(applicationID))
	if storeID == "" {
		b.WriteString("📄 Store doc ID: not created\n")
	} else {
		fmt.Fprintf(b, "📄 Store doc ID: %s\n", md(storeID))
	}
	if persisted {
		b.WriteString("💾 DB status: ✅ Saved\n")
	} else {
		b.WriteString("💾 DB status: ❌ Not saved\n")
	}
	if storeErr != nil {
		fmt.Fprintf(b, "❌ DB error: %s\n", md(storeErr.Error()))
	}
	if at.IsZero() {
		at = time.Now()
	}
	fmt.Fprintf(b, "\n⏰ Submitted: %s", at.In(n.loc).Format(submittedAtLayout))
}
