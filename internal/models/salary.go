package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSalaryCurrency is used when a salary range carries no currency.
const DefaultSalaryCurrency = "RUB"

type SalaryKind uint8

const (
	SalaryUnset SalaryKind = iota
	SalaryNumber
	SalaryText
	SalaryRange
)

// Salary is stored as a plain number, free text, or a {min, max, currency}
// range. A zero Min or Max on a range means the bound is absent.
type Salary struct {
	Kind     SalaryKind
	Amount   float64
	Text     string
	Min      float64
	Max      float64
	Currency string
}

func NumberSalary(amount float64) Salary {
	return Salary{Kind: SalaryNumber, Amount: amount}
}

func TextSalary(text string) Salary {
	return Salary{Kind: SalaryText, Text: text}
}

func RangeSalary(min, max float64, currency string) Salary {
	return Salary{Kind: SalaryRange, Min: min, Max: max, Currency: currency}
}

type salaryRange struct {
	Min      json.RawMessage `json:"min,omitempty"`
	Max      json.RawMessage `json:"max,omitempty"`
	Currency string          `json:"currency,omitempty"`
}

type salaryRangeOut struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

func (s Salary) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SalaryNumber:
		return json.Marshal(s.Amount)
	case SalaryText:
		return json.Marshal(s.Text)
	case SalaryRange:
		out := salaryRangeOut{Currency: s.Currency}
		if s.Min != 0 {
			out.Min = &s.Min
		}
		if s.Max != 0 {
			out.Max = &s.Max
		}
		return json.Marshal(out)
	default:
		return []byte("null"), nil
	}
}

func (s *Salary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Salary{}
		return nil
	}

	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = TextSalary(text)
	case '{':
		var r salaryRange
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		min, err := parseAmount(r.Min)
		if err != nil {
			return fmt.Errorf("salary min: %w", err)
		}
		max, err := parseAmount(r.Max)
		if err != nil {
			return fmt.Errorf("salary max: %w", err)
		}
		*s = RangeSalary(min, max, r.Currency)
	default:
		var amount float64
		if err := json.Unmarshal(data, &amount); err != nil {
			return fmt.Errorf("salary: %w", err)
		}
		*s = NumberSalary(amount)
	}
	return nil
}

// parseAmount accepts a JSON number or a quoted number. Missing or empty
// values are zero.
func parseAmount(raw json.RawMessage) (float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
		return strconv.ParseFloat(text, 64)
	}
	var v float64
	err := json.Unmarshal(raw, &v)
	return v, err
}

// Scan reads the JSON column written by Value.
func (s *Salary) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Salary{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("salary: unsupported column type %T", src)
	}
}

func (s Salary) Value() (driver.Value, error) {
	if s.Kind == SalaryUnset {
		return nil, nil
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (Salary) GormDataType() string {
	return "text"
}

// String renders the salary for humans. Unset salaries and ranges with
// no bounds render as "".
func (s Salary) String() string {
	switch s.Kind {
	case SalaryNumber:
		return formatAmount(s.Amount)
	case SalaryText:
		return s.Text
	case SalaryRange:
		currency := s.Currency
		if currency == "" {
			currency = DefaultSalaryCurrency
		}
		switch {
		case s.Min != 0 && s.Max != 0:
			return fmt.Sprintf("%s - %s %s", formatAmount(s.Min), formatAmount(s.Max), currency)
		case s.Min != 0:
			return fmt.Sprintf("from %s %s", formatAmount(s.Min), currency)
		case s.Max != 0:
			return fmt.Sprintf("up to %s %s", formatAmount(s.Max), currency)
		}
	}
	return ""
}

var digitsRe = regexp.MustCompile(`\d+`)

// DigitRuns returns every run of ASCII digits in s, in order.
func DigitRuns(s string) []string {
	return digitsRe.FindAllString(s, -1)
}

// Span returns the numeric bounds used for filtering and ordering. Text
// salaries take the smallest and largest integers found in the text.
func (s Salary) Span() (min, max float64) {
	switch s.Kind {
	case SalaryNumber:
		return s.Amount, s.Amount
	case SalaryRange:
		max = s.Max
		if max == 0 {
			max = s.Min
		}
		return s.Min, max
	case SalaryText:
		found := DigitRuns(s.Text)
		for i, d := range found {
			n, err := strconv.ParseFloat(d, 64)
			if err != nil {
				continue
			}
			if i == 0 || n < min {
				min = n
			}
			if i == 0 || n > max {
				max = n
			}
		}
		return min, max
	}
	return 0, 0
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
