package checkout

import (
	"strings"
	"unicode"
)

const (
	minCardDigits = 15
	minCVCDigits  = 3
	maxCVCDigits  = 4
)

// CardForm holds the card fields typed by the cashier.
type CardForm struct {
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	CVC        string `json:"cvc"`
	Name       string `json:"name"`
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return s != ""
}

// validExpiry accepts exactly "MM/YY" with a month between 01 and 12.
func validExpiry(s string) bool {
	if len(s) != 5 || s[2] != '/' {
		return false
	}
	if !allDigits(s[:2]) || !allDigits(s[3:]) {
		return false
	}
	month := int(s[0]-'0')*10 + int(s[1]-'0')
	return month >= 1 && month <= 12
}

// Invalid returns the names of the fields that fail validation.
func (f CardForm) Invalid() []string {
	var fields []string
	if len(digitsOnly(f.CardNumber)) < minCardDigits {
		fields = append(fields, "card_number")
	}
	if !validExpiry(f.Expiry) {
		fields = append(fields, "expiry")
	}
	if !allDigits(f.CVC) || len(f.CVC) < minCVCDigits || len(f.CVC) > maxCVCDigits {
		fields = append(fields, "cvc")
	}
	if strings.TrimSpace(f.Name) == "" {
		fields = append(fields, "name")
	}
	return fields
}

func (f CardForm) Eligible() bool {
	return len(f.Invalid()) == 0
}

// Masked keeps only the last four digits for display and logs.
func (f CardForm) Masked() string {
	d := digitsOnly(f.CardNumber)
	if len(d) <= 4 {
		return d
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}
