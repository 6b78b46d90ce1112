// Package mail renders the pre-filled compose link sent to the contracts mailbox.
package mail

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL   = "https://mail.worksmobile.com/write/popup"
	DefaultRecipient = "문정동사서함 <automedia@automediarentcar.com>"
)

// Labels are the locale strings used in the subject and body.
type Labels struct {
	Additional string
	Referral   string
	// Body line labels, in output order.
	Customer   string
	Model      string
	Commission string
	Period     string
	Price      string
	Fee        string
	Deposit    string
	Delivery   string
	Incentive  string
}

// DefaultLabels returns the Korean labels of the contracts mailbox.
func DefaultLabels() Labels {
	return Labels{
		Additional: "추가",
		Referral:   "소개",
		Customer:   "고객명",
		Model:      "대여차종",
		Commission: "수수료",
		Period:     "대여기간",
		Price:      "차량 소비자 가격",
		Fee:        "월대여료",
		Deposit:    "보증금/선납금",
		Delivery:   "투입일자",
		Incentive:  "인센티브",
	}
}

// Draft is everything that goes into one compose link.
type Draft struct {
	Salesperson string
	Office      string
	Channel     string
	OfficeCount int
	PersonCount int
	Additional  bool
	Referral    bool

	Customer   string
	Model      string
	Period     string
	Price      string
	Fee        string
	Deposit    string
	Commission string
	Delivery   string
	Incentive  string
}

// Composer builds compose URLs. It holds no state beyond its configuration.
type Composer struct {
	BaseURL   string
	Recipient string
	Labels    Labels
}

// NewComposer fills empty settings with the defaults.
func NewComposer(baseURL, recipient string, labels *Labels) *Composer {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if recipient == "" {
		recipient = DefaultRecipient
	}
	l := DefaultLabels()
	if labels != nil {
		l = *labels
	}
	return &Composer{BaseURL: baseURL, Recipient: recipient, Labels: l}
}

// Subject is "{person} / {customer} / {office} / {officeCount} / {channel} / {personCount}"
// followed by the additional and referral tags when set.
func (c *Composer) Subject(d Draft) string {
	parts := []string{
		d.Salesperson,
		d.Customer,
		d.Office,
		strconv.Itoa(d.OfficeCount),
		d.Channel,
		strconv.Itoa(d.PersonCount),
	}
	if d.Additional {
		parts = append(parts, c.Labels.Additional)
	}
	if d.Referral {
		parts = append(parts, c.Labels.Referral)
	}
	return strings.Join(parts, " / ")
}

// Body always has nine "label : value" lines.
func (c *Composer) Body(d Draft) string {
	l := c.Labels
	lines := []string{
		line(l.Customer, d.Customer),
		line(l.Model, d.Model),
		line(l.Commission, d.Commission),
		line(l.Period, d.Period),
		line(l.Price, d.Price),
		line(l.Fee, d.Fee),
		line(l.Deposit, d.Deposit),
		line(l.Delivery, d.Delivery),
		line(l.Incentive, d.Incentive),
	}
	return strings.Join(lines, "\n")
}

// URL renders the full compose link.
func (c *Composer) URL(d Draft) string {
	var b strings.Builder
	b.WriteString(c.BaseURL)
	b.WriteString("?to=")
	b.WriteString(Quote(c.Recipient))
	b.WriteString("&subject=")
	b.WriteString(Quote(c.Subject(d)))
	b.WriteString("&body=")
	b.WriteString(Quote(c.Body(d)))
	b.WriteString("&orderType=new&memo=false")
	return b.String()
}

func line(label, value string) string {
	return fmt.Sprintf("%s : %s", label, value)
}

const upperhex = "0123456789ABCDEF"

// Quote percent-encodes every byte except ASCII letters, digits, "_.-~" and "/".
// Spaces become %20.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if keep(ch) {
			b.WriteByte(ch)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[ch>>4])
		b.WriteByte(upperhex[ch&0x0F])
	}
	return b.String()
}

func keep(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9':
		return true
	}
	switch ch {
	case '_', '.', '-', '~', '/':
		return true
	}
	return false
}
