package ledger

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
)

// dateLayouts are accepted when reading historical rows.
var dateLayouts = []string{
	constants.DateLayout,
	"2006/01/02",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"2006. 1. 2",
	time.RFC3339,
}

// Row is one contract in the ledger.
type Row struct {
	// Index is the 1-based sheet row; 0 until written.
	Index       int
	Salesperson string
	Customer    string
	Office      string
	Channel     string
	Date        time.Time
	// RawDate keeps the stored text when it could not be parsed.
	RawDate     string
	OfficeCount int
	PersonCount int
	Status      constants.ContractStatus
	Additional  bool
	Referral    bool
}

// NewRow validates a row about to be written.
func NewRow(r Row) (Row, error) {
	r.Salesperson = strings.TrimSpace(r.Salesperson)
	r.Customer = strings.TrimSpace(r.Customer)
	r.Office = strings.TrimSpace(r.Office)
	r.Channel = strings.TrimSpace(r.Channel)
	if r.Status == "" {
		r.Status = constants.StatusActive
	}

	v := common.NewValidator().
		Field(constants.ColSalesperson, r.Salesperson, common.Required, common.MaxLength(50)).
		Field(constants.ColCustomer, r.Customer, common.MaxLength(200)).
		Field(constants.ColOffice, r.Office, common.Required).
		Field(constants.ColDate, r.Date, common.Required).
		Field(constants.ColOfficeCount, r.OfficeCount, common.Positive).
		Field(constants.ColPersonCount, r.PersonCount, common.Positive).
		Field(constants.ColStatus, string(r.Status),
			common.OneOf(string(constants.StatusActive), string(constants.StatusCancelled)))
	if err := v.Error(); err != nil {
		return Row{}, err
	}
	return r, nil
}

// Cancelled reports whether the row has been soft-cancelled.
func (r Row) Cancelled() bool {
	return r.Status == constants.StatusCancelled
}

// Field returns the stored text for a header column, or "" for unknown columns.
func (r Row) Field(col string) string {
	switch strings.TrimSpace(col) {
	case constants.ColSalesperson:
		return r.Salesperson
	case constants.ColCustomer:
		return r.Customer
	case constants.ColOffice:
		return r.Office
	case constants.ColChannel:
		return r.Channel
	case constants.ColDate:
		if r.Date.IsZero() {
			return r.RawDate
		}
		return r.Date.Format(constants.DateLayout)
	case constants.ColOfficeCount:
		return itoa(r.OfficeCount)
	case constants.ColPersonCount:
		return itoa(r.PersonCount)
	case constants.ColStatus:
		return string(r.Status)
	case constants.ColAdditional:
		return flag(r.Additional)
	case constants.ColReferral:
		return flag(r.Referral)
	default:
		return ""
	}
}

// Values lays the row out in header order; unknown columns are empty.
func (r Row) Values(h Header) []string {
	out := make([]string, len(h))
	for i, col := range h {
		out[i] = r.Field(col)
	}
	return out
}

// ParseRow reads a stored record. It never fails: unparseable cells become zero values.
func ParseRow(h Header, record []string, index int) Row {
	get := func(col string) string {
		i, ok := h.Index(col)
		if !ok || i > len(record) {
			return ""
		}
		return strings.TrimSpace(record[i-1])
	}
	r := Row{
		Index:       index,
		Salesperson: get(constants.ColSalesperson),
		Customer:    get(constants.ColCustomer),
		Office:      get(constants.ColOffice),
		Channel:     get(constants.ColChannel),
		RawDate:     get(constants.ColDate),
		OfficeCount: atoi(get(constants.ColOfficeCount)),
		PersonCount: atoi(get(constants.ColPersonCount)),
		Status:      constants.ContractStatus(get(constants.ColStatus)),
		Additional:  get(constants.ColAdditional) == constants.FlagMark,
		Referral:    get(constants.ColReferral) == constants.FlagMark,
	}
	r.Date, _ = parseDate(r.RawDate)
	return r
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return parseSerialDate(s)
}

// maxSerialDate is 9999-12-31 in the 1900 date system.
const maxSerialDate = 2958465

// parseSerialDate reads a spreadsheet date serial such as "45422" or "45422.5",
// which is what date-formatted cells hold when typed in directly.
func parseSerialDate(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 || f > maxSerialDate {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), true
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func flag(b bool) string {
	if b {
		return constants.FlagMark
	}
	return ""
}
