package constants

// Ledger header names. The physical column order is read from the sheet.
const (
	ColSalesperson = "담당자"
	ColCustomer    = "고객명"
	ColOffice      = "계약접수처"
	ColChannel     = "유입경로"
	ColDate        = "날짜"
	ColOfficeCount = "접수처월별"
	ColPersonCount = "전체월별"
	ColStatus      = "상태"
	ColAdditional  = "추가"
	ColReferral    = "소개"
)

// RequiredHeaders must be present before any session can start.
var RequiredHeaders = []string{ColSalesperson, ColDate, ColOffice}

// LedgerColumns is the canonical column set, used when creating an empty ledger.
var LedgerColumns = []string{
	ColSalesperson,
	ColCustomer,
	ColOffice,
	ColChannel,
	ColDate,
	ColOfficeCount,
	ColPersonCount,
	ColStatus,
	ColAdditional,
	ColReferral,
}

// DateLayout is how registration dates are written to the ledger.
const DateLayout = "2006-01-02"
