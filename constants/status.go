package constants

// ContractStatus is the value stored in the ledger status column.
type ContractStatus string

// Stable values (store these exact strings in the ledger).
const (
	StatusActive    ContractStatus = "정상"
	StatusCancelled ContractStatus = "취소"
)

// FlagMark is written to the additional/referral columns when the flag is set.
const FlagMark = "O"
