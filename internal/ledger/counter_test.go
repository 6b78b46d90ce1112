package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/contracts-tracker/constants"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestCount(t *testing.T) {
	now := day(2025, time.March, 20)
	rows := []Row{
		{Salesperson: "Kim", Office: "온라인", Date: day(2025, time.March, 1)},
		{Salesperson: "Kim", Office: "온라인", Date: day(2025, time.March, 2), Status: constants.StatusCancelled},
		{Salesperson: "Kim", Office: "원큐", Date: day(2025, time.March, 3)},
		{Salesperson: "Kim", Office: "온라인", Date: day(2025, time.February, 28)},
		{Salesperson: "Kim", Office: "온라인", Date: day(2024, time.March, 5)},
		{Salesperson: "Kim", Office: "온라인", RawDate: "bad"},
		{Salesperson: "Lee", Office: "온라인", Date: day(2025, time.March, 4)},
	}

	tests := []struct {
		name   string
		person string
		office string
		want   Counters
	}{
		{"counts cancelled rows", "Kim", "온라인", Counters{Office: 3, Person: 4}},
		{"other office", "Kim", "원큐", Counters{Office: 2, Person: 4}},
		{"unseen office", "Kim", "노바딜", Counters{Office: 1, Person: 4}},
		{"other person", "Lee", "온라인", Counters{Office: 2, Person: 2}},
		{"nobody", "Choi", "온라인", Counters{Office: 1, Person: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(rows, tt.person, tt.office, now))
		})
	}
}

func TestCount_Empty(t *testing.T) {
	assert.Equal(t, Counters{Office: 1, Person: 1}, Count(nil, "Kim", "온라인", time.Now()))
}
