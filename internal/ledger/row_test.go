package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
)

func TestParseRow(t *testing.T) {
	h := Header{"상태", " 담당자 ", "날짜", "전체월별", "추가", "계약접수처"}

	r := ParseRow(h, []string{"취소", "Kim", "2025/03/01", "7", "O"}, 9)
	assert.Equal(t, 9, r.Index)
	assert.Equal(t, "Kim", r.Salesperson)
	assert.True(t, r.Cancelled())
	assert.Equal(t, 7, r.PersonCount)
	assert.True(t, r.Additional)
	assert.Equal(t, "", r.Office, "short record")
	assert.Equal(t, time.March, r.Date.Month())

	r = ParseRow(h, []string{"정상", "Kim", "someday", "x"}, 2)
	assert.True(t, r.Date.IsZero())
	assert.Equal(t, "someday", r.Field(constants.ColDate))
	assert.Equal(t, 0, r.PersonCount)
}

func TestParseRow_SerialDate(t *testing.T) {
	h := Header{"담당자", "날짜"}

	r := ParseRow(h, []string{"Kim", "45422"}, 2)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local), r.Date)

	r = ParseRow(h, []string{"Kim", "45422.75"}, 2)
	assert.Equal(t, 18, r.Date.Hour())

	for _, raw := range []string{"0", "-3", "20240510"} {
		r = ParseRow(h, []string{"Kim", raw}, 2)
		assert.True(t, r.Date.IsZero(), raw)
	}
}

func TestNewRow(t *testing.T) {
	r, err := NewRow(Row{
		Salesperson: " Kim ",
		Office:      "온라인",
		Date:        time.Now(),
		OfficeCount: 1,
		PersonCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Kim", r.Salesperson)
	assert.Equal(t, constants.StatusActive, r.Status)

	_, err = NewRow(Row{Salesperson: "Kim", Office: "온라인", Date: time.Now(), Status: "보류", OfficeCount: 1, PersonCount: 1})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = NewRow(Row{Salesperson: "Kim", Office: "온라인", Date: time.Now()})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestHeaderMissing(t *testing.T) {
	h := Header{"담당자", "날짜"}
	assert.Equal(t, []string{"계약접수처"}, h.Missing(constants.RequiredHeaders...))
	idx, ok := h.Index("날짜")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}
