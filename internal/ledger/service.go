package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
)

// Registration is the form input for a new contract.
type Registration struct {
	Salesperson string
	Customer    string
	Office      string
	Channel     string
	Additional  bool
	Referral    bool
}

// Service runs register, edit, cancel and list against a Store.
// Every call re-reads the store; nothing is cached between calls.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, logger: logger, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ValidateHeader fails when a column every session depends on is missing.
func (s *Service) ValidateHeader(ctx context.Context) error {
	h, err := s.header(ctx)
	if err != nil {
		return err
	}
	if missing := h.Missing(constants.RequiredHeaders...); len(missing) > 0 {
		s.logger.Error("ledger.header.invalid", "missing", missing)
		return common.NewAppError(common.CodeConfig,
			fmt.Sprintf("장부에 필수 컬럼이 없습니다: %s", strings.Join(missing, ", ")), common.ErrMissingColumn)
	}
	return nil
}

// Load reads the header and every data row.
func (s *Service) Load(ctx context.Context) (Header, []Row, error) {
	h, err := s.header(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.store.Rows(ctx)
	if err != nil {
		return nil, nil, storeError("read rows", err)
	}
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, ParseRow(h, rec, i+FirstDataRow))
	}
	return h, rows, nil
}

// Counters computes the counters a registration would receive right now.
func (s *Service) Counters(ctx context.Context, person, office string) (Counters, error) {
	_, rows, err := s.Load(ctx)
	if err != nil {
		return Counters{}, err
	}
	return Count(rows, person, office, s.now()), nil
}

// Register appends a contract with freshly computed counters, laid out by the current header.
func (s *Service) Register(ctx context.Context, reg Registration) (Row, error) {
	now := s.now()
	h, rows, err := s.Load(ctx)
	if err != nil {
		return Row{}, err
	}
	c := Count(rows, strings.TrimSpace(reg.Salesperson), strings.TrimSpace(reg.Office), now)

	row, err := NewRow(Row{
		Salesperson: reg.Salesperson,
		Customer:    reg.Customer,
		Office:      reg.Office,
		Channel:     reg.Channel,
		Date:        now,
		OfficeCount: c.Office,
		PersonCount: c.Person,
		Status:      constants.StatusActive,
		Additional:  reg.Additional,
		Referral:    reg.Referral,
	})
	if err != nil {
		return Row{}, err
	}

	idx, err := s.store.AppendRow(ctx, row.Values(h))
	if err != nil {
		s.logger.Error("ledger.register.failed", "salesperson", row.Salesperson, "error", err)
		return Row{}, storeError("append row", err)
	}
	row.Index = idx
	s.logger.Info("ledger.register.ok",
		"row", idx,
		"salesperson", row.Salesperson,
		"office", row.Office,
		"office_count", row.OfficeCount,
		"person_count", row.PersonCount,
	)
	return row, nil
}

// Edit overwrites the given columns of one row. Every column must resolve through
// the current header before anything is written.
func (s *Service) Edit(ctx context.Context, row int, changes map[string]string) error {
	if len(changes) == 0 {
		return common.NewAppError(common.CodeValidation, "수정할 항목이 없습니다", common.ErrInvalidInput)
	}
	h, err := s.header(ctx)
	if err != nil {
		return err
	}
	if err := s.checkRow(ctx, row); err != nil {
		return err
	}

	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	type write struct {
		col   int
		value string
	}
	writes := make([]write, 0, len(cols))
	var missing []string
	for _, col := range cols {
		idx, ok := h.Index(col)
		if !ok {
			missing = append(missing, col)
			continue
		}
		writes = append(writes, write{col: idx, value: changes[col]})
	}
	if len(missing) > 0 {
		return common.MissingColumnError(missing...)
	}

	for _, w := range writes {
		if err := s.store.UpdateCell(ctx, row, w.col, w.value); err != nil {
			s.logger.Error("ledger.edit.failed", "row", row, "col", w.col, "error", err)
			return storeError("update cell", err)
		}
	}
	s.logger.Info("ledger.edit.ok", "row", row, "columns", cols)
	return nil
}

// Cancel marks a row cancelled. The row stays in the ledger.
func (s *Service) Cancel(ctx context.Context, row int) error {
	h, err := s.header(ctx)
	if err != nil {
		return err
	}
	col, ok := h.Index(constants.ColStatus)
	if !ok {
		s.logger.Error("ledger.cancel.failed", "row", row, "error", "status column missing")
		return common.MissingColumnError(constants.ColStatus)
	}
	if err := s.checkRow(ctx, row); err != nil {
		return err
	}
	if err := s.store.UpdateCell(ctx, row, col, string(constants.StatusCancelled)); err != nil {
		s.logger.Error("ledger.cancel.failed", "row", row, "error", err)
		return storeError("update cell", err)
	}
	s.logger.Info("ledger.cancel.ok", "row", row)
	return nil
}

// ListActive returns the person's contracts that are not cancelled, in sheet order.
func (s *Service) ListActive(ctx context.Context, person string) ([]Row, error) {
	_, rows, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, r := range rows {
		if r.Salesperson == person && !r.Cancelled() {
			out = append(out, r)
		}
	}
	return out, nil
}

// Get returns the row at a 1-based sheet index.
func (s *Service) Get(ctx context.Context, row int) (Row, error) {
	_, rows, err := s.Load(ctx)
	if err != nil {
		return Row{}, err
	}
	i := row - FirstDataRow
	if i < 0 || i >= len(rows) {
		return Row{}, rowNotFound(row)
	}
	return rows[i], nil
}

func (s *Service) header(ctx context.Context) (Header, error) {
	h, err := s.store.Header(ctx)
	if err != nil {
		return nil, storeError("read header", err)
	}
	return Header(h), nil
}

func (s *Service) checkRow(ctx context.Context, row int) error {
	if row < FirstDataRow {
		return rowNotFound(row)
	}
	records, err := s.store.Rows(ctx)
	if err != nil {
		return storeError("read rows", err)
	}
	if row-FirstDataRow >= len(records) {
		return rowNotFound(row)
	}
	return nil
}

func rowNotFound(row int) error {
	return common.NotFoundError(fmt.Sprintf("장부에 %d행이 없습니다", row), nil)
}

func storeError(op string, err error) error {
	var ae *common.AppError
	if errors.As(err, &ae) {
		return err
	}
	return common.NewAppError(common.CodeStore,
		fmt.Sprintf("장부 처리 중 오류 발생 (%s): %v", op, err), fmt.Errorf("%w: %w", common.ErrStore, err))
}
