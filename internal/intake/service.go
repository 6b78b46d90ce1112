// Package intake runs the user-facing contract workflow: login, document extraction,
// registration with its compose link, and edit or cancel of the user's own rows.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/async"
	"github.com/joseph-ayodele/contracts-tracker/internal/catalog"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger"
	"github.com/joseph-ayodele/contracts-tracker/internal/mail"
	"github.com/joseph-ayodele/contracts-tracker/internal/session"
)

// DocumentExtractor turns an uploaded document into field values.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc extract.Document) (extract.Result, error)
}

// Exporter renders a salesperson's contracts as a workbook.
type Exporter interface {
	ExportContractsXLSX(ctx context.Context, person string, from, to *time.Time) ([]byte, error)
}

// Form is one submitted registration.
type Form struct {
	Kind       constants.Kind
	Office     string
	Channel    string
	Additional bool
	Referral   bool
	// Fields are keyed by extraction field name. For lotte contracts, missing keys
	// fall back to the session's cached extraction.
	Fields     map[string]string
	Commission string
	Incentive  string
	Delivery   string
	// Attachment is the file name sent along with a third-party contract, if any.
	Attachment string
}

// Registered is the outcome of a successful registration.
type Registered struct {
	Row  ledger.Row
	Link string
}

// Options are the choices a registration form offers.
type Options struct {
	Offices  []string
	Channels []string
	Kinds    []string
}

// Extraction is the result of ExtractDocument.
type Extraction struct {
	Result extract.Result
	Cached bool
}

// Service wires sessions, extraction, the ledger and the mail composer.
type Service struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	extractor DocumentExtractor
	ledger    *ledger.Service
	composer  *mail.Composer
	exporter  Exporter
	writes    async.Executor
	logger    *slog.Logger
}

type Option func(*Service)

// WithWriteExecutor routes register, edit and cancel through ex.
func WithWriteExecutor(ex async.Executor) Option {
	return func(s *Service) {
		if ex != nil {
			s.writes = ex
		}
	}
}

// WithExporter enables ExportContracts.
func WithExporter(e Exporter) Option {
	return func(s *Service) { s.exporter = e }
}

func NewService(
	sessions *session.Manager,
	cat *catalog.Catalog,
	extractor DocumentExtractor,
	l *ledger.Service,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		sessions:  sessions,
		catalog:   cat,
		extractor: extractor,
		ledger:    l,
		composer:  cat.Composer(),
		writes:    async.Inline{},
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login validates the ledger header and opens a session for name.
func (s *Service) Login(ctx context.Context, name string) (session.Session, error) {
	if err := s.ledger.ValidateHeader(ctx); err != nil {
		s.logger.Error("intake.login.failed", "salesperson", name, "error", err)
		return session.Session{}, err
	}
	return s.sessions.Start(name)
}

func (s *Service) Logout(id uuid.UUID) {
	s.sessions.End(id)
}

// Reset clears the session's cached extraction and generated links.
func (s *Service) Reset(id uuid.UUID) error {
	return s.sessions.Reset(id)
}

func (s *Service) Session(id uuid.UUID) (session.Session, error) {
	return s.sessions.Get(id)
}

func (s *Service) Options() Options {
	return Options{
		Offices:  append([]string(nil), s.catalog.Offices...),
		Channels: append([]string(nil), s.catalog.Channels...),
		Kinds:    constants.KindsAsStringSlice(),
	}
}

// ExtractDocument extracts doc, reusing the cached result when the same file name
// was extracted last in this session.
func (s *Service) ExtractDocument(ctx context.Context, id uuid.UUID, doc extract.Document) (Extraction, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return Extraction{}, err
	}
	if res, ok := s.sessions.CachedExtraction(id, doc.Name); ok {
		s.logger.Debug("intake.extract.cached", "session_id", id, "name", doc.Name)
		return Extraction{Result: res, Cached: true}, nil
	}
	res, err := s.extractor.ExtractDocument(ctx, doc)
	if err != nil {
		return Extraction{}, err
	}
	if err := s.sessions.StoreExtraction(id, doc.Name, res); err != nil {
		return Extraction{}, err
	}
	return Extraction{Result: res}, nil
}

// Register appends the contract, builds its compose link and stores the link on the session.
func (s *Service) Register(ctx context.Context, id uuid.UUID, form Form) (Registered, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return Registered{}, err
	}
	kind := form.Kind
	if kind == "" {
		kind = constants.KindLotte
	}
	if k, ok := constants.Canonicalize(string(kind)); ok {
		kind = k
	} else {
		return Registered{}, common.NewAppError(common.CodeValidation,
			fmt.Sprintf("알 수 없는 계약 종류입니다: %s", form.Kind), common.ErrInvalidInput)
	}
	if err := s.validateOptions(form.Office, form.Channel); err != nil {
		return Registered{}, err
	}

	fields := s.formFields(sess, kind, form.Fields)
	if kind == constants.KindLotte && fields == nil {
		return Registered{}, common.NewAppError(common.CodeValidation,
			"추출된 계약서 정보가 없습니다. 먼저 계약서를 업로드해 주세요", common.ErrInvalidInput)
	}

	var out Registered
	err = s.writes.Do(ctx, "register", func(ctx context.Context) error {
		row, err := s.ledger.Register(ctx, ledger.Registration{
			Salesperson: sess.Salesperson,
			Customer:    fields[extract.FieldCustomer],
			Office:      form.Office,
			Channel:     form.Channel,
			Additional:  form.Additional,
			Referral:    form.Referral,
		})
		if err != nil {
			return err
		}
		out.Row = row
		return nil
	})
	if err != nil {
		return Registered{}, err
	}

	out.Link = s.composer.URL(mail.Draft{
		Salesperson: sess.Salesperson,
		Office:      out.Row.Office,
		Channel:     out.Row.Channel,
		OfficeCount: out.Row.OfficeCount,
		PersonCount: out.Row.PersonCount,
		Additional:  form.Additional,
		Referral:    form.Referral,
		Customer:    fields[extract.FieldCustomer],
		Model:       fields[extract.FieldModel],
		Period:      fields[extract.FieldPeriod],
		Price:       fields[extract.FieldPrice],
		Fee:         fields[extract.FieldFee],
		Deposit:     fields[extract.FieldDeposit],
		Commission:  form.Commission,
		Delivery:    form.Delivery,
		Incentive:   form.Incentive,
	})
	if kind == constants.KindLotte {
		if err := s.sessions.ClearExtraction(id); err != nil {
			s.logger.Warn("intake.extraction.clear.failed", "session_id", id, "row", out.Row.Index, "error", err)
		}
	}
	if err := s.sessions.SetLink(id, kind, out.Link); err != nil {
		return Registered{}, err
	}

	s.logger.Info("intake.register.ok",
		"session_id", id,
		"kind", kind,
		"row", out.Row.Index,
		"attachment", form.Attachment,
	)
	return out, nil
}

// formFields merges submitted values over the cached extraction for lotte contracts.
// The not-found sentinel becomes an empty value. Nil means a lotte form with nothing to register.
func (s *Service) formFields(sess session.Session, kind constants.Kind, submitted map[string]string) map[string]string {
	out := make(map[string]string)
	if kind == constants.KindLotte {
		if sess.Extraction == nil && len(submitted) == 0 {
			return nil
		}
		if sess.Extraction != nil {
			for _, f := range sess.Extraction.Fields {
				if f.Found {
					out[f.Field] = f.Value
				}
			}
		}
	}
	for k, v := range submitted {
		v = strings.TrimSpace(v)
		if v == s.catalog.Locale.NotFound {
			v = ""
		}
		out[k] = v
	}
	return out
}

func (s *Service) validateOptions(office, channel string) error {
	v := common.NewValidator().
		Field(constants.ColOffice, office, common.Required, common.OneOf(s.catalog.Offices...)).
		Field(constants.ColChannel, channel, common.OneOf(s.catalog.Channels...))
	return v.Error()
}

// ListContracts returns the session user's non-cancelled contracts.
func (s *Service) ListContracts(ctx context.Context, id uuid.UUID) ([]ledger.Row, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListActive(ctx, sess.Salesperson)
}

// Edit changes the office and channel of one of the user's contracts.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, row int, office, channel string) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if err := s.validateOptions(office, channel); err != nil {
		return err
	}
	return s.writes.Do(ctx, "edit", func(ctx context.Context) error {
		if err := s.ownRow(ctx, sess, row); err != nil {
			return err
		}
		return s.ledger.Edit(ctx, row, map[string]string{
			constants.ColOffice:  office,
			constants.ColChannel: channel,
		})
	})
}

// Cancel soft-cancels one of the user's contracts.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, row int) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	return s.writes.Do(ctx, "cancel", func(ctx context.Context) error {
		if err := s.ownRow(ctx, sess, row); err != nil {
			return err
		}
		return s.ledger.Cancel(ctx, row)
	})
}

// ExportContracts renders the user's contracts as XLSX.
func (s *Service) ExportContracts(ctx context.Context, id uuid.UUID, from, to *time.Time) ([]byte, error) {
	if s.exporter == nil {
		return nil, common.NewAppError(common.CodeConfig, "내보내기가 설정되지 않았습니다", common.ErrInternal)
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportContractsXLSX(ctx, sess.Salesperson, from, to)
}

func (s *Service) ownRow(ctx context.Context, sess session.Session, row int) error {
	rows, err := s.ledger.ListActive(ctx, sess.Salesperson)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if r.Index == row {
			return nil
		}
	}
	s.logger.Warn("intake.row.denied", "session_id", sess.ID, "row", row)
	return common.NotFoundError(fmt.Sprintf("내 계약 목록에 %d행이 없습니다", row), nil)
}
