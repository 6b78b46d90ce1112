package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/intake"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger"
)

// IntakeService exposes the intake workflow over gRPC.
type IntakeService struct {
	svc    *intake.Service
	logger *slog.Logger
}

func NewIntakeService(svc *intake.Service, logger *slog.Logger) *IntakeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IntakeService{svc: svc, logger: logger}
}

var _ IntakeServer = (*IntakeService)(nil)

func (s *IntakeService) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := strings.TrimSpace(str(req, "name"))
	if name == "" {
		return nil, common.InvalidArgumentError("name is required")
	}
	sess, err := s.svc.Login(ctx, name)
	if err != nil {
		s.logger.Warn("grpc.login.failed", "name", name, "error", err)
		return nil, common.ToStatus(err)
	}
	return reply(map[string]any{
		"session_id":  sess.ID.String(),
		"salesperson": sess.Salesperson,
	})
}

func (s *IntakeService) Logout(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	s.svc.Logout(id)
	return reply(nil)
}

func (s *IntakeService) Reset(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Reset(id); err != nil {
		return nil, common.ToStatus(err)
	}
	return reply(nil)
}

func (s *IntakeService) Options(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	o := s.svc.Options()
	return reply(map[string]any{
		"offices":  strings2list(o.Offices),
		"channels": strings2list(o.Channels),
		"kinds":    strings2list(o.Kinds),
	})
}

func (s *IntakeService) ExtractDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(str(req, "file_name"))
	if name == "" {
		return nil, common.InvalidArgumentError("file_name is required")
	}
	data, err := base64.StdEncoding.DecodeString(str(req, "content"))
	if err != nil || len(data) == 0 {
		return nil, common.InvalidArgumentError("content must be non-empty base64")
	}

	ex, err := s.svc.ExtractDocument(ctx, id, extract.Document{Name: name, Data: data})
	if err != nil {
		s.logger.Error("grpc.extract.failed", "session_id", id, "file_name", name, "error", err)
		return nil, common.ToStatus(err)
	}
	return reply(map[string]any{
		"cached": ex.Cached,
		"fields": resultFields(ex.Result),
		"found":  float64(ex.Result.FoundCount()),
	})
}

func (s *IntakeService) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if v, ok := req.GetFields()["fields"]; ok && v.GetStructValue() != nil {
		for k, fv := range v.GetStructValue().GetFields() {
			fields[k] = fv.GetStringValue()
		}
	}
	out, err := s.svc.Register(ctx, id, intake.Form{
		Kind:       constants.Kind(str(req, "kind")),
		Office:     str(req, "office"),
		Channel:    str(req, "channel"),
		Additional: boolean(req, "additional"),
		Referral:   boolean(req, "referral"),
		Fields:     fields,
		Commission: str(req, "commission"),
		Incentive:  str(req, "incentive"),
		Delivery:   str(req, "delivery"),
		Attachment: str(req, "attachment"),
	})
	if err != nil {
		s.logger.Error("grpc.register.failed", "session_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	return reply(map[string]any{
		"row":          out.Row.Index,
		"office_count": out.Row.OfficeCount,
		"person_count": out.Row.PersonCount,
		"link":         out.Link,
	})
}

func (s *IntakeService) Edit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	row, err := rowIndex(req)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Edit(ctx, id, row, str(req, "office"), str(req, "channel")); err != nil {
		return nil, common.ToStatus(err)
	}
	return reply(nil)
}

func (s *IntakeService) Cancel(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	row, err := rowIndex(req)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Cancel(ctx, id, row); err != nil {
		return nil, common.ToStatus(err)
	}
	return reply(nil)
}

func (s *IntakeService) ListContracts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.svc.ListContracts(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, contractMap(r))
	}
	return reply(map[string]any{"contracts": out})
}

func (s *IntakeService) ExportContracts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	from, err := optionalDate(req, "from_date")
	if err != nil {
		return nil, err
	}
	to, err := optionalDate(req, "to_date")
	if err != nil {
		return nil, err
	}
	data, err := s.svc.ExportContracts(ctx, id, from, to)
	if err != nil {
		s.logger.Error("grpc.export.failed", "session_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	return reply(map[string]any{"xlsx": base64.StdEncoding.EncodeToString(data)})
}

// --- request helpers

func str(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func boolean(req *structpb.Struct, key string) bool {
	return req.GetFields()[key].GetBoolValue()
}

func sessionID(req *structpb.Struct) (uuid.UUID, error) {
	raw := strings.TrimSpace(str(req, "session_id"))
	if raw == "" {
		return uuid.Nil, common.InvalidArgumentError("session_id is required")
	}
	v := common.NewValidator().Field("session_id", raw, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func rowIndex(req *structpb.Struct) (int, error) {
	v, ok := req.GetFields()["row"]
	if !ok {
		return 0, common.InvalidArgumentError("row is required")
	}
	n := v.GetNumberValue()
	if n < float64(ledger.FirstDataRow) || n != float64(int(n)) {
		return 0, common.InvalidArgumentErrorf("row must be an integer >= %d", ledger.FirstDataRow)
	}
	return int(n), nil
}

func optionalDate(req *structpb.Struct, key string) (*time.Time, error) {
	raw := strings.TrimSpace(str(req, key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(constants.DateLayout, raw, time.Local)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("%s must be YYYY-MM-DD", key)
	}
	return &t, nil
}

// --- response helpers

func reply(m map[string]any) (*structpb.Struct, error) {
	if m == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func strings2list(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func resultFields(r extract.Result) map[string]any {
	out := make(map[string]any, len(r.Fields))
	for k, v := range r.Map() {
		out[k] = v
	}
	return out
}

func contractMap(r ledger.Row) map[string]any {
	return map[string]any{
		"row":          r.Index,
		"date":         r.Field(constants.ColDate),
		"customer":     r.Customer,
		"office":       r.Office,
		"channel":      r.Channel,
		"status":       string(r.Status),
		"office_count": r.OfficeCount,
		"person_count": r.PersonCount,
	}
}
