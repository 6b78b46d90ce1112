package server

import (
	"context"
	"encoding/base64"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/catalog"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/export"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
	"github.com/joseph-ayodele/contracts-tracker/internal/intake"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger"
	"github.com/joseph-ayodele/contracts-tracker/internal/ledger/xlsxstore"
	"github.com/joseph-ayodele/contracts-tracker/internal/session"
)

type fixedExtractor struct{}

func (fixedExtractor) ExtractDocument(_ context.Context, doc extract.Document) (extract.Result, error) {
	if string(doc.Data) == "broken" {
		return extract.Result{}, common.NewAppError(common.CodeExtraction, "PDF를 읽을 수 없습니다", common.ErrExtraction)
	}
	return extract.Result{Fields: []extract.FieldValue{
		{Field: extract.FieldCustomer, Value: "홍길동", Found: true},
		{Field: extract.FieldModel},
	}}, nil
}

func newClient(t *testing.T) *IntakeClient {
	t.Helper()
	store, err := xlsxstore.Open(filepath.Join(t.TempDir(), "ledger.xlsx"), "Sheet1", constants.LedgerColumns, nil)
	require.NoError(t, err)
	l := ledger.NewService(store, nil)
	svc := intake.NewService(session.NewManager(time.Hour, nil), catalog.Default(), fixedExtractor{}, l, nil,
		intake.WithExporter(export.NewService(l, nil)))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterIntakeServer(srv, NewIntakeService(svc, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewIntakeClient(conn)
}

func TestIntakeService_Workflow(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	login, err := c.Call(ctx, MethodLogin, map[string]any{"name": "김영업"})
	require.NoError(t, err)
	sid := login.Fields["session_id"].GetStringValue()
	require.NotEmpty(t, sid)

	opts, err := c.Call(ctx, MethodOptions, nil)
	require.NoError(t, err)
	assert.Len(t, opts.Fields["kinds"].GetListValue().GetValues(), 3)

	ex, err := c.Call(ctx, MethodExtractDocument, map[string]any{
		"session_id": sid,
		"file_name":  "contract.pdf",
		"content":    base64.StdEncoding.EncodeToString([]byte("%PDF")),
	})
	require.NoError(t, err)
	fields := ex.Fields["fields"].GetStructValue().GetFields()
	assert.Equal(t, "홍길동", fields[extract.FieldCustomer].GetStringValue())
	assert.Equal(t, extract.NotFound, fields[extract.FieldModel].GetStringValue())
	assert.False(t, ex.Fields["cached"].GetBoolValue())

	reg, err := c.Call(ctx, MethodRegister, map[string]any{
		"session_id": sid,
		"kind":       "lotte",
		"office":     "온라인",
		"channel":    "지인",
		"additional": true,
		"fields":     map[string]any{extract.FieldModel: "아반떼"},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(2), reg.Fields["row"].GetNumberValue())
	assert.Equal(t, float64(1), reg.Fields["person_count"].GetNumberValue())
	assert.Contains(t, reg.Fields["link"].GetStringValue(), "orderType=new&memo=false")

	list, err := c.Call(ctx, MethodListContracts, map[string]any{"session_id": sid})
	require.NoError(t, err)
	contracts := list.Fields["contracts"].GetListValue().GetValues()
	require.Len(t, contracts, 1)
	assert.Equal(t, "홍길동", contracts[0].GetStructValue().Fields["customer"].GetStringValue())

	_, err = c.Call(ctx, MethodEdit, map[string]any{"session_id": sid, "row": 2, "office": "중고차", "channel": "만기"})
	require.NoError(t, err)

	exp, err := c.Call(ctx, MethodExportContracts, map[string]any{"session_id": sid, "from_date": "2000-01-01"})
	require.NoError(t, err)
	assert.NotEmpty(t, exp.Fields["xlsx"].GetStringValue())

	_, err = c.Call(ctx, MethodCancel, map[string]any{"session_id": sid, "row": 2})
	require.NoError(t, err)

	list, err = c.Call(ctx, MethodListContracts, map[string]any{"session_id": sid})
	require.NoError(t, err)
	assert.Empty(t, list.Fields["contracts"].GetListValue().GetValues())

	_, err = c.Call(ctx, MethodLogout, map[string]any{"session_id": sid})
	require.NoError(t, err)
	_, err = c.Call(ctx, MethodReset, map[string]any{"session_id": sid})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestIntakeService_ErrorCodes(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.Call(ctx, MethodLogin, map[string]any{"name": " "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodListContracts, map[string]any{"session_id": "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "must be a valid UUID")

	_, err = c.Call(ctx, MethodListContracts, map[string]any{"session_id": "8c1f0a3e-1b7a-4a4e-9a53-7d1f3f1b2c44"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	login, err := c.Call(ctx, MethodLogin, map[string]any{"name": "김영업"})
	require.NoError(t, err)
	sid := login.Fields["session_id"].GetStringValue()

	_, err = c.Call(ctx, MethodExtractDocument, map[string]any{"session_id": sid, "file_name": "a.pdf", "content": "%%%"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodExtractDocument, map[string]any{
		"session_id": sid, "file_name": "a.pdf", "content": base64.StdEncoding.EncodeToString([]byte("broken")),
	})
	assert.Equal(t, codes.Aborted, status.Code(err))
	assert.Equal(t, "PDF를 읽을 수 없습니다", status.Convert(err).Message())

	_, err = c.Call(ctx, MethodCancel, map[string]any{"session_id": sid, "row": 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodCancel, map[string]any{"session_id": sid, "row": 9})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.Call(ctx, MethodRegister, map[string]any{"session_id": sid, "kind": "novadeal", "office": "없는곳"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.Call(ctx, MethodExportContracts, map[string]any{"session_id": sid, "to_date": "05/01/2024"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
