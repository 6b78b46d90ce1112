package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func init() {
	gin.SetMode(gin.TestMode)
}

type stubExtractor struct{}

func (stubExtractor) ExtractDocument(context.Context, extract.Document) (extract.Result, error) {
	return extract.Result{Fields: []extract.FieldValue{{Field: extract.FieldCustomer, Value: "홍길동", Found: true}}}, nil
}

type stubPreview struct {
	page int
	err  error
}

func (s stubPreview) Preview(_ context.Context, _ extract.Document, page, _, _ int) ([]byte, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	if s.page != 0 {
		page = s.page
	}
	return []byte("\x89PNG"), page, nil
}

func newRouter(t *testing.T, pv Previewer) (*gin.Engine, *intake.Service) {
	t.Helper()
	store, err := xlsxstore.Open(filepath.Join(t.TempDir(), "ledger.xlsx"), "Sheet1", constants.LedgerColumns, nil)
	require.NoError(t, err)
	l := ledger.NewService(store, nil)
	svc := intake.NewService(session.NewManager(time.Hour, nil), catalog.Default(), stubExtractor{}, l, nil,
		intake.WithExporter(export.NewService(l, nil)))
	return NewRouter(NewHandler(svc, pv, 2, nil), nil), svc
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginID(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{"name":"김영업"}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out["session_id"]
}

func TestHealthz(t *testing.T) {
	r, _ := newRouter(t, stubPreview{})
	w := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLogin_RequiresName(t *testing.T) {
	r, _ := newRouter(t, stubPreview{})
	w := do(r, httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractUpload(t *testing.T) {
	r, _ := newRouter(t, stubPreview{})
	id := loginID(t, r)

	body, ct := multipartBody(t, "contract.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extract", body)
	req.Header.Set("Content-Type", ct)
	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Cached bool              `json:"cached"`
		Fields map[string]string `json:"fields"`
		Found  int               `json:"found"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "홍길동", out.Fields[extract.FieldCustomer])
	assert.Equal(t, 1, out.Found)
}

func TestExtractUpload_Rejections(t *testing.T) {
	r, _ := newRouter(t, stubPreview{})
	id := loginID(t, r)

	body, ct := multipartBody(t, "contract.docx", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extract", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extract", nil)
	assert.Equal(t, http.StatusBadRequest, do(r, req).Code)

	body, ct = multipartBody(t, "contract.pdf", []byte("x"))
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/8c1f0a3e-1b7a-4a4e-9a53-7d1f3f1b2c44/extract", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)
}

func TestPreview(t *testing.T) {
	r, _ := newRouter(t, stubPreview{page: 1})
	body, ct := multipartBody(t, "one-page.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/preview?width=400", body)
	req.Header.Set("Content-Type", ct)

	w := do(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("X-Preview-Page"))
}

func TestPreview_Failure(t *testing.T) {
	r, _ := newRouter(t, stubPreview{err: common.NewAppError(common.CodeExtraction, "bad", common.ErrExtraction)})
	body, ct := multipartBody(t, "a.pdf", []byte("%PDF"))
	req := httptest.NewRequest(http.MethodPost, "/api/preview", body)
	req.Header.Set("Content-Type", ct)
	assert.Equal(t, http.StatusUnprocessableEntity, do(r, req).Code)
}

func TestContractsAndExport(t *testing.T) {
	r, svc := newRouter(t, stubPreview{})
	id := loginID(t, r)

	sess, err := svc.Session(mustUUID(t, id))
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), sess.ID, intake.Form{Kind: constants.KindNovadeal, Office: "온라인", Channel: "지인"})
	require.NoError(t, err)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/contracts", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, float64(2), rows[0]["row"])

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "contracts.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w = do(r, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/export?from=2024/01/01", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(r, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/contracts", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionsRoute(t *testing.T) {
	r, _ := newRouter(t, stubPreview{})
	w := do(r, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "온라인DB")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusConflict, httpStatus(common.MissingColumnError("상태")))
	assert.Equal(t, http.StatusServiceUnavailable, httpStatus(common.NewAppError(common.CodeStore, "x", common.ErrStore)))
	assert.Equal(t, http.StatusInternalServerError, httpStatus(errors.New("boom")))
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
