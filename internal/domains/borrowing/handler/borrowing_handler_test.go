package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/borrowing"
	borrowingmock "library-backend/internal/domains/borrowing/mock"
	"library-backend/internal/shared/errs"
	"library-backend/internal/shared/validation"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Success bool                `json:"success"`
	Data    jsoniter.RawMessage `json:"data"`
	Error   *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details jsoniter.RawMessage `json:"details"`
	} `json:"error"`
	Meta *struct {
		Limit  int   `json:"limit"`
		Offset int   `json:"offset"`
		Total  int64 `json:"total"`
	} `json:"meta"`
}

type fakeEnqueuer struct {
	calls int
	err   error
}

func (f *fakeEnqueuer) EnqueueSweep(ctx context.Context, requestedBy string) (string, error) {
	f.calls++
	return "task-1", f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(enqueuer SweepEnqueuer) (*borrowingmock.Service, *gin.Engine) {
	svc := new(borrowingmock.Service)
	r := gin.New()
	NewBorrowingHandler(svc, enqueuer).RegisterRoutes(r.Group("/api/v1"))
	return svc, r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != xlsxContentType {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func sampleBorrowing() *borrowing.Borrowing {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	return borrowing.New(uuid.New(), uuid.New(), day, day.AddDate(0, 0, 14))
}

func TestBorrow_Created(t *testing.T) {
	svc, r := setup(nil)
	b := sampleBorrowing()
	req := &borrowing.BorrowRequest{MemberID: b.MemberID, BookIDs: []uuid.UUID{b.BookID}}
	svc.On("Borrow", mock.Anything, req).Return([]*borrowing.Borrowing{b}, nil).Once()

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings", req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	var got []borrowing.BorrowingResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-24", got[0].DueDate)
	assert.Equal(t, borrowing.StatusBorrowed, got[0].Status)
	svc.AssertExpectations(t)
}

func TestBorrow_UnavailableBooksListed(t *testing.T) {
	svc, r := setup(nil)
	taken := uuid.New()
	svc.On("Borrow", mock.Anything, mock.Anything).
		Return(nil, errs.WithIDs(errs.ErrBookUnavailable, taken)).Once()

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings", borrowing.BorrowRequest{
		MemberID: uuid.New(),
		BookIDs:  []uuid.UUID{taken},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BOOK_UNAVAILABLE", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), taken.String())
}

func TestBorrow_ValidationDetails(t *testing.T) {
	svc, r := setup(nil)
	svc.On("Borrow", mock.Anything, mock.Anything).Return(nil, &validation.Error{
		Fields: []validation.FieldError{{Field: "book_ids", Message: "cannot be blank"}},
	}).Once()

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings", borrowing.BorrowRequest{MemberID: uuid.New()})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	assert.Contains(t, string(env.Error.Details), "book_ids")
}

func TestBorrow_MalformedBody(t *testing.T) {
	svc, r := setup(nil)

	w, _ := do(t, r, http.MethodPost, "/api/v1/borrowings", map[string]string{"member_id": "not-a-uuid"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Borrow", mock.Anything, mock.Anything)
}

func TestReturn_AlreadyReturned(t *testing.T) {
	svc, r := setup(nil)
	svc.On("Return", mock.Anything, mock.Anything).Return(nil, errs.ErrAlreadyReturned).Once()

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings/return", borrowing.ReturnRequest{
		BorrowingIDs: []uuid.UUID{uuid.New()},
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_RETURNED", env.Error.Code)
}

func TestGetByID_BadUUID(t *testing.T) {
	_, r := setup(nil)

	w, env := do(t, r, http.MethodGet, "/api/v1/borrowings/xyz", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}

func TestGetByID_StorageErrorHidesCause(t *testing.T) {
	svc, r := setup(nil)
	id := uuid.New()
	svc.On("GetByID", mock.Anything, id).
		Return(nil, errs.Storage("get borrowing", errors.New("password authentication failed"))).Once()

	w, env := do(t, r, http.MethodGet, "/api/v1/borrowings/"+id.String(), nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "STORAGE_ERROR", env.Error.Code)
	assert.NotContains(t, env.Error.Message, "password")
}

func TestListByMember_NormalizesFilter(t *testing.T) {
	svc, r := setup(nil)
	memberID := uuid.New()
	want := borrowing.BorrowingFilter{MemberID: memberID.String(), Status: "OVERDUE", Limit: borrowing.DefaultPageSize}
	svc.On("List", mock.Anything, want).Return([]borrowing.Borrowing{*sampleBorrowing()}, int64(1), nil).Once()

	w, env := do(t, r, http.MethodGet, "/api/v1/members/"+memberID.String()+"/borrowings?status=overdue", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.EqualValues(t, 1, env.Meta.Total)
	assert.Equal(t, borrowing.DefaultPageSize, env.Meta.Limit)
	svc.AssertExpectations(t)
}

func TestList_InvalidStatus(t *testing.T) {
	_, r := setup(nil)

	w, env := do(t, r, http.MethodGet, "/api/v1/borrowings?status=misplaced", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestSweep_Enqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	svc, r := setup(enq)

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings/sweep", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, string(env.Data), "task-1")
	assert.Equal(t, 1, enq.calls)
	svc.AssertNotCalled(t, "SweepOverdue", mock.Anything)
}

func TestSweep_InlineWithoutWorker(t *testing.T) {
	svc, r := setup(nil)
	svc.On("SweepOverdue", mock.Anything).Return(3, nil).Once()

	w, env := do(t, r, http.MethodPost, "/api/v1/borrowings/sweep", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"flagged":3}`, string(env.Data))
}

func TestExportOverdue(t *testing.T) {
	svc, r := setup(nil)
	svc.On("OverdueReport", mock.Anything).Return(excelize.NewFile(), nil).Once()

	w, _ := do(t, r, http.MethodGet, "/api/v1/borrowings/overdue/export", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "overdue_")
	assert.NotZero(t, w.Body.Len())
}
