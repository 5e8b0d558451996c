package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/shared/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SweepEnqueuer hands an overdue sweep to the background worker.
type SweepEnqueuer interface {
	EnqueueSweep(ctx context.Context, requestedBy string) (string, error)
}

type BorrowingHandler struct {
	service  borrowing.Service
	enqueuer SweepEnqueuer
}

// NewBorrowingHandler wires the handler. enqueuer may be nil, in which case
// POST /borrowings/sweep runs the sweep inline.
func NewBorrowingHandler(svc borrowing.Service, enqueuer SweepEnqueuer) *BorrowingHandler {
	return &BorrowingHandler{
		service:  svc,
		enqueuer: enqueuer,
	}
}

// RegisterRoutes mounts the borrowing endpoints on rg.
func (h *BorrowingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	borrowings := rg.Group("/borrowings")
	{
		borrowings.POST("", h.Borrow)
		borrowings.GET("", h.List)
		borrowings.POST("/return", h.Return)
		borrowings.GET("/overdue", h.ListOverdue)
		borrowings.GET("/overdue/export", h.ExportOverdue)
		borrowings.GET("/stats", h.Stats)
		borrowings.POST("/sweep", h.Sweep)
		borrowings.GET("/:id", h.GetByID)
		borrowings.POST("/:id/extend", h.Extend)
		borrowings.POST("/:id/lost", h.MarkLost)
		borrowings.PATCH("/:id/notes", h.UpdateNotes)
	}
	rg.GET("/members/:id/borrowings", h.ListByMember)
	rg.GET("/books/:id/borrowings", h.ListByBook)
}

// ════════════════════════════════════════════════════════════════
// BORROW: POST /v1/borrowings
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) Borrow(c *gin.Context) {
	var req borrowing.BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.service.Borrow(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, borrowing.ToResponses(created))
}

// ════════════════════════════════════════════════════════════════
// RETURN: POST /v1/borrowings/return
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) Return(c *gin.Context) {
	var req borrowing.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	returned, err := h.service.Return(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, borrowing.ToResponses(returned))
}

// ════════════════════════════════════════════════════════════════
// SINGLE BORROWING: /v1/borrowings/:id
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b.ToResponse())
}

func (h *BorrowingHandler) Extend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req borrowing.ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.service.Extend(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b.ToResponse())
}

// MarkLost accepts an optional JSON body with notes.
func (h *BorrowingHandler) MarkLost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req borrowing.NotesRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	b, err := h.service.MarkLost(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b.ToResponse())
}

func (h *BorrowingHandler) UpdateNotes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req borrowing.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	b, err := h.service.UpdateNotes(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, b.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// LISTINGS: GET /v1/borrowings?member_id=&book_id=&status=&limit=&offset=
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) List(c *gin.Context) {
	var filter borrowing.BorrowingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}
	h.list(c, filter)
}

func (h *BorrowingHandler) ListByMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var filter borrowing.BorrowingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}
	filter.MemberID = id.String()
	h.list(c, filter)
}

func (h *BorrowingHandler) ListByBook(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var filter borrowing.BorrowingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}
	filter.BookID = id.String()
	h.list(c, filter)
}

func (h *BorrowingHandler) list(c *gin.Context, filter borrowing.BorrowingFilter) {
	if err := filter.Normalize(); err != nil {
		response.FromError(c, err)
		return
	}
	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	out := make([]borrowing.BorrowingResponse, len(items))
	for i := range items {
		out[i] = items[i].ToResponse()
	}
	response.SuccessWithMeta(c, http.StatusOK, out, &response.Meta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Total:  total,
	})
}

func (h *BorrowingHandler) ListOverdue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	items, err := h.service.ListOverdue(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

func (h *BorrowingHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ════════════════════════════════════════════════════════════════
// REPORT: GET /v1/borrowings/overdue/export
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) ExportOverdue(c *gin.Context) {
	f, err := h.service.OverdueReport(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("overdue_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// ════════════════════════════════════════════════════════════════
// SWEEP: POST /v1/borrowings/sweep
// ════════════════════════════════════════════════════════════════

func (h *BorrowingHandler) Sweep(c *gin.Context) {
	ctx := c.Request.Context()
	if h.enqueuer == nil {
		flagged, err := h.service.SweepOverdue(ctx)
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"flagged": flagged})
		return
	}

	taskID, err := h.enqueuer.EnqueueSweep(ctx, "api")
	if err != nil {
		response.InternalServerError(c, "Failed to enqueue sweep")
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"task_id": taskID})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid UUID format")
		return uuid.Nil, false
	}
	return id, true
}
