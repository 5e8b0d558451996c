package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/domains/member"
	"library-backend/internal/shared/response"
)

type MemberHandler struct {
	service member.Service
}

func NewMemberHandler(svc member.Service) *MemberHandler {
	return &MemberHandler{
		service: svc,
	}
}

func (h *MemberHandler) RegisterRoutes(rg *gin.RouterGroup) {
	members := rg.Group("/members")
	{
		members.POST("", h.Create)
		members.GET("", h.List)
		members.GET("/eligible", h.Eligible)
		members.GET("/top", h.MostActive)
		members.GET("/:id", h.GetByID)
		members.PUT("/:id", h.Update)
		members.PATCH("/:id/status", h.ChangeStatus)
		members.DELETE("/:id", h.Delete)
	}
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /v1/members
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) Create(c *gin.Context) {
	var req member.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Location", "/api/v1/members/"+created.ID.String())
	response.Success(c, http.StatusCreated, created.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// READ: GET /v1/members/:id
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, m.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /v1/members?name=&email=&phone=&status=&sort_by=&order=
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) List(c *gin.Context) {
	var filter member.MemberFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query: "+err.Error())
		return
	}
	if err := filter.Normalize(); err != nil {
		response.FromError(c, err)
		return
	}

	members, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, toResponses(members), &response.Meta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Total:  total,
	})
}

// ════════════════════════════════════════════════════════════════
// ELIGIBLE: GET /v1/members/eligible?limit=
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) Eligible(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	members, err := h.service.Eligible(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toResponses(members))
}

// ════════════════════════════════════════════════════════════════
// TOP: GET /v1/members/top?limit=
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) MostActive(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	members, err := h.service.MostActive(c.Request.Context(), limit)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, toResponses(members))
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT /v1/members/:id
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req member.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// STATUS: PATCH /v1/members/:id/status
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req member.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.service.ChangeStatus(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, updated.ToResponse())
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /v1/members/:id
// ════════════════════════════════════════════════════════════════

func (h *MemberHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid UUID format")
		return uuid.Nil, false
	}
	return id, true
}

func toResponses(members []member.Member) []member.MemberResponse {
	out := make([]member.MemberResponse, len(members))
	for i := range members {
		out[i] = members[i].ToResponse()
	}
	return out
}
