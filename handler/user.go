package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/paging"
	"github.com/ncobase/passport/resp"
	"github.com/ncobase/passport/service"
	"github.com/ncobase/passport/structs"
)

// UserHandler exposes the user management endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates the user handler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		resp.Fail(c.Writer, c.Request, &resp.Exception{
			Code:    ecode.ParamErr,
			Message: "Invalid user id",
		})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) *paging.Params {
	var p paging.Params
	_ = c.ShouldBindQuery(&p)
	p.Normalize()
	return &p
}

// Create handles POST /users.
func (h *UserHandler) Create(c *gin.Context) {
	var req structs.CreateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.users.Create(c.Request.Context(), &req)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.WithStatusCode(c.Writer, c.Request, http.StatusCreated, "User created successfully", user)
}

// Get handles GET /users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User retrieved successfully", user)
}

// GetByUsername handles GET /users/username/:username.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User retrieved successfully", user)
}

// Update handles PUT /users/:id.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req structs.UpdateUserRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, &req)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User updated successfully", user)
}

// ChangeRole handles PATCH /users/:id/role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req structs.ChangeRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.users.ChangeRole(c.Request.Context(), id, req.Role)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User role updated successfully", user)
}

// ChangeStatus handles PATCH /users/:id/status.
func (h *UserHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req structs.ChangeStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.users.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User status updated successfully", user)
}

// Delete handles DELETE /users/:id.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "User deleted successfully")
}

// List handles GET /users.
func (h *UserHandler) List(c *gin.Context) {
	page, err := h.users.List(c.Request.Context(), pageParams(c))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Users retrieved successfully", page)
}

// Search handles GET /users/search?query=.
func (h *UserHandler) Search(c *gin.Context) {
	term := c.Query("query")
	if term == "" {
		resp.Fail(c.Writer, c.Request, &resp.Exception{
			Code:    ecode.ParamErr,
			Message: "Search query is required",
		})
		return
	}
	page, err := h.users.Search(c.Request.Context(), term, pageParams(c))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Search completed successfully", page)
}

// Statistics handles GET /users/statistics.
func (h *UserHandler) Statistics(c *gin.Context) {
	stats, err := h.users.Statistics(c.Request.Context())
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Statistics retrieved successfully", stats)
}

// Recent handles GET /users/recent?days=.
func (h *UserHandler) Recent(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	page, err := h.users.Recent(c.Request.Context(), days, pageParams(c))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Recent users retrieved successfully", page)
}

// ByStatus handles GET /users/by-status/:status.
func (h *UserHandler) ByStatus(c *gin.Context) {
	status := structs.Status(c.Param("status"))
	if !status.Valid() {
		resp.Fail(c.Writer, c.Request, &resp.Exception{
			Code:    ecode.ParamErr,
			Message: "Invalid status",
		})
		return
	}
	page, err := h.users.ByStatus(c.Request.Context(), status, pageParams(c))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Users retrieved successfully", page)
}

// ByRole handles GET /users/by-role/:role.
func (h *UserHandler) ByRole(c *gin.Context) {
	role := structs.Role(c.Param("role"))
	if !role.Valid() {
		resp.Fail(c.Writer, c.Request, &resp.Exception{
			Code:    ecode.ParamErr,
			Message: "Invalid role",
		})
		return
	}
	page, err := h.users.ByRole(c.Request.Context(), role, pageParams(c))
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Users retrieved successfully", page)
}
