package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type QuotationHandler struct {
	quotationService service.QuotationService
}

func NewQuotationHandler(quotationService service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

// RegisterRoutes binds the quotation endpoints to the gin RouterGroup
func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleViewer)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleSeller)

	quotations := router.Group("/quotations")
	{
		quotations.GET("", read, h.List)
		quotations.POST("", write, h.Create)
		quotations.GET("/:id", read, h.Get)
		quotations.PUT("/:id", write, h.Update)
		quotations.POST("/:id/confirm", write, h.Confirm)
		quotations.POST("/:id/cancel", write, h.Cancel)
		quotations.POST("/:id/duplicate", write, h.Duplicate)
		quotations.POST("/:id/generate-sale", write, h.GenerateSale)
	}
}

// List handles GET /quotations with search and date range filters
// @Summary      List quotations
// @Description  Retrieves a paginated quotation list filtered by status, free-text search, and date range
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Status filter (draft, confirmed, cancelled)"
// @Param        search     query     string  false  "Matches customer name, email, or id"
// @Param        date__gte  query     string  false  "Inclusive start date YYYY-MM-DD"
// @Param        date__lte  query     string  false  "Inclusive end date YYYY-MM-DD"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /quotations [get]
func (h *QuotationHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	quotations, total, err := h.quotationService.List(c.Request.Context(), service.QuotationFilter{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		DateFrom: c.Query("date__gte"),
		DateTo:   c.Query("date__lte"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"quotations": quotations,
		"meta":       p.MetaFor(total),
	}))
}

// Create handles POST /quotations
// @Summary      Create quotation
// @Description  Creates a draft quotation; totals are recomputed server-side from the lines
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.QuotationInput  true  "Quotation payload"
// @Success      201      {object}  response.Response{data=service.QuotationResponse}
// @Failure      400      {object}  response.Response
// @Router       /quotations [post]
func (h *QuotationHandler) Create(c *gin.Context) {
	var input service.QuotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.Create(c.Request.Context(), currentUserID(c), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

// Get handles GET /quotations/:id
// @Summary      Get quotation
// @Description  Fetch a single quotation with its items and expenses
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      404  {object}  response.Response
// @Router       /quotations/{id} [get]
func (h *QuotationHandler) Get(c *gin.Context) {
	quotation, err := h.quotationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// Update handles PUT /quotations/:id — drafts only
// @Summary      Update quotation
// @Description  Replaces a draft quotation's fields and lines; totals are recomputed. Non-drafts are rejected.
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Quotation ID"
// @Param        payload  body      service.QuotationInput  true  "Quotation payload"
// @Success      200      {object}  response.Response{data=service.QuotationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /quotations/{id} [put]
func (h *QuotationHandler) Update(c *gin.Context) {
	var input service.QuotationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), input)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// Confirm handles POST /quotations/:id/confirm
// @Summary      Confirm quotation
// @Description  Moves a draft quotation to confirmed
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /quotations/{id}/confirm [post]
func (h *QuotationHandler) Confirm(c *gin.Context) {
	quotation, err := h.quotationService.Confirm(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// Cancel handles POST /quotations/:id/cancel
// @Summary      Cancel quotation
// @Description  Cancels a quotation with a mandatory reason; rejected once a sale exists
// @Tags         quotations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Quotation ID"
// @Param        payload  body      service.CancelQuotationRequest  true  "Cancellation reason"
// @Success      200      {object}  response.Response{data=service.QuotationResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /quotations/{id}/cancel [post]
func (h *QuotationHandler) Cancel(c *gin.Context) {
	var req service.CancelQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	quotation, err := h.quotationService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// Duplicate handles POST /quotations/:id/duplicate
// @Summary      Duplicate quotation
// @Description  Deep-copies a confirmed or cancelled quotation into a fresh draft
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quotation ID"
// @Success      201  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /quotations/{id}/duplicate [post]
func (h *QuotationHandler) Duplicate(c *gin.Context) {
	quotation, err := h.quotationService.Duplicate(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

// GenerateSale handles POST /quotations/:id/generate-sale
// @Summary      Generate sale
// @Description  Atomically confirms the draft quotation and creates its sale; a second call returns 409
// @Tags         quotations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quotation ID"
// @Success      201  {object}  response.Response{data=object}
// @Failure      409  {object}  response.Response
// @Router       /quotations/{id}/generate-sale [post]
func (h *QuotationHandler) GenerateSale(c *gin.Context) {
	saleID, err := h.quotationService.GenerateSale(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]string{"sale_id": saleID}))
}
