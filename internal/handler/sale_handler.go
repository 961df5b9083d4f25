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

type SaleHandler struct {
	saleService service.SaleService
}

func NewSaleHandler(saleService service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// RegisterRoutes binds the sale endpoints to the gin RouterGroup
func (h *SaleHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleViewer)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleSeller)

	sales := router.Group("/sales")
	{
		sales.GET("", read, h.List)
		sales.GET("/:id", read, h.Get)
		sales.PATCH("/:id", write, h.Patch)
		sales.POST("/:id/add_payment", write, h.AddPayment)
		sales.POST("/:id/mark_delivered", write, h.MarkDelivered)
		sales.POST("/:id/mark_closed", write, h.MarkClosed)
		sales.POST("/:id/cancel", write, h.Cancel)
	}
}

// List handles GET /sales
// @Summary      List sales
// @Description  Retrieves a paginated sale list optionally filtered by status
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	sales, total, err := h.saleService.List(c.Request.Context(), service.SaleFilter{
		Status: c.Query("status"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"sales": sales,
		"meta":  p.MetaFor(total),
	}))
}

// Get handles GET /sales/:id
// @Summary      Get sale
// @Description  Fetch a single sale with its payments
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      404  {object}  response.Response
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	sale, err := h.saleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// Patch handles PATCH /sales/:id — notes, plus status only for legal transitions
// @Summary      Patch sale
// @Description  Updates notes; a status value is accepted only when the lifecycle allows it, otherwise 409
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Sale ID"
// @Param        payload  body      service.PatchSaleRequest true  "Patch payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /sales/{id} [patch]
func (h *SaleHandler) Patch(c *gin.Context) {
	var req service.PatchSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.Patch(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// AddPayment handles POST /sales/:id/add_payment
// @Summary      Add payment
// @Description  Records a payment and re-derives the sale status from the paid sum, atomically
// @Tags         sales
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Sale ID"
// @Param        payload  body      service.AddPaymentRequest  true  "Payment payload"
// @Success      200      {object}  response.Response{data=service.SaleResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /sales/{id}/add_payment [post]
func (h *SaleHandler) AddPayment(c *gin.Context) {
	var req service.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sale, err := h.saleService.AddPayment(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// MarkDelivered handles POST /sales/:id/mark_delivered
// @Summary      Mark delivered
// @Description  Moves a fully paid sale to delivered and starts the 90-day warranty
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      409  {object}  response.Response
// @Router       /sales/{id}/mark_delivered [post]
func (h *SaleHandler) MarkDelivered(c *gin.Context) {
	sale, err := h.saleService.MarkDelivered(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// MarkClosed handles POST /sales/:id/mark_closed
// @Summary      Mark closed
// @Description  Closes a delivered sale, issuing the consecutive invoice and rendering its PDF; a collaborator failure returns 502 and leaves the sale delivered
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      409  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /sales/{id}/mark_closed [post]
func (h *SaleHandler) MarkClosed(c *gin.Context) {
	sale, err := h.saleService.MarkClosed(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}

// Cancel handles POST /sales/:id/cancel
// @Summary      Cancel sale
// @Description  Cancels a sale that has not shipped; no reason required
// @Tags         sales
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sale ID"
// @Success      200  {object}  response.Response{data=service.SaleResponse}
// @Failure      409  {object}  response.Response
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	sale, err := h.saleService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, sale))
}
