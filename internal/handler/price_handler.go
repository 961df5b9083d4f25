package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type PriceHandler struct {
	pricingService service.PricingService
}

func NewPriceHandler(pricingService service.PricingService) *PriceHandler {
	return &PriceHandler{pricingService: pricingService}
}

// RegisterRoutes binds the metal price endpoints; refresh is admin-only
func (h *PriceHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleViewer)
	admin := middleware.RequireRole(model.RoleAdmin)

	prices := router.Group("/metalprice")
	{
		prices.GET("", read, h.Get)
		prices.POST("/refresh", admin, h.Refresh)
	}
	router.GET("/currencyrate/:target", read, h.GetRate)
}

// Get handles GET /metalprice — one symbol or the whole board
// @Summary      Get metal prices
// @Description  Returns the latest stored quote for a symbol (or all symbols), converted to the requested currency
// @Tags         prices
// @Produce      json
// @Security     BearerAuth
// @Param        symbol    query     string  false  "Metal symbol (GOLD, SILVER, COPPER, ALUMINUM, IRON)"
// @Param        currency  query     string  false  "Target currency (default USD)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /metalprice [get]
func (h *PriceHandler) Get(c *gin.Context) {
	symbol := c.Query("symbol")
	currency := c.Query("currency")

	if symbol != "" {
		price, err := h.pricingService.GetMetalPrice(c.Request.Context(), symbol, currency)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, price))
		return
	}

	prices, err := h.pricingService.ListMetalPrices(c.Request.Context(), currency)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"prices": prices}))
}

// Refresh handles POST /metalprice/refresh
// @Summary      Refresh metal prices
// @Description  Pulls fresh quotes from the pricing collaborator, stores them, and broadcasts a websocket tick
// @Tags         prices
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Failure      502  {object}  response.Response
// @Router       /metalprice/refresh [post]
func (h *PriceHandler) Refresh(c *gin.Context) {
	prices, err := h.pricingService.Refresh(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{"prices": prices}))
}

// GetRate handles GET /currencyrate/:target
// @Summary      Get currency rate
// @Description  Returns the latest stored USD conversion rate for the target currency
// @Tags         prices
// @Produce      json
// @Security     BearerAuth
// @Param        target  path      string  true  "Target currency (MXN, EUR)"
// @Success      200  {object}  response.Response{data=service.CurrencyRateResponse}
// @Failure      404  {object}  response.Response
// @Router       /currencyrate/{target} [get]
func (h *PriceHandler) GetRate(c *gin.Context) {
	rate, err := h.pricingService.GetCurrencyRate(c.Request.Context(), c.Param("target"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rate))
}
