package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "handler-test-secret")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Quotation{}, &model.QuotationItem{}, &model.QuotationExpense{},
		&model.Sale{}, &model.Payment{}, &model.MetalPrice{}, &model.CurrencyRate{},
		&model.AuditLog{}, &model.User{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := service.NewQuotationService(
		repository.NewQuotationRepository(db),
		repository.NewSaleRepository(db),
		repository.NewPriceRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
	)

	router := gin.New()
	NewQuotationHandler(svc).RegisterRoutes(router.Group("/api"))
	return router
}

// authToken signs a JWT the auth middleware accepts
func authToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
	})
	signed, err := token.SignedString([]byte("handler-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body, role string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+authToken(t, role))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const createBody = `{
	"customer_name": "Aceros del Norte",
	"currency": "MXN",
	"items": [{"product_name": "Steel plate", "unit_price": "125.00", "quantity": "2"}],
	"expenses": [{"name": "Freight", "category": "transport", "quantity": "1", "unit_cost": "40.00"}]
}`

func TestQuotationCreateAndGetHTTP(t *testing.T) {
	router := setupHandlerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/quotations", createBody, model.RoleSeller)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Status string                    `json:"status"`
		Data   service.QuotationResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Status != "success" {
		t.Errorf("envelope status = %s", envelope.Status)
	}
	if envelope.Data.Total != "336.40" {
		t.Errorf("total = %s, want 336.40", envelope.Data.Total)
	}

	w = doJSON(t, router, http.MethodGet, "/api/quotations/"+envelope.Data.ID, "", model.RoleViewer)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestQuotationListFilterHTTP(t *testing.T) {
	router := setupHandlerTest(t)

	for _, name := range []string{"Aceros del Norte", "Fundiciones Lopez"} {
		body := strings.Replace(createBody, "Aceros del Norte", name, 1)
		if w := doJSON(t, router, http.MethodPost, "/api/quotations", body, model.RoleSeller); w.Code != http.StatusCreated {
			t.Fatalf("seed %s: status = %d", name, w.Code)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/api/quotations?search=lopez", "", model.RoleViewer)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d, body = %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Quotations []service.QuotationResponse `json:"quotations"`
			Meta       struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Meta.Total != 1 || len(envelope.Data.Quotations) != 1 {
		t.Fatalf("search returned %d rows (total %d)", len(envelope.Data.Quotations), envelope.Data.Meta.Total)
	}
	if envelope.Data.Quotations[0].CustomerName != "Fundiciones Lopez" {
		t.Errorf("customer = %s", envelope.Data.Quotations[0].CustomerName)
	}
}

func TestQuotationErrorMappingHTTP(t *testing.T) {
	router := setupHandlerTest(t)

	errorCode := func(t *testing.T, w *httptest.ResponseRecorder) string {
		t.Helper()
		var envelope struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return envelope.Code
	}

	t.Run("validation maps to 400", func(t *testing.T) {
		body := `{"customer_name": "X", "currency": "JPY"}`
		w := doJSON(t, router, http.MethodPost, "/api/quotations", body, model.RoleSeller)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if got := errorCode(t, w); got != "validation_error" {
			t.Errorf("code = %s, want validation_error", got)
		}
	})

	t.Run("unknown id maps to 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/quotations/"+uuid.NewString(), "", model.RoleViewer)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
		if got := errorCode(t, w); got != "not_found" {
			t.Errorf("code = %s, want not_found", got)
		}
	})

	t.Run("second generate-sale maps to 409", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/quotations", createBody, model.RoleSeller)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed: status = %d", w.Code)
		}
		var created struct {
			Data service.QuotationResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
			t.Fatalf("decode: %v", err)
		}

		path := "/api/quotations/" + created.Data.ID + "/generate-sale"
		if w := doJSON(t, router, http.MethodPost, path, "", model.RoleSeller); w.Code != http.StatusCreated {
			t.Fatalf("first generate-sale: status = %d, body = %s", w.Code, w.Body.String())
		}
		w = doJSON(t, router, http.MethodPost, path, "", model.RoleSeller)
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", w.Code)
		}
		if got := errorCode(t, w); got != "conflict" {
			t.Errorf("code = %s, want conflict", got)
		}
	})
}

func TestQuotationAuthHTTP(t *testing.T) {
	router := setupHandlerTest(t)

	t.Run("missing token is 401", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/quotations", "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/quotations", createBody, model.RoleViewer)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}
