package service

import (
	"context"

	"backend/internal/client"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category"`
	MetalSymbol *string `json:"metal_symbol"`
	PriceUSD    string  `json:"price_usd"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

type ProductResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	MetalSymbol *string `json:"metal_symbol"`
	PriceUSD    string  `json:"price_usd"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
}

type ProductService interface {
	Create(ctx context.Context, req ProductRequest) (ProductResponse, error)
	Get(ctx context.Context, id string) (ProductResponse, error)
	List(ctx context.Context, search string, page, limit int) ([]ProductResponse, int64, error)
	Update(ctx context.Context, id string, req ProductRequest) (ProductResponse, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) Create(ctx context.Context, req ProductRequest) (ProductResponse, error) {
	product := &model.Product{}
	if err := applyProductRequest(product, req); err != nil {
		return ProductResponse{}, err
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

func (s *productService) Get(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := parseID(id)
	if err != nil {
		return ProductResponse{}, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, notFoundOr(err, "product %s not found", id)
	}
	return toProductResponse(product), nil
}

func (s *productService) List(ctx context.Context, search string, page, limit int) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, toProductResponse(&products[i]))
	}
	return result, total, nil
}

func (s *productService) Update(ctx context.Context, id string, req ProductRequest) (ProductResponse, error) {
	productID, err := parseID(id)
	if err != nil {
		return ProductResponse{}, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, notFoundOr(err, "product %s not found", id)
	}
	if err := applyProductRequest(product, req); err != nil {
		return ProductResponse{}, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return notFoundOr(err, "product %s not found", id)
	}
	return s.productRepo.Delete(ctx, productID)
}

func applyProductRequest(product *model.Product, req ProductRequest) error {
	if isBlank(req.Name) {
		return apperror.Validation("product name is required")
	}
	if req.MetalSymbol != nil && *req.MetalSymbol != "" {
		if _, ok := client.MetalTickers[*req.MetalSymbol]; !ok {
			return apperror.Validation("unknown metal symbol %q", *req.MetalSymbol)
		}
	}

	price := decimal.Zero
	if req.PriceUSD != "" {
		parsed, err := decimal.NewFromString(req.PriceUSD)
		if err != nil {
			return apperror.Validation("invalid price %q", req.PriceUSD)
		}
		if parsed.IsNegative() {
			return apperror.Validation("price must not be negative")
		}
		price = parsed
	}

	product.Name = req.Name
	product.Category = req.Category
	product.MetalSymbol = req.MetalSymbol
	product.PriceUSD = price.Round(2)
	product.Description = req.Description
	product.Unit = req.Unit
	if product.Unit == "" {
		product.Unit = "pieza"
	}
	return nil
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Category:    product.Category,
		MetalSymbol: product.MetalSymbol,
		PriceUSD:    product.PriceUSD.StringFixed(2),
		Unit:        product.Unit,
		Description: product.Description,
	}
}
