package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/audit"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/models"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/repositories"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/shared/validation"
)

type ProductService struct {
	productRepo repositories.ProductRepo
	audit       *audit.Service
}

func NewProductService(productRepo repositories.ProductRepo, auditService *audit.Service) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		audit:       auditService,
	}
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku *string, self uuid.UUID) error {
	if sku == nil {
		return nil
	}
	existing, err := s.productRepo.GetBySKU(ctx, *sku)
	if err == nil && existing.ID != self {
		return ErrDuplicateSKU
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return translate(err, ErrProductNotFound, "check sku")
	}
	return nil
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, actor Actor, req *models.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	sku := normalizeSKU(req.SKU)
	if err := s.ensureSKUFree(ctx, sku, uuid.Nil); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:           req.Name,
		Company:        strings.TrimSpace(req.Company),
		Description:    req.Description,
		SKU:            sku,
		Unit:           req.Unit,
		SellingPrice:   models.RoundMoney(req.SellingPrice),
		WholesalePrice: req.WholesalePrice,
		RetailPrice:    req.RetailPrice,
		Quantity:       req.Quantity,
		CreatedBy:      actor.ref(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, translate(err, ErrProductNotFound, "create product")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionCreate, Entity: "product", EntityID: product.ID.String(),
		New: product,
	})
	log.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("📦 Product created")
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrProductNotFound, "get product")
	}
	return product, nil
}

// ListProducts returns one page of products, newest first
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) (*models.ProductListResponse, error) {
	filter.Page, filter.PageSize = repositories.NormalizePage(filter.Page, filter.PageSize)

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, translate(err, ErrProductNotFound, "list products")
	}

	return &models.ProductListResponse{
		Products:   products,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: repositories.TotalPages(total, filter.PageSize),
	}, nil
}

// UpdateProduct applies the non-nil fields of req
func (s *ProductService) UpdateProduct(ctx context.Context, actor Actor, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	if verr := validation.Struct(req); verr != nil {
		return nil, invalid(verr.Field, verr.Message)
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, ErrProductNotFound, "get product")
	}
	before := *product

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "is required")
		}
		product.Name = name
	}
	if req.Company != nil {
		product.Company = strings.TrimSpace(*req.Company)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.SKU != nil {
		sku := normalizeSKU(req.SKU)
		if err := s.ensureSKUFree(ctx, sku, product.ID); err != nil {
			return nil, err
		}
		product.SKU = sku
	}
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		if unit == "" {
			return nil, invalid("unit", "is required")
		}
		product.Unit = unit
	}
	if req.SellingPrice != nil {
		product.SellingPrice = models.RoundMoney(*req.SellingPrice)
	}
	if req.WholesalePrice != nil {
		product.WholesalePrice = req.WholesalePrice
	}
	if req.RetailPrice != nil {
		product.RetailPrice = req.RetailPrice
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, translate(err, ErrProductNotFound, "update product")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionUpdate, Entity: "product", EntityID: product.ID.String(),
		Old: before, New: product,
	})
	return product, nil
}

// DeleteProduct soft-deletes a product. Order items that reference it keep
// resolving it for history.
func (s *ProductService) DeleteProduct(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return translate(err, ErrProductNotFound, "delete product")
	}

	s.audit.Record(ctx, audit.Entry{
		ActorID: actor.ref(), ActorRole: actor.Role,
		Action: audit.ActionDelete, Entity: "product", EntityID: id.String(),
	})
	log.Info().Str("product_id", id.String()).Msg("🗑️ Product deleted")
	return nil
}
