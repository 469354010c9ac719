// internal/domain/product/service.go
package product

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a product does not exist or is not available
var ErrNotFound = errors.New("product not found")

// Service handles catalogue queries
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalogue service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListRequest represents catalogue list query parameters
type ListRequest struct {
	Category string `form:"category"`
	Query    string `form:"q"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// ListResponse represents a page of products
type ListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

// List returns available products, optionally filtered by category slug and
// a free-text match on name or description.
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Product{}).
		Preload("Category").
		Where("available = ?", true)

	if req.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", req.Category)
	}

	if req.Query != "" {
		like := "%" + strings.ToLower(req.Query) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(products.description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("products.created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ListResponse{
		Products: products,
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// GetBySlug returns a single available product by slug
func (s *Service) GetBySlug(slug string) (*Product, error) {
	var prod Product
	result := s.db.Preload("Category").Where("slug = ? AND available = ?", slug, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &prod, nil
}

// GetByID returns a single available product by id. The cart uses this to
// snapshot the unit price at add-time.
func (s *Service) GetByID(id uint) (*Product, error) {
	var prod Product
	result := s.db.Where("id = ? AND available = ?", id, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &prod, nil
}
