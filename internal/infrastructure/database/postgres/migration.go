// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Dependency order: categories before products, orders before items
	models := []interface{}{
		&user.User{},

		&product.Category{},
		&product.Product{},

		&order.Order{},
		&order.OrderItem{},
		&order.StatusHistory{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes beyond what the model tags declare
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		// Catalogue listing and search
		"CREATE INDEX IF NOT EXISTS idx_products_category_available ON products(category_id, available)",
		"CREATE INDEX IF NOT EXISTS idx_products_name ON products(name)",

		// Order listing and reconciliation
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_paid ON orders(paid)",

		// Audit trail lookups
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("Failed to create index: %v", err)
		}
	}

	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	if err := m.seedStaffUser(); err != nil {
		return fmt.Errorf("failed to seed staff user: %w", err)
	}

	if err := m.seedCatalogue(); err != nil {
		return fmt.Errorf("failed to seed catalogue: %w", err)
	}

	return nil
}

// seedStaffUser creates the default dashboard account if none exists
func (m *Migration) seedStaffUser() error {
	var existing user.User
	result := m.db.Where("email = ?", "staff@example.com").First(&existing)
	if result.Error == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("staff123"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	staffUser := user.User{
		Email:     "staff@example.com",
		Password:  string(hashedPassword),
		FirstName: "Staff",
		LastName:  "User",
		IsActive:  true,
		IsStaff:   true,
	}

	if err := m.db.Create(&staffUser).Error; err != nil {
		return fmt.Errorf("failed to create staff user: %w", err)
	}

	log.Println("Created staff user: staff@example.com (password: staff123)")
	return nil
}

// seedCatalogue creates sample categories and products for development
func (m *Migration) seedCatalogue() error {
	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount > 0 {
		return nil
	}

	categories := []product.Category{
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Books", Slug: "books"},
		{Name: "Clothing", Slug: "clothing"},
	}

	for i := range categories {
		var existing product.Category
		if err := m.db.Where("slug = ?", categories[i].Slug).First(&existing).Error; err != nil {
			if err := m.db.Create(&categories[i]).Error; err != nil {
				return err
			}
		} else {
			categories[i] = existing
		}
	}

	products := []product.Product{
		{
			Slug:        "wireless-headphones",
			Name:        "Wireless Headphones",
			Description: "Over-ear wireless headphones with active noise cancellation and 30 hour battery life.",
			Price:       15999,
			Stock:       30,
			Available:   true,
			CategoryID:  categories[0].ID,
		},
		{
			Slug:        "mechanical-keyboard",
			Name:        "Mechanical Keyboard",
			Description: "Tenkeyless mechanical keyboard with hot-swappable switches.",
			Price:       8999,
			Stock:       50,
			Available:   true,
			CategoryID:  categories[0].ID,
		},
		{
			Slug:        "go-programming-book",
			Name:        "The Go Programming Language",
			Description: "The definitive introduction to Go for experienced programmers.",
			Price:       3499,
			Stock:       100,
			Available:   true,
			CategoryID:  categories[1].ID,
		},
		{
			Slug:        "cotton-t-shirt",
			Name:        "Cotton T-Shirt",
			Description: "Plain heavyweight cotton t-shirt.",
			Price:       1999,
			Stock:       200,
			Available:   true,
			CategoryID:  categories[2].ID,
		},
	}

	for _, prod := range products {
		if err := m.db.Create(&prod).Error; err != nil {
			log.Printf("Failed to create seed product %s: %v", prod.Slug, err)
		}
	}

	log.Printf("Seeded %d products across %d categories", len(products), len(categories))
	return nil
}
