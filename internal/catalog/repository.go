package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/joao-fontenele/digital-storefront/internal/domain"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrBankAccountNotFound   = errors.New("bank account not found")
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListProducts returns products ordered by name, optionally limited to one
// category.
func (r *CatalogRepository) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	query := `
		SELECT id, name, description, price, image_url, category
		FROM products
		ORDER BY name
	`
	args := []any{}
	if category != "" {
		query = `
			SELECT id, name, description, price, image_url, category
			FROM products
			WHERE category = $1
			ORDER BY name
		`
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProductNotFound
	}

	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, image_url, category
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return p, nil
}

// ListRelated returns up to limit products from category, excluding excludeID.
func (r *CatalogRepository) ListRelated(ctx context.Context, category, excludeID string, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price, image_url, category
		FROM products
		WHERE category = $1 AND id <> $2
		ORDER BY name
		LIMIT $3
	`, category, excludeID, limit)
	if err != nil {
		return nil, err
	}
	return scanProducts(rows)
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT category
		FROM products
		ORDER BY category
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *CatalogRepository) ActivePaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, is_active, created_at
		FROM payment_methods
		WHERE is_active = TRUE
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var methods []domain.PaymentMethod
	for rows.Next() {
		var m domain.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Type, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return methods, nil
}

func (r *CatalogRepository) ActiveBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, bank_name, account_number, account_holder, is_active, created_at
		FROM bank_accounts
		WHERE is_active = TRUE
		ORDER BY bank_name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []domain.BankAccount
	for rows.Next() {
		var a domain.BankAccount
		if err := rows.Scan(&a.ID, &a.BankName, &a.AccountNumber, &a.AccountHolder, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Category); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
