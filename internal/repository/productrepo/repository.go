package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/cache"
	"goprice/internal/pkg/logger"
)

// productCacheKey é a chave de cache de um produto.
const productCacheKey = "product:%s"

// productRow espelha a tabela products. current_price_cents pode ser NULL.
type productRow struct {
	ID                string        `db:"id"`
	Name              string        `db:"name"`
	Category          string        `db:"category"`
	StockQuantity     int           `db:"stock_quantity"`
	BasePriceCents    int64         `db:"base_price_cents"`
	CurrentPriceCents sql.NullInt64 `db:"current_price_cents"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	var current *int64
	if r.CurrentPriceCents.Valid {
		current = &r.CurrentPriceCents.Int64
	}
	p := domain.NewProduct(r.ID, r.Name, r.Category, r.StockQuantity, r.BasePriceCents, current)
	p.CreatedAt = r.CreatedAt
	p.UpdatedAt = r.UpdatedAt
	return p
}

const selectProducts = `
	SELECT id, name, category, stock_quantity, base_price_cents, current_price_cents, created_at, updated_at
	FROM products`

// ProductRepository é o catálogo de produtos no PostgreSQL, com cache-aside no Redis.
type ProductRepository struct {
	DB        *sqlx.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sqlx.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// ListAll devolve o catálogo completo ordenado por nome.
func (r *ProductRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var rows []productRow
	if err := r.DB.SelectContext(ctx, &rows, selectProducts+` ORDER BY name, id`); err != nil {
		return nil, apperror.NewDBError("falha ao listar produtos", err)
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toDomain())
	}
	return products, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// 1. Cache
	cached, err := r.Cache.Get(ctx, key)
	if err == nil {
		var product domain.Product
		if json.Unmarshal([]byte(cached), &product) == nil {
			return product, nil
		}
		r.logger.Warn("entrada de cache ilegível", map[string]interface{}{"key": key})
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("falha ao ler do cache", map[string]interface{}{"key": key, "error": err.Error()})
	}

	// 2. Banco
	var row productRow
	err = r.DB.GetContext(ctx, &row, selectProducts+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("produto com ID %s não existe", id))
	}
	if err != nil {
		return domain.Product{}, apperror.NewDBError("falha ao buscar produto", err)
	}
	product := row.toDomain()

	// 3. Popula o cache
	if payload, err := json.Marshal(product); err == nil {
		if err := r.Cache.Set(ctx, key, payload, r.CacheTTL); err != nil {
			r.logger.Warn("falha ao gravar no cache", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	return product, nil
}

// Save insere um novo produto.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const insertSQL = `
		INSERT INTO products (id, name, category, stock_quantity, base_price_cents, current_price_cents, created_at, updated_at)
		VALUES (:id, :name, :category, :stock_quantity, :base_price_cents, :current_price_cents, :created_at, :updated_at)`

	row := productRow{
		ID:                product.ID,
		Name:              product.Name,
		Category:          product.Category,
		StockQuantity:     product.StockQuantity,
		BasePriceCents:    product.BasePriceCents,
		CurrentPriceCents: sql.NullInt64{Int64: product.CurrentPriceCents, Valid: true},
		CreatedAt:         product.CreatedAt,
		UpdatedAt:         product.UpdatedAt,
	}

	if _, err := r.DB.NamedExecContext(ctx, insertSQL, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("produto %s já existe", product.ID))
		}
		return domain.Product{}, apperror.NewDBError("falha ao inserir produto", err)
	}
	return product, nil
}

// BulkSetPrice grava o preço atual de vários produtos numa única instrução, dentro de
// uma transação: ou todas as alterações são aplicadas ou nenhuma. Devolve o número de
// linhas alteradas.
func (r *ProductRepository) BulkSetPrice(ctx context.Context, updates []domain.PriceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	ids := make([]string, len(updates))
	prices := make([]int64, len(updates))
	for i, u := range updates {
		ids[i] = u.ProductID
		prices[i] = u.NewPriceCents
	}

	const updateSQL = `
		UPDATE products AS p
		SET current_price_cents = u.price, updated_at = now()
		FROM unnest($1::text[], $2::bigint[]) AS u(id, price)
		WHERE p.id = u.id`

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, apperror.NewDBError("falha ao iniciar transação", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, updateSQL, pq.Array(ids), pq.Array(prices))
	if err != nil {
		return 0, apperror.NewDBError("falha ao atualizar preços", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.NewDBError("falha ao ler linhas alteradas", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperror.NewDBError("falha ao confirmar transação", err)
	}

	r.invalidate(ctx, ids)
	return int(affected), nil
}

func (r *ProductRepository) invalidate(ctx context.Context, ids []string) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(productCacheKey, id)
	}
	if err := r.Cache.Delete(ctx, keys...); err != nil {
		r.logger.Warn("falha ao invalidar cache de produtos", map[string]interface{}{"count": len(keys), "error": err.Error()})
	}
}
