// Package sqlite implements app.Repository on a single SQLite file through
// sqlx and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/food-ordering/internal/order-service/app"
	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/order-service/statuslog"

	_ "modernc.org/sqlite"
)

var _ app.Repository = (*Repository)(nil)

type Repository struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path in WAL mode and applies the
// schema.
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	// One connection serialises writers, which also makes the
	// compare-and-set in UpdateStatus race free.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type productRow struct {
	ID                string              `db:"id"`
	Name              string              `db:"name"`
	Price             decimal.Decimal     `db:"price"`
	OriginalPrice     decimal.NullDecimal `db:"original_price"`
	RestaurantID      string              `db:"restaurant_id"`
	RestaurantName    string              `db:"restaurant_name"`
	RestaurantAddress string              `db:"restaurant_address"`
	Rate              float64             `db:"rate"`
}

func (p productRow) toDomain() domain.Product {
	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Restaurant:    domain.Restaurant{ID: p.RestaurantID, Name: p.RestaurantName, Address: p.RestaurantAddress},
		Rate:          p.Rate,
	}
}

func fromProduct(p domain.Product) productRow {
	return productRow{
		ID:                p.ID,
		Name:              p.Name,
		Price:             p.Price,
		OriginalPrice:     p.OriginalPrice,
		RestaurantID:      p.Restaurant.ID,
		RestaurantName:    p.Restaurant.Name,
		RestaurantAddress: p.Restaurant.Address,
		Rate:              p.Rate,
	}
}

const productColumns = `id, name, price, original_price, restaurant_id, restaurant_name, restaurant_address, rate`

func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("sqlite: count products: %w", err)
	}
	return n, nil
}

func (r *Repository) SaveProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	const q = `
		INSERT INTO products (` + productColumns + `)
		VALUES (:id, :name, :price, :original_price, :restaurant_id, :restaurant_name, :restaurant_address, :rate)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price = excluded.price,
			original_price = excluded.original_price,
			restaurant_id = excluded.restaurant_id,
			restaurant_name = excluded.restaurant_name,
			restaurant_address = excluded.restaurant_address,
			rate = excluded.rate`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range products {
		if _, err := tx.NamedExecContext(ctx, q, fromProduct(p)); err != nil {
			return fmt.Errorf("sqlite: save product %q: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit products: %w", err)
	}
	return nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+productColumns+` FROM products ORDER BY restaurant_id, name`); err != nil {
		return nil, fmt.Errorf("sqlite: list products: %w", err)
	}
	out := make([]domain.Product, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *Repository) ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlite: products by id: %w", err)
	}
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlite: products by id: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

type orderRow struct {
	ID         string          `db:"id"`
	UserID     string          `db:"user_id"`
	Status     string          `db:"status"`
	Subtotal   decimal.Decimal `db:"subtotal"`
	VAT        decimal.Decimal `db:"vat"`
	TotalPrice decimal.Decimal `db:"total_price"`
	Location   string          `db:"location"`
	CreatedAt  string          `db:"created_at"`
	UpdatedAt  string          `db:"updated_at"`
}

type itemRow struct {
	OrderID  string          `db:"order_id"`
	Position int             `db:"position"`
	Product  string          `db:"product"`
	Quantity int             `db:"quantity"`
	Price    decimal.Decimal `db:"price"`
}

const orderColumns = `id, user_id, status, subtotal, vat, total_price, location, created_at, updated_at`

func (r *Repository) CreateOrder(ctx context.Context, o *domain.Order, entry statuslog.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := orderRow{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Subtotal:   o.Subtotal,
		VAT:        o.VAT,
		TotalPrice: o.TotalPrice,
		Location:   o.Location,
		CreatedAt:  formatTime(o.CreatedAt),
		UpdatedAt:  formatTime(o.UpdatedAt),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :user_id, :status, :subtotal, :vat, :total_price, :location, :created_at, :updated_at)`, row); err != nil {
		return fmt.Errorf("sqlite: insert order %q: %w", o.ID, err)
	}

	for i, it := range o.Items {
		product, err := json.Marshal(it.Product)
		if err != nil {
			return fmt.Errorf("sqlite: encode product %q: %w", it.Product.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product, quantity, price)
			VALUES (:order_id, :position, :product, :quantity, :price)`,
			itemRow{OrderID: o.ID, Position: i, Product: string(product), Quantity: it.Quantity, Price: it.Price}); err != nil {
			return fmt.Errorf("sqlite: insert item %d of %q: %w", i, o.ID, err)
		}
	}

	if err := appendLog(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit order %q: %w", o.ID, err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get order %q: %w", id, err)
	}
	orders, err := r.hydrate(ctx, []orderRow{row})
	if err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *Repository) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	var rows []orderRow
	var err error
	if userID == "" {
		err = r.db.SelectContext(ctx, &rows, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id`)
	} else {
		err = r.db.SelectContext(ctx, &rows, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: list orders: %w", err)
	}
	return r.hydrate(ctx, rows)
}

// hydrate converts rows and attaches their items with one extra query.
func (r *Repository) hydrate(ctx context.Context, rows []orderRow) ([]domain.Order, error) {
	out := make([]domain.Order, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, len(rows))
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		created, err := parseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime(row.UpdatedAt)
		if err != nil {
			return nil, err
		}
		out[i] = domain.Order{
			ID:         row.ID,
			UserID:     row.UserID,
			Status:     domain.Status(row.Status),
			Subtotal:   row.Subtotal,
			VAT:        row.VAT,
			TotalPrice: row.TotalPrice,
			Location:   row.Location,
			Items:      []domain.OrderItem{},
			CreatedAt:  created,
			UpdatedAt:  updated,
		}
		ids[i] = row.ID
		index[row.ID] = i
	}

	q, args, err := sqlx.In(`SELECT order_id, position, product, quantity, price FROM order_items WHERE order_id IN (?) ORDER BY order_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load items: %w", err)
	}
	var items []itemRow
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("sqlite: load items: %w", err)
	}
	for _, it := range items {
		var p domain.Product
		if err := json.Unmarshal([]byte(it.Product), &p); err != nil {
			return nil, fmt.Errorf("sqlite: decode item of %q: %w", it.OrderID, err)
		}
		i := index[it.OrderID]
		out[i].Items = append(out[i].Items, domain.OrderItem{Product: p, Quantity: it.Quantity, Price: it.Price})
	}
	return out, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time, entry statuslog.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), formatTime(at), id, string(from))
	if err != nil {
		return fmt.Errorf("sqlite: update status of %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update status of %q: %w", id, err)
	}
	if n == 0 {
		return domain.ErrConcurrentUpdate
	}

	if err := appendLog(ctx, tx, entry); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit status of %q: %w", id, err)
	}
	return nil
}

type logRow struct {
	OrderID   string `db:"order_id"`
	From      string `db:"from_status"`
	To        string `db:"to_status"`
	Actor     string `db:"actor"`
	RequestID string `db:"request_id"`
	TraceID   string `db:"trace_id"`
	SpanID    string `db:"span_id"`
	At        string `db:"at"`
}

func appendLog(ctx context.Context, tx *sqlx.Tx, e statuslog.Entry) error {
	row := logRow{
		OrderID:   e.OrderID,
		From:      e.From,
		To:        e.To,
		Actor:     e.Actor,
		RequestID: e.RequestID,
		TraceID:   e.TraceID,
		SpanID:    e.SpanID,
		At:        formatTime(e.At),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO order_status_log (order_id, from_status, to_status, actor, request_id, trace_id, span_id, at)
		VALUES (:order_id, :from_status, :to_status, :actor, :request_id, :trace_id, :span_id, :at)`, row); err != nil {
		return fmt.Errorf("sqlite: append status log for %q: %w", e.OrderID, err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context, orderID string) ([]statuslog.Entry, error) {
	var rows []logRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT order_id, from_status, to_status, actor, request_id, trace_id, span_id, at
		FROM   order_status_log
		WHERE  order_id = ?
		ORDER  BY id`, orderID); err != nil {
		return nil, fmt.Errorf("sqlite: history of %q: %w", orderID, err)
	}
	out := make([]statuslog.Entry, len(rows))
	for i, row := range rows {
		at, err := parseTime(row.At)
		if err != nil {
			return nil, err
		}
		out[i] = statuslog.Entry{
			OrderID:   row.OrderID,
			From:      row.From,
			To:        row.To,
			Actor:     row.Actor,
			RequestID: row.RequestID,
			TraceID:   row.TraceID,
			SpanID:    row.SpanID,
			At:        at,
		}
	}
	return out, nil
}
