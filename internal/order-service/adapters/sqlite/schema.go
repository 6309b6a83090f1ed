package sqlite

// schema is applied on every Open; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS products (
    id                 TEXT PRIMARY KEY,
    name               TEXT NOT NULL,
    price              TEXT NOT NULL,
    original_price     TEXT,
    restaurant_id      TEXT NOT NULL,
    restaurant_name    TEXT NOT NULL DEFAULT '',
    restaurant_address TEXT NOT NULL DEFAULT '',
    rate               REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS orders (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    status      TEXT NOT NULL,
    subtotal    TEXT NOT NULL,
    vat         TEXT NOT NULL,
    total_price TEXT NOT NULL,
    location    TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);

-- Items keep a copy of the product as it was when ordered.
CREATE TABLE IF NOT EXISTS order_items (
    order_id   TEXT    NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    product    TEXT    NOT NULL,
    quantity   INTEGER NOT NULL CHECK (quantity > 0),
    price      TEXT    NOT NULL,
    PRIMARY KEY (order_id, position)
);

-- Append-only: one row per status change, never updated.
CREATE TABLE IF NOT EXISTS order_status_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id    TEXT NOT NULL,
    from_status TEXT NOT NULL DEFAULT '',
    to_status   TEXT NOT NULL,
    actor       TEXT NOT NULL,
    request_id  TEXT NOT NULL DEFAULT '',
    trace_id    TEXT NOT NULL DEFAULT '',
    span_id     TEXT NOT NULL DEFAULT '',
    at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_status_log_order ON order_status_log(order_id, id);
CREATE INDEX IF NOT EXISTS idx_status_log_trace ON order_status_log(trace_id);
`
