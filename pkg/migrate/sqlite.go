package migrate

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// sqliteUUID mirrors gen_random_uuid() for sqlite so inserts without an explicit id still get a parseable UUID.
const sqliteUUID = `(lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))), 2) || '-a' || substr(lower(hex(randomblob(2))), 2) || '-' || lower(hex(randomblob(6))))`

// SQLiteSchema is the sqlite rendition of the goose migrations. It backs the
// sqlite driver used for local runs and for repository tests. Money columns use
// NUMERIC affinity so range filters and ordering compare numbers, not text.
var SQLiteSchema = strings.ReplaceAll(`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  email TEXT NOT NULL UNIQUE COLLATE NOCASE,
  password_hash TEXT,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  rider_number TEXT UNIQUE,
  is_active BOOLEAN NOT NULL DEFAULT 0,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS user_verifications (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  user_id TEXT NOT NULL UNIQUE,
  token TEXT NOT NULL,
  issued_at DATETIME NOT NULL,
  is_verified BOOLEAN NOT NULL DEFAULT 0,
  failed_attempts INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS id_sequences (
  name TEXT PRIMARY KEY,
  value INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  name TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  current_price NUMERIC NOT NULL,
  original_price NUMERIC,
  discount_percent INTEGER NOT NULL DEFAULT 0,
  rating NUMERIC NOT NULL DEFAULT '0',
  reviews_count INTEGER NOT NULL DEFAULT 0,
  badge TEXT,
  main_image TEXT NOT NULL DEFAULT '',
  display_product BOOLEAN NOT NULL DEFAULT 0,
  product_number TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS product_categories (
  product_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  PRIMARY KEY (product_id, category_id)
);
CREATE TABLE IF NOT EXISTS product_colors (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  hex TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS product_sizes (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  product_id TEXT NOT NULL,
  label TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS product_images (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  product_id TEXT NOT NULL,
  url TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS product_details (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  product_id TEXT NOT NULL,
  tab TEXT NOT NULL CHECK (tab IN ('description', 'details', 'shipping')),
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS watchlist_items (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);
CREATE TABLE IF NOT EXISTS delivery_fees (
  region TEXT PRIMARY KEY,
  label TEXT NOT NULL,
  fee NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  user_id TEXT NOT NULL UNIQUE,
  region TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity >= 1),
  description TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  user_id TEXT NOT NULL,
  order_number TEXT NOT NULL UNIQUE,
  tracking_number TEXT NOT NULL UNIQUE,
  payment_reference TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  shipping_fee NUMERIC NOT NULL,
  discount NUMERIC NOT NULL DEFAULT '0',
  total NUMERIC NOT NULL,
  carrier TEXT NOT NULL DEFAULT 'Aso Oke Express',
  other_info TEXT,
  estimated_delivery_date DATETIME,
  dispatcher_id TEXT,
  delivery_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_payment_reference ON orders (payment_reference);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  description TEXT
);
CREATE TABLE IF NOT EXISTS shipping_addresses (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  order_id TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  address TEXT NOT NULL,
  apartment TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  phone TEXT NOT NULL,
  alt_phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS payment_details (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  order_id TEXT NOT NULL UNIQUE,
  method TEXT NOT NULL,
  channel TEXT,
  card_last4 TEXT,
  expiry_date TEXT,
  amount_kobo INTEGER NOT NULL DEFAULT 0,
  paid_at DATETIME,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_tracking (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL,
  status TEXT NOT NULL,
  occurred_at DATETIME NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  completed BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_feedback (
  id TEXT PRIMARY KEY DEFAULT {uuid},
  order_id TEXT NOT NULL UNIQUE,
  rider_id TEXT,
  stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
  comment TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);
`, "{uuid}", sqliteUUID)

// ApplySQLite creates every table on a sqlite connection. It is idempotent.
func ApplySQLite(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	for _, stmt := range strings.Split(SQLiteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
