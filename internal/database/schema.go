package database

import (
	"fmt"
	"log"
)

var productsSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id uuid PRIMARY KEY,
		name text,
		description text,
		price decimal,
		category text,
		stock int,
		image_url text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
		product_id uuid,
		id timeuuid,
		type text,
		quantity int,
		prev_stock int,
		new_stock int,
		reason text,
		order_id uuid,
		user_id text,
		created_at timestamp,
		PRIMARY KEY (product_id, id)
	) WITH CLUSTERING ORDER BY (id DESC)`,
}

var usersSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id uuid PRIMARY KEY,
		email text,
		password text,
		name text,
		role text,
		provider text,
		provider_id text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS users_by_email (
		email text PRIMARY KEY,
		user_id uuid
	)`,
	`CREATE TABLE IF NOT EXISTS token_blocklist (
		jti text PRIMARY KEY,
		user_id text,
		revoked_at timestamp
	)`,
}

var ordersSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id uuid PRIMARY KEY,
		user_id text,
		items text,
		subtotal decimal,
		discount decimal,
		total_amount decimal,
		coupon_code text,
		shipping_address text,
		status text,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS orders_by_user (
		user_id text,
		created_at timestamp,
		order_id uuid,
		PRIMARY KEY (user_id, created_at, order_id)
	) WITH CLUSTERING ORDER BY (created_at DESC, order_id ASC)`,
	`CREATE TABLE IF NOT EXISTS carts (
		user_id text PRIMARY KEY,
		items map<text, int>,
		created_at timestamp,
		updated_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS coupons (
		code text PRIMARY KEY,
		discount_type text,
		discount_value decimal,
		min_purchase decimal,
		max_discount decimal,
		start_date timestamp,
		end_date timestamp,
		usage_limit int,
		used_count int,
		created_at timestamp,
		updated_at timestamp
	)`,
}

// Migrate crée les tables manquantes dans chaque keyspace.
// Les keyspaces eux-mêmes doivent exister (rôles et réplication gérés par l'exploitation).
func (sm *ScyllaManager) Migrate() error {
	plan := []struct {
		keyspace string
		stmts    []string
	}{
		{sm.ProductsKeyspace, productsSchema},
		{sm.UsersKeyspace, usersSchema},
		{sm.OrdersKeyspace, ordersSchema},
	}

	for _, step := range plan {
		session, err := sm.GetSession(step.keyspace)
		if err != nil {
			return err
		}
		for _, stmt := range step.stmts {
			if err := session.Query(stmt).Exec(); err != nil {
				return fmt.Errorf("migration %s: %w", step.keyspace, err)
			}
		}
		log.Printf("✅ Schéma vérifié pour keyspace '%s'", step.keyspace)
	}
	return nil
}
