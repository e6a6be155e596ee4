package scylla

// Requêtes CQL. gocql prépare et met en cache chaque requête par session.

const (
	productColumns = `product_id, name, description, price, category, stock, image_url, created_at, updated_at`

	stmtGetProduct    = `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	stmtListProducts  = `SELECT ` + productColumns + ` FROM products`
	stmtCountProducts = `SELECT COUNT(*) FROM products`
	stmtInsertProduct = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`
	stmtUpdateProduct = `UPDATE products SET name = ?, description = ?, price = ?, category = ?, image_url = ?, updated_at = ?
		WHERE product_id = ? IF EXISTS`
	stmtGetStock      = `SELECT stock, name FROM products WHERE product_id = ?`
	stmtCASStock      = `UPDATE products SET stock = ?, updated_at = ? WHERE product_id = ? IF stock = ?`
	stmtDeleteProduct = `DELETE FROM products WHERE product_id = ? IF EXISTS`

	stmtInsertMovement = `INSERT INTO stock_movements (product_id, id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtListMovements = `SELECT id, type, quantity, prev_stock, new_stock, reason, order_id, user_id, created_at
		FROM stock_movements WHERE product_id = ? LIMIT ?`

	couponColumns = `code, discount_type, discount_value, min_purchase, max_discount, start_date, end_date, usage_limit, used_count, created_at, updated_at`

	stmtGetCoupon    = `SELECT ` + couponColumns + ` FROM coupons WHERE code = ?`
	stmtListCoupons  = `SELECT ` + couponColumns + ` FROM coupons`
	stmtInsertCoupon = `INSERT INTO coupons (` + couponColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) IF NOT EXISTS`
	stmtUpdateCoupon = `UPDATE coupons SET discount_type = ?, discount_value = ?, min_purchase = ?, max_discount = ?,
		start_date = ?, end_date = ?, usage_limit = ?, updated_at = ? WHERE code = ? IF EXISTS`
	stmtCASCouponUsage = `UPDATE coupons SET used_count = ?, updated_at = ? WHERE code = ? IF used_count = ?`
	stmtDeleteCoupon   = `DELETE FROM coupons WHERE code = ? IF EXISTS`

	stmtGetCart  = `SELECT items, created_at, updated_at FROM carts WHERE user_id = ?`
	stmtSaveCart = `INSERT INTO carts (user_id, items, created_at, updated_at) VALUES (?, ?, ?, ?)`

	orderColumns = `order_id, user_id, items, subtotal, discount, total_amount, coupon_code, shipping_address, status, created_at, updated_at`

	stmtInsertOrder       = `INSERT INTO orders (` + orderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtInsertOrderByUser = `INSERT INTO orders_by_user (user_id, created_at, order_id) VALUES (?, ?, ?)`
	stmtGetOrder          = `SELECT ` + orderColumns + ` FROM orders WHERE order_id = ?`
	stmtListUserOrders    = `SELECT order_id FROM orders_by_user WHERE user_id = ?`
	stmtCountUserOrders   = `SELECT COUNT(*) FROM orders_by_user WHERE user_id = ?`
	stmtCASOrderStatus    = `UPDATE orders SET status = ?, updated_at = ? WHERE order_id = ? IF status = ?`

	userColumns = `user_id, email, password, name, role, provider, provider_id, created_at, updated_at`

	stmtClaimEmail     = `INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`
	stmtInsertUser     = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmtGetUserByID    = `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	stmtGetUserByEmail = `SELECT user_id FROM users_by_email WHERE email = ?`
	stmtUpdateUser     = `UPDATE users SET name = ?, password = ?, role = ?, provider = ?, provider_id = ?, updated_at = ?
		WHERE user_id = ?`

	stmtRevokeToken  = `INSERT INTO token_blocklist (jti, user_id, revoked_at) VALUES (?, ?, ?) USING TTL ?`
	stmtTokenRevoked = `SELECT jti FROM token_blocklist WHERE jti = ?`
)
