package supabase

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pexl-backend/internal/draft"
	"pexl-backend/internal/models"
)

// Postgres unique_violation.
const pqUniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// --- Shops ---

func (d *DatabaseClient) ListShops() ([]models.Shop, error) {
	rows, err := d.db.Query(`
		SELECT id, name, location, contact, status, price_bw, price_color, owner_mail
		FROM shops
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	defer rows.Close()

	var shops []models.Shop
	for rows.Next() {
		var shop models.Shop
		err := rows.Scan(
			&shop.ID, &shop.Name, &shop.Location, &shop.Contact,
			&shop.Status, &shop.PriceBW, &shop.PriceColor, &shop.OwnerMail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop: %w", err)
		}
		shops = append(shops, shop)
	}

	return shops, nil
}

func (d *DatabaseClient) GetShop(shopID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := d.db.QueryRow(`
		SELECT id, name, location, contact, status, price_bw, price_color, owner_mail
		FROM shops
		WHERE id = $1
	`, shopID).Scan(
		&shop.ID, &shop.Name, &shop.Location, &shop.Contact,
		&shop.Status, &shop.PriceBW, &shop.PriceColor, &shop.OwnerMail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}

	return &shop, nil
}

func (d *DatabaseClient) GetShopByOwner(ownerMail string) (*models.Shop, error) {
	var shop models.Shop
	err := d.db.QueryRow(`
		SELECT id, name, location, contact, status, price_bw, price_color, owner_mail
		FROM shops
		WHERE owner_mail = $1
	`, ownerMail).Scan(
		&shop.ID, &shop.Name, &shop.Location, &shop.Contact,
		&shop.Status, &shop.PriceBW, &shop.PriceColor, &shop.OwnerMail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShopNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop by owner: %w", err)
	}

	return &shop, nil
}

func (d *DatabaseClient) SaveShop(shop *models.Shop) error {
	_, err := d.db.Exec(`
		UPDATE shops
		SET name = $1, location = $2, contact = $3, status = $4, price_bw = $5, price_color = $6
		WHERE id = $7
	`, shop.Name, shop.Location, shop.Contact, shop.Status, shop.PriceBW, shop.PriceColor, shop.ID)
	if err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// --- Roles ---

// GetRole returns the role stored for an email, defaulting to "customer"
// when no row exists.
func (d *DatabaseClient) GetRole(email string) (string, error) {
	var role string
	err := d.db.QueryRow(`SELECT role FROM roles WHERE email = $1`, email).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "customer", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// --- Files ---

func (d *DatabaseClient) CreateFileRecord(file *models.FileRecord) error {
	_, err := d.db.Exec(`
		INSERT INTO files (id, user_id, temp_id, filename, content_type, size, page_count, storage_path, storage_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, file.ID, file.UserID, file.TempID, file.Filename, file.ContentType,
		file.Size, file.PageCount, file.StoragePath, file.StorageURL, file.Status)
	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetFileRecord(fileID uuid.UUID) (*models.FileRecord, error) {
	var file models.FileRecord
	err := d.db.QueryRow(`
		SELECT id, user_id, temp_id, filename, content_type, size, page_count, storage_path, storage_url, status, created_at
		FROM files
		WHERE id = $1
	`, fileID).Scan(
		&file.ID, &file.UserID, &file.TempID, &file.Filename, &file.ContentType,
		&file.Size, &file.PageCount, &file.StoragePath, &file.StorageURL, &file.Status, &file.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file record: %w", err)
	}

	return &file, nil
}

// DeleteFileRecordsForUser removes every file record a user owns. Used by
// the bulk purge alongside the storage sweep.
func (d *DatabaseClient) DeleteFileRecordsForUser(userID uuid.UUID) error {
	_, err := d.db.Exec(`DELETE FROM files WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file records: %w", err)
	}
	return nil
}

func (d *DatabaseClient) DeleteFileRecord(fileID, userID uuid.UUID) error {
	res, err := d.db.Exec(`
		DELETE FROM files
		WHERE id = $1 AND user_id = $2
	`, fileID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFileNotFound
	}
	return nil
}

// --- Drafts ---

// GetDraft loads a user's draft, returning an empty draft when none exists.
func (d *DatabaseClient) GetDraft(userID uuid.UUID) (*draft.Draft, error) {
	var data []byte
	err := d.db.QueryRow(`SELECT data FROM drafts WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return &draft.Draft{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var dr draft.Draft
	if err := json.Unmarshal(data, &dr); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &dr, nil
}

// MutateDraft applies fn to the user's draft under a row lock so concurrent
// uploads and settings toggles cannot lose each other's writes.
func (d *DatabaseClient) MutateDraft(userID uuid.UUID, fn func(*draft.Draft) error) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO drafts (user_id, data)
		VALUES ($1, '{}'::jsonb)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure draft row: %w", err)
	}

	var data []byte
	err = tx.QueryRow(`SELECT data FROM drafts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&data)
	if err != nil {
		return fmt.Errorf("failed to lock draft: %w", err)
	}

	var dr draft.Draft
	if err := json.Unmarshal(data, &dr); err != nil {
		return fmt.Errorf("failed to decode draft: %w", err)
	}

	if err := fn(&dr); err != nil {
		return err
	}

	updated, err := json.Marshal(&dr)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE drafts
		SET data = $1, payment_intent_id = NULLIF($2, ''), updated_at = NOW()
		WHERE user_id = $3
	`, updated, dr.PaymentIntentID, userID)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	return tx.Commit()
}

// FindDraftByIntent locates the draft that created a payment intent. The
// webhook path only knows the processor's intent id.
func (d *DatabaseClient) FindDraftByIntent(intentID string) (uuid.UUID, *draft.Draft, error) {
	var userID uuid.UUID
	var data []byte
	err := d.db.QueryRow(`
		SELECT user_id, data FROM drafts WHERE payment_intent_id = $1
	`, intentID).Scan(&userID, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, nil, fmt.Errorf("no draft for payment intent %s: %w", intentID, ErrOrderNotFound)
	}
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to find draft by intent: %w", err)
	}

	var dr draft.Draft
	if err := json.Unmarshal(data, &dr); err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return userID, &dr, nil
}

func (d *DatabaseClient) ClearDraft(userID uuid.UUID) error {
	_, err := d.db.Exec(`DELETE FROM drafts WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// --- Orders ---

// CreateOrder inserts an active order. A second insert for the same payment
// intent hits the unique index and returns ErrDuplicateOrder, which keeps
// duplicate success callbacks harmless across restarts.
func (d *DatabaseClient) CreateOrder(userID uuid.UUID, payload *models.OrderPayload) (uuid.UUID, error) {
	shopJSON, err := json.Marshal(payload.Shop)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode shop snapshot: %w", err)
	}
	filesJSON, err := json.Marshal(payload.Files)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode order files: %w", err)
	}

	orderID := uuid.New()
	_, err = d.db.Exec(`
		INSERT INTO active_orders (id, user_id, order_ref, shop, owner_mail, files, instructions,
			subtotal, platform_fee, total_price, payment_intent_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), 'active')
	`, orderID, userID, payload.OrderRef, shopJSON, payload.OwnerMail, filesJSON,
		payload.Instructions, payload.Subtotal, payload.PlatformFee, payload.TotalPrice,
		payload.PaymentIntentID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return uuid.Nil, ErrDuplicateOrder
		}
		return uuid.Nil, fmt.Errorf("failed to create order: %w", err)
	}

	return orderID, nil
}

func (d *DatabaseClient) listOrders(table, ownerMail string) ([]models.Order, error) {
	query := fmt.Sprintf(`
		SELECT id, order_ref, shop, owner_mail, files, instructions,
			subtotal, platform_fee, total_price, payment_intent_id, status, created_at, completed_at
		FROM %s
	`, table)
	args := []interface{}{}
	if ownerMail != "" {
		query += ` WHERE owner_mail = $1`
		args = append(args, ownerMail)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID, &order.OrderRef, &order.Shop, &order.OwnerMail, &order.Files,
			&order.Instructions, &order.Subtotal, &order.PlatformFee, &order.TotalPrice,
			&order.PaymentIntentID, &order.Status, &order.CreatedAt, &order.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

func (d *DatabaseClient) ListActiveOrders(ownerMail string) ([]models.Order, error) {
	return d.listOrders("active_orders", ownerMail)
}

func (d *DatabaseClient) ListCompletedOrders(ownerMail string) ([]models.Order, error) {
	return d.listOrders("completed_orders", ownerMail)
}

// OrderExistsForIntent reports whether any order, active or completed, was
// created from the payment intent. The success webhook uses this to tell a
// redelivered callback (draft already cleared) from a genuinely unknown
// intent.
func (d *DatabaseClient) OrderExistsForIntent(intentID string) (bool, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM active_orders WHERE payment_intent_id = $1)
		     + (SELECT COUNT(*) FROM completed_orders WHERE payment_intent_id = $1)
	`, intentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check order for intent: %w", err)
	}
	return count > 0, nil
}

func (d *DatabaseClient) OrderExists(orderRef string) (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM active_orders WHERE order_ref = $1`, orderRef).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check order: %w", err)
	}
	return count > 0, nil
}

// CompleteOrder moves an order from active_orders to completed_orders in one
// transaction, so a crash can neither duplicate nor lose it. A second
// completion of the same order fails with ErrOrderNotFound.
func (d *DatabaseClient) CompleteOrder(orderID uuid.UUID) (uuid.UUID, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var order models.Order
	var userID uuid.UUID
	err = tx.QueryRow(`
		SELECT id, user_id, order_ref, shop, owner_mail, files, instructions,
			subtotal, platform_fee, total_price, payment_intent_id, created_at
		FROM active_orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(
		&order.ID, &userID, &order.OrderRef, &order.Shop, &order.OwnerMail,
		&order.Files, &order.Instructions, &order.Subtotal, &order.PlatformFee,
		&order.TotalPrice, &order.PaymentIntentID, &order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrOrderNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load active order: %w", err)
	}

	completedID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO completed_orders (id, user_id, order_ref, shop, owner_mail, files, instructions,
			subtotal, platform_fee, total_price, payment_intent_id, status, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'completed', $12, NOW())
	`, completedID, userID, order.OrderRef, []byte(order.Shop), order.OwnerMail, []byte(order.Files),
		order.Instructions, order.Subtotal, order.PlatformFee, order.TotalPrice,
		order.PaymentIntentID, order.CreatedAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert completed order: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM active_orders WHERE id = $1`, orderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to remove active order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return uuid.Nil, ErrOrderNotFound
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit order completion: %w", err)
	}

	return completedID, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}
