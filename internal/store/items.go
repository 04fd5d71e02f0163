package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

const itemColumns = `id, user_id, name, category, status, frequency, price, note, need_by,
	image IS NOT NULL, created_at, updated_at`

// ItemFilter narrows ListItems. Empty fields do not constrain.
type ItemFilter struct {
	Status    string
	Category  string
	Frequency string
	Search    string
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item row and returns it with its owner's ID.
func scanItem(s rowScanner) (*model.Item, int64, error) {
	var (
		item   model.Item
		userID int64
		price  sql.NullFloat64
		note   sql.NullString
		needBy sql.NullString
	)
	err := s.Scan(&item.ID, &userID, &item.Name, &item.Category, &item.Status, &item.Frequency,
		&price, &note, &needBy, &item.HasImage, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, 0, err
	}
	if price.Valid {
		item.Price = &price.Float64
	}
	item.Note = note.String
	if needBy.Valid {
		item.NeedBy = &needBy.String
	}
	return &item, userID, nil
}

// CreateItem stores a normalized, validated draft for userID.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, d model.Draft) (*model.Item, error) {
	id, err := insertItem(ctx, db, userID, d)
	if err != nil {
		return nil, err
	}
	return GetItem(ctx, db, userID, id)
}

// CreateItems stores all drafts in one transaction. Either every draft is stored or none is.
func CreateItems(ctx context.Context, db *sql.DB, userID int64, drafts []model.Draft) ([]model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, 0, len(drafts))
	for _, d := range drafts {
		id, err := insertItem(ctx, tx, userID, d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing items: %w", err)
	}

	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		item, err := GetItem(ctx, db, userID, id)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertItem(ctx context.Context, db execer, userID int64, d model.Draft) (int64, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (user_id, name, category, status, frequency, price, note, need_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, d.Name, d.Category, d.Status, d.Frequency, d.Price, nullString(d.Note), d.NeedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// GetItem returns an item owned by userID.
// Returns ErrNotFound if it does not exist and ErrNotOwner if another user owns it.
func GetItem(ctx context.Context, db *sql.DB, userID, id int64) (*model.Item, error) {
	item, owner, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	if owner != userID {
		return nil, ErrNotOwner
	}
	return item, nil
}

// ListItems returns userID's items, newest first.
func ListItems(ctx context.Context, db *sql.DB, userID int64, f ItemFilter) ([]model.Item, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Frequency != "" {
		where = append(where, "frequency = ?")
		args = append(args, f.Frequency)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(name LIKE ? ESCAPE '\' OR note LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC, id DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, _, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ReplaceItem overwrites every editable field of an item with d.
func ReplaceItem(ctx context.Context, db *sql.DB, userID, id int64, d model.Draft) (*model.Item, error) {
	if _, err := GetItem(ctx, db, userID, id); err != nil {
		return nil, err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, status = ?, frequency = ?, price = ?, note = ?,
		        need_by = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		d.Name, d.Category, d.Status, d.Frequency, d.Price, nullString(d.Note), d.NeedBy, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return GetItem(ctx, db, userID, id)
}

// SetItemStatus changes only the stock status of an item.
func SetItemStatus(ctx context.Context, db *sql.DB, userID, id int64, status string) (*model.Item, error) {
	if _, err := GetItem(ctx, db, userID, id); err != nil {
		return nil, err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		status, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item status: %w", err)
	}
	return GetItem(ctx, db, userID, id)
}

// DeleteItem permanently removes an item.
func DeleteItem(ctx context.Context, db *sql.DB, userID, id int64) error {
	if _, err := GetItem(ctx, db, userID, id); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// DeleteItems removes the given items owned by userID and returns how many were deleted.
// IDs that do not exist or belong to another user are skipped.
func DeleteItems(ctx context.Context, db *sql.DB, userID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM items WHERE user_id = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted items: %w", err)
	}
	return int(n), nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, userID, id int64, image []byte, mime string) (*model.Item, error) {
	if _, err := GetItem(ctx, db, userID, id); err != nil {
		return nil, err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		image, mime, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("setting item image: %w", err)
	}
	return GetItem(ctx, db, userID, id)
}

// GetItemImage returns an item's image data and MIME type. Data is nil if no image is set.
func GetItemImage(ctx context.Context, db *sql.DB, userID, id int64) ([]byte, string, error) {
	if _, err := GetItem(ctx, db, userID, id); err != nil {
		return nil, "", err
	}

	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
