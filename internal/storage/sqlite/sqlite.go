// internal/storage/sqlite/sqlite.go
package sqlite

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/storage"
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Storage is the embedded single-file backend. A single connection serializes
// writers, so a cascade is never observed half applied.
type Storage struct {
	*repo
	db *sql.DB
}

var _ storage.Store = (*Storage)(nil)

func Open(path string) (*Storage, error) {
	if err := RunMigrations(path); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Storage{repo: &repo{q: db}, db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, r storage.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &repo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}

func notFoundIfNone(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

type repo struct {
	q dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

// === BankStorage ===

func (r *repo) GetBank(ctx context.Context, ownerID, bankID int64) (domain.Bank, error) {
	b := domain.Bank{OwnerID: ownerID}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name FROM banks WHERE id = ? AND owner_id = ?
	`, bankID, ownerID).Scan(&b.ID, &b.Name)
	if err != nil {
		return domain.Bank{}, wrapErr("get bank", err)
	}
	return b, nil
}

// LockBank only resolves ownership: the single connection already serializes writers.
func (r *repo) LockBank(ctx context.Context, ownerID, bankID int64) error {
	_, err := r.GetBank(ctx, ownerID, bankID)
	return err
}

func (r *repo) ListBanks(ctx context.Context, ownerID int64) ([]domain.Bank, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name FROM banks WHERE owner_id = ? ORDER BY name, id
	`, ownerID)
	if err != nil {
		return nil, wrapErr("list banks", err)
	}
	defer rows.Close()

	banks := []domain.Bank{}
	for rows.Next() {
		b := domain.Bank{OwnerID: ownerID}
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, wrapErr("scan bank", err)
		}
		banks = append(banks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list banks", err)
	}
	return banks, nil
}

func (r *repo) InsertBank(ctx context.Context, ownerID int64, name string) (domain.Bank, error) {
	b := domain.Bank{OwnerID: ownerID, Name: name}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO banks (owner_id, name) VALUES (?, ?) RETURNING id
	`, ownerID, name).Scan(&b.ID)
	if err != nil {
		return domain.Bank{}, wrapErr("insert bank", err)
	}
	return b, nil
}

func (r *repo) UpdateBank(ctx context.Context, ownerID int64, bank domain.Bank) (domain.Bank, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE banks SET name = ? WHERE id = ? AND owner_id = ?
	`, bank.Name, bank.ID, ownerID)
	if err != nil {
		return domain.Bank{}, wrapErr("update bank", err)
	}
	if err := notFoundIfNone("update bank", res); err != nil {
		return domain.Bank{}, err
	}
	bank.OwnerID = ownerID
	return bank, nil
}

func (r *repo) DeleteBank(ctx context.Context, ownerID, bankID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM banks WHERE id = ? AND owner_id = ?`, bankID, ownerID)
	if err != nil {
		return wrapErr("delete bank", err)
	}
	return notFoundIfNone("delete bank", res)
}

// === CardStorage ===

const cardColumns = `id, bank_id, name, card_type`

func scanCard(row rowScanner, ownerID int64) (domain.Card, error) {
	c := domain.Card{OwnerID: ownerID}
	err := row.Scan(&c.ID, &c.BankID, &c.Name, &c.CardType)
	return c, err
}

func (r *repo) GetCard(ctx context.Context, ownerID, cardID int64) (domain.Card, error) {
	c, err := scanCard(r.q.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE id = ? AND owner_id = ?
	`, cardID, ownerID), ownerID)
	if err != nil {
		return domain.Card{}, wrapErr("get card", err)
	}
	return c, nil
}

func (r *repo) LockCard(ctx context.Context, ownerID, cardID int64) error {
	_, err := r.GetCard(ctx, ownerID, cardID)
	return err
}

func (r *repo) listCards(ctx context.Context, ownerID int64, query string, args ...any) ([]domain.Card, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list cards", err)
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		c, err := scanCard(rows, ownerID)
		if err != nil {
			return nil, wrapErr("scan card", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list cards", err)
	}
	return cards, nil
}

func (r *repo) ListCardsByBank(ctx context.Context, ownerID, bankID int64) ([]domain.Card, error) {
	return r.listCards(ctx, ownerID, `
		SELECT `+cardColumns+` FROM cards WHERE owner_id = ? AND bank_id = ? ORDER BY name, id
	`, ownerID, bankID)
}

func (r *repo) ListCards(ctx context.Context, ownerID int64) ([]domain.Card, error) {
	return r.listCards(ctx, ownerID, `
		SELECT `+cardColumns+` FROM cards WHERE owner_id = ? ORDER BY name, id
	`, ownerID)
}

func (r *repo) InsertCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error) {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO cards (owner_id, bank_id, name, card_type)
		SELECT ?, b.id, ?, ? FROM banks b WHERE b.id = ? AND b.owner_id = ?
		RETURNING id
	`, ownerID, card.Name, card.CardType, card.BankID, ownerID).Scan(&card.ID)
	if err != nil {
		return domain.Card{}, wrapErr("insert card", err)
	}
	card.OwnerID = ownerID
	return card, nil
}

func (r *repo) UpdateCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error) {
	updated, err := scanCard(r.q.QueryRowContext(ctx, `
		UPDATE cards SET name = ?, card_type = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+cardColumns+`
	`, card.Name, card.CardType, card.ID, ownerID), ownerID)
	if err != nil {
		return domain.Card{}, wrapErr("update card", err)
	}
	return updated, nil
}

func (r *repo) DeleteCard(ctx context.Context, ownerID, cardID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cards WHERE id = ? AND owner_id = ?`, cardID, ownerID)
	if err != nil {
		return wrapErr("delete card", err)
	}
	return notFoundIfNone("delete card", res)
}

func (r *repo) DeleteCardsByBank(ctx context.Context, ownerID, bankID int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cards WHERE bank_id = ? AND owner_id = ?`, bankID, ownerID)
	if err != nil {
		return 0, wrapErr("delete cards by bank", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr("delete cards by bank", err)
	}
	return n, nil
}

// === CategoryStorage ===

const categoryColumns = `id, card_id, category_name, cashback_percent, month, year, icon`

func scanCategory(row rowScanner, ownerID int64, extra ...any) (domain.CashbackCategory, error) {
	c := domain.CashbackCategory{OwnerID: ownerID}
	var percent string
	dest := append([]any{&c.ID, &c.CardID, &c.CategoryName, &percent, &c.Month, &c.Year, &c.Icon}, extra...)
	if err := row.Scan(dest...); err != nil {
		return domain.CashbackCategory{}, err
	}
	p, err := storage.ParsePercent(percent)
	if err != nil {
		return domain.CashbackCategory{}, err
	}
	c.CashbackPercent = p
	return c, nil
}

func (r *repo) GetCategory(ctx context.Context, ownerID, categoryID int64) (domain.CashbackCategory, error) {
	c, err := scanCategory(r.q.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM cashback_categories WHERE id = ? AND owner_id = ?
	`, categoryID, ownerID), ownerID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("get category", err)
	}
	return c, nil
}

func (r *repo) ListCategories(ctx context.Context, ownerID int64, filter domain.CategoryFilter) ([]domain.CashbackCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM cashback_categories WHERE owner_id = ?`
	args := []any{ownerID}
	if filter.CardID != nil {
		query += " AND card_id = ?"
		args = append(args, *filter.CardID)
	}
	if filter.Period != nil {
		query += " AND month = ? AND year = ?"
		args = append(args, filter.Period.Month, filter.Period.Year)
	}
	query += " ORDER BY year, month, card_id, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	defer rows.Close()

	cats := []domain.CashbackCategory{}
	for rows.Next() {
		c, err := scanCategory(rows, ownerID)
		if err != nil {
			return nil, wrapErr("scan category", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list categories", err)
	}
	return cats, nil
}

func (r *repo) InsertCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error) {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO cashback_categories (owner_id, card_id, category_name, cashback_percent, month, year, icon)
		SELECT ?, c.id, ?, ?, ?, ?, ? FROM cards c WHERE c.id = ? AND c.owner_id = ?
		RETURNING id
	`, ownerID, cat.CategoryName, cat.CashbackPercent.String(), cat.Month, cat.Year, cat.Icon, cat.CardID, ownerID).Scan(&cat.ID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("insert category", err)
	}
	cat.OwnerID = ownerID
	return cat, nil
}

func (r *repo) UpdateCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error) {
	updated, err := scanCategory(r.q.QueryRowContext(ctx, `
		UPDATE cashback_categories
		SET category_name = ?, cashback_percent = ?, icon = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+categoryColumns+`
	`, cat.CategoryName, cat.CashbackPercent.String(), cat.Icon, cat.ID, ownerID), ownerID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("update category", err)
	}
	return updated, nil
}

func (r *repo) DeleteCategory(ctx context.Context, ownerID, categoryID int64) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM cashback_categories WHERE id = ? AND owner_id = ?
	`, categoryID, ownerID)
	if err != nil {
		return wrapErr("delete category", err)
	}
	return notFoundIfNone("delete category", res)
}

func (r *repo) deleteCategories(ctx context.Context, op, query string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return n, nil
}

func (r *repo) DeleteCategoriesByCard(ctx context.Context, ownerID, cardID int64) (int64, error) {
	return r.deleteCategories(ctx, "delete categories by card", `
		DELETE FROM cashback_categories WHERE card_id = ? AND owner_id = ?
	`, cardID, ownerID)
}

func (r *repo) DeleteCategoriesByBank(ctx context.Context, ownerID, bankID int64) (int64, error) {
	return r.deleteCategories(ctx, "delete categories by bank", `
		DELETE FROM cashback_categories
		WHERE owner_id = ?
		AND card_id IN (SELECT id FROM cards WHERE bank_id = ? AND owner_id = ?)
	`, ownerID, bankID, ownerID)
}

func (r *repo) ListOffers(ctx context.Context, ownerID int64, period domain.Period) ([]domain.Offer, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT
			cc.id, cc.card_id, cc.category_name, cc.cashback_percent, cc.month, cc.year, cc.icon,
			c.name, b.id, b.name
		FROM cashback_categories cc
		JOIN cards c ON c.id = cc.card_id
		JOIN banks b ON b.id = c.bank_id
		WHERE cc.owner_id = ? AND b.owner_id = ? AND cc.month = ? AND cc.year = ?
		ORDER BY cc.id
	`, ownerID, ownerID, period.Month, period.Year)
	if err != nil {
		return nil, wrapErr("list offers", err)
	}
	defer rows.Close()

	offers := []domain.Offer{}
	for rows.Next() {
		var o domain.Offer
		cat, err := scanCategory(rows, ownerID, &o.CardName, &o.BankID, &o.BankName)
		if err != nil {
			return nil, wrapErr("scan offer", err)
		}
		o.Category = cat
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list offers", err)
	}
	return offers, nil
}
