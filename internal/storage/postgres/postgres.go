// internal/storage/postgres/postgres.go
package postgres

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	*repo
	db *pgxpool.Pool
}

var _ storage.Store = (*Storage)(nil)

func NewStorage(db *pgxpool.Pool) *Storage {
	return &Storage{repo: &repo{q: db}, db: db}
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// InTx runs fn inside a single repeatable-read transaction, so every read in fn
// sees one snapshot. Any error from fn rolls everything back.
func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context, r storage.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &repo{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

// checkFields сопоставляет CHECK-ограничения схемы с полями запроса.
var checkFields = map[string]string{
	"banks_name_check":                           "name",
	"cards_name_check":                           "name",
	"cashback_categories_category_name_check":    "category_name",
	"cashback_categories_cashback_percent_check": "cashback_percent",
	"cashback_categories_month_check":            "month",
	"cashback_categories_year_check":             "year",
}

// wrapErr переводит ошибки драйвера в доменные.
func wrapErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation: родитель исчез параллельно
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case "23514": // check_violation
			if field, ok := checkFields[pgErr.ConstraintName]; ok {
				return fmt.Errorf("%s: %w", op, &domain.ValidationError{Field: field, Reason: "is invalid"})
			}
			return fmt.Errorf("%s: %w: %s", op, domain.ErrValidation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}

type repo struct {
	q querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

// === BankStorage ===

func (r *repo) GetBank(ctx context.Context, ownerID, bankID int64) (domain.Bank, error) {
	b := domain.Bank{OwnerID: ownerID}
	err := r.q.QueryRow(ctx, `
		SELECT id, name FROM banks WHERE id = $1 AND owner_id = $2
	`, bankID, ownerID).Scan(&b.ID, &b.Name)
	if err != nil {
		return domain.Bank{}, wrapErr("get bank", err)
	}
	return b, nil
}

func (r *repo) LockBank(ctx context.Context, ownerID, bankID int64) error {
	var id int64
	err := r.q.QueryRow(ctx, `
		SELECT id FROM banks WHERE id = $1 AND owner_id = $2 FOR UPDATE
	`, bankID, ownerID).Scan(&id)
	if err != nil {
		return wrapErr("lock bank", err)
	}
	return nil
}

func (r *repo) ListBanks(ctx context.Context, ownerID int64) ([]domain.Bank, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name FROM banks WHERE owner_id = $1 ORDER BY name, id
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
	err := r.q.QueryRow(ctx, `
		INSERT INTO banks (owner_id, name) VALUES ($1, $2) RETURNING id
	`, ownerID, name).Scan(&b.ID)
	if err != nil {
		return domain.Bank{}, wrapErr("insert bank", err)
	}
	slog.Debug("bank inserted", "user_id", ownerID, "bank_id", b.ID)
	return b, nil
}

func (r *repo) UpdateBank(ctx context.Context, ownerID int64, bank domain.Bank) (domain.Bank, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE banks SET name = $3 WHERE id = $1 AND owner_id = $2
	`, bank.ID, ownerID, bank.Name)
	if err != nil {
		return domain.Bank{}, wrapErr("update bank", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Bank{}, fmt.Errorf("update bank %d: %w", bank.ID, domain.ErrNotFound)
	}
	bank.OwnerID = ownerID
	return bank, nil
}

func (r *repo) DeleteBank(ctx context.Context, ownerID, bankID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM banks WHERE id = $1 AND owner_id = $2`, bankID, ownerID)
	if err != nil {
		return wrapErr("delete bank", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete bank %d: %w", bankID, domain.ErrNotFound)
	}
	return nil
}

// === CardStorage ===

const cardColumns = `id, bank_id, name, card_type`

func scanCard(row rowScanner, ownerID int64) (domain.Card, error) {
	c := domain.Card{OwnerID: ownerID}
	err := row.Scan(&c.ID, &c.BankID, &c.Name, &c.CardType)
	return c, err
}

func (r *repo) GetCard(ctx context.Context, ownerID, cardID int64) (domain.Card, error) {
	c, err := scanCard(r.q.QueryRow(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE id = $1 AND owner_id = $2
	`, cardID, ownerID), ownerID)
	if err != nil {
		return domain.Card{}, wrapErr("get card", err)
	}
	return c, nil
}

func (r *repo) LockCard(ctx context.Context, ownerID, cardID int64) error {
	var id int64
	err := r.q.QueryRow(ctx, `
		SELECT id FROM cards WHERE id = $1 AND owner_id = $2 FOR UPDATE
	`, cardID, ownerID).Scan(&id)
	if err != nil {
		return wrapErr("lock card", err)
	}
	return nil
}

func (r *repo) listCards(ctx context.Context, ownerID int64, query string, args ...any) ([]domain.Card, error) {
	rows, err := r.q.Query(ctx, query, args...)
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
		SELECT `+cardColumns+` FROM cards WHERE owner_id = $1 AND bank_id = $2 ORDER BY name, id
	`, ownerID, bankID)
}

func (r *repo) ListCards(ctx context.Context, ownerID int64) ([]domain.Card, error) {
	return r.listCards(ctx, ownerID, `
		SELECT `+cardColumns+` FROM cards WHERE owner_id = $1 ORDER BY name, id
	`, ownerID)
}

func (r *repo) InsertCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error) {
	// вставка только если банк принадлежит владельцу
	err := r.q.QueryRow(ctx, `
		INSERT INTO cards (owner_id, bank_id, name, card_type)
		SELECT $1, b.id, $3, $4 FROM banks b WHERE b.id = $2 AND b.owner_id = $1
		RETURNING id
	`, ownerID, card.BankID, card.Name, card.CardType).Scan(&card.ID)
	if err != nil {
		return domain.Card{}, wrapErr("insert card", err)
	}
	card.OwnerID = ownerID
	return card, nil
}

func (r *repo) UpdateCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error) {
	updated, err := scanCard(r.q.QueryRow(ctx, `
		UPDATE cards SET name = $3, card_type = $4
		WHERE id = $1 AND owner_id = $2
		RETURNING `+cardColumns+`
	`, card.ID, ownerID, card.Name, card.CardType), ownerID)
	if err != nil {
		return domain.Card{}, wrapErr("update card", err)
	}
	return updated, nil
}

func (r *repo) DeleteCard(ctx context.Context, ownerID, cardID int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM cards WHERE id = $1 AND owner_id = $2`, cardID, ownerID)
	if err != nil {
		return wrapErr("delete card", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete card %d: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

func (r *repo) DeleteCardsByBank(ctx context.Context, ownerID, bankID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM cards WHERE bank_id = $1 AND owner_id = $2`, bankID, ownerID)
	if err != nil {
		return 0, wrapErr("delete cards by bank", err)
	}
	return tag.RowsAffected(), nil
}

// === CategoryStorage ===

const categoryColumns = `id, card_id, category_name, cashback_percent::text, month, year, icon`

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
	c, err := scanCategory(r.q.QueryRow(ctx, `
		SELECT `+categoryColumns+` FROM cashback_categories WHERE id = $1 AND owner_id = $2
	`, categoryID, ownerID), ownerID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("get category", err)
	}
	return c, nil
}

func (r *repo) ListCategories(ctx context.Context, ownerID int64, filter domain.CategoryFilter) ([]domain.CashbackCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM cashback_categories WHERE owner_id = $1`
	args := []any{ownerID}
	if filter.CardID != nil {
		args = append(args, *filter.CardID)
		query += fmt.Sprintf(" AND card_id = $%d", len(args))
	}
	if filter.Period != nil {
		args = append(args, filter.Period.Month, filter.Period.Year)
		query += fmt.Sprintf(" AND month = $%d AND year = $%d", len(args)-1, len(args))
	}
	query += " ORDER BY year, month, card_id, id"

	rows, err := r.q.Query(ctx, query, args...)
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
	err := r.q.QueryRow(ctx, `
		INSERT INTO cashback_categories (owner_id, card_id, category_name, cashback_percent, month, year, icon)
		SELECT $1, c.id, $3, $4::text::numeric, $5, $6, $7 FROM cards c WHERE c.id = $2 AND c.owner_id = $1
		RETURNING id
	`, ownerID, cat.CardID, cat.CategoryName, cat.CashbackPercent.String(), cat.Month, cat.Year, cat.Icon).Scan(&cat.ID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("insert category", err)
	}
	cat.OwnerID = ownerID
	return cat, nil
}

func (r *repo) UpdateCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error) {
	updated, err := scanCategory(r.q.QueryRow(ctx, `
		UPDATE cashback_categories
		SET category_name = $3, cashback_percent = $4::text::numeric, icon = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING `+categoryColumns+`
	`, cat.ID, ownerID, cat.CategoryName, cat.CashbackPercent.String(), cat.Icon), ownerID)
	if err != nil {
		return domain.CashbackCategory{}, wrapErr("update category", err)
	}
	return updated, nil
}

func (r *repo) DeleteCategory(ctx context.Context, ownerID, categoryID int64) error {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM cashback_categories WHERE id = $1 AND owner_id = $2
	`, categoryID, ownerID)
	if err != nil {
		return wrapErr("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete category %d: %w", categoryID, domain.ErrNotFound)
	}
	return nil
}

func (r *repo) DeleteCategoriesByCard(ctx context.Context, ownerID, cardID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM cashback_categories WHERE card_id = $1 AND owner_id = $2
	`, cardID, ownerID)
	if err != nil {
		return 0, wrapErr("delete categories by card", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repo) DeleteCategoriesByBank(ctx context.Context, ownerID, bankID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM cashback_categories
		USING cards c
		WHERE cashback_categories.card_id = c.id
		AND c.bank_id = $1
		AND c.owner_id = $2
		AND cashback_categories.owner_id = $2
	`, bankID, ownerID)
	if err != nil {
		return 0, wrapErr("delete categories by bank", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repo) ListOffers(ctx context.Context, ownerID int64, period domain.Period) ([]domain.Offer, error) {
	rows, err := r.q.Query(ctx, `
		SELECT
			cc.id, cc.card_id, cc.category_name, cc.cashback_percent::text, cc.month, cc.year, cc.icon,
			c.name, b.id, b.name
		FROM cashback_categories cc
		JOIN cards c ON c.id = cc.card_id
		JOIN banks b ON b.id = c.bank_id
		WHERE cc.owner_id = $1 AND b.owner_id = $1 AND cc.month = $2 AND cc.year = $3
		ORDER BY cc.id
	`, ownerID, period.Month, period.Year)
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
