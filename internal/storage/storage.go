// internal/storage/storage.go
package storage

import (
	"cashback-optimizer/internal/domain"
	"context"
)

// Every method is scoped to ownerID. A row owned by someone else behaves exactly
// like a missing row and yields domain.ErrNotFound.

type BankStorage interface {
	GetBank(ctx context.Context, ownerID, bankID int64) (domain.Bank, error)
	// LockBank resolves ownership and, inside a transaction, holds off concurrent
	// writers under the bank until the transaction ends.
	LockBank(ctx context.Context, ownerID, bankID int64) error
	ListBanks(ctx context.Context, ownerID int64) ([]domain.Bank, error)
	InsertBank(ctx context.Context, ownerID int64, name string) (domain.Bank, error)
	UpdateBank(ctx context.Context, ownerID int64, bank domain.Bank) (domain.Bank, error)
	DeleteBank(ctx context.Context, ownerID, bankID int64) error
}

type CardStorage interface {
	GetCard(ctx context.Context, ownerID, cardID int64) (domain.Card, error)
	LockCard(ctx context.Context, ownerID, cardID int64) error
	ListCardsByBank(ctx context.Context, ownerID, bankID int64) ([]domain.Card, error)
	ListCards(ctx context.Context, ownerID int64) ([]domain.Card, error)
	// InsertCard fails with domain.ErrNotFound when card.BankID is not one of the owner's banks.
	InsertCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error)
	UpdateCard(ctx context.Context, ownerID int64, card domain.Card) (domain.Card, error)
	DeleteCard(ctx context.Context, ownerID, cardID int64) error
	DeleteCardsByBank(ctx context.Context, ownerID, bankID int64) (int64, error)
}

type CategoryStorage interface {
	GetCategory(ctx context.Context, ownerID, categoryID int64) (domain.CashbackCategory, error)
	ListCategories(ctx context.Context, ownerID int64, filter domain.CategoryFilter) ([]domain.CashbackCategory, error)
	// InsertCategory fails with domain.ErrNotFound when cat.CardID is not one of the owner's cards.
	InsertCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error)
	UpdateCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error)
	DeleteCategory(ctx context.Context, ownerID, categoryID int64) error
	DeleteCategoriesByCard(ctx context.Context, ownerID, cardID int64) (int64, error)
	DeleteCategoriesByBank(ctx context.Context, ownerID, bankID int64) (int64, error)
	// ListOffers returns the owner's categories for the period joined with card and bank names.
	ListOffers(ctx context.Context, ownerID int64, period domain.Period) ([]domain.Offer, error)
}

type Repository interface {
	BankStorage
	CardStorage
	CategoryStorage
}

// Store is a Repository that can run a unit of work atomically.
// Everything fn does through the Repository it receives commits or rolls back together.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Ping(ctx context.Context) error
}
