// internal/service/banks.go
package service

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/storage"
	"context"
	"fmt"
	"log/slog"
)

func (s *Service) CreateBank(ctx context.Context, ownerID int64, in BankInput) (domain.Bank, error) {
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.Bank{}, err
	}

	bank, err := s.store.InsertBank(ctx, ownerID, in.Name)
	s.metrics.Mutation("bank", "create", err)
	if err != nil {
		return domain.Bank{}, fmt.Errorf("create bank: %w", err)
	}

	slog.Info("Bank created", "user_id", ownerID, "bank_id", bank.ID)
	return bank, nil
}

func (s *Service) UpdateBank(ctx context.Context, ownerID, bankID int64, in BankInput) (domain.Bank, error) {
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.Bank{}, err
	}

	bank, err := s.store.UpdateBank(ctx, ownerID, domain.Bank{ID: bankID, Name: in.Name})
	s.metrics.Mutation("bank", "update", err)
	if err != nil {
		return domain.Bank{}, fmt.Errorf("update bank: %w", err)
	}
	return bank, nil
}

// DeleteBank removes the bank together with all of its cards and their categories.
// Either the whole subtree disappears or nothing does.
func (s *Service) DeleteBank(ctx context.Context, ownerID, bankID int64) error {
	var cards, cats int64
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		if err := r.LockBank(ctx, ownerID, bankID); err != nil {
			return err
		}

		var err error
		// сначала листья, потом родители
		if cats, err = r.DeleteCategoriesByBank(ctx, ownerID, bankID); err != nil {
			return err
		}
		if cards, err = r.DeleteCardsByBank(ctx, ownerID, bankID); err != nil {
			return err
		}
		return r.DeleteBank(ctx, ownerID, bankID)
	})
	s.metrics.Mutation("bank", "delete", err)
	if err != nil {
		return fmt.Errorf("delete bank %d: %w", bankID, err)
	}

	slog.Info("Bank deleted", "user_id", ownerID, "bank_id", bankID, "cards", cards, "categories", cats)
	return nil
}

// GetBank returns one bank with its cards and all of their categories.
func (s *Service) GetBank(ctx context.Context, ownerID, bankID int64) (domain.BankWithCards, error) {
	var tree domain.BankWithCards
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		bank, err := r.GetBank(ctx, ownerID, bankID)
		if err != nil {
			return err
		}
		trees, err := buildTrees(ctx, r, ownerID, []domain.Bank{bank}, nil)
		if err != nil {
			return err
		}
		tree = trees[0]
		return nil
	})
	if err != nil {
		return domain.BankWithCards{}, fmt.Errorf("get bank %d: %w", bankID, err)
	}
	return tree, nil
}

// ListBanks returns every bank of the owner as a tree. A non-nil period keeps
// only the categories active in it; cards and banks are listed regardless.
func (s *Service) ListBanks(ctx context.Context, ownerID int64, period *domain.Period) ([]domain.BankWithCards, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}

	var trees []domain.BankWithCards
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		banks, err := r.ListBanks(ctx, ownerID)
		if err != nil {
			return err
		}
		trees, err = buildTrees(ctx, r, ownerID, banks, period)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	return trees, nil
}

// buildTrees reads all cards and categories once and hangs them under banks.
func buildTrees(ctx context.Context, r storage.Repository, ownerID int64, banks []domain.Bank, period *domain.Period) ([]domain.BankWithCards, error) {
	cards, err := r.ListCards(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	cats, err := r.ListCategories(ctx, ownerID, domain.CategoryFilter{Period: period})
	if err != nil {
		return nil, err
	}

	catsByCard := make(map[int64][]domain.CashbackCategory)
	for _, c := range cats {
		catsByCard[c.CardID] = append(catsByCard[c.CardID], c)
	}
	cardsByBank := make(map[int64][]domain.CardWithCategories)
	for _, c := range cards {
		withCats := domain.CardWithCategories{Card: c, Categories: catsByCard[c.ID]}
		if withCats.Categories == nil {
			withCats.Categories = []domain.CashbackCategory{}
		}
		cardsByBank[c.BankID] = append(cardsByBank[c.BankID], withCats)
	}

	trees := make([]domain.BankWithCards, 0, len(banks))
	for _, b := range banks {
		tree := domain.BankWithCards{Bank: b, Cards: cardsByBank[b.ID]}
		if tree.Cards == nil {
			tree.Cards = []domain.CardWithCategories{}
		}
		trees = append(trees, tree)
	}
	return trees, nil
}
