// internal/service/cards.go
package service

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/storage"
	"context"
	"fmt"
	"log/slog"
)

func (s *Service) CreateCard(ctx context.Context, ownerID, bankID int64, in CardInput) (domain.Card, error) {
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.Card{}, err
	}

	card, err := s.store.InsertCard(ctx, ownerID, domain.Card{
		BankID:   bankID,
		Name:     in.Name,
		CardType: in.CardType,
	})
	s.metrics.Mutation("card", "create", err)
	if err != nil {
		return domain.Card{}, fmt.Errorf("create card in bank %d: %w", bankID, err)
	}

	slog.Info("Card created", "user_id", ownerID, "bank_id", bankID, "card_id", card.ID)
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, ownerID, cardID int64, in CardInput) (domain.Card, error) {
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.Card{}, err
	}

	card, err := s.store.UpdateCard(ctx, ownerID, domain.Card{ID: cardID, Name: in.Name, CardType: in.CardType})
	s.metrics.Mutation("card", "update", err)
	if err != nil {
		return domain.Card{}, fmt.Errorf("update card %d: %w", cardID, err)
	}
	return card, nil
}

// DeleteCard removes the card and every category recorded for it in one transaction.
func (s *Service) DeleteCard(ctx context.Context, ownerID, cardID int64) error {
	var cats int64
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		if err := r.LockCard(ctx, ownerID, cardID); err != nil {
			return err
		}
		var err error
		if cats, err = r.DeleteCategoriesByCard(ctx, ownerID, cardID); err != nil {
			return err
		}
		return r.DeleteCard(ctx, ownerID, cardID)
	})
	s.metrics.Mutation("card", "delete", err)
	if err != nil {
		return fmt.Errorf("delete card %d: %w", cardID, err)
	}

	slog.Info("Card deleted", "user_id", ownerID, "card_id", cardID, "categories", cats)
	return nil
}

// ListCards returns the cards of one bank. A foreign bank is reported as not found
// rather than as an empty list.
func (s *Service) ListCards(ctx context.Context, ownerID, bankID int64) ([]domain.Card, error) {
	var cards []domain.Card
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		if _, err := r.GetBank(ctx, ownerID, bankID); err != nil {
			return err
		}
		var err error
		cards, err = r.ListCardsByBank(ctx, ownerID, bankID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list cards of bank %d: %w", bankID, err)
	}
	return cards, nil
}
