// internal/bot/commands.go
package bot

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/service"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

func (b *Bot) banks(ctx context.Context, userID int64, period domain.Period) (string, error) {
	banks, err := b.svc.ListBanks(ctx, userID, &period)
	if err != nil {
		return "", err
	}
	if len(banks) == 0 {
		return "📭 Банков пока нет. Добавь: /bank\\_add Сбер", nil
	}

	lines := []string{fmt.Sprintf("🏦 *Кэшбэк за %s*", period)}
	for _, bank := range banks {
		lines = append(lines, fmt.Sprintf("\n*%s* (id %d)", escape(bank.Name), bank.ID))
		if len(bank.Cards) == 0 {
			lines = append(lines, "  нет карт")
		}
		for _, card := range bank.Cards {
			lines = append(lines, fmt.Sprintf("  💳 %s (id %d)", escape(card.Name), card.ID))
			for _, cat := range card.Categories {
				lines = append(lines, fmt.Sprintf("    - %s: %s%% (id %d)",
					escape(cat.CategoryName), cat.CashbackPercent.String(), cat.ID))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) categories(ctx context.Context, userID int64, period domain.Period) (string, error) {
	names, err := b.svc.CategoryNames(ctx, userID, period)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return fmt.Sprintf("📭 Нет категорий за %s", period), nil
	}
	for i, n := range names {
		names[i] = "- " + escape(n)
	}
	return fmt.Sprintf("🗂 *Категории за %s*\n%s", period, strings.Join(names, "\n")), nil
}

func (b *Bot) addBank(ctx context.Context, userID int64, args string) (string, error) {
	if args == "" {
		return "", usageError("Используй: /bank_add Название")
	}
	bank, err := b.svc.CreateBank(ctx, userID, service.BankInput{Name: args})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Банк *%s* добавлен, id %d", escape(bank.Name), bank.ID), nil
}

func (b *Bot) addCard(ctx context.Context, userID int64, args string) (string, error) {
	rawID, name, _ := strings.Cut(args, " ")
	bankID, err := parseID(rawID)
	if err != nil || strings.TrimSpace(name) == "" {
		return "", usageError("Используй: /card_add <id банка> Название")
	}
	card, err := b.svc.CreateCard(ctx, userID, bankID, service.CardInput{Name: name})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Карта *%s* добавлена, id %d", escape(card.Name), card.ID), nil
}

func (b *Bot) ingest(ctx context.Context, userID int64, args string, period domain.Period) (string, error) {
	cardID, entries, err := parseAdd(args)
	if err != nil {
		return "", err
	}

	report, err := b.svc.Ingest(ctx, userID, cardID, period, entries)
	if err != nil && len(report.Created) == 0 {
		return "", err
	}

	lines := []string{fmt.Sprintf("✅ Сохранено категорий: %d", len(report.Created))}
	for _, f := range report.Failed {
		lines = append(lines, fmt.Sprintf("⚠️ %s: %s %s", escape(f.CategoryName), f.Field, f.Reason))
	}
	if err != nil {
		lines = append(lines, "❌ Остальные не сохранены, попробуй позже")
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) best(ctx context.Context, userID int64, category string, period domain.Period) (string, error) {
	if category == "" {
		return "", usageError("Используй: /best Категория")
	}
	recs, err := b.svc.Recommend(ctx, userID, category, period)
	if err != nil {
		return "", err
	}
	if len(recs) == 0 {
		return fmt.Sprintf("📭 Нет кэшбэка по категории *%s* за %s", escape(category), period), nil
	}

	lines := []string{fmt.Sprintf("🔍 *Чем платить за %s*", escape(category))}
	for i, r := range recs {
		lines = append(lines, fmt.Sprintf("%d. %s / %s: %s%%",
			i+1, escape(r.BankName), escape(r.CardName), r.CashbackPercent.String()))
	}
	return strings.Join(lines, "\n"), nil
}

func (b *Bot) delete(args, usage, done string, fn func(id int64) error) (string, error) {
	id, err := parseID(args)
	if err != nil {
		return "", usageError("Используй: " + usage)
	}
	if err := fn(id); err != nil {
		return "", err
	}
	return done, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseAdd разбирает "3: Аптеки 5, Такси 10" в id карты и список категорий.
// Процент последним словом, знак % допускается. Иконка подбирается по названию.
func parseAdd(args string) (int64, []domain.ExtractedCategory, error) {
	rawID, list, found := strings.Cut(args, ":")
	if !found {
		return 0, nil, usageError("Используй формат: /add <id карты>: Категория1 5, Категория2 10")
	}
	cardID, err := parseID(rawID)
	if err != nil {
		return 0, nil, usageError("Неверный id карты")
	}

	var entries []domain.ExtractedCategory
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return 0, nil, usageError(fmt.Sprintf("Категория должна содержать название и процент: %q", strings.TrimSpace(part)))
		}

		rawPct := strings.TrimSuffix(fields[len(fields)-1], "%")
		pct, err := decimal.NewFromString(rawPct)
		if err != nil {
			return 0, nil, usageError(fmt.Sprintf("Неверный процент: %q", rawPct))
		}
		name := strings.Join(fields[:len(fields)-1], " ")
		entries = append(entries, domain.ExtractedCategory{
			CategoryName:    name,
			CashbackPercent: pct,
			Icon:            domain.SuggestIcon(name),
		})
	}
	if len(entries) == 0 {
		return 0, nil, usageError("Не найдено ни одной категории")
	}
	return cardID, entries, nil
}
