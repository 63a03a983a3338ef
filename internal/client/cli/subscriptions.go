package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/client/client"
	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/client/services"
)

// List prints the dashboard. When the server is unreachable the cached list
// is shown with a warning.
func (a *App) List(ctx context.Context) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	subs, err := a.subService.List(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, services.ErrServedFromCache) {
			return err
		}
		if client.IsNetwork(err) {
			a.println("Offline: showing cached subscriptions")
		} else {
			a.printf("Warning: %s\n", err)
		}
	}

	if len(subs) == 0 {
		a.println("No subscriptions yet. Use 'add' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tFREQUENCY\tCATEGORY\tSTATUS\tRENEWAL")
	for _, s := range subs {
		renewal := "-"
		if s.RenewalDate != nil {
			renewal = s.RenewalDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f %s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Name, s.Price, s.Currency, s.Frequency, s.Category, s.Status, renewal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sum := models.Summarize(subs)
	a.printf("\n%d subscriptions, %d active, %d cancelled\n", sum.Total, sum.Active, sum.Cancelled)

	currencies := make([]string, 0, len(sum.MonthlyByCurrency))
	for c := range sum.MonthlyByCurrency {
		currencies = append(currencies, string(c))
	}
	slices.Sort(currencies)
	for _, c := range currencies {
		a.printf("Monthly spend: %.2f %s\n", sum.MonthlyByCurrency[models.Currency(c)], c)
	}
	return nil
}

// Add walks through the new-subscription form and creates it.
func (a *App) Add(ctx context.Context) error {
	u, err := a.currentUser(ctx)
	if err != nil {
		return err
	}

	sub, err := a.readSubscription()
	if err != nil {
		return err
	}

	created, err := a.subService.Create(ctx, u.ID, sub)
	if err != nil {
		return err
	}
	a.printf("Subscription %q created (id %s)\n", created.Name, created.ID)
	return nil
}

func (a *App) readSubscription() (*models.Subscription, error) {
	name, err := a.requiredText("Service name")
	if err != nil {
		return nil, err
	}

	priceText, err := a.requiredText("Price")
	if err != nil {
		return nil, err
	}
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return nil, fmt.Errorf("price %q: %w", priceText, err)
	}

	currency, err := GetChoice(a.reader, "Currency", toStrings(models.Currencies), string(models.CurrencyUSD), a.out)
	if err != nil {
		return nil, err
	}
	frequency, err := GetChoice(a.reader, "Frequency", toStrings(models.Frequencies), string(models.FrequencyMonthly), a.out)
	if err != nil {
		return nil, err
	}
	category, err := GetChoice(a.reader, "Category", toStrings(models.Categories), "", a.out)
	if err != nil {
		return nil, err
	}
	method, err := GetChoice(a.reader, "Payment method", toStrings(models.PaymentMethods), "", a.out)
	if err != nil {
		return nil, err
	}

	sub := &models.Subscription{
		Name:          name,
		Price:         price,
		Currency:      models.Currency(currency),
		Frequency:     models.Frequency(frequency),
		Category:      models.Category(category),
		PaymentMethod: models.PaymentMethod(method),
		Status:        models.StatusActive,
	}

	start, err := getSimpleText(a.reader, "Start date YYYY-MM-DD (empty for today)", a.out)
	if err != nil {
		return nil, err
	}
	if start != "" {
		t, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return nil, fmt.Errorf("start date %q: %w", start, err)
		}
		sub.StartDate = &t
	}
	return sub, nil
}

func (a *App) Cancel(ctx context.Context, id string) error {
	sub, err := a.subService.Cancel(ctx, id)
	if err != nil {
		return err
	}
	a.printf("Subscription %s is now %s\n", id, sub.Status)
	return nil
}

// Remove hides a subscription from the local dashboard; the server copy is
// left alone.
func (a *App) Remove(ctx context.Context, id string) error {
	if err := a.subService.Remove(ctx, id); err != nil {
		return err
	}
	a.printf("Subscription %s removed from dashboard\n", id)
	return nil
}

func toStrings[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
