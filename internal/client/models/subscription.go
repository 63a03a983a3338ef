package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

type (
	Currency      string
	Frequency     string
	Category      string
	PaymentMethod string
	Status        string
)

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyRON Currency = "RON"

	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"

	CategoryEntertainment Category = "entertainment"
	CategoryUtilities     Category = "utilities"
	CategoryFood          Category = "food"
	CategoryHealth        Category = "health"
	CategoryOther         Category = "other"

	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentBankTransfer PaymentMethod = "bank_transfer"

	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

var (
	Currencies     = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR, CurrencyRON}
	Frequencies    = []Frequency{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly}
	Categories     = []Category{CategoryEntertainment, CategoryUtilities, CategoryFood, CategoryHealth, CategoryOther}
	PaymentMethods = []PaymentMethod{PaymentCreditCard, PaymentDebitCard, PaymentPaypal, PaymentBankTransfer}
	Statuses       = []Status{StatusActive, StatusExpired, StatusCancelled}
)

var ErrInvalidSubscription = errors.New("invalid subscription")

// Subscription is a recurring payment tracked on the dashboard.
type Subscription struct {
	ID            string        `json:"_id,omitempty"`
	Name          string        `json:"name" validate:"notblank"`
	Price         float64       `json:"price" validate:"gte=0"`
	Currency      Currency      `json:"currency" validate:"oneof=USD EUR GBP INR RON"`
	Frequency     Frequency     `json:"frequency" validate:"oneof=daily weekly monthly yearly"`
	Category      Category      `json:"category" validate:"oneof=entertainment utilities food health other"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"oneof=credit_card debit_card paypal bank_transfer"`
	Status        Status        `json:"status,omitempty" validate:"omitempty,oneof=active expired cancelled"`
	StartDate     *time.Time    `json:"startDate,omitempty"`
	RenewalDate   *time.Time    `json:"renewalDate,omitempty"`
	User          string        `json:"user,omitempty"`
	CreatedAt     *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

// fieldLabels holds display names for fields whose json name reads badly.
var fieldLabels = map[string]string{
	"paymentMethod": "payment method",
}

// Validate checks the fields the API insists on before a create call.
// Every problem is reported, joined into one error wrapping
// ErrInvalidSubscription.
func (s *Subscription) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidSubscription, err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidSubscription, strings.Join(problems, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	label := fe.Field()
	if l, ok := fieldLabels[label]; ok {
		label = l
	}

	switch fe.Tag() {
	case "notblank", "required":
		return label + " is required"
	case "gte":
		return label + " must not be negative"
	case "oneof":
		return fmt.Sprintf("unknown %s %q", label, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %q", label, fe.Tag())
	}
}

// MonthlyCost normalises Price to a per-month amount for dashboard totals.
func (s *Subscription) MonthlyCost() float64 {
	switch s.Frequency {
	case FrequencyDaily:
		return s.Price * 365 / 12
	case FrequencyWeekly:
		return s.Price * 52 / 12
	case FrequencyYearly:
		return s.Price / 12
	default:
		return s.Price
	}
}

// String renders the one-line dashboard view.
func (s Subscription) String() string {
	return fmt.Sprintf("%-24s %10.2f %s %-8s %-14s %s", s.Name, s.Price, s.Currency, s.Frequency, s.Category, s.Status)
}

// Summary aggregates a dashboard list.
type Summary struct {
	Total     int
	Active    int
	Cancelled int
	// MonthlyByCurrency sums MonthlyCost of active subscriptions.
	MonthlyByCurrency map[Currency]float64
}

func Summarize(subs []Subscription) Summary {
	s := Summary{Total: len(subs), MonthlyByCurrency: make(map[Currency]float64)}
	for i := range subs {
		switch subs[i].Status {
		case StatusCancelled:
			s.Cancelled++
		case StatusActive, "":
			s.Active++
			s.MonthlyByCurrency[subs[i].Currency] += subs[i].MonthlyCost()
		}
	}
	return s
}
