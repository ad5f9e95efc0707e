// Package forms holds the add/edit dialog schemas of every entity.
// A form validates user input, then composes the record sent to a client store.
package forms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/shopspring/decimal"
)

var validate = domain.NewValidator()

// ErrInvalid is returned by Submit when the form has field errors
var ErrInvalid = errors.New("form has invalid fields")

// Errors maps a form field (its json name) to a message
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Form composes a record from user input. current is nil when adding.
type Form[T any, PT client.RecordPtr[T]] interface {
	ToRecord(current PT) (PT, error)
}

// checker is implemented by forms whose rules differ between add and edit
type checker interface {
	Check(adding bool) Errors
}

// Validate checks form against its validate tags and returns nil when it is valid
func Validate(form interface{}) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{"form": err.Error()}
	}
	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		out[fieldKey(fe)] = message(fe)
	}
	return out
}

// fieldKey drops the form struct name so nested fields read items[0].quantity
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "password":
		if problem := domain.PasswordProblem(fmt.Sprint(fe.Value())); problem != "" {
			return problem
		}
	case "eqfield":
		return "Passwords do not match"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	}
	return domain.GetValidationMessage(fe.Tag())
}

// Submit validates form and sends the composed record through store:
// Add when current is nil, Update otherwise.
func Submit[T any, PT client.RecordPtr[T]](ctx context.Context, store *client.Store[T, PT], form Form[T, PT], current PT) (PT, Errors, error) {
	var errs Errors
	if c, ok := form.(checker); ok {
		errs = c.Check(current == nil)
	} else {
		errs = Validate(form)
	}
	if errs != nil {
		return nil, errs, ErrInvalid
	}
	row, err := form.ToRecord(current)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		saved, err := store.Add(ctx, row)
		return saved, nil, err
	}
	saved, err := store.Update(ctx, row)
	return saved, nil, err
}

// keepBase copies the identity and creation stamp of current into row
func keepBase(row, current *domain.BaseModel) {
	if current == nil {
		return
	}
	row.ID = current.ID
	row.CreatedAt = current.CreatedAt
	row.UpdatedAt = current.UpdatedAt
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalDate(s string) *domain.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d := domain.Date(s)
	return &d
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Errors{field: domain.GetValidationMessage("numeric")}
	}
	return d, nil
}

func parseNullDecimal(field, s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseDecimal(field, s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
