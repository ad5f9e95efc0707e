package forms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/forms"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

func TestValidate_ClientForm(t *testing.T) {
	tests := []struct {
		name  string
		form  forms.ClientForm
		field string
		msg   string
	}{
		{
			name:  "missing contact name",
			form:  forms.ClientForm{ContactEmail: "jane@example.com"},
			field: "contact_name",
			msg:   "This field is required",
		},
		{
			name:  "bad email",
			form:  forms.ClientForm{ContactName: "Jane", ContactEmail: "jane"},
			field: "contact_email",
			msg:   "Must be a valid email address",
		},
		{
			name:  "bad date",
			form:  forms.ClientForm{ContactName: "Jane", ContactEmail: "jane@example.com", NextFollowUpAt: "2026/01/02"},
			field: "next_follow_up_at",
			msg:   "Must be a date in YYYY-MM-DD format",
		},
		{
			name:  "bad url",
			form:  forms.ClientForm{ContactName: "Jane", ContactEmail: "jane@example.com", Website: "not a url"},
			field: "website",
			msg:   "Must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := forms.Validate(tt.form)
			require.NotNil(t, errs)
			assert.Equal(t, tt.msg, errs[tt.field])
		})
	}

	assert.Nil(t, forms.Validate(forms.ClientForm{ContactName: "Jane", ContactEmail: "jane@example.com", NextFollowUpAt: "2026-01-02"}))
}

func TestValidate_NestedItems(t *testing.T) {
	form := forms.RequirementForm{
		ClientID: "7f1c2d9e-1111-4a6b-9c1d-0a1b2c3d4e5f",
		Title:    "Laptops",
		Items: []forms.RequirementItemForm{
			{ItemName: "Laptop", Quantity: "10"},
			{ItemName: "Bag", Quantity: "ten"},
		},
	}
	errs := forms.Validate(form)
	require.NotNil(t, errs)
	assert.Equal(t, "Must be a numeric value", errs["items[1].quantity"])
	assert.Len(t, errs, 1)
}

func TestUserForm_Check(t *testing.T) {
	base := forms.UserForm{FullName: "Asha Rao", Email: "asha@example.com", Permission: "write"}

	t.Run("password required when adding", func(t *testing.T) {
		errs := base.Check(true)
		assert.Equal(t, "This field is required", errs["password"])
		assert.Nil(t, base.Check(false), "blank password keeps the current one on edit")
	})

	t.Run("weak password explains the problem", func(t *testing.T) {
		f := base
		f.Password, f.ConfirmPassword = "lowercase1", "lowercase1"
		assert.Equal(t, "Password must contain an uppercase letter", f.Check(true)["password"])

		f.Password, f.ConfirmPassword = "Sh0rt", "Sh0rt"
		assert.Equal(t, "Password must be at least 8 characters", f.Check(true)["password"])
	})

	t.Run("confirmation must match", func(t *testing.T) {
		f := base
		f.Password, f.ConfirmPassword = "Str0ngPass", "Str0ngPas"
		assert.Equal(t, "Passwords do not match", f.Check(true)["confirm_password"])

		f.ConfirmPassword = "Str0ngPass"
		assert.Nil(t, f.Check(true))
	})

	t.Run("unknown permission", func(t *testing.T) {
		f := base
		f.Permission = "owner"
		assert.Equal(t, "Must be one of the allowed values", f.Check(false)["permission"])
	})
}

func TestToRecord_PreservesImmutableFields(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	touched := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("client", func(t *testing.T) {
		current := &domain.Client{
			BaseModel:         domain.BaseModel{ID: "c-1", CreatedAt: created},
			ClientCode:        "C007",
			ContactName:       "Old",
			CreatedBy:         "u-1",
			LastInteractionAt: &touched,
		}
		form := forms.ClientFormFrom(current)
		form.ContactName = "  New Name "
		form.ContactEmail = "new@example.com"
		form.Industry = "retail"

		row, err := form.ToRecord(current)
		require.NoError(t, err)
		assert.Equal(t, "c-1", row.ID)
		assert.Equal(t, created, row.CreatedAt)
		assert.Equal(t, "C007", row.ClientCode)
		assert.Equal(t, "u-1", row.CreatedBy)
		assert.Equal(t, &touched, row.LastInteractionAt)
		assert.Equal(t, "New Name", row.ContactName)
		require.NotNil(t, row.Industry)
		assert.Equal(t, domain.ClientIndustryRetail, *row.Industry)
		assert.Nil(t, row.Website, "blank optional fields stay null")
	})

	t.Run("client add has no identity", func(t *testing.T) {
		row, err := forms.ClientForm{ContactName: "A", ContactEmail: "a@example.com"}.ToRecord(nil)
		require.NoError(t, err)
		assert.Empty(t, row.ID)
		assert.Empty(t, row.ClientCode)
	})

	t.Run("expense keeps executive and approval", func(t *testing.T) {
		current := &domain.Expense{
			BaseModel:   domain.BaseModel{ID: "e-1"},
			ExecutiveID: "u-9",
			Status:      domain.ExpenseStatusApproved,
			ApprovedBy:  strPtr("u-1"),
		}
		row, err := forms.ExpenseForm{CategoryCode: "cab", Amount: "120.50", CurrencyCode: "inr", ExpenseDate: "2026-03-01"}.ToRecord(current)
		require.NoError(t, err)
		assert.Equal(t, "u-9", row.ExecutiveID)
		assert.Equal(t, domain.ExpenseStatusApproved, row.Status)
		assert.Equal(t, "INR", row.CurrencyCode)
		assert.True(t, decimal.RequireFromString("120.50").Equal(row.Amount))
	})

	t.Run("quote keeps its number", func(t *testing.T) {
		current := &domain.Quote{BaseModel: domain.BaseModel{ID: "q-1"}, QuoteNumber: "Q012", CreatedBy: "u-1"}
		row, err := forms.QuoteForm{
			RequirementID: "r-1",
			ClientID:      "c-1",
			CurrencyCode:  "USD",
			SubtotalPrice: "1000",
			TaxPct:        "18",
		}.ToRecord(current)
		require.NoError(t, err)
		assert.Equal(t, "Q012", row.QuoteNumber)
		assert.True(t, row.TaxPct.Valid)
		assert.True(t, decimal.NewFromInt(18).Equal(row.TaxPct.Decimal))
	})

	t.Run("requirement items", func(t *testing.T) {
		row, err := forms.RequirementForm{
			ClientID: "c-1",
			Title:    "Chairs",
			Items:    []forms.RequirementItemForm{{ItemName: "Chair", Quantity: "12", UnitOfMeasure: "pcs"}},
		}.ToRecord(nil)
		require.NoError(t, err)
		require.Len(t, row.Items, 1)
		assert.True(t, decimal.NewFromInt(12).Equal(row.Items[0].Quantity))
		assert.Equal(t, strPtr("pcs"), row.Items[0].UnitOfMeasure)
		assert.False(t, row.EstimatedBudget.Valid)
	})

	t.Run("unparseable decimal", func(t *testing.T) {
		_, err := forms.SalesOrderForm{ClientID: "c-1", CurrencyCode: "USD", TotalPrice: "lots"}.ToRecord(nil)
		var errs forms.Errors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "total_price")
	})
}

func TestEvaluateSelfEdit(t *testing.T) {
	current := &domain.User{
		BaseModel:  domain.BaseModel{ID: "u-1"},
		FullName:   "Asha Rao",
		Email:      "asha@example.com",
		Permission: domain.PermissionAdmin,
		Status:     domain.UserStatusActive,
	}
	unchanged := forms.UserFormFrom(current)

	tests := []struct {
		name     string
		caller   string
		edit     func(f *forms.UserForm)
		wantAck  bool
		wantNext forms.SelfEditOutcome
	}{
		{name: "another account", caller: "u-2", edit: func(f *forms.UserForm) { f.Password = "Str0ngPass" }},
		{name: "no change", caller: "u-1", edit: func(f *forms.UserForm) {}},
		{name: "email case only", caller: "u-1", edit: func(f *forms.UserForm) { f.Email = "ASHA@example.com" }},
		{
			name:     "name change reloads",
			caller:   "u-1",
			edit:     func(f *forms.UserForm) { f.FullName = "Asha R." },
			wantNext: forms.SelfEditReload,
		},
		{
			name:     "email change needs acknowledgement",
			caller:   "u-1",
			edit:     func(f *forms.UserForm) { f.Email = "asha.rao@example.com" },
			wantAck:  true,
			wantNext: forms.SelfEditReload,
		},
		{
			name:     "password change signs out",
			caller:   "u-1",
			edit:     func(f *forms.UserForm) { f.Password = "Str0ngPass"; f.FullName = "Asha R." },
			wantAck:  true,
			wantNext: forms.SelfEditSignOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := unchanged
			tt.edit(&f)
			got := forms.EvaluateSelfEdit(tt.caller, current, f)
			assert.Equal(t, tt.wantAck, got.NeedsAcknowledgement)
			assert.Equal(t, tt.wantNext, got.Outcome, got.Outcome.String())

			if tt.wantAck {
				assert.NotNil(t, forms.CheckSelfEdit(got, f))
				f.Acknowledge = true
				assert.Nil(t, forms.CheckSelfEdit(got, f))
			}
		})
	}

	assert.Equal(t, forms.SelfEdit{}, forms.EvaluateSelfEdit("u-1", nil, unchanged), "adding is never a self-edit")
}

func TestSubmit(t *testing.T) {
	var posts, puts int
	var lastBody map[string]domain.Client
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode([]domain.Client{{BaseModel: domain.BaseModel{ID: "c-1"}, ClientCode: "C001", ContactName: "Old"}})
			return
		case http.MethodPost:
			posts++
		case http.MethodPut:
			puts++
		}
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		row := lastBody["client"]
		if row.ID == "" {
			row.ID = "c-2"
			row.ClientCode = "C002"
		}
		_ = json.NewEncoder(w).Encode(row)
	}))
	defer srv.Close()

	api := client.NewAPIClient(srv.URL, srv.Client(), zap.NewNop())
	store := client.NewStore[domain.Client](api, client.ClientsResource, client.NewLogNotifier(zap.NewNop()), zap.NewNop())
	ctx := context.Background()
	require.NoError(t, store.Load(ctx, false))

	t.Run("invalid form never reaches the store", func(t *testing.T) {
		_, errs, err := forms.Submit[domain.Client](ctx, store, forms.ClientForm{ContactName: "A"}, nil)
		assert.ErrorIs(t, err, forms.ErrInvalid)
		assert.Contains(t, errs, "contact_email")
		assert.Zero(t, posts)
	})

	t.Run("add", func(t *testing.T) {
		saved, errs, err := forms.Submit[domain.Client](ctx, store, forms.ClientForm{ContactName: "New", ContactEmail: "new@example.com"}, nil)
		require.NoError(t, err)
		assert.Nil(t, errs)
		assert.Equal(t, "C002", saved.ClientCode)
		assert.Equal(t, 1, posts)
		assert.Equal(t, "c-2", store.Items()[0].ID)
	})

	t.Run("edit", func(t *testing.T) {
		current := store.Items()[1]
		form := forms.ClientFormFrom(&current)
		form.ContactEmail = "old@example.com"
		form.ContactName = "Renamed"
		saved, _, err := forms.Submit[domain.Client](ctx, store, form, &current)
		require.NoError(t, err)
		assert.Equal(t, 1, puts)
		assert.Equal(t, "C001", lastBody["client"].ClientCode, "code travels unchanged")
		assert.Equal(t, "Renamed", saved.ContactName)
	})
}

func TestSubmit_UserPasswordRequiredOnAdd(t *testing.T) {
	api := client.NewAPIClient("http://127.0.0.1:0", nil, zap.NewNop())
	store := client.NewStore[domain.User](api, client.UsersResource, client.NewLogNotifier(zap.NewNop()), zap.NewNop())

	_, errs, err := forms.Submit[domain.User](context.Background(), store,
		forms.UserForm{FullName: "Asha", Email: "asha@example.com", Permission: "read"}, nil)
	assert.ErrorIs(t, err, forms.ErrInvalid)
	assert.Contains(t, errs, "password")
}
