package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/forms"
	"github.com/ledgerline/crm-api/internal/table"
	"github.com/spf13/cobra"
)

var (
	industryOptions    = []string{"technology", "manufacturing", "retail", "healthcare", "finance", "education", "hospitality", "logistics", "other"}
	leadSourceOptions  = []string{"website", "referral", "email", "phone", "event", "whatsapp"}
	leadStatusOptions  = []string{"new", "in_progress", "incompatible", "not_serviced", "converted"}
	requirementOptions = []string{"new", "in_discussion", "quoted", "on_hold", "closed"}
	priorityOptions    = []string{"low", "medium", "high"}
	quoteStatusOptions = []string{"draft", "sent", "accepted", "rejected", "expired"}
	orderStatusOptions = []string{"draft", "confirmed", "in_progress", "delivered", "cancelled"}
	categoryOptions    = []string{"food", "cab", "client_gift", "laundry", "accommodation", "other"}
	permissionOptions  = []string{"read", "write", "full_access", "admin", "super_admin"}
)

func newClientCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Client, *domain.Client, *forms.ClientForm]{
		use:     "client",
		noun:    "client",
		entity:  client.EntityClient,
		aliases: []string{"clients"},
		store:   func(s *client.AppState) *client.ClientStore { return s.Clients },
		columns: table.ClientColumns,

		defaultSearch: "contact_name",

		newForm: func(current *domain.Client) *forms.ClientForm {
			if current == nil {
				return &forms.ClientForm{}
			}
			f := forms.ClientFormFrom(current)
			return &f
		},
		fields: func(f *forms.ClientForm) []field {
			return []field{
				{flag: "company", title: "Company", value: &f.CompanyName},
				{flag: "contact-name", title: "Contact name", value: &f.ContactName},
				{flag: "contact-email", title: "Contact email", value: &f.ContactEmail},
				{flag: "contact-phone", title: "Contact phone", value: &f.ContactPhone},
				{flag: "industry", title: "Industry", value: &f.Industry, options: industryOptions},
				{flag: "website", title: "Website", value: &f.Website},
				{flag: "follow-up", title: "Next follow-up (YYYY-MM-DD)", value: &f.NextFollowUpAt},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

func newLeadCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Lead, *domain.Lead, *forms.LeadForm]{
		use:     "lead",
		noun:    "lead",
		entity:  client.EntityLead,
		aliases: []string{"leads"},
		store:   func(s *client.AppState) *client.LeadStore { return s.Leads },
		load:    (*client.AppState).LoadLeads,
		columns: table.LeadColumns,
		newForm: func(current *domain.Lead) *forms.LeadForm {
			if current == nil {
				return &forms.LeadForm{}
			}
			f := forms.LeadFormFrom(current)
			return &f
		},
		fields: func(f *forms.LeadForm) []field {
			return []field{
				{flag: "contact-name", title: "Contact name", value: &f.ContactName},
				{flag: "contact-email", title: "Contact email", value: &f.ContactEmail},
				{flag: "contact-phone", title: "Contact phone", value: &f.ContactPhone},
				{flag: "source", title: "Source", value: &f.Source, options: leadSourceOptions},
				{flag: "status", title: "Status", value: &f.Status, options: leadStatusOptions},
				{flag: "assigned-to", title: "Assigned to (user id)", value: &f.AssignedTo},
				{flag: "follow-up", title: "Follow-up (YYYY-MM-DD)", value: &f.FollowUpAt},
				{flag: "client-code", title: "Client code", value: &f.ClientCode},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

func newVendorCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Vendor, *domain.Vendor, *forms.VendorForm]{
		use:     "vendor",
		noun:    "vendor",
		entity:  client.EntityVendor,
		aliases: []string{"vendors"},
		store:   func(s *client.AppState) *client.VendorStore { return s.Vendors },
		columns: table.VendorColumns,
		search:  "company_name",
		newForm: func(current *domain.Vendor) *forms.VendorForm {
			if current == nil {
				return &forms.VendorForm{}
			}
			f := forms.VendorFormFrom(current)
			return &f
		},
		fields: func(f *forms.VendorForm) []field {
			return []field{
				{flag: "company", title: "Company", value: &f.CompanyName},
				{flag: "contact-name", title: "Contact name", value: &f.ContactName},
				{flag: "contact-email", title: "Contact email", value: &f.ContactEmail},
				{flag: "contact-phone", title: "Contact phone", value: &f.ContactPhone},
				{flag: "gst", title: "GST number", value: &f.GSTNumber},
				{flag: "address", title: "Address", value: &f.Address},
				{flag: "payment-terms", title: "Payment terms", value: &f.PaymentTerms},
				{flag: "status", title: "Status", value: &f.Status, options: []string{"active", "inactive"}},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

// requirementInput adds the item list syntax of the command line
type requirementInput struct {
	forms.RequirementForm
	items string
}

// Check parses items ("name:qty[:uom[:category]]" separated by ;) before validating
func (r *requirementInput) Check(bool) forms.Errors {
	items, err := parseItems(r.items)
	if err != nil {
		return forms.Errors{"items": err.Error()}
	}
	r.Items = items
	return forms.Validate(r.RequirementForm)
}

func parseItems(s string) ([]forms.RequirementItemForm, error) {
	var out []forms.RequirementItemForm
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bits := strings.Split(part, ":")
		if len(bits) < 2 {
			return nil, fmt.Errorf("item %q: expected name:quantity", part)
		}
		item := forms.RequirementItemForm{ItemName: strings.TrimSpace(bits[0]), Quantity: strings.TrimSpace(bits[1])}
		if len(bits) > 2 {
			item.UnitOfMeasure = strings.TrimSpace(bits[2])
		}
		if len(bits) > 3 {
			item.Category = strings.TrimSpace(bits[3])
		}
		out = append(out, item)
	}
	return out, nil
}

func formatItems(items []domain.RequirementItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		p := it.ItemName + ":" + it.Quantity.String()
		if it.UnitOfMeasure != nil || it.Category != nil {
			p += ":" + deref(it.UnitOfMeasure)
		}
		if it.Category != nil {
			p += ":" + *it.Category
		}
		parts[i] = p
	}
	return strings.Join(parts, "; ")
}

func newRequirementCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Requirement, *domain.Requirement, *requirementInput]{
		use:     "requirement",
		noun:    "requirement",
		entity:  client.EntityRequirement,
		aliases: []string{"requirements", "req"},
		store:   func(s *client.AppState) *client.RequirementStore { return s.Requirements },
		load:    (*client.AppState).LoadRequirements,
		columns: table.RequirementColumns,
		search:  "title",
		newForm: func(current *domain.Requirement) *requirementInput {
			if current == nil {
				return &requirementInput{}
			}
			in := &requirementInput{
				RequirementForm: forms.RequirementForm{
					ClientID:       current.ClientID,
					Title:          current.Title,
					Description:    deref(current.Description),
					Status:         string(current.Status),
					RequiredByDate: dateString(current.RequiredByDate),
					AssignedTo:     deref(current.AssignedTo),
				},
				items: formatItems(current.Items),
			}
			if current.Priority != nil {
				in.Priority = string(*current.Priority)
			}
			if current.EstimatedBudget.Valid {
				in.EstimatedBudget = current.EstimatedBudget.Decimal.String()
			}
			return in
		},
		fields: func(f *requirementInput) []field {
			return []field{
				{flag: "client-id", title: "Client id", value: &f.ClientID},
				{flag: "title", title: "Title", value: &f.Title},
				{flag: "description", title: "Description", value: &f.Description},
				{flag: "status", title: "Status", value: &f.Status, options: requirementOptions},
				{flag: "priority", title: "Priority", value: &f.Priority, options: priorityOptions},
				{flag: "required-by", title: "Required by (YYYY-MM-DD)", value: &f.RequiredByDate},
				{flag: "budget", title: "Estimated budget", value: &f.EstimatedBudget},
				{flag: "assigned-to", title: "Assigned to (user id)", value: &f.AssignedTo},
				{flag: "items", title: "Items, name:qty[:uom[:category]] separated by ;", value: &f.items},
			}
		},
	})
}

func newQuoteCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Quote, *domain.Quote, *forms.QuoteForm]{
		use:     "quote",
		noun:    "quote",
		entity:  client.EntityQuote,
		aliases: []string{"quotes"},
		store:   func(s *client.AppState) *client.QuoteStore { return s.Quotes },
		columns: table.QuoteColumns,
		search:  "quote_number",
		newForm: func(current *domain.Quote) *forms.QuoteForm {
			if current == nil {
				return &forms.QuoteForm{CurrencyCode: "INR"}
			}
			f := &forms.QuoteForm{
				RequirementID:    current.RequirementID,
				ClientID:         current.ClientID,
				CurrencyCode:     current.CurrencyCode,
				DefaultMarginPct: current.DefaultMarginPct.String(),
				SubtotalCost:     current.SubtotalCost.String(),
				SubtotalPrice:    current.SubtotalPrice.String(),
				Status:           string(current.Status),
				ValidTill:        dateString(current.ValidTill),
				Notes:            deref(current.Notes),
			}
			if current.TaxPct.Valid {
				f.TaxPct = current.TaxPct.Decimal.String()
			}
			return f
		},
		fields: func(f *forms.QuoteForm) []field {
			return []field{
				{flag: "requirement-id", title: "Requirement id", value: &f.RequirementID},
				{flag: "client-id", title: "Client id", value: &f.ClientID},
				{flag: "currency", title: "Currency", value: &f.CurrencyCode},
				{flag: "margin", title: "Default margin %", value: &f.DefaultMarginPct},
				{flag: "tax", title: "Tax %", value: &f.TaxPct},
				{flag: "subtotal-cost", title: "Subtotal cost", value: &f.SubtotalCost},
				{flag: "subtotal-price", title: "Subtotal price", value: &f.SubtotalPrice},
				{flag: "status", title: "Status", value: &f.Status, options: quoteStatusOptions},
				{flag: "valid-till", title: "Valid till (YYYY-MM-DD)", value: &f.ValidTill},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

func newSalesOrderCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.SalesOrder, *domain.SalesOrder, *forms.SalesOrderForm]{
		use:     "order",
		noun:    "sales order",
		entity:  client.EntitySalesOrder,
		aliases: []string{"orders", "sales-order"},
		store:   func(s *client.AppState) *client.SalesOrderStore { return s.SalesOrders },
		columns: table.SalesOrderColumns,
		search:  "order_number",
		newForm: func(current *domain.SalesOrder) *forms.SalesOrderForm {
			if current == nil {
				return &forms.SalesOrderForm{CurrencyCode: "INR"}
			}
			return &forms.SalesOrderForm{
				ClientID:      current.ClientID,
				RequirementID: deref(current.RequirementID),
				QuoteID:       deref(current.QuoteID),
				Status:        string(current.Status),
				OrderDate:     string(current.OrderDate),
				CurrencyCode:  current.CurrencyCode,
				TotalCost:     current.TotalCost.String(),
				TotalPrice:    current.TotalPrice.String(),
				Notes:         deref(current.Notes),
			}
		},
		fields: func(f *forms.SalesOrderForm) []field {
			return []field{
				{flag: "client-id", title: "Client id", value: &f.ClientID},
				{flag: "requirement-id", title: "Requirement id", value: &f.RequirementID},
				{flag: "quote-id", title: "Quote id", value: &f.QuoteID},
				{flag: "status", title: "Status", value: &f.Status, options: orderStatusOptions},
				{flag: "order-date", title: "Order date (YYYY-MM-DD)", value: &f.OrderDate},
				{flag: "currency", title: "Currency", value: &f.CurrencyCode},
				{flag: "total-cost", title: "Total cost", value: &f.TotalCost},
				{flag: "total-price", title: "Total price", value: &f.TotalPrice},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

func newExpenseCmd(app *App) *cobra.Command {
	return newEntityCmd(app, entitySpec[domain.Expense, *domain.Expense, *forms.ExpenseForm]{
		use:     "expense",
		noun:    "expense",
		entity:  client.EntityExpense,
		aliases: []string{"expenses"},
		store:   func(s *client.AppState) *client.ExpenseStore { return s.Expenses },
		columns: table.ExpenseColumns,
		search:  "merchant_name",
		newForm: func(current *domain.Expense) *forms.ExpenseForm {
			if current == nil {
				return &forms.ExpenseForm{CurrencyCode: "INR"}
			}
			return &forms.ExpenseForm{
				CategoryCode:  string(current.CategoryCode),
				Amount:        current.Amount.String(),
				CurrencyCode:  current.CurrencyCode,
				ExpenseDate:   string(current.ExpenseDate),
				ClientID:      deref(current.ClientID),
				RequirementID: deref(current.RequirementID),
				MerchantName:  deref(current.MerchantName),
				BillNumber:    deref(current.BillNumber),
				Notes:         deref(current.Notes),
				ReceiptURL:    deref(current.ReceiptURL),
			}
		},
		fields: func(f *forms.ExpenseForm) []field {
			return []field{
				{flag: "category", title: "Category", value: &f.CategoryCode, options: categoryOptions},
				{flag: "amount", title: "Amount", value: &f.Amount},
				{flag: "currency", title: "Currency", value: &f.CurrencyCode},
				{flag: "date", title: "Expense date (YYYY-MM-DD)", value: &f.ExpenseDate},
				{flag: "client-id", title: "Client id", value: &f.ClientID},
				{flag: "requirement-id", title: "Requirement id", value: &f.RequirementID},
				{flag: "merchant", title: "Merchant", value: &f.MerchantName},
				{flag: "bill-number", title: "Bill number", value: &f.BillNumber},
				{flag: "receipt-url", title: "Receipt URL", value: &f.ReceiptURL},
				{flag: "notes", title: "Notes", value: &f.Notes},
			}
		},
	})
}

func newUserCmd(app *App) *cobra.Command {
	var acknowledge bool

	callerID := func() string {
		if app.Session == nil || app.Session.User == nil || app.apiKey != "" {
			return ""
		}
		return app.Session.User.ID
	}

	cmd := newEntityCmd(app, entitySpec[domain.User, *domain.User, *forms.UserForm]{
		use:     "user",
		noun:    "user",
		entity:  client.EntityUser,
		aliases: []string{"users"},
		store:   func(s *client.AppState) *client.UserStore { return s.Users },
		load:    (*client.AppState).LoadUsers,
		columns: table.UserColumns,
		newForm: func(current *domain.User) *forms.UserForm {
			if current == nil {
				return &forms.UserForm{Permission: string(domain.PermissionRead)}
			}
			f := forms.UserFormFrom(current)
			return &f
		},
		fields: func(f *forms.UserForm) []field {
			return []field{
				{flag: "name", title: "Full name", value: &f.FullName},
				{flag: "email", title: "Email", value: &f.Email},
				{flag: "permission", title: "Permission", value: &f.Permission, options: permissionOptions},
				{flag: "status", title: "Status", value: &f.Status, options: []string{"active", "suspended"}},
				{flag: "password", title: "Password", value: &f.Password, secret: true},
				{flag: "confirm-password", title: "Confirm password", value: &f.ConfirmPassword, secret: true},
			}
		},
		beforeSave: func(app *App, current *domain.User, form *forms.UserForm) forms.Errors {
			form.Acknowledge = acknowledge
			edit := forms.EvaluateSelfEdit(callerID(), current, *form)
			return forms.CheckSelfEdit(edit, *form)
		},
		afterSave: func(ctx context.Context, cmd *cobra.Command, app *App, current *domain.User, form *forms.UserForm) error {
			switch forms.EvaluateSelfEdit(callerID(), current, *form).Outcome {
			case forms.SelfEditSignOut:
				fmt.Fprintln(cmd.OutOrStdout(), "Your password changed; sign in again.")
				return app.signOut(ctx, cmd)
			case forms.SelfEditReload:
				me, err := app.State.API.Me(ctx)
				if err != nil {
					return err
				}
				app.Session.User = me
				return app.Session.Save(app.sessionPath)
			}
			return nil
		},
	})

	for _, sub := range cmd.Commands() {
		if sub.Name() == "edit" {
			sub.Flags().BoolVar(&acknowledge, "acknowledge", false, "Confirm a change to your own email or password")
		}
	}
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateString(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return string(*d)
}
