package table

import (
	"github.com/ledgerline/crm-api/internal/domain"
)

func createdAt[T any](base func(*T) *domain.BaseModel) Column[T] {
	return Column[T]{Key: "created_at", Header: "Created", Value: func(r *T) interface{} { return base(r).CreatedAt }}
}

func ClientColumns() []Column[domain.Client] {
	return []Column[domain.Client]{
		{Key: "client_code", Header: "Code", NoHide: true, Value: func(c *domain.Client) interface{} { return c.ClientCode }},
		{Key: "company_name", Header: "Company", MaxWidth: 30, Value: func(c *domain.Client) interface{} { return c.CompanyName }},
		{Key: "contact_name", Header: "Contact", MaxWidth: 30, Value: func(c *domain.Client) interface{} { return c.ContactName }},
		{Key: "contact_email", Header: "Email", Value: func(c *domain.Client) interface{} { return c.ContactEmail }},
		{Key: "contact_phone", Header: "Phone", Hidden: true, Value: func(c *domain.Client) interface{} { return c.ContactPhone }},
		{Key: "industry", Header: "Industry", Faceted: true, Value: func(c *domain.Client) interface{} { return c.Industry }},
		{Key: "next_follow_up_at", Header: "Follow-up", Value: func(c *domain.Client) interface{} { return c.NextFollowUpAt }},
		createdAt(func(c *domain.Client) *domain.BaseModel { return &c.BaseModel }),
	}
}

func LeadColumns() []Column[domain.Lead] {
	return []Column[domain.Lead]{
		{Key: "contact_name", Header: "Contact", NoHide: true, MaxWidth: 30, Value: func(l *domain.Lead) interface{} { return l.ContactName }},
		{Key: "contact_email", Header: "Email", Value: func(l *domain.Lead) interface{} { return l.ContactEmail }},
		{Key: "contact_phone", Header: "Phone", Hidden: true, Value: func(l *domain.Lead) interface{} { return l.ContactPhone }},
		{Key: "source", Header: "Source", Faceted: true, Value: func(l *domain.Lead) interface{} { return l.Source }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(l *domain.Lead) interface{} { return l.Status }},
		{Key: "assigned_to_name", Header: "Assigned to", Faceted: true, Value: func(l *domain.Lead) interface{} { return l.AssignedToName }},
		{Key: "follow_up_at", Header: "Follow-up", Value: func(l *domain.Lead) interface{} { return l.FollowUpAt }},
		createdAt(func(l *domain.Lead) *domain.BaseModel { return &l.BaseModel }),
	}
}

func VendorColumns() []Column[domain.Vendor] {
	return []Column[domain.Vendor]{
		{Key: "vendor_code", Header: "Code", NoHide: true, Value: func(v *domain.Vendor) interface{} { return v.VendorCode }},
		{Key: "company_name", Header: "Company", MaxWidth: 30, Value: func(v *domain.Vendor) interface{} { return v.CompanyName }},
		{Key: "contact_name", Header: "Contact", Value: func(v *domain.Vendor) interface{} { return v.ContactName }},
		{Key: "contact_email", Header: "Email", Hidden: true, Value: func(v *domain.Vendor) interface{} { return v.ContactEmail }},
		{Key: "gst_number", Header: "GST", Value: func(v *domain.Vendor) interface{} { return v.GSTNumber }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(v *domain.Vendor) interface{} { return v.Status }},
		createdAt(func(v *domain.Vendor) *domain.BaseModel { return &v.BaseModel }),
	}
}

func RequirementColumns() []Column[domain.Requirement] {
	return []Column[domain.Requirement]{
		{Key: "title", Header: "Title", NoHide: true, MaxWidth: 40, Value: func(r *domain.Requirement) interface{} { return r.Title }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(r *domain.Requirement) interface{} { return r.Status }},
		{Key: "priority", Header: "Priority", Faceted: true, Value: func(r *domain.Requirement) interface{} { return r.Priority }},
		{Key: "required_by_date", Header: "Required by", Value: func(r *domain.Requirement) interface{} { return r.RequiredByDate }},
		{Key: "estimated_budget", Header: "Budget", Value: func(r *domain.Requirement) interface{} { return r.EstimatedBudget }},
		{Key: "items", Header: "Items", Value: func(r *domain.Requirement) interface{} { return len(r.Items) }},
		{Key: "assigned_to_name", Header: "Assigned to", Faceted: true, Value: func(r *domain.Requirement) interface{} { return r.AssignedToName }},
		createdAt(func(r *domain.Requirement) *domain.BaseModel { return &r.BaseModel }),
	}
}

func QuoteColumns() []Column[domain.Quote] {
	return []Column[domain.Quote]{
		{Key: "quote_number", Header: "Number", NoHide: true, Value: func(q *domain.Quote) interface{} { return q.QuoteNumber }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(q *domain.Quote) interface{} { return q.Status }},
		{Key: "currency_code", Header: "Currency", Faceted: true, Value: func(q *domain.Quote) interface{} { return q.CurrencyCode }},
		{Key: "subtotal_price", Header: "Subtotal", Value: func(q *domain.Quote) interface{} { return q.SubtotalPrice }},
		{Key: "tax_amount", Header: "Tax", Hidden: true, Value: func(q *domain.Quote) interface{} { return q.TaxAmount }},
		{Key: "total_price", Header: "Total", Value: func(q *domain.Quote) interface{} { return q.TotalPrice }},
		{Key: "valid_till", Header: "Valid till", Value: func(q *domain.Quote) interface{} { return q.ValidTill }},
		createdAt(func(q *domain.Quote) *domain.BaseModel { return &q.BaseModel }),
	}
}

func SalesOrderColumns() []Column[domain.SalesOrder] {
	return []Column[domain.SalesOrder]{
		{Key: "order_number", Header: "Number", NoHide: true, Value: func(o *domain.SalesOrder) interface{} { return o.OrderNumber }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(o *domain.SalesOrder) interface{} { return o.Status }},
		{Key: "order_date", Header: "Date", Value: func(o *domain.SalesOrder) interface{} { return o.OrderDate }},
		{Key: "currency_code", Header: "Currency", Faceted: true, Value: func(o *domain.SalesOrder) interface{} { return o.CurrencyCode }},
		{Key: "total_cost", Header: "Cost", Hidden: true, Value: func(o *domain.SalesOrder) interface{} { return o.TotalCost }},
		{Key: "total_price", Header: "Total", Value: func(o *domain.SalesOrder) interface{} { return o.TotalPrice }},
		createdAt(func(o *domain.SalesOrder) *domain.BaseModel { return &o.BaseModel }),
	}
}

func ExpenseColumns() []Column[domain.Expense] {
	return []Column[domain.Expense]{
		{Key: "expense_date", Header: "Date", NoHide: true, Value: func(e *domain.Expense) interface{} { return e.ExpenseDate }},
		{Key: "category_code", Header: "Category", Faceted: true, Value: func(e *domain.Expense) interface{} { return e.CategoryCode }},
		{Key: "merchant_name", Header: "Merchant", MaxWidth: 30, Value: func(e *domain.Expense) interface{} { return e.MerchantName }},
		{Key: "amount", Header: "Amount", Value: func(e *domain.Expense) interface{} { return e.Amount }},
		{Key: "currency_code", Header: "Currency", Faceted: true, Value: func(e *domain.Expense) interface{} { return e.CurrencyCode }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(e *domain.Expense) interface{} { return e.Status }},
		{Key: "receipt_url", Header: "Receipt", Hidden: true, NoSort: true, Value: func(e *domain.Expense) interface{} { return e.ReceiptURL }},
		createdAt(func(e *domain.Expense) *domain.BaseModel { return &e.BaseModel }),
	}
}

func UserColumns() []Column[domain.User] {
	return []Column[domain.User]{
		{Key: "full_name", Header: "Name", NoHide: true, Value: func(u *domain.User) interface{} { return u.FullName }},
		{Key: "email", Header: "Email", Value: func(u *domain.User) interface{} { return u.Email }},
		{Key: "permission", Header: "Permission", Faceted: true, Value: func(u *domain.User) interface{} { return u.Permission }},
		{Key: "status", Header: "Status", Faceted: true, Value: func(u *domain.User) interface{} { return u.Status }},
		createdAt(func(u *domain.User) *domain.BaseModel { return &u.BaseModel }),
	}
}
