package forms

import (
	"strings"

	"github.com/ledgerline/crm-api/internal/domain"
)

// ClientForm is the add/edit client dialog
type ClientForm struct {
	CompanyName    string `json:"company_name" validate:"max=200"`
	ContactName    string `json:"contact_name" validate:"required,max=200"`
	ContactEmail   string `json:"contact_email" validate:"required,email,max=255"`
	ContactPhone   string `json:"contact_phone" validate:"max=50"`
	Industry       string `json:"industry" validate:"omitempty,oneof=technology manufacturing retail healthcare finance education hospitality logistics other"`
	Website        string `json:"website" validate:"omitempty,url"`
	NextFollowUpAt string `json:"next_follow_up_at" validate:"omitempty,date"`
	Notes          string `json:"notes"`
}

// ClientFormFrom fills the form from an existing row
func ClientFormFrom(c *domain.Client) ClientForm {
	f := ClientForm{
		CompanyName:  deref(c.CompanyName),
		ContactName:  c.ContactName,
		ContactEmail: c.ContactEmail,
		ContactPhone: deref(c.ContactPhone),
		Website:      deref(c.Website),
		Notes:        deref(c.Notes),
	}
	if c.Industry != nil {
		f.Industry = string(*c.Industry)
	}
	if c.NextFollowUpAt != nil {
		f.NextFollowUpAt = string(*c.NextFollowUpAt)
	}
	return f
}

func (f ClientForm) ToRecord(current *domain.Client) (*domain.Client, error) {
	c := &domain.Client{
		CompanyName:    optional(f.CompanyName),
		ContactName:    strings.TrimSpace(f.ContactName),
		ContactEmail:   strings.TrimSpace(f.ContactEmail),
		ContactPhone:   optional(f.ContactPhone),
		Website:        optional(f.Website),
		NextFollowUpAt: optionalDate(f.NextFollowUpAt),
		Notes:          optional(f.Notes),
	}
	if f.Industry != "" {
		industry := domain.ClientIndustry(f.Industry)
		c.Industry = &industry
	}
	if current != nil {
		keepBase(&c.BaseModel, &current.BaseModel)
		c.ClientCode = current.ClientCode
		c.CreatedBy = current.CreatedBy
		c.LastInteractionAt = current.LastInteractionAt
	}
	return c, nil
}

// LeadForm is the add/edit lead dialog
type LeadForm struct {
	ContactName  string `json:"contact_name" validate:"required,max=200"`
	ContactEmail string `json:"contact_email" validate:"required,email,max=255"`
	ContactPhone string `json:"contact_phone" validate:"max=50"`
	Source       string `json:"source" validate:"required,oneof=website referral email phone event whatsapp"`
	Status       string `json:"status" validate:"omitempty,oneof=new in_progress incompatible not_serviced converted"`
	AssignedTo   string `json:"assigned_to" validate:"omitempty,uuid"`
	FollowUpAt   string `json:"follow_up_at" validate:"omitempty,date"`
	ClientCode   string `json:"client_code" validate:"max=20"`
	Notes        string `json:"notes"`
}

func LeadFormFrom(l *domain.Lead) LeadForm {
	f := LeadForm{
		ContactName:  l.ContactName,
		ContactEmail: l.ContactEmail,
		ContactPhone: deref(l.ContactPhone),
		Source:       string(l.Source),
		Status:       string(l.Status),
		AssignedTo:   deref(l.AssignedTo),
		ClientCode:   deref(l.ClientCode),
		Notes:        deref(l.Notes),
	}
	if l.FollowUpAt != nil {
		f.FollowUpAt = string(*l.FollowUpAt)
	}
	return f
}

func (f LeadForm) ToRecord(current *domain.Lead) (*domain.Lead, error) {
	l := &domain.Lead{
		ContactName:  strings.TrimSpace(f.ContactName),
		ContactEmail: strings.TrimSpace(f.ContactEmail),
		ContactPhone: optional(f.ContactPhone),
		Source:       domain.LeadSource(f.Source),
		Status:       domain.LeadStatus(f.Status),
		AssignedTo:   optional(f.AssignedTo),
		FollowUpAt:   optionalDate(f.FollowUpAt),
		ClientCode:   optional(f.ClientCode),
		Notes:        optional(f.Notes),
	}
	if current != nil {
		keepBase(&l.BaseModel, &current.BaseModel)
		l.CreatedBy = current.CreatedBy
	}
	return l, nil
}

// VendorForm is the add/edit vendor dialog
type VendorForm struct {
	CompanyName  string `json:"company_name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	ContactPhone string `json:"contact_phone" validate:"max=50"`
	GSTNumber    string `json:"gst_number" validate:"max=20"`
	Address      string `json:"address" validate:"max=500"`
	PaymentTerms string `json:"payment_terms" validate:"max=100"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes        string `json:"notes"`
}

func VendorFormFrom(v *domain.Vendor) VendorForm {
	return VendorForm{
		CompanyName:  v.CompanyName,
		ContactName:  deref(v.ContactName),
		ContactEmail: deref(v.ContactEmail),
		ContactPhone: deref(v.ContactPhone),
		GSTNumber:    deref(v.GSTNumber),
		Address:      deref(v.Address),
		PaymentTerms: deref(v.PaymentTerms),
		Status:       string(v.Status),
		Notes:        deref(v.Notes),
	}
}

func (f VendorForm) ToRecord(current *domain.Vendor) (*domain.Vendor, error) {
	v := &domain.Vendor{
		CompanyName:  strings.TrimSpace(f.CompanyName),
		ContactName:  optional(f.ContactName),
		ContactEmail: optional(f.ContactEmail),
		ContactPhone: optional(f.ContactPhone),
		GSTNumber:    optional(f.GSTNumber),
		Address:      optional(f.Address),
		PaymentTerms: optional(f.PaymentTerms),
		Status:       domain.VendorStatus(f.Status),
		Notes:        optional(f.Notes),
	}
	if current != nil {
		keepBase(&v.BaseModel, &current.BaseModel)
		v.VendorCode = current.VendorCode
	}
	return v, nil
}

// RequirementItemForm is one line of the requirement dialog
type RequirementItemForm struct {
	ItemName      string `json:"item_name" validate:"required,max=200"`
	Quantity      string `json:"quantity" validate:"required,numeric"`
	UnitOfMeasure string `json:"unit_of_measure" validate:"max=20"`
	Category      string `json:"category" validate:"max=100"`
}

// RequirementForm is the add/edit requirement dialog
type RequirementForm struct {
	ClientID        string                `json:"client_id" validate:"required,uuid"`
	Title           string                `json:"title" validate:"required,max=200"`
	Description     string                `json:"description"`
	Status          string                `json:"status" validate:"omitempty,oneof=new in_discussion quoted on_hold closed"`
	Priority        string                `json:"priority" validate:"omitempty,oneof=low medium high"`
	RequiredByDate  string                `json:"required_by_date" validate:"omitempty,date"`
	EstimatedBudget string                `json:"estimated_budget" validate:"omitempty,numeric"`
	AssignedTo      string                `json:"assigned_to" validate:"omitempty,uuid"`
	Items           []RequirementItemForm `json:"items" validate:"dive"`
}

func (f RequirementForm) ToRecord(current *domain.Requirement) (*domain.Requirement, error) {
	budget, err := parseNullDecimal("estimated_budget", f.EstimatedBudget)
	if err != nil {
		return nil, err
	}
	r := &domain.Requirement{
		ClientID:        f.ClientID,
		Title:           strings.TrimSpace(f.Title),
		Description:     optional(f.Description),
		Status:          domain.RequirementStatus(f.Status),
		RequiredByDate:  optionalDate(f.RequiredByDate),
		EstimatedBudget: budget,
		AssignedTo:      optional(f.AssignedTo),
	}
	if f.Priority != "" {
		p := domain.Priority(f.Priority)
		r.Priority = &p
	}
	for _, item := range f.Items {
		qty, err := parseDecimal("items.quantity", item.Quantity)
		if err != nil {
			return nil, err
		}
		r.Items = append(r.Items, domain.RequirementItem{
			ItemName:      strings.TrimSpace(item.ItemName),
			Quantity:      qty,
			UnitOfMeasure: optional(item.UnitOfMeasure),
			Category:      optional(item.Category),
		})
	}
	if current != nil {
		keepBase(&r.BaseModel, &current.BaseModel)
		r.CreatedBy = current.CreatedBy
	}
	return r, nil
}

// QuoteForm is the add/edit quote dialog. Tax and total are computed by the server.
type QuoteForm struct {
	RequirementID    string `json:"requirement_id" validate:"required,uuid"`
	ClientID         string `json:"client_id" validate:"required,uuid"`
	CurrencyCode     string `json:"currency_code" validate:"required,len=3"`
	DefaultMarginPct string `json:"default_margin_pct" validate:"omitempty,numeric"`
	TaxPct           string `json:"tax_pct" validate:"omitempty,numeric"`
	SubtotalCost     string `json:"subtotal_cost" validate:"omitempty,numeric"`
	SubtotalPrice    string `json:"subtotal_price" validate:"required,numeric"`
	Status           string `json:"status" validate:"omitempty,oneof=draft sent accepted rejected expired"`
	ValidTill        string `json:"valid_till" validate:"omitempty,date"`
	Notes            string `json:"notes"`
}

func (f QuoteForm) ToRecord(current *domain.Quote) (*domain.Quote, error) {
	margin, err := parseDecimal("default_margin_pct", f.DefaultMarginPct)
	if err != nil {
		return nil, err
	}
	tax, err := parseNullDecimal("tax_pct", f.TaxPct)
	if err != nil {
		return nil, err
	}
	cost, err := parseDecimal("subtotal_cost", f.SubtotalCost)
	if err != nil {
		return nil, err
	}
	price, err := parseDecimal("subtotal_price", f.SubtotalPrice)
	if err != nil {
		return nil, err
	}
	q := &domain.Quote{
		RequirementID:    f.RequirementID,
		ClientID:         f.ClientID,
		CurrencyCode:     strings.ToUpper(strings.TrimSpace(f.CurrencyCode)),
		DefaultMarginPct: margin,
		TaxPct:           tax,
		SubtotalCost:     cost,
		SubtotalPrice:    price,
		Status:           domain.QuoteStatus(f.Status),
		ValidTill:        optionalDate(f.ValidTill),
		Notes:            optional(f.Notes),
	}
	if current != nil {
		keepBase(&q.BaseModel, &current.BaseModel)
		q.QuoteNumber = current.QuoteNumber
		q.CreatedBy = current.CreatedBy
	}
	return q, nil
}

// SalesOrderForm is the add/edit sales order dialog
type SalesOrderForm struct {
	ClientID      string `json:"client_id" validate:"required,uuid"`
	RequirementID string `json:"requirement_id" validate:"omitempty,uuid"`
	QuoteID       string `json:"quote_id" validate:"omitempty,uuid"`
	Status        string `json:"status" validate:"omitempty,oneof=draft confirmed in_progress delivered cancelled"`
	OrderDate     string `json:"order_date" validate:"omitempty,date"`
	CurrencyCode  string `json:"currency_code" validate:"required,len=3"`
	TotalCost     string `json:"total_cost" validate:"omitempty,numeric"`
	TotalPrice    string `json:"total_price" validate:"required,numeric"`
	Notes         string `json:"notes"`
}

func (f SalesOrderForm) ToRecord(current *domain.SalesOrder) (*domain.SalesOrder, error) {
	cost, err := parseDecimal("total_cost", f.TotalCost)
	if err != nil {
		return nil, err
	}
	price, err := parseDecimal("total_price", f.TotalPrice)
	if err != nil {
		return nil, err
	}
	o := &domain.SalesOrder{
		ClientID:      f.ClientID,
		RequirementID: optional(f.RequirementID),
		QuoteID:       optional(f.QuoteID),
		Status:        domain.SalesOrderStatus(f.Status),
		OrderDate:     domain.Date(strings.TrimSpace(f.OrderDate)),
		CurrencyCode:  strings.ToUpper(strings.TrimSpace(f.CurrencyCode)),
		TotalCost:     cost,
		TotalPrice:    price,
		Notes:         optional(f.Notes),
	}
	if current != nil {
		keepBase(&o.BaseModel, &current.BaseModel)
		o.OrderNumber = current.OrderNumber
		o.CreatedBy = current.CreatedBy
	}
	return o, nil
}

// ExpenseForm is the add/edit expense dialog
type ExpenseForm struct {
	CategoryCode  string `json:"category_code" validate:"required,oneof=food cab client_gift laundry accommodation other"`
	Amount        string `json:"amount" validate:"required,numeric"`
	CurrencyCode  string `json:"currency_code" validate:"required,len=3"`
	ExpenseDate   string `json:"expense_date" validate:"required,date"`
	ClientID      string `json:"client_id" validate:"omitempty,uuid"`
	RequirementID string `json:"requirement_id" validate:"omitempty,uuid"`
	MerchantName  string `json:"merchant_name" validate:"max=200"`
	BillNumber    string `json:"bill_number" validate:"max=100"`
	Notes         string `json:"notes"`
	ReceiptURL    string `json:"receipt_url" validate:"max=1000"`
}

func (f ExpenseForm) ToRecord(current *domain.Expense) (*domain.Expense, error) {
	amount, err := parseDecimal("amount", f.Amount)
	if err != nil {
		return nil, err
	}
	e := &domain.Expense{
		CategoryCode:  domain.ExpenseCategory(f.CategoryCode),
		Amount:        amount,
		CurrencyCode:  strings.ToUpper(strings.TrimSpace(f.CurrencyCode)),
		ExpenseDate:   domain.Date(strings.TrimSpace(f.ExpenseDate)),
		ClientID:      optional(f.ClientID),
		RequirementID: optional(f.RequirementID),
		MerchantName:  optional(f.MerchantName),
		BillNumber:    optional(f.BillNumber),
		Notes:         optional(f.Notes),
		ReceiptURL:    optional(f.ReceiptURL),
	}
	if current != nil {
		keepBase(&e.BaseModel, &current.BaseModel)
		e.ExecutiveID = current.ExecutiveID
		e.Status = current.Status
		e.ApprovedBy = current.ApprovedBy
		e.CategoryID = current.CategoryID
	}
	return e, nil
}
