package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BaseModel carries the identifier and write timestamps shared by every entity.
// Timestamps are stamped by the service layer, not by gorm, so backfilled values survive.
type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

// Base exposes the embedded model to generic code.
func (b *BaseModel) Base() *BaseModel { return b }

// Record is implemented by every persisted entity through BaseModel.
type Record interface {
	Base() *BaseModel
}

// Owned is implemented by entities carrying an immutable creator reference.
type Owned interface {
	Owner() *string
}

// Coded is implemented by entities carrying a generated human-readable code.
type Coded interface {
	Code() *string
}

// ClientIndustry classifies a client's sector
type ClientIndustry string

const (
	ClientIndustryTechnology    ClientIndustry = "technology"
	ClientIndustryManufacturing ClientIndustry = "manufacturing"
	ClientIndustryRetail        ClientIndustry = "retail"
	ClientIndustryHealthcare    ClientIndustry = "healthcare"
	ClientIndustryFinance       ClientIndustry = "finance"
	ClientIndustryEducation     ClientIndustry = "education"
	ClientIndustryHospitality   ClientIndustry = "hospitality"
	ClientIndustryLogistics     ClientIndustry = "logistics"
	ClientIndustryOther         ClientIndustry = "other"
)

// Client represents a customer organization or person
type Client struct {
	BaseModel
	ClientCode        string          `gorm:"type:varchar(20);not null;uniqueIndex" json:"client_code"`
	CompanyName       *string         `gorm:"type:varchar(200)" json:"company_name"`
	ContactName       string          `gorm:"type:varchar(200);not null" json:"contact_name" validate:"required,max=200"`
	ContactEmail      string          `gorm:"type:varchar(255);not null" json:"contact_email" validate:"required,email,max=255"`
	ContactPhone      *string         `gorm:"type:varchar(50)" json:"contact_phone" validate:"omitempty,max=50"`
	Industry          *ClientIndustry `gorm:"type:varchar(50)" json:"industry" validate:"omitempty,oneof=technology manufacturing retail healthcare finance education hospitality logistics other"`
	Website           *string         `gorm:"type:varchar(500)" json:"website" validate:"omitempty,url"`
	NextFollowUpAt    *Date           `gorm:"type:date" json:"next_follow_up_at" validate:"omitempty,date"`
	LastInteractionAt *time.Time      `json:"last_interaction_at"`
	Notes             *string         `gorm:"type:text" json:"notes"`
	CreatedBy         string          `gorm:"type:uuid;not null" json:"created_by"`
}

func (c *Client) Owner() *string { return &c.CreatedBy }
func (c *Client) Code() *string  { return &c.ClientCode }

// LeadSource is where a lead came from
type LeadSource string

const (
	LeadSourceWebsite  LeadSource = "website"
	LeadSourceReferral LeadSource = "referral"
	LeadSourceEmail    LeadSource = "email"
	LeadSourcePhone    LeadSource = "phone"
	LeadSourceEvent    LeadSource = "event"
	LeadSourceWhatsApp LeadSource = "whatsapp"
)

// LeadStatus is the qualification state of a lead
type LeadStatus string

const (
	LeadStatusNew          LeadStatus = "new"
	LeadStatusInProgress   LeadStatus = "in_progress"
	LeadStatusIncompatible LeadStatus = "incompatible"
	LeadStatusNotServiced  LeadStatus = "not_serviced"
	LeadStatusConverted    LeadStatus = "converted"
)

// Lead is a prospective client contact
type Lead struct {
	BaseModel
	ClientCode   *string    `gorm:"type:varchar(20)" json:"client_code"`
	ContactName  string     `gorm:"type:varchar(200);not null" json:"contact_name" validate:"required,max=200"`
	ContactEmail string     `gorm:"type:varchar(255);not null" json:"contact_email" validate:"required,email,max=255"`
	ContactPhone *string    `gorm:"type:varchar(50)" json:"contact_phone" validate:"omitempty,max=50"`
	Source       LeadSource `gorm:"type:varchar(20);not null" json:"source" validate:"required,oneof=website referral email phone event whatsapp"`
	Status       LeadStatus `gorm:"type:varchar(20);not null;default:'new'" json:"status" validate:"omitempty,oneof=new in_progress incompatible not_serviced converted"`
	AssignedTo   *string    `gorm:"type:uuid;index" json:"assigned_to" validate:"omitempty,uuid"`
	FollowUpAt   *Date      `gorm:"type:date" json:"follow_up_at" validate:"omitempty,date"`
	Notes        *string    `gorm:"type:text" json:"notes"`
	CreatedBy    string     `gorm:"type:uuid;not null" json:"created_by"`

	// AssignedToName is resolved from the user list on the client side.
	AssignedToName *string `gorm:"-" json:"assigned_to_name,omitempty"`
}

func (l *Lead) Owner() *string { return &l.CreatedBy }

// VendorStatus is whether a vendor is in use
type VendorStatus string

const (
	VendorStatusActive   VendorStatus = "active"
	VendorStatusInactive VendorStatus = "inactive"
)

// Vendor is a supplier of goods or services
type Vendor struct {
	BaseModel
	VendorCode   string       `gorm:"type:varchar(20);not null;uniqueIndex" json:"vendor_code"`
	CompanyName  string       `gorm:"type:varchar(200);not null" json:"company_name" validate:"required,max=200"`
	ContactName  *string      `gorm:"type:varchar(200)" json:"contact_name" validate:"omitempty,max=200"`
	ContactEmail *string      `gorm:"type:varchar(255)" json:"contact_email" validate:"omitempty,email"`
	ContactPhone *string      `gorm:"type:varchar(50)" json:"contact_phone" validate:"omitempty,max=50"`
	GSTNumber    *string      `gorm:"type:varchar(20);column:gst_number;index" json:"gst_number" validate:"omitempty,max=20"`
	Address      *string      `gorm:"type:varchar(500)" json:"address"`
	PaymentTerms *string      `gorm:"type:varchar(100)" json:"payment_terms"`
	Status       VendorStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"omitempty,oneof=active inactive"`
	Notes        *string      `gorm:"type:text" json:"notes"`
}

func (v *Vendor) Code() *string { return &v.VendorCode }

// RequirementStatus tracks a requirement through quoting
type RequirementStatus string

const (
	RequirementStatusNew          RequirementStatus = "new"
	RequirementStatusInDiscussion RequirementStatus = "in_discussion"
	RequirementStatusQuoted       RequirementStatus = "quoted"
	RequirementStatusOnHold       RequirementStatus = "on_hold"
	RequirementStatusClosed       RequirementStatus = "closed"
)

// Priority is a coarse urgency level
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Requirement is a client's request for goods or services
type Requirement struct {
	BaseModel
	ClientID        string              `gorm:"type:uuid;not null;index" json:"client_id" validate:"required"`
	Title           string              `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description     *string             `gorm:"type:text" json:"description"`
	Status          RequirementStatus   `gorm:"type:varchar(20);not null;default:'new'" json:"status" validate:"omitempty,oneof=new in_discussion quoted on_hold closed"`
	Priority        *Priority           `gorm:"type:varchar(10)" json:"priority" validate:"omitempty,oneof=low medium high"`
	RequiredByDate  *Date               `gorm:"type:date" json:"required_by_date" validate:"omitempty,date"`
	EstimatedBudget decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"estimated_budget"`
	AssignedTo      *string             `gorm:"type:uuid;index" json:"assigned_to" validate:"omitempty,uuid"`
	CreatedBy       string              `gorm:"type:uuid;not null" json:"created_by"`
	Items           []RequirementItem   `gorm:"foreignKey:RequirementID;constraint:OnDelete:CASCADE" json:"items,omitempty" validate:"dive"`

	AssignedToName *string `gorm:"-" json:"assigned_to_name,omitempty"`
}

func (r *Requirement) Owner() *string { return &r.CreatedBy }

// RequirementItem is one line of a requirement
type RequirementItem struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	RequirementID string          `gorm:"type:uuid;not null;index" json:"requirement_id"`
	ItemName      string          `gorm:"type:varchar(200);not null" json:"item_name" validate:"required,max=200"`
	Quantity      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"quantity"`
	UnitOfMeasure *string         `gorm:"type:varchar(20)" json:"unit_of_measure"`
	Category      *string         `gorm:"type:varchar(100)" json:"category"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime:false" json:"created_at"`
}

// QuoteStatus tracks a quote's lifecycle
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// Quote is a priced offer against a requirement
type Quote struct {
	BaseModel
	RequirementID    string              `gorm:"type:uuid;not null;index" json:"requirement_id" validate:"required"`
	ClientID         string              `gorm:"type:uuid;not null;index" json:"client_id" validate:"required"`
	QuoteNumber      string              `gorm:"type:varchar(20);not null;uniqueIndex" json:"quote_number"`
	CurrencyCode     string              `gorm:"type:varchar(3);not null" json:"currency_code" validate:"required,len=3"`
	DefaultMarginPct decimal.Decimal     `gorm:"type:numeric(6,2);not null" json:"default_margin_pct"`
	TaxPct           decimal.NullDecimal `gorm:"type:numeric(6,2)" json:"tax_pct"`
	SubtotalCost     decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"subtotal_cost"`
	SubtotalPrice    decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"subtotal_price"`
	TaxAmount        decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"tax_amount"`
	TotalPrice       decimal.Decimal     `gorm:"type:numeric(14,2);not null" json:"total_price"`
	Status           QuoteStatus         `gorm:"type:varchar(20);not null;default:'draft'" json:"status" validate:"omitempty,oneof=draft sent accepted rejected expired"`
	ValidTill        *Date               `gorm:"type:date" json:"valid_till" validate:"omitempty,date"`
	Notes            *string             `gorm:"type:text" json:"notes"`
	CreatedBy        string              `gorm:"type:uuid;not null" json:"created_by"`
}

func (q *Quote) Owner() *string { return &q.CreatedBy }
func (q *Quote) Code() *string  { return &q.QuoteNumber }

// SalesOrderStatus tracks fulfilment of an order
type SalesOrderStatus string

const (
	SalesOrderStatusDraft      SalesOrderStatus = "draft"
	SalesOrderStatusConfirmed  SalesOrderStatus = "confirmed"
	SalesOrderStatusInProgress SalesOrderStatus = "in_progress"
	SalesOrderStatusDelivered  SalesOrderStatus = "delivered"
	SalesOrderStatusCancelled  SalesOrderStatus = "cancelled"
)

// SalesOrder is a confirmed order from a client
type SalesOrder struct {
	BaseModel
	ClientID      string           `gorm:"type:uuid;not null;index" json:"client_id" validate:"required"`
	RequirementID *string          `gorm:"type:uuid" json:"requirement_id"`
	QuoteID       *string          `gorm:"type:uuid" json:"quote_id"`
	OrderNumber   string           `gorm:"type:varchar(20);not null;uniqueIndex" json:"order_number"`
	Status        SalesOrderStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status" validate:"omitempty,oneof=draft confirmed in_progress delivered cancelled"`
	OrderDate     Date             `gorm:"type:date;not null" json:"order_date" validate:"omitempty,date"`
	CurrencyCode  string           `gorm:"type:varchar(3);not null" json:"currency_code" validate:"required,len=3"`
	TotalCost     decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"total_cost"`
	TotalPrice    decimal.Decimal  `gorm:"type:numeric(14,2);not null" json:"total_price"`
	Notes         *string          `gorm:"type:text" json:"notes"`
	CreatedBy     string           `gorm:"type:uuid;not null" json:"created_by"`
}

func (s *SalesOrder) Owner() *string { return &s.CreatedBy }
func (s *SalesOrder) Code() *string  { return &s.OrderNumber }

// ExpenseCategory is the coarse expense category code
type ExpenseCategory string

const (
	ExpenseCategoryFood          ExpenseCategory = "food"
	ExpenseCategoryCab           ExpenseCategory = "cab"
	ExpenseCategoryClientGift    ExpenseCategory = "client_gift"
	ExpenseCategoryLaundry       ExpenseCategory = "laundry"
	ExpenseCategoryAccommodation ExpenseCategory = "accommodation"
	ExpenseCategoryOther         ExpenseCategory = "other"
)

// ExpenseStatus is the approval state of an expense
type ExpenseStatus string

const (
	ExpenseStatusSubmitted ExpenseStatus = "submitted"
	ExpenseStatusApproved  ExpenseStatus = "approved"
	ExpenseStatusRejected  ExpenseStatus = "rejected"
)

// Expense is a claim filed by an executive
type Expense struct {
	BaseModel
	ExecutiveID   string          `gorm:"type:uuid;not null;index" json:"executive_id"`
	ClientID      *string         `gorm:"type:uuid" json:"client_id"`
	RequirementID *string         `gorm:"type:uuid" json:"requirement_id"`
	CategoryCode  ExpenseCategory `gorm:"type:varchar(20);not null" json:"category_code" validate:"required,oneof=food cab client_gift laundry accommodation other"`
	CategoryID    *string         `gorm:"type:uuid" json:"category_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CurrencyCode  string          `gorm:"type:varchar(3);not null" json:"currency_code" validate:"required,len=3"`
	ExpenseDate   Date            `gorm:"type:date;not null" json:"expense_date" validate:"required,date"`
	MerchantName  *string         `gorm:"type:varchar(200)" json:"merchant_name"`
	BillNumber    *string         `gorm:"type:varchar(100)" json:"bill_number"`
	Notes         *string         `gorm:"type:text" json:"notes"`
	ReceiptURL    *string         `gorm:"type:varchar(1000)" json:"receipt_url" validate:"omitempty,max=1000"`
	Status        ExpenseStatus   `gorm:"type:varchar(20);not null;default:'submitted'" json:"status" validate:"omitempty,oneof=submitted approved rejected"`
	ApprovedBy    *string         `gorm:"type:uuid" json:"approved_by"`
}

func (e *Expense) Owner() *string { return &e.ExecutiveID }

// Permission is a user's access level
type Permission string

const (
	PermissionSuperAdmin Permission = "super_admin"
	PermissionAdmin      Permission = "admin"
	PermissionRead       Permission = "read"
	PermissionWrite      Permission = "write"
	PermissionFullAccess Permission = "full_access"
)

// CanWrite reports whether the permission allows creating and editing rows.
func (p Permission) CanWrite() bool {
	return p == PermissionWrite || p.CanDelete()
}

// CanDelete reports whether the permission allows deleting rows.
func (p Permission) CanDelete() bool {
	return p == PermissionFullAccess || p.IsAdmin()
}

// IsAdmin reports whether the permission allows managing users.
func (p Permission) IsAdmin() bool {
	return p == PermissionAdmin || p == PermissionSuperAdmin
}

// UserStatus is whether an account can sign in
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

// User is an account that can sign in to the CRM
type User struct {
	BaseModel
	FullName     string     `gorm:"type:varchar(200);not null" json:"full_name" validate:"required,max=200"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email" validate:"required,email,max=255"`
	Permission   Permission `gorm:"type:varchar(20);not null;default:'read'" json:"permission" validate:"required,oneof=super_admin admin read write full_access"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status" validate:"omitempty,oneof=active suspended"`
	PasswordHash string     `gorm:"type:varchar(255)" json:"-"`

	// Password is only accepted on input and is cleared after hashing.
	Password string `gorm:"-" json:"password,omitempty" validate:"omitempty,password"`
}

// CodeSequence is the atomic counter backing generated codes for one prefix
type CodeSequence struct {
	Prefix    string    `gorm:"type:varchar(10);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}
