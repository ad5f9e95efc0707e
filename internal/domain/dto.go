package domain

// SuccessResponse acknowledges a delete or sign-out
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SignInRequest carries credentials for /api/auth/signin
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInResponse returns a session token and the signed-in user
type SignInResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      *User  `json:"user"`
}

// CurrentUserResponse describes the caller behind the current session
type CurrentUserResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"full_name"`
	Permission Permission `json:"permission"`
	System     bool       `json:"system"`
}

// ReceiptUploadResponse is returned after storing an expense receipt
type ReceiptUploadResponse struct {
	ReceiptURL string `json:"receipt_url"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
}

// ERPVendor is a supplier row read from the ERP data warehouse
type ERPVendor struct {
	ERPID        string  `json:"erp_id"`
	CompanyName  string  `json:"company_name"`
	GSTNumber    *string `json:"gst_number"`
	ContactEmail *string `json:"contact_email"`
	ContactPhone *string `json:"contact_phone"`
	Address      *string `json:"address"`
	PaymentTerms *string `json:"payment_terms"`
}

// ToVendor converts an ERP row into a vendor payload ready for creation
func (e ERPVendor) ToVendor() Vendor {
	return Vendor{
		CompanyName:  e.CompanyName,
		GSTNumber:    e.GSTNumber,
		ContactEmail: e.ContactEmail,
		ContactPhone: e.ContactPhone,
		Address:      e.Address,
		PaymentTerms: e.PaymentTerms,
		Status:       VendorStatusActive,
	}
}
