package forms

import (
	"strings"

	"github.com/ledgerline/crm-api/internal/domain"
)

// UserForm is the add/edit user dialog. Password is required when adding and
// left blank on edit to keep the current one.
type UserForm struct {
	FullName        string `json:"full_name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email,max=255"`
	Permission      string `json:"permission" validate:"required,oneof=super_admin admin read write full_access"`
	Status          string `json:"status" validate:"omitempty,oneof=active suspended"`
	Password        string `json:"password" validate:"omitempty,password"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`

	// Acknowledge confirms a change to the signed-in account's own credentials.
	Acknowledge bool `json:"acknowledge"`
}

func UserFormFrom(u *domain.User) UserForm {
	return UserForm{
		FullName:   u.FullName,
		Email:      u.Email,
		Permission: string(u.Permission),
		Status:     string(u.Status),
	}
}

// Check validates the form. adding makes the password mandatory.
func (f UserForm) Check(adding bool) Errors {
	errs := Validate(f)
	if adding && f.Password == "" {
		if errs == nil {
			errs = Errors{}
		}
		errs["password"] = domain.GetValidationMessage("required")
	}
	return errs
}

func (f UserForm) ToRecord(current *domain.User) (*domain.User, error) {
	u := &domain.User{
		FullName:   strings.TrimSpace(f.FullName),
		Email:      strings.ToLower(strings.TrimSpace(f.Email)),
		Permission: domain.Permission(f.Permission),
		Status:     domain.UserStatus(f.Status),
		Password:   f.Password,
	}
	if current != nil {
		keepBase(&u.BaseModel, &current.BaseModel)
	}
	return u, nil
}

// SelfEditOutcome is what the session must do after saving its own account
type SelfEditOutcome int

const (
	// SelfEditNone: the edited account is not the signed-in one, or nothing changed
	SelfEditNone SelfEditOutcome = iota
	// SelfEditReload: profile fields changed; the session identity must be reloaded
	SelfEditReload
	// SelfEditSignOut: the password changed; the session must sign out
	SelfEditSignOut
)

func (o SelfEditOutcome) String() string {
	switch o {
	case SelfEditReload:
		return "reload"
	case SelfEditSignOut:
		return "sign_out"
	default:
		return "none"
	}
}

// SelfEdit describes an edit of the signed-in user's own account
type SelfEdit struct {
	NeedsAcknowledgement bool
	Outcome              SelfEditOutcome
}

// EvaluateSelfEdit compares form with current when callerID owns the row.
// An email or password change needs acknowledgement before submitting.
func EvaluateSelfEdit(callerID string, current *domain.User, form UserForm) SelfEdit {
	if current == nil || callerID == "" || current.ID != callerID {
		return SelfEdit{}
	}

	emailChanged := !strings.EqualFold(strings.TrimSpace(form.Email), current.Email)
	passwordChanged := form.Password != ""
	otherChanged := strings.TrimSpace(form.FullName) != current.FullName ||
		domain.Permission(form.Permission) != current.Permission ||
		(form.Status != "" && domain.UserStatus(form.Status) != current.Status)

	out := SelfEdit{NeedsAcknowledgement: emailChanged || passwordChanged}
	switch {
	case passwordChanged:
		out.Outcome = SelfEditSignOut
	case emailChanged || otherChanged:
		out.Outcome = SelfEditReload
	}
	return out
}

// CheckSelfEdit returns the acknowledgement error for an unconfirmed self-edit
func CheckSelfEdit(edit SelfEdit, form UserForm) Errors {
	if edit.NeedsAcknowledgement && !form.Acknowledge {
		return Errors{"acknowledge": "Confirm the change to your own sign-in details"}
	}
	return nil
}
