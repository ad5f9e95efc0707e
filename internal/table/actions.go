package table

import (
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
)

// Actions says which row actions are offered. It is display gating only;
// the server enforces its own rules.
type Actions struct {
	Edit   bool
	Delete bool
}

// RowActions gates edit and delete of row for caller. User rows need an admin,
// and a super admin's row is never offered to another account.
func RowActions(caller *auth.UserContext, row domain.Record) Actions {
	if caller == nil {
		return Actions{}
	}

	if u, ok := row.(*domain.User); ok {
		if !caller.IsAdmin() && u.ID != caller.UserID {
			return Actions{}
		}
		if u.Permission == domain.PermissionSuperAdmin && u.ID != caller.UserID && !caller.System {
			return Actions{}
		}
		return Actions{
			Edit:   true,
			Delete: caller.IsAdmin() && u.ID != caller.UserID,
		}
	}

	return Actions{Edit: caller.CanWrite(), Delete: caller.CanDelete()}
}
