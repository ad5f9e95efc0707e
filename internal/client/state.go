package client

import (
	"context"
	"sync"

	"github.com/ledgerline/crm-api/internal/domain"
	"go.uber.org/zap"
)

type (
	ClientStore      = Store[domain.Client, *domain.Client]
	LeadStore        = Store[domain.Lead, *domain.Lead]
	VendorStore      = Store[domain.Vendor, *domain.Vendor]
	RequirementStore = Store[domain.Requirement, *domain.Requirement]
	QuoteStore       = Store[domain.Quote, *domain.Quote]
	SalesOrderStore  = Store[domain.SalesOrder, *domain.SalesOrder]
	ExpenseStore     = Store[domain.Expense, *domain.Expense]
	UserStore        = Store[domain.User, *domain.User]
)

// AppState owns one store per collection and the dialog state of a session
type AppState struct {
	API    *APIClient
	logger *zap.Logger

	Clients      *ClientStore
	Leads        *LeadStore
	Vendors      *VendorStore
	Requirements *RequirementStore
	Quotes       *QuoteStore
	SalesOrders  *SalesOrderStore
	Expenses     *ExpenseStore
	Users        *UserStore

	Dialogs *DialogState
}

// NewAppState creates empty stores bound to api
func NewAppState(api *APIClient, notifier Notifier, logger *zap.Logger) *AppState {
	s := &AppState{
		API:          api,
		logger:       logger,
		Clients:      NewStore[domain.Client](api, ClientsResource, notifier, logger),
		Leads:        NewStore[domain.Lead](api, LeadsResource, notifier, logger),
		Vendors:      NewStore[domain.Vendor](api, VendorsResource, notifier, logger),
		Requirements: NewStore[domain.Requirement](api, RequirementsResource, notifier, logger),
		Quotes:       NewStore[domain.Quote](api, QuotesResource, notifier, logger),
		SalesOrders:  NewStore[domain.SalesOrder](api, SalesOrdersResource, notifier, logger),
		Expenses:     NewStore[domain.Expense](api, ExpensesResource, notifier, logger),
		Users:        NewStore[domain.User](api, UsersResource, notifier, logger),
		Dialogs:      NewDialogState(),
	}

	s.Leads.SetEnricher(func(l *domain.Lead) { l.AssignedToName = s.UserName(l.AssignedTo) })
	s.Requirements.SetEnricher(func(r *domain.Requirement) { r.AssignedToName = s.UserName(r.AssignedTo) })
	return s
}

// UserName resolves a user id to the full name held by the user store.
// It returns nil for a nil id or a user the store does not hold.
func (s *AppState) UserName(id *string) *string {
	if id == nil {
		return nil
	}
	for _, u := range s.Users.Items() {
		if u.ID == *id {
			name := u.FullName
			return &name
		}
	}
	return nil
}

// LoadUsers loads the user store and refreshes names derived from it
func (s *AppState) LoadUsers(ctx context.Context, force bool) error {
	if err := s.Users.Load(ctx, force); err != nil {
		return err
	}
	s.Leads.Reenrich()
	s.Requirements.Reenrich()
	return nil
}

// LoadLeads loads users first so assigned_to_name can be resolved
func (s *AppState) LoadLeads(ctx context.Context, force bool) error {
	s.awaitUsers(ctx)
	return s.Leads.Load(ctx, force)
}

// LoadRequirements loads users first so assigned_to_name can be resolved
func (s *AppState) LoadRequirements(ctx context.Context, force bool) error {
	s.awaitUsers(ctx)
	return s.Requirements.Load(ctx, force)
}

// awaitUsers loads the user store; a failure only leaves names unresolved
func (s *AppState) awaitUsers(ctx context.Context) {
	if err := s.Users.Load(ctx, false); err != nil {
		s.logger.Warn("user list unavailable, assigned names left empty", zap.Error(err))
	}
}

// Entity identifies a collection in DialogState
type Entity string

const (
	EntityClient      Entity = "client"
	EntityLead        Entity = "lead"
	EntityVendor      Entity = "vendor"
	EntityRequirement Entity = "requirement"
	EntityQuote       Entity = "quote"
	EntitySalesOrder  Entity = "sales_order"
	EntityExpense     Entity = "expense"
	EntityUser        Entity = "user"
)

// DialogState tracks which add/edit dialog is open and the row it edits
type DialogState struct {
	mu      sync.Mutex
	open    map[Entity]bool
	current map[Entity]interface{}
}

func NewDialogState() *DialogState {
	return &DialogState{
		open:    make(map[Entity]bool),
		current: make(map[Entity]interface{}),
	}
}

// Open shows the dialog for entity; row is nil when adding
func (d *DialogState) Open(entity Entity, row interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open[entity] = true
	if row == nil {
		delete(d.current, entity)
		return
	}
	d.current[entity] = row
}

// Close hides the dialog and forgets the edited row
func (d *DialogState) Close(entity Entity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, entity)
	delete(d.current, entity)
}

func (d *DialogState) IsOpen(entity Entity) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open[entity]
}

// Current returns the row being edited, nil when adding or closed
func (d *DialogState) Current(entity Entity) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current[entity]
}
