// Package table is the client-side data grid shared by every entity list:
// sorting, column visibility, selection, search, facets, a created_at date
// range and pagination over rows already held in memory.
package table

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ledgerline/crm-api/internal/domain"
)

// DefaultPageSize is the number of rows on a page unless overridden
const DefaultPageSize = 10

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotSortable   = errors.New("column is not sortable")
	ErrNotFaceted    = errors.New("column has no facet filter")
	ErrFixedSearch   = errors.New("search column is fixed")
)

// RecordPtr constrains PT to a pointer to T carrying a BaseModel
type RecordPtr[T any] interface {
	*T
	domain.Record
}

// Column describes one grid column
type Column[T any] struct {
	Key    string
	Header string
	Value  func(*T) interface{}

	// Hidden columns start invisible and can be toggled on
	Hidden   bool
	NoSort   bool
	NoHide   bool
	Faceted  bool
	MaxWidth int
}

// FacetOption is one selectable value of a faceted filter
type FacetOption struct {
	Value string
	Count int
}

type settings struct {
	pageSize     int
	searchColumn string
	now          func() time.Time
}

// Option configures a Table
type Option func(*settings)

// WithPageSize overrides DefaultPageSize
func WithPageSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithSearchColumn fixes the searched column; otherwise the field is selectable
func WithSearchColumn(key string) Option {
	return func(s *settings) { s.searchColumn = key }
}

// WithClock sets the clock used when the date range has no end
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Table is a view over rows. It is safe for concurrent use.
type Table[T any, PT RecordPtr[T]] struct {
	mu sync.RWMutex

	columns []Column[T]
	index   map[string]int
	rows    []T

	visible     map[string]bool
	sortKey     string
	sortDesc    bool
	search      string
	searchField string
	fixedSearch bool
	facets      map[string]map[string]bool
	from, to    *time.Time
	selected    map[string]bool
	page        int
	pageSize    int
	now         func() time.Time
}

// New builds a table over columns. The first column is the default search field.
func New[T any, PT RecordPtr[T]](columns []Column[T], opts ...Option) *Table[T, PT] {
	s := settings{pageSize: DefaultPageSize, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}

	t := &Table[T, PT]{
		columns:  columns,
		index:    make(map[string]int, len(columns)),
		visible:  make(map[string]bool, len(columns)),
		facets:   make(map[string]map[string]bool),
		selected: make(map[string]bool),
		pageSize: s.pageSize,
		now:      s.now,
	}
	for i, c := range columns {
		t.index[c.Key] = i
		t.visible[c.Key] = !c.Hidden
	}
	if s.searchColumn != "" {
		t.searchField = s.searchColumn
		t.fixedSearch = true
	} else if len(columns) > 0 {
		t.searchField = columns[0].Key
	}
	return t
}

// SetRows replaces the data. Selections of rows that are gone are dropped.
func (t *Table[T, PT]) SetRows(rows []T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = rows

	present := make(map[string]bool, len(rows))
	for i := range rows {
		present[PT(&rows[i]).Base().ID] = true
	}
	for id := range t.selected {
		if !present[id] {
			delete(t.selected, id)
		}
	}
	t.clampPageLocked()
}

func (t *Table[T, PT]) column(key string) (Column[T], error) {
	i, ok := t.index[key]
	if !ok {
		return Column[T]{}, ErrUnknownColumn
	}
	return t.columns[i], nil
}

// SortBy orders rows by key. An empty key restores insertion order.
func (t *Table[T, PT]) SortBy(key string, desc bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if key != "" {
		c, err := t.column(key)
		if err != nil {
			return err
		}
		if c.NoSort {
			return ErrNotSortable
		}
	}
	t.sortKey, t.sortDesc = key, desc
	return nil
}

// ToggleSort cycles key through ascending, descending and unsorted
func (t *Table[T, PT]) ToggleSort(key string) error {
	t.mu.RLock()
	current, desc := t.sortKey, t.sortDesc
	t.mu.RUnlock()

	switch {
	case current != key:
		return t.SortBy(key, false)
	case !desc:
		return t.SortBy(key, true)
	default:
		return t.SortBy("", false)
	}
}

// Sort returns the active sort column and direction
func (t *Table[T, PT]) Sort() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortKey, t.sortDesc
}

// SetColumnVisible shows or hides a column
func (t *Table[T, PT]) SetColumnVisible(key string, visible bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.column(key)
	if err != nil {
		return err
	}
	if c.NoHide && !visible {
		return nil
	}
	t.visible[key] = visible
	return nil
}

// VisibleColumns returns the columns in display order
func (t *Table[T, PT]) VisibleColumns() []Column[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Column[T], 0, len(t.columns))
	for _, c := range t.columns {
		if t.visible[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// SetSearch filters rows whose search field contains query, ignoring case
func (t *Table[T, PT]) SetSearch(query string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = strings.TrimSpace(query)
	t.page = 0
}

// SetSearchField selects which column the search applies to
func (t *Table[T, PT]) SetSearchField(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fixedSearch {
		return ErrFixedSearch
	}
	if _, err := t.column(key); err != nil {
		return err
	}
	t.searchField = key
	t.page = 0
	return nil
}

// SearchField returns the searched column key
func (t *Table[T, PT]) SearchField() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.searchField
}

// SetFacet keeps rows whose key column equals one of values. No values clears it.
func (t *Table[T, PT]) SetFacet(key string, values ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, err := t.column(key)
	if err != nil {
		return err
	}
	if !c.Faceted {
		return ErrNotFaceted
	}
	if len(values) == 0 {
		delete(t.facets, key)
	} else {
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		t.facets[key] = set
	}
	t.page = 0
	return nil
}

// FacetOptions lists the distinct values of a faceted column with the number
// of rows each would match under the other active filters.
func (t *Table[T, PT]) FacetOptions(key string) ([]FacetOption, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, err := t.column(key)
	if err != nil {
		return nil, err
	}
	if !c.Faceted {
		return nil, ErrNotFaceted
	}

	counts := make(map[string]int)
	for i := range t.rows {
		row := &t.rows[i]
		if !t.matchesLocked(row, key) {
			continue
		}
		counts[Format(c.Value(row))]++
	}
	out := make([]FacetOption, 0, len(counts))
	for v, n := range counts {
		if v == "" {
			continue
		}
		out = append(out, FacetOption{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out, nil
}

// SetDateRange filters on created_at. from starts at 00:00:00.000 and to ends
// at 23:59:59.999 of their days; a nil to means now. Both nil clears the filter.
func (t *Table[T, PT]) SetDateRange(from, to *time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.from, t.to = nil, nil
	if from != nil {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		t.from = &start
	}
	if to != nil {
		end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(999*time.Millisecond), to.Location())
		t.to = &end
	}
	t.page = 0
}

// ClearFilters drops search, facets and the date range
func (t *Table[T, PT]) ClearFilters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.search = ""
	t.facets = make(map[string]map[string]bool)
	t.from, t.to = nil, nil
	t.page = 0
}

// matchesLocked applies every filter except the facet named skip
func (t *Table[T, PT]) matchesLocked(row *T, skip string) bool {
	if t.from != nil || t.to != nil {
		created := PT(row).Base().CreatedAt
		if t.from != nil && created.Before(*t.from) {
			return false
		}
		end := t.now()
		if t.to != nil {
			end = *t.to
		}
		if created.After(end) {
			return false
		}
	}

	if t.search != "" {
		c, err := t.column(t.searchField)
		if err == nil && !strings.Contains(strings.ToLower(Format(c.Value(row))), strings.ToLower(t.search)) {
			return false
		}
	}

	for key, set := range t.facets {
		if key == skip {
			continue
		}
		c, err := t.column(key)
		if err != nil {
			continue
		}
		if !set[Format(c.Value(row))] {
			return false
		}
	}
	return true
}

// filteredLocked returns pointers into rows after filters and sort
func (t *Table[T, PT]) filteredLocked() []*T {
	out := make([]*T, 0, len(t.rows))
	for i := range t.rows {
		if t.matchesLocked(&t.rows[i], "") {
			out = append(out, &t.rows[i])
		}
	}
	if t.sortKey == "" {
		return out
	}
	c, err := t.column(t.sortKey)
	if err != nil {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		cmp := Compare(c.Value(out[i]), c.Value(out[j]))
		if t.sortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// Rows returns every row passing the filters, sorted
func (t *Table[T, PT]) Rows() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return copyRows(t.filteredLocked())
}

// Total is the number of rows passing the filters
func (t *Table[T, PT]) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.filteredLocked())
}

// Page returns the rows of the current page
func (t *Table[T, PT]) Page() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rows := t.filteredLocked()
	start := t.page * t.pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := start + t.pageSize
	if end > len(rows) {
		end = len(rows)
	}
	return copyRows(rows[start:end])
}

// PageIndex is the zero-based current page
func (t *Table[T, PT]) PageIndex() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.page
}

// PageCount is at least 1
func (t *Table[T, PT]) PageCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageCountLocked()
}

func (t *Table[T, PT]) pageCountLocked() int {
	n := len(t.filteredLocked())
	if n == 0 {
		return 1
	}
	return (n + t.pageSize - 1) / t.pageSize
}

// SetPage moves to page (zero-based), clamped to the available pages
func (t *Table[T, PT]) SetPage(page int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.page = page
	t.clampPageLocked()
}

// SetPageSize changes the page size and returns to the first page
func (t *Table[T, PT]) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pageSize = n
	t.page = 0
}

func (t *Table[T, PT]) clampPageLocked() {
	if last := t.pageCountLocked() - 1; t.page > last {
		t.page = last
	}
	if t.page < 0 {
		t.page = 0
	}
}

// Select marks or unmarks the row with id
func (t *Table[T, PT]) Select(id string, selected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if selected {
		t.selected[id] = true
	} else {
		delete(t.selected, id)
	}
}

// SelectPage marks every row of the current page
func (t *Table[T, PT]) SelectPage() {
	for _, row := range t.Page() {
		t.Select(PT(&row).Base().ID, true)
	}
}

// ClearSelection unmarks every row
func (t *Table[T, PT]) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selected = make(map[string]bool)
}

// Selected returns the marked rows in data order
func (t *Table[T, PT]) Selected() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []T
	for i := range t.rows {
		if t.selected[PT(&t.rows[i]).Base().ID] {
			out = append(out, t.rows[i])
		}
	}
	return out
}

// Headers returns the visible column headers
func (t *Table[T, PT]) Headers() []string {
	cols := t.VisibleColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out
}

// Cells formats row for the visible columns
func (t *Table[T, PT]) Cells(row *T) []string {
	cols := t.VisibleColumns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = truncate(Format(c.Value(row)), c.MaxWidth)
	}
	return out
}

func copyRows[T any](rows []*T) []T {
	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
