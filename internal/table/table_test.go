package table_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/table"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func lead(id, name string, status domain.LeadStatus, source domain.LeadSource, created time.Time) domain.Lead {
	return domain.Lead{
		BaseModel:    domain.BaseModel{ID: id, CreatedAt: created},
		ContactName:  name,
		ContactEmail: id + "@example.com",
		Status:       status,
		Source:       source,
	}
}

func leadTable(t *testing.T, opts ...table.Option) *table.Table[domain.Lead, *domain.Lead] {
	t.Helper()
	day := func(d int) time.Time { return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC) }
	tbl := table.New[domain.Lead](table.LeadColumns(), opts...)
	tbl.SetRows([]domain.Lead{
		lead("l1", "charlie", domain.LeadStatusNew, domain.LeadSourceWebsite, day(1)),
		lead("l2", "Alice", domain.LeadStatusInProgress, domain.LeadSourceReferral, day(2)),
		lead("l3", "bob", domain.LeadStatusNew, domain.LeadSourceReferral, day(3)),
		lead("l4", "Dave", domain.LeadStatusConverted, domain.LeadSourceEmail, day(4)),
	})
	return tbl
}

func names(rows []domain.Lead) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ContactName
	}
	return out
}

func TestTable_Sort(t *testing.T) {
	tbl := leadTable(t)
	assert.Equal(t, []string{"charlie", "Alice", "bob", "Dave"}, names(tbl.Rows()), "insertion order")

	require.NoError(t, tbl.ToggleSort("contact_name"))
	assert.Equal(t, []string{"Alice", "bob", "charlie", "Dave"}, names(tbl.Rows()), "case-insensitive ascending")

	require.NoError(t, tbl.ToggleSort("contact_name"))
	assert.Equal(t, []string{"Dave", "charlie", "bob", "Alice"}, names(tbl.Rows()))

	require.NoError(t, tbl.ToggleSort("contact_name"))
	key, _ := tbl.Sort()
	assert.Empty(t, key)

	require.NoError(t, tbl.SortBy("created_at", true))
	assert.Equal(t, "Dave", tbl.Rows()[0].ContactName)

	assert.ErrorIs(t, tbl.SortBy("nope", false), table.ErrUnknownColumn)
}

func TestCompare(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b interface{}
		want int
	}{
		{"decimal", decimal.RequireFromString("9.5"), decimal.RequireFromString("10"), -1},
		{"null decimal first", decimal.NullDecimal{}, decimal.NewNullDecimal(decimal.Zero), -1},
		{"time", now.Add(time.Hour), now, 1},
		{"nil pointer first", (*string)(nil), strPtr("a"), -1},
		{"pointers", strPtr("b"), strPtr("B"), 0},
		{"ints", 2, 10, -1},
		{"dates", domain.Date("2026-01-02"), domain.Date("2025-12-31"), 1},
		{"bools", false, true, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Compare(tt.a, tt.b))
		})
	}
}

func TestTable_Search(t *testing.T) {
	t.Run("selectable field", func(t *testing.T) {
		tbl := leadTable(t)
		assert.Equal(t, "contact_name", tbl.SearchField())

		tbl.SetSearch("AL")
		assert.Equal(t, []string{"Alice"}, names(tbl.Rows()))

		require.NoError(t, tbl.SetSearchField("contact_email"))
		tbl.SetSearch("l3@")
		assert.Equal(t, []string{"bob"}, names(tbl.Rows()))

		assert.ErrorIs(t, tbl.SetSearchField("missing"), table.ErrUnknownColumn)
	})

	t.Run("fixed column", func(t *testing.T) {
		tbl := leadTable(t, table.WithSearchColumn("contact_email"))
		assert.ErrorIs(t, tbl.SetSearchField("contact_name"), table.ErrFixedSearch)
		tbl.SetSearch("l4")
		assert.Equal(t, []string{"Dave"}, names(tbl.Rows()))
	})
}

func TestTable_Facets(t *testing.T) {
	tbl := leadTable(t)

	require.NoError(t, tbl.SetFacet("status", "new", "converted"))
	assert.Equal(t, []string{"charlie", "bob", "Dave"}, names(tbl.Rows()))

	require.NoError(t, tbl.SetFacet("source", "referral"))
	assert.Equal(t, []string{"bob"}, names(tbl.Rows()))

	// counts ignore the facet's own selection but honor the others
	opts, err := tbl.FacetOptions("status")
	require.NoError(t, err)
	assert.Equal(t, []table.FacetOption{{Value: "in_progress", Count: 1}, {Value: "new", Count: 1}}, opts)

	require.NoError(t, tbl.SetFacet("status"))
	assert.Equal(t, []string{"Alice", "bob"}, names(tbl.Rows()))

	assert.ErrorIs(t, tbl.SetFacet("contact_name", "x"), table.ErrNotFaceted)
}

func TestTable_DateRangeInclusiveDays(t *testing.T) {
	now := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	tbl := leadTable(t, table.WithClock(func() time.Time { return now }))

	from := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 3, 0, 30, 0, 0, time.UTC)
	tbl.SetDateRange(&from, &to)
	assert.Equal(t, []string{"Alice", "bob"}, names(tbl.Rows()), "both whole days are included")

	tbl.SetDateRange(&from, nil)
	assert.Equal(t, []string{"Alice", "bob"}, names(tbl.Rows()), "open end means now")

	early := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	tbl = leadTable(t, table.WithClock(func() time.Time { return early }))
	tbl.SetDateRange(&from, nil)
	assert.Equal(t, []string{"Alice"}, names(tbl.Rows()), "rows after now are excluded")

	tbl.SetDateRange(nil, nil)
	assert.Len(t, tbl.Rows(), 4)

	edge := time.Date(2026, 3, 4, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	tbl.SetRows([]domain.Lead{lead("l9", "edge", domain.LeadStatusNew, domain.LeadSourceEmail, edge)})
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	tbl.SetDateRange(&day, &day)
	assert.Len(t, tbl.Rows(), 1, "last millisecond of the day is inside")
}

func TestTable_Pagination(t *testing.T) {
	tbl := table.New[domain.Lead](table.LeadColumns())
	var rows []domain.Lead
	for i := 0; i < 23; i++ {
		rows = append(rows, lead(fmt.Sprintf("l%02d", i), fmt.Sprintf("n%02d", i), domain.LeadStatusNew, domain.LeadSourceEmail, time.Now()))
	}
	tbl.SetRows(rows)

	assert.Len(t, tbl.Page(), table.DefaultPageSize)
	assert.Equal(t, 3, tbl.PageCount())

	tbl.SetPage(2)
	assert.Len(t, tbl.Page(), 3)
	tbl.SetPage(10)
	assert.Equal(t, 2, tbl.PageIndex(), "clamped to the last page")

	tbl.SetSearch("n0")
	assert.Equal(t, 0, tbl.PageIndex(), "filters reset the page")
	assert.Equal(t, 10, tbl.Total())

	tbl.SetPageSize(4)
	assert.Equal(t, 3, tbl.PageCount())

	tbl.SetRows(nil)
	assert.Equal(t, 1, tbl.PageCount())
	assert.Empty(t, tbl.Page())
}

func TestTable_VisibilityAndCells(t *testing.T) {
	tbl := leadTable(t)
	assert.NotContains(t, tbl.Headers(), "Phone", "hidden by default")

	require.NoError(t, tbl.SetColumnVisible("contact_phone", true))
	require.NoError(t, tbl.SetColumnVisible("status", false))
	require.NoError(t, tbl.SetColumnVisible("contact_name", false))
	headers := tbl.Headers()
	assert.Contains(t, headers, "Phone")
	assert.NotContains(t, headers, "Status")
	assert.Equal(t, "Contact", headers[0], "required columns stay")

	row := lead("l1", "Jane", domain.LeadStatusNew, domain.LeadSourceEmail, time.Time{})
	cells := tbl.Cells(&row)
	require.Len(t, cells, len(headers))
	assert.Equal(t, "Jane", cells[0])
	assert.Equal(t, "", cells[2], "nil phone renders empty")
}

func TestTable_Selection(t *testing.T) {
	tbl := leadTable(t, table.WithPageSize(2))
	tbl.SelectPage()
	assert.Equal(t, []string{"charlie", "Alice"}, names(tbl.Selected()))

	tbl.Select("l1", false)
	tbl.Select("l4", true)
	assert.Equal(t, []string{"Alice", "Dave"}, names(tbl.Selected()))

	tbl.SetRows(tbl.Rows()[:2])
	assert.Equal(t, []string{"Alice"}, names(tbl.Selected()), "removed rows leave the selection")

	tbl.ClearSelection()
	assert.Empty(t, tbl.Selected())
}

func TestRowActions(t *testing.T) {
	admin := &auth.UserContext{UserID: "u-admin", Permission: domain.PermissionAdmin}
	reader := &auth.UserContext{UserID: "u-read", Permission: domain.PermissionRead}
	writer := &auth.UserContext{UserID: "u-write", Permission: domain.PermissionWrite}
	super := &auth.UserContext{UserID: "u-super", Permission: domain.PermissionSuperAdmin}
	system := auth.SystemUser("ops@example.com")

	superRow := &domain.User{BaseModel: domain.BaseModel{ID: "u-super"}, Permission: domain.PermissionSuperAdmin}
	readRow := &domain.User{BaseModel: domain.BaseModel{ID: "u-read"}, Permission: domain.PermissionRead}
	client := &domain.Client{}

	tests := []struct {
		name   string
		caller *auth.UserContext
		row    domain.Record
		want   table.Actions
	}{
		{"no caller", nil, client, table.Actions{}},
		{"reader on client", reader, client, table.Actions{}},
		{"writer on client", writer, client, table.Actions{Edit: true}},
		{"admin on client", admin, client, table.Actions{Edit: true, Delete: true}},
		{"admin on reader", admin, readRow, table.Actions{Edit: true, Delete: true}},
		{"admin on super admin", admin, superRow, table.Actions{}},
		{"another super admin", &auth.UserContext{UserID: "u-other", Permission: domain.PermissionSuperAdmin}, superRow, table.Actions{}},
		{"super admin on self", super, superRow, table.Actions{Edit: true}},
		{"reader on self", reader, readRow, table.Actions{Edit: true}},
		{"writer on reader", writer, readRow, table.Actions{}},
		{"system on super admin", system, superRow, table.Actions{Edit: true, Delete: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.RowActions(tt.caller, tt.row))
		})
	}
}
