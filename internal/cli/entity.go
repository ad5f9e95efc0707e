package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/ledgerline/crm-api/internal/cli/formatter"
	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/forms"
	"github.com/ledgerline/crm-api/internal/table"
	"github.com/spf13/cobra"
)

// field binds one form value to a flag and an interactive input
type field struct {
	flag    string
	title   string
	value   *string
	options []string
	secret  bool
}

// entitySpec describes the list/add/edit/delete commands of one collection.
// F is the pointer type of the entity's form.
type entitySpec[T any, PT table.RecordPtr[T], F forms.Form[T, PT]] struct {
	use     string
	noun    string
	aliases []string
	entity  client.Entity

	store   func(*client.AppState) *client.Store[T, PT]
	load    func(*client.AppState, context.Context, bool) error
	columns func() []table.Column[T]

	// search fixes the searched column; defaultSearch only preselects it
	search        string
	defaultSearch string

	// newForm returns an empty form, or one filled from current when editing
	newForm func(current PT) F
	fields  func(F) []field

	// beforeSave may reject the submit; afterSave runs once it succeeded
	beforeSave func(app *App, current PT, form F) forms.Errors
	afterSave  func(ctx context.Context, cmd *cobra.Command, app *App, current PT, form F) error
}

func (s entitySpec[T, PT, F]) loadStore(ctx context.Context, st *client.AppState, force bool) error {
	if s.load != nil {
		return s.load(st, ctx, force)
	}
	return s.store(st).Load(ctx, force)
}

func newEntityCmd[T any, PT table.RecordPtr[T], F forms.Form[T, PT]](app *App, spec entitySpec[T, PT, F]) *cobra.Command {
	cmd := &cobra.Command{
		Use:     spec.use,
		Aliases: spec.aliases,
		Short:   "Manage " + spec.noun + "s",
	}
	cmd.AddCommand(
		newListCmd(app, spec),
		newSaveCmd(app, spec, false),
		newSaveCmd(app, spec, true),
		newDeleteCmd(app, spec),
	)
	return cmd
}

type listOptions struct {
	force       bool
	search      string
	searchField string
	filters     []string
	from, to    string
	sort        string
	page        int
	pageSize    int
	columns     []string
}

func newListCmd[T any, PT table.RecordPtr[T], F forms.Form[T, PT]](app *App, spec entitySpec[T, PT, F]) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + spec.noun + "s",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := spec.loadStore(cmd.Context(), app.State, opts.force); err != nil {
				return err
			}

			var tableOpts []table.Option
			if spec.search != "" {
				tableOpts = append(tableOpts, table.WithSearchColumn(spec.search))
			}
			if opts.pageSize > 0 {
				tableOpts = append(tableOpts, table.WithPageSize(opts.pageSize))
			}
			tbl := table.New[T, PT](spec.columns(), tableOpts...)
			tbl.SetRows(spec.store(app.State).Items())

			if opts.searchField == "" {
				opts.searchField = spec.defaultSearch
			}
			if err := applyListOptions(tbl, opts); err != nil {
				return err
			}

			page := tbl.Page()
			rows := make([][]string, len(page))
			for i := range page {
				rows[i] = tbl.Cells(&page[i])
			}

			out := cmd.OutOrStdout()
			if tbl.Total() == 0 {
				fmt.Fprintln(out, formatter.StyleDim.Render("No "+spec.noun+"s found."))
				return nil
			}
			fmt.Fprint(out, formatter.RenderTable(tbl.Headers(), rows))
			fmt.Fprintln(out, formatter.RenderPager(tbl.PageIndex()+1, tbl.PageCount(), tbl.Total()))
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.force, "force", false, "Reload from the server, bypassing caches")
	f.StringVar(&opts.search, "search", "", "Search text")
	if spec.search == "" {
		f.StringVar(&opts.searchField, "search-field", "", "Column the search applies to")
	}
	f.StringArrayVar(&opts.filters, "filter", nil, "Facet filter key=value[,value]; repeatable")
	f.StringVar(&opts.from, "from", "", "Created on or after (YYYY-MM-DD)")
	f.StringVar(&opts.to, "to", "", "Created on or before (YYYY-MM-DD); defaults to now")
	f.StringVar(&opts.sort, "sort", "", "Sort column; prefix with - for descending")
	f.IntVar(&opts.page, "page", 1, "Page number")
	f.IntVar(&opts.pageSize, "page-size", table.DefaultPageSize, "Rows per page")
	f.StringSliceVar(&opts.columns, "columns", nil, "Extra columns to show; prefix with - to hide")
	return cmd
}

func applyListOptions[T any, PT table.RecordPtr[T]](tbl *table.Table[T, PT], opts listOptions) error {
	for _, c := range opts.columns {
		visible := !strings.HasPrefix(c, "-")
		if err := tbl.SetColumnVisible(strings.TrimPrefix(c, "-"), visible); err != nil {
			return fmt.Errorf("column %q: %w", c, err)
		}
	}

	if opts.sort != "" {
		key := strings.TrimPrefix(opts.sort, "-")
		if err := tbl.SortBy(key, strings.HasPrefix(opts.sort, "-")); err != nil {
			return fmt.Errorf("sort %q: %w", key, err)
		}
	}

	if opts.searchField != "" {
		if err := tbl.SetSearchField(opts.searchField); err != nil {
			return fmt.Errorf("search field %q: %w", opts.searchField, err)
		}
	}
	tbl.SetSearch(opts.search)

	facets := make(map[string][]string)
	for _, f := range opts.filters {
		key, values, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return fmt.Errorf("filter %q: expected key=value", f)
		}
		facets[key] = append(facets[key], strings.Split(values, ",")...)
	}
	for key, values := range facets {
		if err := tbl.SetFacet(key, values...); err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
	}

	from, err := parseDay(opts.from)
	if err != nil {
		return err
	}
	to, err := parseDay(opts.to)
	if err != nil {
		return err
	}
	tbl.SetDateRange(from, to)

	tbl.SetPage(opts.page - 1)
	return nil
}

// parseDay reads a YYYY-MM-DD flag in local time
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return &t, nil
}

func newSaveCmd[T any, PT table.RecordPtr[T], F forms.Form[T, PT]](app *App, spec entitySpec[T, PT, F], editing bool) *cobra.Command {
	var id string
	var interactive bool
	flagForm := spec.newForm(nil)
	flagFields := spec.fields(flagForm)

	use, short := "add", "Add a "+spec.noun
	if editing {
		use, short = "edit", "Edit a "+spec.noun
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store := spec.store(app.State)

			var current PT
			if editing {
				row, err := findRow(ctx, app, spec, id)
				if err != nil {
					return err
				}
				if caller := app.caller(); caller != nil && !table.RowActions(caller, row).Edit {
					return fmt.Errorf("you cannot edit this %s", spec.noun)
				}
				current = row
			}

			var editedRow interface{}
			if current != nil {
				editedRow = current
			}
			app.State.Dialogs.Open(spec.entity, editedRow)
			defer app.State.Dialogs.Close(spec.entity)

			form := spec.newForm(current)
			fields := spec.fields(form)
			for i, fl := range flagFields {
				if cmd.Flags().Changed(fl.flag) {
					*fields[i].value = *fl.value
				}
			}

			if interactive {
				if !app.interactive() {
					return errors.New("--interactive needs a terminal")
				}
				if err := runFormDialog(spec.noun, fields); err != nil {
					return err
				}
			}

			if spec.beforeSave != nil {
				if errs := spec.beforeSave(app, current, form); errs != nil {
					fmt.Fprint(cmd.ErrOrStderr(), formatter.RenderFieldErrors(errs))
					return forms.ErrInvalid
				}
			}

			saved, errs, err := forms.Submit[T, PT](ctx, store, form, current)
			if errs != nil {
				fmt.Fprint(cmd.ErrOrStderr(), formatter.RenderFieldErrors(errs))
			}
			if err != nil {
				return err
			}

			tbl := table.New[T, PT](spec.columns())
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTable(tbl.Headers(), [][]string{tbl.Cells(saved)}))

			if spec.afterSave != nil {
				return spec.afterSave(ctx, cmd, app, current, form)
			}
			return nil
		},
	}

	if editing {
		cmd.Flags().StringVar(&id, "id", "", "Id of the "+spec.noun+" to edit")
		_ = cmd.MarkFlagRequired("id")
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Fill the form in a terminal dialog")
	for _, fl := range flagFields {
		usage := fl.title
		if len(fl.options) > 0 {
			usage += " (" + strings.Join(fl.options, ", ") + ")"
		}
		cmd.Flags().StringVar(fl.value, fl.flag, "", usage)
	}
	return cmd
}

func newDeleteCmd[T any, PT table.RecordPtr[T], F forms.Form[T, PT]](app *App, spec entitySpec[T, PT, F]) *cobra.Command {
	var id string
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a " + spec.noun,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			row, err := findRow(ctx, app, spec, id)
			if err != nil {
				return err
			}
			if caller := app.caller(); caller != nil && !table.RowActions(caller, row).Delete {
				return fmt.Errorf("you cannot delete this %s", spec.noun)
			}

			if !yes && app.interactive() {
				confirm := false
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete %s %s?", spec.noun, id)).
						Affirmative("Delete").
						Negative("Keep").
						Value(&confirm),
				)).WithTheme(crmHuhTheme()).WithShowHelp(false)
				if err := form.Run(); err != nil {
					return err
				}
				if !confirm {
					return nil
				}
			}

			return spec.store(app.State).Delete(ctx, id)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Id of the "+spec.noun+" to delete")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

// findRow loads the store and returns a copy of the row with id
func findRow[T any, PT table.RecordPtr[T], F forms.Form[T, PT]](ctx context.Context, app *App, spec entitySpec[T, PT, F], id string) (PT, error) {
	if err := spec.loadStore(ctx, app.State, false); err != nil {
		return nil, err
	}
	for _, row := range spec.store(app.State).Items() {
		if PT(&row).Base().ID == id {
			found := row
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%s %q not found", spec.noun, id)
}

// runFormDialog asks for every field in one huh form
func runFormDialog(noun string, fields []field) error {
	inputs := make([]huh.Field, 0, len(fields))
	for _, fl := range fields {
		if len(fl.options) > 0 {
			opts := []huh.Option[string]{huh.NewOption("(none)", "")}
			opts = append(opts, huh.NewOptions(fl.options...)...)
			inputs = append(inputs, huh.NewSelect[string]().Title(fl.title).Options(opts...).Value(fl.value))
			continue
		}
		in := huh.NewInput().Title(fl.title).Value(fl.value)
		if fl.secret {
			in = in.EchoMode(huh.EchoModePassword)
		}
		inputs = append(inputs, in)
	}
	return huh.NewForm(huh.NewGroup(inputs...).Title(strings.ToUpper(noun[:1]) + noun[1:])).
		WithTheme(crmHuhTheme()).
		WithShowHelp(false).
		Run()
}
