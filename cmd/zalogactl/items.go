package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// itemFlags binds the editable item fields to a flag set.
type itemFlags struct {
	fs    *flag.FlagSet
	draft model.Draft
	price string
	need  string
}

func newItemFlags(name string, a *app) *itemFlags {
	f := &itemFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.fs.SetOutput(a.errOut)
	f.fs.StringVar(&f.draft.Name, "name", "", "item name")
	f.fs.StringVar(&f.draft.Name, "n", "", "item name")
	f.fs.StringVar(&f.draft.Category, "category", "", "category: "+strings.Join(model.Categories, ", "))
	f.fs.StringVar(&f.draft.Category, "c", "", "category")
	f.fs.StringVar(&f.draft.Status, "status", "", "status: "+strings.Join(model.Statuses, ", "))
	f.fs.StringVar(&f.draft.Frequency, "frequency", "", "frequency: "+strings.Join(model.Frequencies, ", "))
	f.fs.StringVar(&f.draft.Frequency, "f", "", "frequency")
	f.fs.StringVar(&f.price, "price", "", "price")
	f.fs.StringVar(&f.draft.Note, "note", "", "note")
	f.fs.StringVar(&f.need, "need-by", "", "date needed (YYYY-MM-DD)")
	return f
}

// set reports which flags were given, keyed by their long name.
func (f *itemFlags) set() map[string]bool {
	short := map[string]string{"n": "name", "c": "category", "f": "frequency"}
	out := map[string]bool{}
	f.fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := short[name]; ok {
			name = long
		}
		out[name] = true
	})
	return out
}

// parsed returns the draft with price and need-by converted.
func (f *itemFlags) parsed() (model.Draft, error) {
	d := f.draft
	if f.price != "" {
		p, err := strconv.ParseFloat(f.price, 64)
		if err != nil {
			return d, &inventory.ValidationError{Errors: model.FieldErrors{"price": {"price must be a number"}}}
		}
		d.Price = &p
	}
	if f.need != "" {
		need := f.need
		d.NeedBy = &need
	}
	return d, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	filter := inventory.DefaultFilter()
	fs.StringVar(&filter.Search, "search", "", "match name or note")
	fs.StringVar(&filter.Search, "s", "", "match name or note")
	fs.StringVar(&filter.Status, "status", inventory.All, "status or all")
	fs.StringVar(&filter.Category, "category", inventory.All, "category or all")
	fs.StringVar(&filter.Frequency, "frequency", inventory.All, "frequency or all")
	if err := fs.Parse(args); err != nil {
		return errReported
	}

	m, err := a.newModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()
	m.SetFilter(filter)

	items := m.Visible()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tSTATUS\tFREQUENCY\tPRICE\tNEED BY")
	for _, item := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.Name, item.Category, item.Status, item.Frequency,
			formatPrice(item.Price), orDash(item.NeedBy))
	}
	tw.Flush()
	fmt.Fprintf(a.out, "%d of %d items\n", len(items), len(m.Items()))
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	f := newItemFlags("add", a)
	if err := f.fs.Parse(args); err != nil {
		return errReported
	}

	m, err := a.newModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()

	d, err := f.parsed()
	if err != nil {
		return a.fail(err)
	}
	if d.Name, err = a.prompt("Name", d.Name); err != nil {
		return err
	}

	m.OpenCreate()
	if _, err := m.Create(ctx, d); err != nil {
		return a.reportMutation(err)
	}
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: zalogactl edit <id> [flags]")
		return errReported
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	f := newItemFlags("edit", a)
	if err := f.fs.Parse(args[1:]); err != nil {
		return errReported
	}

	m, err := a.newModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.OpenEdit(id); err != nil {
		fmt.Fprintf(a.errOut, "error: no item with id %d\n", id)
		return errReported
	}

	changes, err := f.parsed()
	if err != nil {
		return a.fail(err)
	}

	// Updates replace every field, so start from the current values.
	d := m.Dialog().Editing.Draft()
	given := f.set()
	if given["name"] {
		d.Name = changes.Name
	}
	if given["category"] {
		d.Category = changes.Category
	}
	if given["status"] {
		d.Status = changes.Status
	}
	if given["frequency"] {
		d.Frequency = changes.Frequency
	}
	if given["price"] {
		d.Price = changes.Price
	}
	if given["note"] {
		d.Note = changes.Note
	}
	if given["need-by"] {
		d.NeedBy = changes.NeedBy
	}

	if _, err := m.Update(ctx, patchFrom(d)); err != nil {
		return a.reportMutation(err)
	}
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(a.errOut, "usage: zalogactl status <id> <in_stock|low|out_of_stock>")
		return errReported
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	m, err := a.newModel(ctx)
	if err != nil {
		return err
	}
	defer m.Close()
	if _, err := m.SetStatus(ctx, id, args[1]); err != nil {
		return a.reportMutation(err)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: zalogactl delete <id> [-y]")
		return errReported
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	var yes bool
	fs.BoolVar(&yes, "yes", false, "skip confirmation")
	fs.BoolVar(&yes, "y", false, "skip confirmation")
	if err := fs.Parse(args[1:]); err != nil {
		return errReported
	}

	confirm := inventory.ConfirmFunc(func(item model.Item) bool {
		if yes {
			return true
		}
		answer, err := a.prompt(fmt.Sprintf("Delete %q? [y/N]", item.Name), "")
		if err != nil {
			return false
		}
		answer = strings.ToLower(answer)
		return answer == "y" || answer == "yes"
	})

	m, err := a.newModel(ctx, inventory.WithConfirmer(confirm))
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.Delete(ctx, id)
	if err != nil {
		return a.reportMutation(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
	}
	return nil
}

func (a *app) stats(ctx context.Context) error {
	if err := a.requireSession(); err != nil {
		return err
	}

	summary, err := a.client.Summary(ctx)
	if err != nil {
		return a.fail(err)
	}
	categories, err := a.client.CategoryBreakdown(ctx)
	if err != nil {
		return a.fail(err)
	}
	frequencies, err := a.client.FrequencyReport(ctx)
	if err != nil {
		return a.fail(err)
	}
	spending, err := a.client.MonthlySpending(ctx, 6)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Items: %d (in stock %d, low %d, out of stock %d)\n",
		summary.TotalItems, summary.InStock, summary.Low, summary.OutOfStock)
	fmt.Fprintf(a.out, "Total value: %.2f\n", summary.TotalValue)
	fmt.Fprintf(a.out, "Needed within a week: %d\n\n", summary.NeededSoon)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tITEMS\tVALUE")
	for _, c := range categories {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", c.Category, c.Count, c.Total)
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "FREQUENCY\tITEMS\tLOW/OUT")
	for _, f := range frequencies {
		fmt.Fprintf(tw, "%s\t%d\t%d/%d\n", f.Frequency, f.Count, f.Low, f.OutOfStock)
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "MONTH\tITEMS\tSPENT")
	for _, s := range spending {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", s.Month, s.Count, s.Total)
	}
	return tw.Flush()
}

// reportMutation prints a failed mutation. API failures and busy items
// were already shown by the notifier.
func (a *app) reportMutation(err error) error {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		return a.fail(err)
	case errors.Is(err, inventory.ErrNotFound):
		fmt.Fprintln(a.errOut, "error: no such item")
	case errors.Is(err, inventory.ErrNoSelection):
		fmt.Fprintf(a.errOut, "error: %s\n", err)
	}
	return errReported
}

func patchFrom(d model.Draft) model.ItemPatch {
	return model.ItemPatch{
		Name:      &d.Name,
		Category:  &d.Category,
		Status:    &d.Status,
		Frequency: &d.Frequency,
		Price:     d.Price,
		Note:      &d.Note,
		NeedBy:    d.NeedBy,
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
