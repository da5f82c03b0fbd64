package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/gigurra/spend-dashboard/internal"
	"github.com/gigurra/spend-dashboard/internal/tui"
)

type Params struct {
	View     string `descr:"What to show: tui, dashboard, transactions, credits, categories, recategorize, void, unvoid, new-category, init-config" positional:"true" optional:"true"`
	Server   string `descr:"Backend base URL (overrides $SPEND_DASHBOARD_SERVER and the config file)" optional:"true"`
	Config   string `descr:"Path to config file (default ~/.spend-dashboard/config.yaml)" optional:"true"`
	Month    string `descr:"Month as YYYY-MM; empty for all months" optional:"true"`
	Category string `descr:"Category filter, or 'all'" default:"all"`
	Search   string `descr:"Only merchants containing this text" optional:"true"`
	Sort     string `descr:"Sort column" default:"date" alts:"date,description,category,amount"`
	Dir      string `descr:"Sort direction (default: newest first for date, ascending otherwise)" optional:"true" alts:"asc,desc"`
	Limit    int    `descr:"Show at most this many rows (0 uses row_limit from config)" default:"0"`
	Output   string `descr:"Output format" default:"table" alts:"table,json" strict:"true"`
	Export   string `descr:"Also write the view to a file: xlsx:path, json:path, or a path ending in .xlsx/.json" optional:"true"`
	ID       string `descr:"Transaction id for recategorize, void and unvoid" optional:"true"`
	To       string `descr:"New category for recategorize" optional:"true"`
	Remember bool   `descr:"Remember the merchant's category for future transactions" default:"false"`
	Name     string `descr:"Name of the category to create" optional:"true"`
	Color    string `descr:"Colour of the category to create" default:"#6366f1"`
	Currency string `descr:"Currency code for amounts (default from config, then system locale)" optional:"true"`
	Verbose  bool   `descr:"Log diagnostics to stderr (tui mode logs to the log file)" default:"false"`
}

func main() {
	boa.NewCmdT[Params]("spend-dashboard").
		WithShort("Browse and recategorize spending from the spend tracking backend").
		WithLong("Terminal client for the personal spending backend: an interactive dashboard (tui) and one-shot views of transactions, credits and categories, with commands to recategorize, void and define categories.").
		WithRunFunc(func(params *Params) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			color := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("NO_COLOR") == ""
			if err := run(ctx, params, os.Stdout, os.Stderr, color); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

// app is what every view needs once flags, config and environment are resolved
type app struct {
	params   *Params
	cfg      *internal.Config
	cfgPath  string
	state    *internal.AppState
	currency internal.Currency
	logger   zerolog.Logger
	out      io.Writer
	errOut   io.Writer
	color    bool
}

func run(ctx context.Context, params *Params, out, errOut io.Writer, color bool) error {
	if err := internal.LoadEnv(".env"); err != nil {
		return err
	}

	cfgPath := params.Config
	if cfgPath == "" {
		cfgPath = internal.DefaultConfigPath()
	}
	cfg, err := internal.LoadConfigOrDefault(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	view := strings.ToLower(strings.TrimSpace(params.View))
	if view == "" {
		view = "tui"
	}

	logger, closeLog, err := setupLogger(view, params.Verbose, cfg, errOut)
	if err != nil {
		return err
	}
	defer closeLog()

	month, err := internal.ParseMonth(params.Month)
	if err != nil {
		return err
	}

	server := cfg.ResolveServer(params.Server)
	logger.Debug().Str("server", server).Str("view", view).Msg("starting")

	state := internal.NewAppState(internal.NewClient(server, internal.WithLogger(logger)), internal.StateOptions{
		ToastDuration: cfg.GetToastDuration(),
		RowLimit:      cfg.RowLimit,
		Tab:           cfg.GetDefaultTab(),
		Collator:      internal.NewCollator(internal.CollationTag(cfg.Locale)),
		Logger:        logger,
	})
	state.SelectMonth(month)

	a := &app{
		params:   params,
		cfg:      cfg,
		cfgPath:  cfgPath,
		state:    state,
		currency: resolveCurrency(params.Currency, cfg),
		logger:   logger,
		out:      out,
		errOut:   errOut,
		color:    color,
	}

	switch view {
	case "tui":
		return a.runTUI(ctx)
	case "dashboard":
		return a.dashboard(ctx)
	case "transactions":
		return a.transactions(ctx, internal.DatasetExpenses)
	case "credits":
		return a.transactions(ctx, internal.DatasetCredits)
	case "categories":
		return a.categories(ctx)
	case "recategorize":
		return a.recategorize(ctx)
	case "void":
		return a.setVoided(ctx, true)
	case "unvoid":
		return a.setVoided(ctx, false)
	case "new-category":
		return a.newCategory(ctx)
	case "init-config":
		return a.initConfig()
	}
	return fmt.Errorf("unknown view %q", params.View)
}

// setupLogger sends the interactive mode's diagnostics to the log file, and the
// one-shot views' to stderr when verbose.
func setupLogger(view string, verbose bool, cfg *internal.Config, errOut io.Writer) (zerolog.Logger, func(), error) {
	if view == "tui" {
		f, err := internal.OpenLogFile(cfg.GetLogFile())
		if err != nil {
			return zerolog.Nop(), func() {}, err
		}
		return internal.NewLogger(f, verbose), func() { _ = f.Close() }, nil
	}
	if verbose {
		return internal.NewConsoleLogger(errOut, true), func() {}, nil
	}
	return zerolog.Nop(), func() {}, nil
}

// resolveCurrency picks the display currency: flag, then config, then the system locale
func resolveCurrency(flag string, cfg *internal.Config) internal.Currency {
	if flag != "" {
		return internal.GetCurrency(flag)
	}
	if cfg.Currency != "" {
		return internal.GetCurrency(cfg.Currency)
	}
	if code, tag := internal.DetectSystemCurrency(); code != "" {
		return internal.GetCurrencyWithLocale(code, tag)
	}
	return internal.GetCurrency("USD")
}

func (a *app) outputOptions() internal.OutputOptions {
	return internal.OutputOptions{
		Currency: a.currency,
		Palette:  internal.NewPalette(a.state.CategoryDefs, a.cfg.GetColors()),
		Color:    a.color,
	}
}

func (a *app) runTUI(ctx context.Context) error {
	m := tui.New(ctx, a.state, tui.Options{
		Currency: a.currency,
		Colors:   a.cfg.GetColors(),
		Logger:   a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}

func (a *app) dashboard(ctx context.Context) error {
	if a.params.Output == "json" {
		return errors.New("json output is available for transactions, credits and categories")
	}
	if err := a.state.Load(ctx); err != nil {
		return err
	}
	internal.PrintDashboard(a.out, a.state, a.outputOptions())
	return nil
}

func (a *app) applyQuery(dataset internal.Dataset) error {
	p := a.params
	a.state.SetDataset(dataset)
	a.state.SetCategoryFilter(p.Category)
	a.state.SetSearch(p.Search)

	col, err := internal.ParseSortColumn(p.Sort)
	if err != nil {
		return err
	}
	dir := internal.DefaultDir(col)
	switch strings.ToLower(p.Dir) {
	case "":
	case "asc":
		dir = internal.SortAsc
	case "desc":
		dir = internal.SortDesc
	default:
		return fmt.Errorf("unknown sort direction %q (use asc or desc)", p.Dir)
	}
	a.state.Query.Sort = internal.SortState{Column: col, Dir: dir}

	if p.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", p.Limit)
	}
	if p.Limit > 0 {
		a.state.Query.Limit = p.Limit
	}
	return nil
}

func (a *app) transactions(ctx context.Context, dataset internal.Dataset) error {
	if err := a.applyQuery(dataset); err != nil {
		return err
	}
	if err := a.state.Refresh(ctx); err != nil {
		return err
	}

	v := internal.NewExportView(a.state, a.currency.Code, time.Now())
	if a.params.Output == "json" {
		if err := internal.WriteViewJSON(a.out, v); err != nil {
			return err
		}
	} else {
		internal.PrintTransactionsTable(a.out, v, a.outputOptions())
	}

	if a.params.Export != "" {
		path, err := internal.WriteExport(a.params.Export, v)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.errOut, "Exported %s to %s\n", internal.TransactionCountLabel(len(v.Rows)), path)
	}
	return nil
}

func (a *app) categories(ctx context.Context) error {
	snap, err := internal.Fetch(ctx, a.state.Backend(), a.state.Month, internal.FetchCategoryDefs)
	if err != nil {
		return err
	}
	a.state.Apply(snap)
	if a.params.Output == "json" {
		return internal.WriteCategoriesJSON(a.out, a.state.CategoryDefs)
	}
	internal.PrintCategoryTable(a.out, a.state.CategoryDefs, a.outputOptions())
	return nil
}

func (a *app) recategorize(ctx context.Context) error {
	if a.params.ID == "" || a.params.To == "" {
		return errors.New("recategorize needs --id and --to")
	}
	err := a.state.UpdateCategory(ctx, a.params.ID, a.params.To, a.params.Remember)
	if err != nil && !errors.Is(err, internal.ErrRefreshIncomplete) {
		return err
	}
	prev := ""
	if p, ok := a.state.PendingUndo(); ok {
		prev = p.PrevCategory
	}
	fmt.Fprintf(a.out, "Changed %s to %q (was %q)\n", a.params.ID, a.params.To, prev)
	if a.params.Remember {
		fmt.Fprintln(a.out, "Merchant mapping remembered")
	}
	a.warnStale(err)
	return nil
}

// warnStale reports a refetch that failed after the change itself went through
func (a *app) warnStale(err error) {
	if err != nil {
		fmt.Fprintf(a.errOut, "Warning: %v\n", err)
	}
}

func (a *app) setVoided(ctx context.Context, voided bool) error {
	if a.params.ID == "" {
		return errors.New("void and unvoid need --id")
	}
	err := a.state.SetVoided(ctx, a.params.ID, voided)
	if err != nil && !errors.Is(err, internal.ErrRefreshIncomplete) {
		return err
	}
	if voided {
		fmt.Fprintf(a.out, "Voided %s\n", a.params.ID)
	} else {
		fmt.Fprintf(a.out, "Restored %s\n", a.params.ID)
	}
	a.warnStale(err)
	return nil
}

func (a *app) newCategory(ctx context.Context) error {
	name := internal.NormalizeCategoryName(a.params.Name)
	if name == "" {
		return errors.New("new-category needs --name")
	}
	err := a.state.CreateCategory(ctx, name, a.params.Color)
	if err != nil && !errors.Is(err, internal.ErrRefreshIncomplete) {
		return err
	}
	fmt.Fprintf(a.out, "Created category %q\n", name)
	a.warnStale(err)
	return nil
}

// initConfig writes a starter config file with the defaults and any --server
// and --currency given. An existing file is left alone.
func (a *app) initConfig() error {
	if a.cfgPath == "" {
		return errors.New("no config path: pass --config")
	}
	if _, err := os.Stat(a.cfgPath); err == nil {
		return fmt.Errorf("config file %s already exists", a.cfgPath)
	}
	cfg := internal.NewDefaultConfig()
	if a.params.Server != "" {
		cfg.Server = a.params.Server
	}
	if a.params.Currency != "" {
		cfg.Currency = strings.ToUpper(a.params.Currency)
	}
	if err := cfg.Save(a.cfgPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s\n", a.cfgPath)
	return nil
}
