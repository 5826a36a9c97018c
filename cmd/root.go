package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oakwood-commons/combo/internal/config"
	"github.com/oakwood-commons/combo/internal/limiter"
	"github.com/oakwood-commons/combo/internal/tui"
	"github.com/oakwood-commons/combo/pkg/combo"
	"github.com/oakwood-commons/combo/pkg/filtering"
	"github.com/oakwood-commons/combo/pkg/loader"
	"github.com/oakwood-commons/combo/pkg/logger"
	"github.com/oakwood-commons/combo/pkg/settings"
	"github.com/oakwood-commons/combo/pkg/virtual"
)

// errShowHelp is returned when there is no input and help should be shown.
var errShowHelp = errors.New("no input provided")

var (
	interactive       bool
	output            string
	configFile        string
	inputFormat       string
	inputPath         string
	searchTerm        string
	filters           filterList
	filterIgnoreCase  bool
	valueKey          string
	displayKey        string
	groupKey          string
	sortOrder         string
	selectKeys        []string
	selectAll         bool
	ignoreFilter      bool
	single            bool
	allowCustomValues bool
	caseSensitive     bool
	widgetID          string
	debug             bool
	noColor           bool
	limit             limiter.Config
)

var rootCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName + " [file]",
	Short: "Filter, group and select items from a JSON, YAML, TOML or NDJSON collection",
	Long: `combo loads a collection of items and runs it through the same engine that
backs a searchable dropdown: the search text and filter expressions narrow
the list, a group key splits it into labeled sections, and --select /
--select-all change the selection. The visible list and the selection are
printed, or browsed interactively with -i.`,
	Example: `  combo states.json --value-key f --group-key r --search new
  combo states.yaml --filter 'r:equals:New England' --select-all -o yaml
  cat cities.ndjson | combo --filter 'cel:record.population > 1000000' -o json
  combo states.json --config-file picker.yaml -i`,
	Args:    cobra.MaximumNArgs(1),
	Version: settings.VersionInformation.BuildVersion,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// zap: -1 debug, 0 info. logr V(1) records need -1.
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.CommandKey, cmd.Name())
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rootCtx = logger.WithLogger(ctx, lgr)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		run := settings.NewCliParams()
		run.Interactive = interactive
		run.OutputFormat = output
		run.ConfigFile = configFile
		run.NoColor = noColor || stdoutIsPiped()
		run.Input = settings.Input{Format: inputFormat, Selector: inputPath}
		if len(args) == 1 {
			run.Input.Path = args[0]
		}
		if debug {
			run.MinLogLevel = -1
		}
		ctx := settings.IntoContext(rootCtx, run)

		err := runRoot(ctx, cmd)
		if errors.Is(err, errShowHelp) {
			return cmd.Help()
		}
		return err
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse and select interactively")
	rootCmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|yaml|json|toml")
	rootCmd.Flags().StringVar(&configFile, "config-file", "", "path to a YAML widget options file")
	rootCmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: json|ndjson|yaml|toml (default: detect)")
	rootCmd.Flags().StringVar(&inputPath, "path", "", "dotted path to the collection inside the input (e.g. data.items)")
	rootCmd.Flags().StringVarP(&searchTerm, "search", "s", "", "search text matched against the display field")
	rootCmd.Flags().VarP(&filters, "filter", "f", "filter expression field:condition[:value] or cel:<expression> (repeatable)")
	rootCmd.Flags().BoolVar(&filterIgnoreCase, "filter-ignore-case", false, "compare --filter values case-insensitively")
	rootCmd.Flags().StringVar(&valueKey, "value-key", "", "field holding each item's key (default: the item itself)")
	rootCmd.Flags().StringVar(&displayKey, "display-key", "", "field rendered for each item (default: value key)")
	rootCmd.Flags().StringVarP(&groupKey, "group-key", "g", "", "field used to group items")
	rootCmd.Flags().StringVar(&sortOrder, "sort", "", "group sort direction: asc|desc|none (default asc)")
	rootCmd.Flags().StringArrayVar(&selectKeys, "select", nil, "select the item with this key (repeatable)")
	rootCmd.Flags().BoolVar(&selectAll, "select-all", false, "select every visible item")
	rootCmd.Flags().BoolVar(&ignoreFilter, "ignore-filter", false, "with --select-all, select every item regardless of filters")
	rootCmd.Flags().BoolVar(&single, "single", false, "single-select widget")
	rootCmd.Flags().BoolVar(&allowCustomValues, "allow-custom", false, "offer to add the search text as a new item")
	rootCmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "case-sensitive search")
	rootCmd.Flags().StringVar(&widgetID, "id", "", "widget id (default from config or \"combo\")")
	rootCmd.Flags().IntVar(&limit.Limit, "limit", 0, "load only the first N records")
	rootCmd.Flags().IntVar(&limit.Offset, "offset", 0, "skip the first N records")
	rootCmd.Flags().IntVar(&limit.Tail, "tail", 0, "load only the last N records (not with --limit)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log debug records to stderr")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable color output")

	rootCmd.SetVersionTemplate("{{.Name}} " + cliVersionString() + "\n")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runRoot(ctx context.Context, cmd *cobra.Command) error {
	run := settings.FromContextOrDefault(ctx)
	lgr := *logger.FromContext(ctx)

	format, err := parseOutputFormat(run.OutputFormat)
	if err != nil {
		return err
	}
	if err := limit.Validate(); err != nil {
		return err
	}

	items, cfg, err := loadInputs(ctx, cmd.InOrStdin(), run)
	if err != nil {
		return err
	}
	if err := applyFlagOverrides(cmd, &cfg); err != nil {
		return err
	}
	lgr.V(1).Info("input loaded", "items", len(items), "path", run.Input.Path)
	if limit.IsActive() {
		items = limiter.Apply(limit, items)
		lgr.V(1).Info("input limited", "items", len(items))
	}
	warnUnknownFields(lgr, cfg, items)

	window, err := virtual.New(cfg.WindowConfig(), 0)
	if err != nil {
		return err
	}
	w, err := buildWidget(cfg, items, window, logger.ForWidget(lgr, "combo", cfg.Widget.ID))
	if err != nil {
		return err
	}

	if err := applySelection(w, cfg); err != nil {
		return err
	}

	if run.Interactive {
		if err := runPicker(ctx, w, window, run, lgr); err != nil {
			return err
		}
	}
	return render(cmd.OutOrStdout(), buildReport(w), format, run.NoColor, detectTerminalWidth())
}

// loadInputs reads the collection and the options file concurrently.
func loadInputs(ctx context.Context, stdin io.Reader, run *settings.Run) ([]any, config.Config, error) {
	lopts := loader.Options{Path: run.Input.Selector}
	if run.Input.Format != "" {
		f, err := loader.ParseFormat(run.Input.Format)
		if err != nil {
			return nil, config.Config{}, err
		}
		lopts.Format = f
	}
	if run.Input.FromStdin() && stdin == os.Stdin && !stdinIsPiped() {
		return nil, config.Config{}, errShowHelp
	}

	var (
		items []any
		cfg   = config.Default()
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if run.Input.FromStdin() {
			items, err = loader.LoadReader(stdin, lopts)
		} else {
			items, err = loader.LoadFile(run.Input.Path, lopts)
		}
		if err != nil {
			return fmt.Errorf("load input: %w", err)
		}
		return nil
	})
	if run.ConfigFile != "" {
		g.Go(func() error {
			var err error
			cfg, err = config.Load(run.ConfigFile)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, config.Config{}, err
	}
	return items, cfg, nil
}

// applyFlagOverrides puts explicitly set flags over the options file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed
	w := &cfg.Widget
	if changed("id") {
		w.ID = widgetID
	}
	if changed("value-key") {
		w.ValueKey = valueKey
	}
	if changed("display-key") {
		w.DisplayKey = displayKey
	}
	if changed("group-key") {
		w.GroupKey = groupKey
	}
	if changed("sort") {
		w.Sort = sortOrder
	}
	if changed("single") {
		multiple := !single
		w.Multiple = &multiple
	}
	if changed("allow-custom") {
		w.AllowCustomValues = &allowCustomValues
	}
	if changed("case-sensitive") {
		w.CaseSensitive = &caseSensitive
	}
	for _, f := range filters {
		f.IgnoreCase = f.IgnoreCase || filterIgnoreCase
		cfg.Filters = append(cfg.Filters, f)
	}
	return cfg.Validate()
}

// widget is what the CLI needs from either kind of combo.
type widget interface {
	tui.Widget
	Data() []any
	FilteredData() []any
	Selection() []any
}

func buildWidget(cfg config.Config, items []any, window *virtual.Window, lgr logr.Logger) (widget, error) {
	exprs, err := cfg.Expressions()
	if err != nil {
		return nil, err
	}
	with := []combo.Option[any]{
		combo.WithLogger[any](lgr),
		combo.WithVirtualProvider[any](window),
		combo.WithExpressions[any](exprs...),
		combo.WithFilterEngine[any](filtering.NewEngine(filtering.WithLogger(lgr))),
	}
	if cfg.Multiple() {
		return combo.New(cfg.Widget.ID, items, cfg.Options(), with...)
	}
	return combo.NewSimple(cfg.Widget.ID, items, cfg.Options(), with...)
}

// applySelection runs --search, --select and --select-all.
func applySelection(w widget, cfg config.Config) error {
	if searchTerm != "" {
		w.HandleInputChange(searchTerm)
	}
	if len(selectKeys) > 0 {
		keys := make([]combo.Key, 0, len(selectKeys))
		for _, s := range selectKeys {
			keys = append(keys, resolveKey(w, s))
		}
		switch c := w.(type) {
		case *combo.Combo[any]:
			if _, err := c.Select(keys, false); err != nil {
				return err
			}
		case *combo.SimpleCombo[any]:
			if len(keys) > 1 {
				return fmt.Errorf("--select given %d times for a single-select widget", len(keys))
			}
			if _, err := c.Select(keys[0]); err != nil {
				return err
			}
		}
	}
	if selectAll {
		c, ok := w.(*combo.Combo[any])
		if !ok {
			return errors.New("--select-all needs a multi-select widget")
		}
		if _, err := c.SelectAll(ignoreFilter); err != nil {
			return err
		}
	}
	return nil
}

// resolveKey maps a --select value onto the key of the item it names, so
// "1" finds a numeric key. Values naming no item are used as given.
func resolveKey(w widget, s string) combo.Key {
	for _, item := range w.Data() {
		k := w.KeyOf(item)
		if filtering.Stringify(k) == s {
			return k
		}
	}
	return s
}

// warnUnknownFields logs CEL filters reading fields the first record lacks.
func warnUnknownFields(lgr logr.Logger, cfg config.Config, items []any) {
	if len(items) == 0 {
		return
	}
	for _, f := range cfg.Filters {
		if f.CEL == "" {
			continue
		}
		var missing []string
		for _, field := range filtering.CEL(f.CEL).Fields() {
			if _, ok := filtering.FieldOf(items[0], field); !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			lgr.Info("filter reads fields missing from the first item", "filter", f.CEL, "fields", strings.Join(missing, ","))
		}
	}
}

func runPicker(ctx context.Context, w widget, window *virtual.Window, run *settings.Run, lgr logr.Logger) error {
	opts, cleanup := getProgramOptions(ctx, run.Input.FromStdin())
	defer cleanup()
	m := tui.New(w, tui.Config{
		Title:   settings.CliBinaryName,
		Window:  window,
		NoColor: run.NoColor,
		Logger:  lgr,
	})
	if err := tui.Run(ctx, m, opts...); err != nil {
		return err
	}
	if m.Canceled() {
		return errors.New("canceled")
	}
	return nil
}
