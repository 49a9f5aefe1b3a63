package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/console/internal/config"
	"github.com/JaimeStill/console/internal/documents"
	"github.com/JaimeStill/console/internal/users"
	"github.com/JaimeStill/console/pkg/source"
	"github.com/JaimeStill/console/pkg/table"
)

// view holds the table flags shared by every subcommand.
type view struct {
	search   string
	sort     string
	desc     bool
	page     int
	pageSize int
}

type app struct {
	configFile string
	verbose    bool
	view       view
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "console",
		Short:        "Browse the console tables from the terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", config.BaseConfigFile, "configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log fetches to stderr")

	flags := root.PersistentFlags()
	flags.StringVar(&a.view.search, "search", "", "filter rows by the search column")
	flags.StringVar(&a.view.sort, "sort", "", "sort by this column")
	flags.BoolVar(&a.view.desc, "desc", false, "sort descending (requires --sort)")
	flags.IntVar(&a.view.page, "page", 1, "page number, starting at 1")
	flags.IntVar(&a.view.pageSize, "page-size", 0, "rows per page (default from configuration)")

	root.AddCommand(
		&cobra.Command{
			Use:   "users",
			Short: "List users",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				env, err := a.setup()
				if err != nil {
					return err
				}
				return show(cmd, env, users.Kind, users.Fetcher(env.src))
			},
		},
		&cobra.Command{
			Use:   "documents",
			Short: "List documents",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				env, err := a.setup()
				if err != nil {
					return err
				}
				return show(cmd, env, documents.Kind, documents.Fetcher(env.src, time.Now))
			},
		},
	)

	return root
}

type environment struct {
	cfg    *config.Config
	src    source.System
	view   view
	logger *slog.Logger
}

func (a *app) setup() (*environment, error) {
	if a.view.desc && a.view.sort == "" {
		return nil, fmt.Errorf("--desc requires --sort")
	}
	if a.view.page < 1 {
		return nil, fmt.Errorf("--page must be at least 1")
	}

	cfg, err := config.LoadFrom(a.configFile)
	if err != nil {
		return nil, err
	}

	var out io.Writer = io.Discard
	if a.verbose {
		out = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(out, nil))

	return &environment{
		cfg:    cfg,
		src:    source.New(&cfg.Source, logger),
		view:   a.view,
		logger: logger,
	}, nil
}

// show loads the kind's collection, applies the view flags in the order the
// web console would, and prints the resulting page.
func show[R any](cmd *cobra.Command, env *environment, kind *table.Kind[R], fetch table.Fetcher[R]) error {
	pages := env.cfg.Tables.Pagination

	eng, err := table.New(kind, table.Config{
		PageSize:     pages.DefaultPageSize,
		FetchTimeout: env.cfg.Tables.FetchTimeoutDuration(),
	}, env.logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Load(cmd.Context(), fetch); err != nil {
		return err
	}

	page, err := apply(eng, env.view, pages.MaxPageSize)
	if err != nil {
		return err
	}

	render(cmd.OutOrStdout(), kind, page)
	return nil
}

func apply[R any](eng *table.Engine[R], v view, maxPageSize int) (table.Page[R], error) {
	eng.SetQuery(v.search)

	if v.sort != "" {
		if err := eng.SetSort(v.sort); err != nil {
			return table.Page[R]{}, err
		}
		if v.desc {
			eng.SetSort(v.sort)
		}
	}

	if v.pageSize > 0 {
		if err := eng.SetPageSize(min(v.pageSize, maxPageSize)); err != nil {
			return table.Page[R]{}, err
		}
	}

	eng.SetPage(v.page - 1)
	return eng.VisiblePage(), nil
}
