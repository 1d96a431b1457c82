// Command kitsheet converts ELISA kit datasheets into a vendor template.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet"
	"github.com/tsawler/kitsheet/config"
	"github.com/tsawler/kitsheet/docx"
	"github.com/tsawler/kitsheet/format"
	"github.com/tsawler/kitsheet/render"
	"github.com/tsawler/kitsheet/store"
)

func main() {
	cmd := &cli.Command{
		Name:  "kitsheet",
		Usage: "Convert ELISA kit datasheets into a vendor template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Aliases: []string{"p"},
				Usage:   "vendor profile",
				Value:   config.DefaultProfile,
				Sources: cli.EnvVars("KITSHEET_PROFILE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML file with additional profiles",
				Sources: cli.EnvVars("KITSHEET_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL URL of the output registry",
				Sources: cli.EnvVars("KITSHEET_DATABASE_URL"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "human-readable debug logging",
			},
		},
		Commands: []*cli.Command{
			convertCommand(),
			batchCommand(),
			sectionsCommand(),
			placeholdersCommand(),
			profilesCommand(),
			historyCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert one datasheet",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "DOCX, ODT or HTML datasheet", Required: true},
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "DOCX template", Required: true},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output DOCX (default: derived from catalog and lot number)"},
			&cli.StringFlag{Name: "output-dir", Usage: "directory for derived output names", Value: "."},
			&cli.StringFlag{Name: "kit-name", Usage: "kit name override"},
			&cli.StringFlag{Name: "catalog", Usage: "catalog number override"},
			&cli.StringFlag{Name: "lot", Usage: "lot number"},
			&cli.BoolFlag{Name: "no-backup", Usage: "do not keep a copy before each post-processing pass"},
			&cli.BoolFlag{Name: "no-postprocess", Usage: "skip post-processing"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.close()

			res, err := app.conv.Convert(ctx, kitsheet.Job{
				Source:    cmd.String("source"),
				Template:  cmd.String("template"),
				Output:    cmd.String("output"),
				OutputDir: cmd.String("output-dir"),
				Overrides: overrides(cmd),
			})
			if err != nil {
				var unresolved *render.UnresolvedError
				if errors.As(err, &unresolved) {
					return errors.Errorf("template %s: %v", cmd.String("template"), err)
				}
				return err
			}
			printResult(cmd, *res)
			return nil
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Convert many datasheets",
		ArgsUsage: "SOURCE... (files or directories)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "DOCX template", Required: true},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "output directory", Value: "."},
			&cli.StringFlag{Name: "lot", Usage: "lot number applied to every job"},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "concurrent conversions (default: number of CPUs)"},
			&cli.BoolFlag{Name: "no-backup", Usage: "do not keep a copy before each post-processing pass"},
			&cli.BoolFlag{Name: "no-postprocess", Usage: "skip post-processing"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			sources, err := collectSources(cmd.Args().Slice())
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return errors.New("no source files given")
			}

			app, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.close()

			jobs := make([]kitsheet.Job, len(sources))
			for i, src := range sources {
				jobs[i] = kitsheet.Job{
					Source:    src,
					Template:  cmd.String("template"),
					OutputDir: cmd.String("output-dir"),
					Overrides: render.Overrides{LotNumber: cmd.String("lot")},
				}
			}

			failed := 0
			for _, res := range app.conv.Batch(ctx, jobs, int(cmd.Int("workers"))) {
				if res.Err != nil {
					failed++
					fmt.Fprintf(cmd.Root().ErrWriter, "FAIL %s: %v\n", res.Job.Source, res.Err)
					continue
				}
				printResult(cmd, res)
			}
			if failed > 0 {
				return errors.Errorf("%d of %d conversions failed", failed, len(jobs))
			}
			return nil
		},
	}
}

func sectionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "sections",
		Usage:     "Show the sections, tables and fields found in a datasheet",
		ArgsUsage: "SOURCE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "fields", Usage: "also print every extracted field"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected one source file")
			}
			app, err := setup(ctx, cmd)
			if err != nil {
				return err
			}
			defer app.close()

			a, err := app.conv.Analyze(cmd.Args().First())
			if err != nil {
				return err
			}
			w := cmd.Root().Writer

			fmt.Fprintf(w, "%d paragraphs, %d tables\n\n", len(a.Document.Paragraphs()), len(a.Document.Tables()))
			for _, s := range a.Sections.Ordered() {
				fmt.Fprintf(w, "%-28s heading %-4d paragraphs %d-%d  %q\n", s.Name, s.Heading, s.Start, s.End, s.HeadingText)
				for _, t := range a.Tables.Tables[s.Name] {
					fmt.Fprintf(w, "    table %d (%s): %s\n", t.Index, a.Tables.Methods[t.Index], strings.Join(t.Header(), " | "))
				}
			}
			for _, d := range a.Sections.Duplicates {
				fmt.Fprintf(w, "duplicate %s at paragraph %d (overwritten)\n", d.Name, d.Heading)
			}
			for _, t := range a.Tables.Unassigned {
				fmt.Fprintf(w, "unassigned table %d: %s\n", t.Index, strings.Join(t.Header(), " | "))
			}

			if cmd.Bool("fields") {
				fmt.Fprintln(w)
				for _, name := range a.Fields.Names() {
					f := a.Fields[name]
					marker := ""
					if f.Default {
						marker = " (default)"
					}
					fmt.Fprintf(w, "%s [%s]%s\n", name, f.Kind, marker)
				}
			}
			return nil
		},
	}
}

func placeholdersCommand() *cli.Command {
	return &cli.Command{
		Name:      "placeholders",
		Usage:     "List the names a template refers to",
		ArgsUsage: "TEMPLATE",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return errors.New("expected one template file")
			}
			tpl, err := docx.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			for _, name := range render.Names(tpl) {
				fmt.Fprintln(cmd.Root().Writer, name)
			}
			return nil
		},
	}
}

func profilesCommand() *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "List the available profiles",
		Action: func(_ context.Context, cmd *cli.Command) error {
			profiles, err := loadProfiles(cmd)
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			for _, name := range profiles.Names() {
				p, _ := profiles.Get(name)
				fmt.Fprintf(w, "%-12s %s\n", name, p.Description)
			}
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded output files (needs --database-url)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "number of entries"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dsn := cmd.String("database-url")
			if dsn == "" {
				return errors.New("no database configured: set --database-url or KITSHEET_DATABASE_URL")
			}
			db, err := store.OpenPostgres(ctx, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			files, err := db.List(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.Root().Writer, "%s  %s  %-8s %s <- %s\n",
					f.CreatedAt.Format("2006-01-02 15:04"), f.ID.String()[:8], f.Profile, f.Filename, f.Source)
			}
			return nil
		},
	}
}

type app struct {
	conv   *kitsheet.Converter
	logger *zap.Logger
	db     *store.Postgres
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

func setup(ctx context.Context, cmd *cli.Command) (*app, error) {
	logger, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return nil, errors.Wrap(err, "creating logger")
	}
	a := &app{logger: logger}

	profiles, err := loadProfiles(cmd)
	if err != nil {
		return nil, err
	}
	profile, err := profiles.Get(cmd.String("profile"))
	if err != nil {
		return nil, err
	}

	opts := []kitsheet.Option{kitsheet.WithLogger(logger)}
	if cmd.Bool("no-backup") {
		opts = append(opts, kitsheet.WithoutBackups())
	}
	if cmd.Bool("no-postprocess") {
		opts = append(opts, kitsheet.WithoutPostProcessing())
	}
	if dsn := cmd.String("database-url"); dsn != "" {
		a.db, err = store.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		opts = append(opts, kitsheet.WithRegistry(a.db))
	} else {
		opts = append(opts, kitsheet.WithRegistry(store.NewMemory()))
	}

	a.conv, err = kitsheet.New(profile, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

func loadProfiles(cmd *cli.Command) (*config.Registry, error) {
	profiles, err := config.Builtin()
	if err != nil {
		return nil, err
	}
	if path := cmd.String("config"); path != "" {
		if err := profiles.Load(path); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

func overrides(cmd *cli.Command) render.Overrides {
	return render.Overrides{
		KitName:       cmd.String("kit-name"),
		CatalogNumber: cmd.String("catalog"),
		LotNumber:     cmd.String("lot"),
	}
}

func printResult(cmd *cli.Command, res kitsheet.Result) {
	w := cmd.Root().Writer
	fmt.Fprintf(w, "%s -> %s (%s)\n", res.Job.Source, res.Output, res.Duration.Round(time.Millisecond))
	for _, r := range res.Report.Failed() {
		fmt.Fprintf(w, "    pass %s failed: %v\n", r.Pass, r.Err)
	}
}

// collectSources expands directories into the datasheets they contain.
func collectSources(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", arg)
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", arg)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			if format.Detect(e.Name()) != format.Unknown {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
