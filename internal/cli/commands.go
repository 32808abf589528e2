package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/klauern/persona/internal/assets"
	"github.com/klauern/persona/internal/budget"
	"github.com/klauern/persona/internal/catalog"
	"github.com/klauern/persona/internal/collector"
	"github.com/klauern/persona/internal/drift"
	"github.com/klauern/persona/internal/export"
	"github.com/klauern/persona/internal/logging"
	"github.com/klauern/persona/internal/model"
	"github.com/klauern/persona/internal/tree"
	"github.com/klauern/persona/internal/ui"
)

func catalogFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "catalog",
		Usage: "Catalog file (default from config, AGENTS.md)",
	}
}

func (a *app) checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate all documents and verify the catalog is up to date",
		Description: `Parses every entity document below the input directories, regenerates
   the catalog in memory and compares it byte for byte with the catalog file.

   Examples:
     persona check
     persona -i .agent -i shared check --catalog CONTEXT.md`,
		Flags: []cli.Flag{catalogFlag()},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := a.catalogPath(cmd)

			cat, tokens, err := a.generate(path)
			if err != nil {
				return err
			}
			if err := drift.Compare(cat.Text, path); err != nil {
				return err
			}

			fmt.Fprintln(a.out, ui.StatusSuccess(fmt.Sprintf("%s is up to date (%s, about %s tokens)",
				path, entityCount(cat.Items), humanize.Comma(int64(tokens)))))
			return nil
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the entity hierarchy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(export.FormatTree),
				Usage:   "Output format: tree, json, yaml or markdown",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			format, err := export.ParseFormat(cmd.String("format"))
			if err != nil {
				return err
			}
			root, _, err := a.collect()
			if err != nil {
				return err
			}
			return export.Write(a.out, root, format)
		},
	}
}

func (a *app) buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Generate the catalog file",
		Description: `Regenerates the catalog from the entity documents and writes it. With
   --output, every entity directory (document plus assets) and header file
   is also copied below the given directory.

   Examples:
     persona build
     persona build -o dist/agents`,
		Flags: []cli.Flag{
			catalogFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to mirror entity directories into",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := a.catalogPath(cmd)

			cat, tokens, err := a.generate(path)
			if err != nil {
				return err
			}

			// #nosec G306 - the catalog is meant to be committed and read
			if err := os.WriteFile(path, []byte(cat.Text), 0o644); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			logging.Info("wrote catalog", logging.Path(path), logging.Count(len(cat.Items)))
			fmt.Fprintln(a.out, ui.StatusSuccess(fmt.Sprintf("Generated %s (%s, about %s tokens)",
				path, entityCount(cat.Items), humanize.Comma(int64(tokens)))))

			out := cmd.String("output")
			if out == "" {
				return nil
			}
			stats, err := assets.Mirror(cat.Items, a.roots(), out)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, ui.StatusSuccess(fmt.Sprintf("Mirrored %s and %s into %s (%s files)",
				plural(stats.Entities, "entity", "entities"), plural(stats.Headers, "header", "headers"),
				out, humanize.Comma(int64(stats.Files)))))
			if stats.Skipped > 0 {
				fmt.Fprintln(a.out, ui.StatusWarning(fmt.Sprintf("%d item(s) outside the input directories were not mirrored", stats.Skipped)))
			}
			return nil
		},
	}
}

func (a *app) roots() []string {
	return a.cfg.InputPaths("")
}

func (a *app) catalogPath(cmd *cli.Command) string {
	if p := cmd.String("catalog"); p != "" {
		return p
	}
	return a.cfg.Catalog
}

// generate runs the catalog pipeline and applies the token budget.
func (a *app) generate(name string) (*catalog.Catalog, int, error) {
	cat, err := catalog.Generate(a.roots(), catalog.Options{Header: readHeader(a.cfg.Header)})
	if err != nil {
		return nil, 0, reportValidation(err)
	}
	tokens, err := budget.Check(name, cat.Text, a.cfg.Budget)
	if err != nil {
		return nil, tokens, err
	}
	return cat, tokens, nil
}

// collect gathers the documents and builds the hierarchy without
// serializing it.
func (a *app) collect() (*tree.Node, []tree.Entry, error) {
	roots := a.roots()
	res, err := collector.Collect(roots)
	if err != nil {
		return nil, nil, reportValidation(err)
	}
	root, err := tree.Build(res.Items, roots)
	if err != nil {
		return nil, nil, err
	}
	return root, root.Entries(), nil
}

// readHeader returns the trimmed top-level header text. A missing file
// means no header; other read failures are logged and treated the same.
func readHeader(path string) string {
	if path == "" {
		return ""
	}
	// #nosec G304 - path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("failed to read header, continuing without it", logging.Path(path), logging.Err(err))
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

// reportValidation logs every collected error and condenses an aggregate
// validation failure into a one-line error.
func reportValidation(err error) error {
	var verr *collector.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	for _, e := range verr.Errors {
		logging.Error(e.Error())
	}
	return fmt.Errorf("%w with %s", collector.ErrValidationFailed, plural(len(verr.Errors), "error", "errors"))
}

func entityCount(items []model.Item) string {
	return plural(len(model.Entities(items)), "entity", "entities")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return humanize.Comma(int64(n)) + " " + many
}
