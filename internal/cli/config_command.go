package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/klauern/persona/internal/config"
	"github.com/klauern/persona/internal/ui"
)

func (a *app) configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Display the effective configuration",
		Action: func(_ context.Context, _ *cli.Command) error {
			data, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write the default configuration file",
				UsageText: "persona config init [--force] [path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						path = config.FileNames[0]
					}
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists (use --force to overwrite)", path)
					} else if err != nil && !errors.Is(err, os.ErrNotExist) {
						return err
					}

					if err := config.Default().SaveToPath(path); err != nil {
						return fmt.Errorf("write config: %w", err)
					}
					fmt.Fprintln(a.out, ui.StatusSuccess("Wrote "+path))
					return nil
				},
			},
		},
	}
}
