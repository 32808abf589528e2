package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/klauern/persona/internal/ui"
	"github.com/klauern/persona/internal/ui/tui"
)

func (a *app) browseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Interactively browse the catalog entities",
		Description: `Opens a filterable table of all entities. Press enter for details,
   o to print the selected document, p to print its path.`,
		Action: func(_ context.Context, _ *cli.Command) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("browse needs an interactive terminal; use 'persona list' instead")
			}

			_, entries, err := a.collect()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, ui.StatusWarning("No entities found"))
				return nil
			}

			res, err := tui.RunBrowse(entries)
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			switch res.Action {
			case tui.BrowseActionPrint:
				fmt.Fprint(a.out, res.Entity.Body)
			case tui.BrowseActionPath:
				fmt.Fprintln(a.out, res.Entity.Path)
			}
			return nil
		},
	}
}
