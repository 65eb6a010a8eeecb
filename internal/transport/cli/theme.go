package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"portfolio-site/internal/prefs"
)

func (r *runner) themeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|light|dark]",
		Short:     "Show or change the stored theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"toggle", string(prefs.ThemeLight), string(prefs.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			themes := prefs.NewThemes(r.tools.Store)
			ctx := cmd.Context()

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), themes.Current(ctx))
				return nil
			}

			if args[0] == "toggle" {
				next, err := themes.Toggle(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), next)
				return nil
			}

			theme, err := prefs.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if err := themes.Set(ctx, theme); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}
}
