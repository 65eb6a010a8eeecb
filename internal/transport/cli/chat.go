package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-site/internal/chat"
)

const (
	chatClear = "/clear"
	chatQuit  = "/quit"
)

func (r *runner) chatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the portfolio assistant (/clear resets, /quit exits)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := chat.NewClient(r.tools.API, chat.WithUseRAG(r.tools.Config.Client.UseRAG))
			out := cmd.OutOrStdout()

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := scanner.Text()
				switch strings.TrimSpace(line) {
				case chatQuit:
					return nil
				case chatClear:
					client.ClearMessages()
					fmt.Fprintln(out, "(conversation cleared)")
					continue
				}

				state := client.SendMessage(cmd.Context(), line)
				if len(state.Messages) == 0 {
					continue
				}
				last := state.Messages[len(state.Messages)-1]
				fmt.Fprintln(out, last.Content)
				for _, src := range state.Sources {
					fmt.Fprintf(out, "  [source] %s (%.2f)\n", src.Filename, src.Score)
				}
			}
		},
	}
}
