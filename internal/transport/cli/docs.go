package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"portfolio-site/internal/admin"
)

func (r *runner) docsCommand() *cobra.Command {
	docs := &cobra.Command{
		Use:   "docs",
		Short: "Manage backend documents (requires the admin API key)",
	}
	docs.AddCommand(
		r.docsLoginCommand(),
		r.docsLogoutCommand(),
		r.docsListCommand(),
		r.docsUploadCommand(),
		r.docsDeleteCommand(),
		r.docsShowCommand(),
		r.docsStatsCommand(),
	)
	return docs
}

func (r *runner) adminClient() *admin.Client {
	return admin.NewClient(r.tools.API, r.tools.Store, r.tools.AdminOptions()...)
}

// restore reloads the stored session and fails when it is not usable.
func (r *runner) restore(cmd *cobra.Command) (*admin.Client, admin.State, error) {
	client := r.adminClient()
	state := client.Restore(cmd.Context())
	if !state.Authenticated() {
		if state.Error != "" {
			return nil, state, errors.New(state.Error)
		}
		return nil, state, errors.New("not logged in: run portfolioctl docs login")
	}
	return client, state, nil
}

func (r *runner) docsLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login [api-key]",
		Short: "Verify and store the admin API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				fmt.Fprint(cmd.OutOrStdout(), "Admin API Key: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				key = strings.TrimRight(line, "\r\n")
			}

			state := r.adminClient().Login(cmd.Context(), key)
			if !state.Authenticated() {
				return errors.New(state.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in. %d documents.\n", len(state.Documents()))
			return nil
		},
	}
}

func (r *runner) docsLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored admin API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.adminClient().Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func (r *runner) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, state, err := r.restore(cmd)
			if err != nil {
				return err
			}
			if state.Error != "" {
				return errors.New(state.Error)
			}
			printDocuments(cmd.OutOrStdout(), state)
			return nil
		},
	}
}

func (r *runner) docsUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document (.pdf, .docx, .xlsx, .md, .markdown, .txt)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := r.restore(cmd)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s failed: %w", args[0], err)
			}
			defer f.Close()

			state, err := client.UploadDocument(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return report(cmd.OutOrStdout(), state)
		},
	}
}

func (r *runner) docsDeleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, state, err := r.restore(cmd)
			if err != nil {
				return err
			}

			id := args[0]
			filename := id
			for _, doc := range state.Documents() {
				if doc.ID == id {
					filename = doc.Filename
					break
				}
			}

			confirm := admin.AlwaysConfirm
			if !yes {
				confirm = promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			confirmed := false
			gate := func(prompt string) bool {
				confirmed = confirm(prompt)
				return confirmed
			}

			state, err = client.DeleteDocument(cmd.Context(), id, filename, gate)
			if err != nil {
				return err
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return report(cmd.OutOrStdout(), state)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (r *runner) docsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <document-id>",
		Short: "Show backend details for one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := r.adminClient().DocumentInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func (r *runner) docsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := r.adminClient().StorageStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func promptConfirm(in io.Reader, out io.Writer) admin.Confirmer {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, _ := bufio.NewReader(in).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

// report prints the success line and the refreshed list, or returns the
// error text.
func report(out io.Writer, state admin.State) error {
	if state.Error != "" {
		return errors.New(state.Error)
	}
	if state.Success != "" {
		fmt.Fprintln(out, state.Success)
	}
	if state.Authenticated() {
		printDocuments(out, state)
	}
	return nil
}

func printDocuments(out io.Writer, state admin.State) {
	docs := state.Documents()
	if len(docs) == 0 {
		fmt.Fprintln(out, "No documents uploaded yet.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tFILENAME\tCHUNKS\tUPLOADED\tID")
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", admin.FileIcon(doc.FileType), doc.Filename, doc.ChunkCount, doc.UploadDate, doc.ID)
	}
	_ = tw.Flush()
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
