package cli

import (
	"github.com/spf13/cobra"
)

// NewSessionCmd создаёт группу команд для сессий working copies.
func NewSessionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect working copy sessions",
	}

	var opts ListSessionsOpts
	list := &cobra.Command{
		Use:   "list",
		Short: "List working copy sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			if opts.App == "" {
				opts.App = client.app
			}

			sessions, err := client.ListSessions(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(sessions))
			for i, s := range sessions {
				rows[i] = []string{s.ID, s.AppID, s.Branch, s.Operation, s.Status, s.CreatedAt, s.Error}
			}
			outputFn().Print([]string{"ID", "APP", "BRANCH", "OPERATION", "STATUS", "CREATED", "ERROR"}, rows, sessions)
			return nil
		},
	}
	list.Flags().StringVar(&opts.Status, "status", "", "Filter by status (OPEN, COMMITTED, DISCARDED, FAILED, EXPIRED)")
	list.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of sessions")

	cmd.AddCommand(list)
	return cmd
}

// NewChangeCmd создаёт группу команд для журнала изменений.
func NewChangeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "change",
		Short: "Inspect the audit log of committed changes",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List committed changes of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := clientFn().ListChanges(limit)
			if err != nil {
				return err
			}

			rows := make([][]string, len(changes))
			for i, c := range changes {
				rows[i] = []string{c.CommittedAt, c.Op, c.Kind, c.QualifiedName, c.Branch, c.Revision}
			}
			outputFn().Print([]string{"COMMITTED", "OP", "KIND", "NAME", "BRANCH", "REVISION"}, rows, changes)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 0, "Maximum number of changes")

	cmd.AddCommand(list)
	return cmd
}
