package adminctl

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the roomctl command tree.
func NewRootCmd() *cobra.Command {
	var server string
	client := func() *Client { return NewClient(server) }

	root := &cobra.Command{
		Use:   "roomctl",
		Short: "Inspect and administer a running VideoRoom server",
		Long: `roomctl queries the VideoRoom REST API and prints the results as tables.

Examples:
  roomctl stats
  roomctl rooms --server http://10.0.0.5:8080
  roomctl evict lobby`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&server, "server", "s", "http://localhost:8080", "server base URL")

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), StatsView(st))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:     "rooms",
		Aliases: []string{"ls"},
		Short:   "List active rooms",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rooms, err := client().Rooms(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RoomsView(rooms))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "room <room-id>",
		Short: "Show one room and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := client().Room(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), RoomView(room))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "files <session-id>",
		Short: "List the files stored for a recording session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := client().Files(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), FilesView(files))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "evict <room-id>",
		Short: "Delete a room and notify its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := client().Evict(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted room %s (%d members)\n", args[0], n)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "kick <room-id> <session-id>",
		Short: "Remove one member from a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client().Kick(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kicked %s from %s\n", args[1], args[0])
			return nil
		},
	})

	return root
}
