package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var nodes []string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register peers with the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := struct {
			Nodes []string `json:"nodes"`
		}{
			Nodes: append(append([]string{}, nodes...), args...),
		}

		return call(cmd.OutOrStdout(), http.MethodPost, "/nodes/register", req)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Run consensus against the peers of the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.OutOrStdout(), http.MethodGet, "/nodes/resolve", nil)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(resolveCmd)
	registerCmd.Flags().StringSliceVarP(&nodes, "node", "n", nil, "Address of a peer, may be repeated.")
}
