package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/simpleqa-bench/api"
	"github.com/stellarlinkco/simpleqa-bench/internal/history"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string
	var runDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a run directory's results over HTTP",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var hist *history.Store
			if path := strings.TrimSpace(st.cfg.Storage.HistoryPath); path != "" {
				h, err := history.NewStore(path)
				if err != nil {
					return err
				}
				defer func() { _ = h.Close() }()
				hist = h
			}

			s, err := api.NewServer(runDir, hist)
			if err != nil {
				return err
			}
			return s.Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&runDir, "dir", "", "run directory to serve")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}
