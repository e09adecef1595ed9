package commands

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskboard/pkg/runner/mcp"
)

func addMCP(topLevel *cobra.Command) {
	var (
		transport string
		addr      string
		path      string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the board to Model Context Protocol clients",
		Long: `Serve the board to Model Context Protocol clients.

The default stdio transport is what desktop assistants expect when they
launch a local server. Use --transport http to serve the streamable HTTP
transport at --addr and --path instead.`,
		Example: `
taskboard mcp
taskboard mcp --transport http --addr 127.0.0.1:8765
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			t := mcp.Transport(strings.ToLower(strings.TrimSpace(transport)))
			if t != mcp.TransportStdio && t != mcp.TransportHTTP {
				return fmt.Errorf("unsupported transport %q (expected stdio or http)", transport)
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			r := mcp.Runner{
				Service:   s.Service,
				Version:   version,
				Transport: t,
				Addr:      strings.TrimSpace(addr),
				Path:      path,
			}
			if t == mcp.TransportHTTP {
				r.OnListening = func(a net.Addr) {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "MCP endpoint http://%s%s\n", a, r.Endpoint())
				}
			}
			return r.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&transport, "transport", string(mcp.TransportStdio), "Transport to use: stdio or http.")
	cmd.Flags().StringVar(&addr, "addr", mcp.DefaultAddr, "Listen address for the http transport (port 0 picks one).")
	cmd.Flags().StringVar(&path, "path", mcp.DefaultPath, "Endpoint path for the http transport.")
	topLevel.AddCommand(cmd)
}

