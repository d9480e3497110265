package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/curatime/portal/internal/apiclient"
)

// NewRequestCmd creates the request command
func NewRequestCmd() *cobra.Command {
	var envAlias, data, page string

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send an authenticated request to the API",
		Long: `Send an authenticated request to the API and print the JSON reply.

The stored token is attached as a bearer credential. --page names the portal
page the request stands for; an unauthenticated reply on a protected page
prints the matching login hint.

Examples:
  $ curatime request GET /specialties/
  $ curatime request PATCH /doctors/me/ --data '{"city":"Oran"}' --page /doctor/profile
  $ curatime request POST /appointments/create/ --data @booking.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			switch method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("unsupported method %q", args[0])
			}

			var body any
			if data != "" {
				raw := []byte(data)
				if strings.HasPrefix(data, "@") {
					var err error
					if raw, err = os.ReadFile(strings.TrimPrefix(data, "@")); err != nil {
						return fmt.Errorf("failed to read request body: %w", err)
					}
				}
				if !json.Valid(raw) {
					return fmt.Errorf("request body is not valid JSON")
				}
				body = json.RawMessage(raw)
			}

			conn, err := connect(cmd, envAlias)
			if err != nil {
				return err
			}

			var reply json.RawMessage
			err = conn.client.Do(cmd.Context(), apiclient.Request{Method: method, Path: args[1], Body: body}, &reply)
			if err != nil {
				return explain(page, err)
			}

			if len(reply) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Done (empty reply)")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), reply)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON body, or @file to read it from a file")
	cmd.Flags().StringVar(&page, "page", "/", "Portal page the request stands for")
	envFlag(cmd, &envAlias)

	return cmd
}
