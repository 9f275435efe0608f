package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restup/rest"
)

var getCmd = newRequestCmd(rest.GET, "Send a GET request",
	`  restup get https://api.example.com/users?page=2
  restup get -P staging users/42 --extract $.name`)

var postCmd = newRequestCmd(rest.POST, "Send a POST request",
	`  restup post https://api.example.com/users --json '{"name":"ada"}'
  restup post -P staging upload --data-file big.csv --chunk-size 65536`)

var putCmd = newRequestCmd(rest.PUT, "Send a PUT request",
	`  restup put -P staging users/42 -d 'name=ada' -H 'Content-Type: application/x-www-form-urlencoded'`)

var deleteCmd = newRequestCmd(rest.DELETE, "Send a DELETE request",
	`  restup delete -P staging users/42 --fail`)

var optionsCmd = newRequestCmd(rest.OPTIONS, "Send an OPTIONS request",
	`  restup options https://api.example.com/users -v`)

// newRequestCmd builds the command for one request method. All methods share
// the same flags; a body is optional for every method.
func newRequestCmd(method rest.Method, short, example string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     strings.ToLower(method.String()) + " PATH|URL",
		Short:   short,
		Example: example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, method, args[0])
		},
	}
	addRequestFlags(cmd)
	return cmd
}
