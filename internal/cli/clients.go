package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/jrsteele09/go-counterparty-client/clients"
	"github.com/jrsteele09/go-counterparty-client/internal/format"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/spf13/cobra"
)

var (
	clientName    string
	clientAddress string
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage stored clients without the web client",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored clients",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClients(cmd, func(repo clients.Repo) error {
			list, err := repo.List(cmd.Context())
			if err != nil {
				return err
			}
			return printClients(cmd.OutOrStdout(), list)
		})
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a client",
	Long: `Add a client with a name and a 25 to 34 character alphanumeric address.

Examples:
  counterparty-client clients add --name "Acme" --address 1BoatSLRHtKNngkdXEeobR76b53LETtpyT
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClients(cmd, func(repo clients.Repo) error {
			client, err := repo.Add(cmd.Context(), clients.ClientParams{Name: clientName, Address: clientAddress})
			var fieldErrs validation.Errors
			if errors.As(err, &fieldErrs) {
				return fmt.Errorf("invalid client: %w", fieldErrs)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added client %s\n", client.ID)
			return nil
		})
	},
}

var clientsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClients(cmd, func(repo clients.Repo) error {
			if err := repo.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted client %s\n", args[0])
			return nil
		})
	},
}

func init() {
	clientsAddCmd.Flags().StringVar(&clientName, "name", "", "client name")
	clientsAddCmd.Flags().StringVar(&clientAddress, "address", "", "client address")
	clientsCmd.AddCommand(clientsListCmd, clientsAddCmd, clientsDeleteCmd)
	rootCmd.AddCommand(clientsCmd)
}

func withClients(cmd *cobra.Command, fn func(repo clients.Repo) error) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := kvstore.Open(cmd.Context(), c.GetDatabasePath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(clients.NewKVRepo(store))
}

func printClients(w io.Writer, list []*clients.Client) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No clients")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS\tBALANCE")
	for _, client := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", client.ID, client.Name, client.Address, format.Balance(&client.Balance))
	}
	return tw.Flush()
}
