package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/buraq-dev/keycore"
	"github.com/buraq-dev/keycore/jwt"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage sealed server keys",
		Long: `Manage server signing keys sealed under the master key and stored in Redis.

Every subcommand requires BURAQ_MASTER_KEY and BURAQ_REDIS_ADDR.`,
	}

	cmd.AddCommand(newKeyIssueCmd())
	cmd.AddCommand(newKeyImportCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyDeleteCmd())
	return cmd
}

func newKeyIssueCmd() *cobra.Command {
	var envID, algName string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Generate and store a new server key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			alg := engine.Config().Token.DefaultAlgorithm
			if algName != "" {
				if alg, err = parseAlgorithmFlag(algName); err != nil {
					return err
				}
			}

			key, err := engine.IssueServerKey(ctx, env, alg)
			if err != nil {
				return err
			}
			printServerKey(cmd, key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	cmd.Flags().StringVarP(&algName, "alg", "a", "", "JWT algorithm (defaults to BURAQ_TOKEN_ALGORITHM)")
	return cmd
}

func newKeyImportCmd() *cobra.Command {
	var envID, algName, file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Seal and store an existing RSA private key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			alg, err := parseAlgorithmFlag(algName)
			if err != nil {
				return err
			}
			pemKey, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			key, err := engine.ImportServerKey(ctx, env, alg, string(pemKey))
			if err != nil {
				return err
			}
			printServerKey(cmd, key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	cmd.Flags().StringVarP(&algName, "alg", "a", jwt.RS256.String(), "JWT algorithm the key signs with")
	cmd.Flags().StringVarP(&file, "file", "f", "", "PEM encoded private key (PKCS#1 or PKCS#8)")
	return cmd
}

func newKeyListCmd() *cobra.Command {
	var envID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the server keys of an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			keys, err := engine.ListServerKeys(ctx, env)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tALGORITHM\tCREATED")
			for _, k := range keys {
				fmt.Fprintf(w, "%s\t%s\t%s\n", k.ID, k.Algorithm, k.CreatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	return cmd
}

func newKeyDeleteCmd() *cobra.Command {
	var envID, keyID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a server key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseUUIDFlag("env", envID)
			if err != nil {
				return err
			}
			id, err := parseUUIDFlag("id", keyID)
			if err != nil {
				return err
			}
			engine, ctx, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer engine.Close()
			if err := requireStore(engine); err != nil {
				return err
			}

			if err := engine.DeleteServerKey(ctx, env, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&envID, "env", "e", "", "environment uuid")
	cmd.Flags().StringVar(&keyID, "id", "", "server key uuid")
	return cmd
}

func printServerKey(cmd *cobra.Command, key *keycore.ServerKey) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id: %s\n", key.ID)
	fmt.Fprintf(out, "environment: %s\n", key.EnvironmentID)
	fmt.Fprintf(out, "algorithm: %s\n", key.Algorithm)
	if len(key.PublicKey) > 0 {
		fmt.Fprint(out, string(key.PublicKey))
	}
}
