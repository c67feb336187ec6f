package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buraq-dev/keycore/jwt"
)

func newKeygenCmd() *cobra.Command {
	var (
		algName string
		length  int
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate signing key material for a JWT algorithm",
		Long: `Generates key material for the given algorithm and prints it.

HMAC secrets are printed as standard base64. RSA keys are printed as a PKCS#8 private
key followed by its PKIX public key. ES256, ES384 and EdDSA are not supported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := parseAlgorithmFlag(algName)
			if err != nil {
				return err
			}

			key, err := jwt.NewKeyBuilder().GenerateKeyWithLength(alg, length)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !key.HasPublicKey() {
				fmt.Fprintln(out, base64.StdEncoding.EncodeToString(key.PrivateKey))
				return nil
			}
			fmt.Fprint(out, string(key.PrivateKey))
			fmt.Fprint(out, string(key.PublicKey))
			return nil
		},
	}

	cmd.Flags().StringVarP(&algName, "alg", "a", "HS256", "JWT algorithm")
	cmd.Flags().IntVarP(&length, "length", "l", -1, "symmetric key length in bytes, rounded up to the nearest supported size (negative: recommended)")
	return cmd
}
