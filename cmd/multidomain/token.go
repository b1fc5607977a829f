package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/stackdump/multidomain-router/internal/auth"
	"github.com/stackdump/multidomain-router/internal/config"
)

func tokenCmd() *cobra.Command {
	var (
		subject   string
		ttl       time.Duration
		secretEnv string
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := os.Getenv(secretEnv)
			if secret == "" {
				var err error
				secret, err = readSecret(cmd.ErrOrStderr(), cmd.InOrStdin(), "JWT secret: ")
				if err != nil {
					return fmt.Errorf("failed to read secret: %w", err)
				}
			}
			if secret == "" {
				return errors.New("secret must not be empty")
			}

			token, err := auth.Mint(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&subject, "subject", "admin", "token subject, logged with admin requests")
	c.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	c.Flags().StringVar(&secretEnv, "secret-env", config.SecretEnv, "environment variable holding the secret")
	return c
}

// readSecret prompts without echo on a terminal and reads a plain line
// otherwise.
func readSecret(prompt io.Writer, in io.Reader, label string) (string, error) {
	fmt.Fprint(prompt, label)

	if f, ok := in.(*os.File); ok && terminal.IsTerminal(int(f.Fd())) {
		secret, err := terminal.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
