package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"metapress/internal/auth"
	"metapress/internal/store"
)

// totpIssuer labels enrollment entries in authenticator apps.
const totpIssuer = "metapress"

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(newUserAddCmd(e), newUserPasswdCmd(e), newUserTOTPCmd(e))
	return cmd
}

func users(e *env) (*store.UserStore, error) {
	db, err := e.conn()
	if err != nil {
		return nil, err
	}
	return store.New(db, e.cfg).Users(), nil
}

func commandCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newUserAddCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:     "add NAME",
		Short:   "Create an API user",
		Example: `  metactl user add editor --password 's3cret'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("user name required")
			}
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			us, err := users(e)
			if err != nil {
				return err
			}
			ctx, cancel := commandCtx(cmd)
			defer cancel()

			if existing, err := us.FindByName(ctx, name); err != nil {
				return err
			} else if existing != nil {
				return fmt.Errorf("user %q already exists", name)
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			u, err := us.Create(ctx, name, hash)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (uid %d)\n", u.Name, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "API password")
	return cmd
}

func newUserPasswdCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "passwd NAME",
		Short: "Set an API user's password (replaces legacy hashes with bcrypt)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("--password is required")
			}
			us, err := users(e)
			if err != nil {
				return err
			}
			ctx, cancel := commandCtx(cmd)
			defer cancel()

			u, err := us.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("user %q not found", args[0])
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			if err := us.SetPassword(ctx, u.ID, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", u.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new API password")
	return cmd
}

func newUserTOTPCmd(e *env) *cobra.Command {
	var (
		qrPath  string
		qrSize  int
		disable bool
	)
	cmd := &cobra.Command{
		Use:   "totp NAME",
		Short: "Enable or disable the TOTP second factor for an API user",
		Long: `Enable TOTP for an API user. A new secret is generated and the
enrollment QR code is written as a PNG. Requests from the user must then
carry the current code in the X-API-OTP header.`,
		Example: `  metactl user totp admin --qr admin.png
  metactl user totp admin --disable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			us, err := users(e)
			if err != nil {
				return err
			}
			ctx, cancel := commandCtx(cmd)
			defer cancel()

			u, err := us.FindByName(ctx, args[0])
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("user %q not found", args[0])
			}

			if disable {
				if err := us.SetTOTP(ctx, u.ID, nil, false); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "totp disabled for %s\n", u.Name)
				return nil
			}

			key, err := auth.GenerateTOTP(totpIssuer, u.Name)
			if err != nil {
				return err
			}
			png, err := auth.EnrollmentQR(key, qrSize)
			if err != nil {
				return err
			}
			if qrPath == "" {
				qrPath = u.Name + "-totp.png"
			}
			if err := os.WriteFile(qrPath, png, 0o600); err != nil {
				return fmt.Errorf("write qr code: %w", err)
			}

			secret := key.Secret()
			if err := us.SetTOTP(ctx, u.ID, &secret, true); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "totp enabled for %s\n", u.Name)
			fmt.Fprintf(out, "secret: %s\n", secret)
			fmt.Fprintf(out, "qr code: %s\n", qrPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&qrPath, "qr", "", "where to write the enrollment QR PNG (default NAME-totp.png)")
	cmd.Flags().IntVar(&qrSize, "qr-size", 256, "QR code size in pixels")
	cmd.Flags().BoolVar(&disable, "disable", false, "disable TOTP instead of enrolling")
	return cmd
}
