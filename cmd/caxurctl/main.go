package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/damnyan/caxur/internal/config"
	"github.com/damnyan/caxur/internal/security/password"
	"github.com/damnyan/caxur/internal/store/pg"
)

// caxurctl opera directo contra la base: revocación, housekeeping y
// reseteo de credenciales no pasan por el API HTTP.
func main() {
	_ = godotenv.Load()

	var (
		cfgPath string
		store   *pg.Store
	)

	root := &cobra.Command{
		Use:   "caxurctl",
		Short: "CLI administrativo de caxur (acceso directo al storage)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("storage.dsn vacío (o STORAGE_DSN no seteado)")
			}
			store, err = pg.New(cmd.Context(), cfg.Storage.DSN, pg.Config{
				MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
				MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
				ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			})
			if err != nil {
				return fmt.Errorf("store: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if store != nil {
				store.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "configs/config.example.yaml", "ruta al config YAML")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Verifica conectividad con el storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Operaciones sobre refresh tokens",
	}

	var principalID string
	revokeAllCmd := &cobra.Command{
		Use:   "revoke-all",
		Short: "Revoca todos los refresh tokens de un principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if principalID == "" {
				return fmt.Errorf("falta --principal")
			}
			n, err := store.RevokeAllByPrincipal(cmd.Context(), principalID)
			if err != nil {
				return err
			}
			fmt.Printf("revoked=%d\n", n)
			return nil
		},
	}
	revokeAllCmd.Flags().StringVar(&principalID, "principal", "", "ID del principal")

	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Elimina refresh tokens vencidos (housekeeping)",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := store.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d\n", n)
			return nil
		},
	}
	tokensCmd.AddCommand(revokeAllCmd, gcCmd)

	principalCmd := &cobra.Command{
		Use:   "principal",
		Short: "Operaciones sobre principals",
	}

	var setPwID, setPwPlain string
	setPasswordCmd := &cobra.Command{
		Use:   "set-password",
		Short: "Reemplaza la credencial de un principal (re-hash con argon2id)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if setPwID == "" || setPwPlain == "" {
				return fmt.Errorf("faltan --id y/o --password")
			}
			hash, err := password.Hash(password.Default, setPwPlain)
			if err != nil {
				return err
			}
			if err := store.UpdateCredentialHash(cmd.Context(), setPwID, hash); err != nil {
				return err
			}
			// Credencial comprometida: las sesiones abiertas caen con ella.
			n, err := store.RevokeAllByPrincipal(cmd.Context(), setPwID)
			if err != nil {
				return err
			}
			fmt.Printf("updated, revoked=%d\n", n)
			return nil
		},
	}
	setPasswordCmd.Flags().StringVar(&setPwID, "id", "", "ID del principal")
	setPasswordCmd.Flags().StringVar(&setPwPlain, "password", "", "password nuevo en claro")
	principalCmd.AddCommand(setPasswordCmd)

	root.AddCommand(pingCmd, tokensCmd, principalCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
