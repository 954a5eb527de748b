// @title                       Autodealer Leads API
// @version                     1.0
// @description                 Лиды автосалона: скоринг, распределение по менеджерам, задачи и воронка продаж.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"autodealer/internal/app"
	"autodealer/internal/models"
	"autodealer/internal/services"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "autodealer",
		Short: "Dealership back office: leads, tasks and notifications",
		// bare invocation serves, so containers can run the binary without args
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "path to YAML config")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "create missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(cmd.Context(), configPath)
		},
	})
	root.AddCommand(createAdminCmd(&configPath))
	return root
}

func createAdminCmd(configPath *string) *cobra.Command {
	var in services.NewAdminInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "add a back-office account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("ADMIN_PASSWORD")
			}
			return app.CreateAdmin(cmd.Context(), *configPath, in)
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (or ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&in.ProjectID, "project", models.ProjectOffice1, "office the admin works in")
	cmd.Flags().BoolVar(&in.IsSuper, "super", false, "grant access to every office")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func main() {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.Error(rec)
			os.Exit(1)
		}
	}()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
