/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tomoncle/crudkit/api"
	"github.com/tomoncle/crudkit/database"
	"github.com/tomoncle/crudkit/example/user"
	"github.com/tomoncle/crudkit/utils"
)

var log = utils.NewLogger("MAIN")

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "crudkit-demo",
		Short:        "Serve the example user CRUD API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config-file", "c", "", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "init-db",
		Short: "Create the tables of every registered model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			db, err := database.InitDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB()
			return database.CreateTables(cmd.Context(), db, database.RegisteredModelInstances()...)
		},
	})
	return root
}

func serve(ctx context.Context, cfg *Config) error {
	utils.ConfigureConsoleLogFormat(cfg.Server.LogFormat)
	utils.ConfigureLogLevel(cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()
	if cfg.Bootstrap {
		if err := database.CreateTables(ctx, db, database.RegisteredModelInstances()...); err != nil {
			return err
		}
	}

	router := api.NewRouter(nil)
	users := user.NewService(user.NewRepository(db))
	api.NewCrudHandler[user.User, int64](users, api.KeyBinding[user.User, int64]{
		Parse: api.Int64Key,
		Set:   func(u *user.User, id int64) { u.ID = id },
	}).Register(router.Group("/api/users"))

	server := &http.Server{Addr: cfg.Server.Addr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("Server exited properly")
	return nil
}
