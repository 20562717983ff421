package main

import (
	"fmt"

	"github.com/go-chi/docgen"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayush/conduit/backend/internal/articles"
	"github.com/ayush/conduit/backend/internal/auth"
	"github.com/ayush/conduit/backend/internal/profiles"
	"github.com/ayush/conduit/backend/internal/server"
	"github.com/ayush/conduit/backend/internal/users"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the API routes as markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := server.NewRouter(server.Deps{
			Logger:   zap.NewNop().Sugar(),
			Tokens:   auth.NewTokenManager("", 0, nil),
			Auth:     &auth.Handler{},
			Articles: &articles.Handler{},
			Profiles: &profiles.Handler{},
			Users:    &users.Handler{},
		})
		fmt.Fprintln(cmd.OutOrStdout(), docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
			ProjectPath: "github.com/ayush/conduit/backend",
			Intro:       "Conduit API routes.",
		}))
		return nil
	},
}
