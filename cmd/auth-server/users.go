package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/studio-auth/app"
	"github.com/upb/studio-auth/models"
	"github.com/upb/studio-auth/services"
	"go.uber.org/zap"
)

type createUserOptions struct {
	email     string
	firstName string
	lastName  string
	password  string
	admin     bool
}

var newUser createUserOptions

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage stored accounts",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create an account directly in the identity store. Use --admin to
bootstrap the first administrator.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		deps, err := app.NewDependencies(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = deps.Close(context.Background()) }()

		user, err := createUser(cmd.Context(), deps.Accounts, newUser)
		if err != nil {
			logger.Error("failed to create user", zap.Error(err))
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s) admin=%t\n", user.ID, user.Email, user.Admin)
		return nil
	},
}

func init() {
	flags := usersCreateCmd.Flags()
	flags.StringVar(&newUser.email, "email", "", "Account email, used as the login identity")
	flags.StringVar(&newUser.firstName, "first-name", "", "First name")
	flags.StringVar(&newUser.lastName, "last-name", "", "Last name")
	flags.StringVar(&newUser.password, "password", "", "Initial password")
	flags.BoolVar(&newUser.admin, "admin", false, "Grant admin rights")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersCreateCmd)
}

// accountCreator is the part of the account service used by users create
type accountCreator interface {
	Register(ctx context.Context, req services.SignupRequest) (*models.User, error)
	CreateAdmin(ctx context.Context, req services.SignupRequest) (*models.User, error)
}

func createUser(ctx context.Context, accounts accountCreator, opts createUserOptions) (*models.User, error) {
	req := services.SignupRequest{
		Email:     opts.email,
		FirstName: opts.firstName,
		LastName:  opts.lastName,
		Password:  opts.password,
	}
	if opts.admin {
		return accounts.CreateAdmin(ctx, req)
	}
	return accounts.Register(ctx, req)
}
