package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/studio-auth/token"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Work with bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Print a signed token for a subject",
	Long: `Sign a token with the configured JWT_SECRET and JWT_EXPIRATION_MS.
The subject is not checked against the identity store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		codec, err := token.NewCodec([]byte(cfg.JWT.Secret), cfg.JWT.TTL(), logger)
		if err != nil {
			return err
		}

		signed, err := codec.Issue(tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "", "Identity (email) to embed as the token subject")
	_ = tokenIssueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(tokenIssueCmd)
}
