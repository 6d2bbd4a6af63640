package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/trellis/internal/auth"
)

// sessionEnv is the subset of the server configuration needed to sign tokens.
type sessionEnv struct {
	Secret string        `env:"TRELLIS_SESSION_SECRET,required"`
	TTL    time.Duration `env:"TRELLIS_SESSION_TTL" envDefault:"720h"`
}

func loadSessions() (*auth.Sessions, error) {
	var e sessionEnv
	if err := env.Parse(&e); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return auth.NewSessions([]byte(e.Secret), e.TTL)
}

var sessionCmd = &cobra.Command{
	Use:     "session",
	Short:   "Manage session tokens",
	GroupID: "system",
}

var sessionIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Sign a session token with the server secret",
	Long: `Sign a session token for a user with TRELLIS_SESSION_SECRET. With
--remote the token is stored in that remote's profile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := loadSessions()
		if err != nil {
			return err
		}
		tok, sess, err := sessions.Issue(args[0])
		if err != nil {
			return err
		}

		remoteName, _ := cmd.Flags().GetString("remote")
		if remoteName != "" {
			cfg, err := loadRemotesConfig()
			if err != nil {
				return err
			}
			r, ok := cfg.Remotes[remoteName]
			if !ok {
				return fmt.Errorf("remote %q not found", remoteName)
			}
			r.Token = tok
			cfg.Remotes[remoteName] = r
			if err := saveRemotesConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "token stored in remote %q\n", remoteName)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"token":      tok,
				"session_id": sess.ID,
				"user_id":    sess.UserID,
				"expires_at": sess.ExpiresAt,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	sessionIssueCmd.Flags().String("remote", "", "store the token in this remote")
	sessionCmd.AddCommand(sessionIssueCmd)
}
