package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yigit/shelfclub/internal/bootstrap"
	"github.com/yigit/shelfclub/internal/config"
	pkgAuth "github.com/yigit/shelfclub/internal/pkg/auth"
	"github.com/yigit/shelfclub/internal/pkg/helpers"
	"github.com/yigit/shelfclub/internal/pkg/logger"
)

// devtoken prints a bearer token signed with the configured JWT secret, for
// calling the API locally without the identity service.
func main() {
	app := &cli.App{
		Name:  "devtoken",
		Usage: "issue a local access token for a user",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "user", Aliases: []string{"u"}, Usage: "user ID placed in the token", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "email claim", Value: "dev@shelfclub.dev"},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file", Value: bootstrap.ConfigPath()},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime, defaults to the configured expiration"},
		},
		Action: issueToken,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Failed to issue token")
		os.Exit(1)
	}
}

func issueToken(c *cli.Context) error {
	userID := c.Int64("user")
	if userID <= 0 {
		return fmt.Errorf("user must be a positive integer, got %d", userID)
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	ttl := c.Duration("ttl")
	if ttl <= 0 {
		ttl = helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour)
	}

	jwtService := pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: ttl,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	token, expiresIn, err := jwtService.GenerateAccessToken(userID, c.String("email"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	logger.Info().Int64("userID", userID).Int("expiresIn", expiresIn).Msg("Token issued")
	return nil
}
