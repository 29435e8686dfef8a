// Command token mints a development bearer token for the registry API.
//
//	token -seed alice
//	token -account 0x1f...e2 -ttl 30m
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	jwttoken "estate/internal/jwt_token"
	"estate/internal/platform/config"
	id "estate/pkg/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	defaults, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	seed := fs.String("seed", "", "derive the account from this seed (blake2b-256)")
	account := fs.String("account", "", "hex account id (64 characters, optional 0x prefix)")
	ttl := fs.Duration("ttl", defaults.Auth.TokenTTL, "token lifetime")
	key := fs.String("key", defaults.Auth.JWTSigningKey, "HS256 signing key")
	issuer := fs.String("issuer", defaults.Auth.Issuer, "token issuer")
	audience := fs.String("audience", defaults.Auth.Audience, "token audience")
	showAccount := fs.Bool("print-account", false, "print the account id on the line before the token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := resolveAccount(*seed, *account)
	if err != nil {
		return err
	}

	token, err := jwttoken.NewJWTService(*key, *issuer, *audience).GenerateAccessToken(caller, *ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	if *showAccount {
		fmt.Fprintln(out, caller.String())
	}
	fmt.Fprintln(out, token)
	return nil
}

func resolveAccount(seed, account string) (id.AccountID, error) {
	switch {
	case seed != "" && account != "":
		return id.AccountID{}, fmt.Errorf("use either -seed or -account, not both")
	case seed != "":
		return id.AccountIDFromSeed(seed), nil
	case account != "":
		return id.ParseAccountID(account)
	default:
		return id.AccountID{}, fmt.Errorf("one of -seed or -account is required")
	}
}

