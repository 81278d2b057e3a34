package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/i-wajidrashid/keyforge/internal/keyforge"
	"github.com/i-wajidrashid/keyforge/internal/otp"
	"github.com/i-wajidrashid/keyforge/internal/termcolor"
	"github.com/i-wajidrashid/keyforge/internal/tokens"
)

func runList(v *keyforge.Vault, _ []string) error {
	list, err := v.List(context.Background())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No tokens.")
		return nil
	}
	for _, tok := range list {
		fmt.Printf("%s  %-24s %-24s %-4s %ds\n", tok.ID, tok.Issuer, tok.Account, tok.Kind, tok.Period)
	}
	return nil
}

func runAdd(v *keyforge.Vault, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	issuer := fs.String("issuer", "", "issuer name")
	account := fs.String("account", "", "account label")
	secret := fs.String("secret", "", "Base32-encoded shared secret")
	kind := fs.String("kind", "totp", "totp or hotp")
	algorithm := fs.String("algorithm", "SHA1", "SHA1, SHA256, or SHA512")
	digits := fs.Int("digits", 6, "code length")
	period := fs.Int("period", 30, "TOTP step in seconds")
	counter := fs.Uint64("counter", 0, "initial HOTP counter")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *issuer == "" || *account == "" || *secret == "" {
		return fmt.Errorf("--issuer, --account, and --secret are required")
	}

	tokenKind := tokens.KindTOTP
	if *kind == "hotp" {
		tokenKind = tokens.KindHOTP
	}

	tok, err := v.Add(context.Background(), keyforge.AddTokenInput{
		Issuer:    *issuer,
		Account:   *account,
		SecretB32: *secret,
		Algorithm: otp.Algorithm(*algorithm),
		Digits:    *digits,
		Kind:      tokenKind,
		Period:    *period,
		Counter:   *counter,
	})
	if err != nil {
		return err
	}
	termcolor.Green("Added token %s (%s)", tok.ID, tok.Issuer)
	return nil
}

func runDelete(v *keyforge.Vault, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: keyforge delete <id>")
	}
	if err := v.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	termcolor.Green("Deleted %s", args[0])
	return nil
}

func runReorder(v *keyforge.Vault, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: keyforge reorder <id> [<id> ...]")
	}
	if err := v.Reorder(context.Background(), args); err != nil {
		return err
	}
	termcolor.Green("Reordered %d tokens", len(args))
	return nil
}
