package main

import (
	"context"
	"fmt"

	"github.com/i-wajidrashid/keyforge/internal/keyforge"
)

func runTOTP(v *keyforge.Vault, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: keyforge totp <id>")
	}
	code, err := v.TOTPFor(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}

func runHOTP(v *keyforge.Vault, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: keyforge hotp <id>")
	}
	code, err := v.HOTPFor(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Println(code)
	return nil
}
