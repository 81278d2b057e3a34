package main

import (
	"context"
	"fmt"
	"os"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyforge"
	"github.com/i-wajidrashid/keyforge/internal/termcolor"
)

func runCreate(v *keyforge.Vault, _ []string) error {
	if v.Exists() {
		return fmt.Errorf("vault already exists")
	}
	password, err := readPassphraseConfirm(os.Stdout)
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(password)

	if err := v.Create(context.Background(), password); err != nil {
		return err
	}
	termcolor.Green("Vault created.")
	return nil
}

func runUnlock(v *keyforge.Vault, _ []string) error {
	if !v.IsLocked() {
		termcolor.Yellow("Vault is already unlocked.")
		return nil
	}
	password, err := readPassphrase(os.Stdout, "Enter passphrase: ")
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(password)

	if err := v.Unlock(context.Background(), password); err != nil {
		return err
	}
	termcolor.Green("Vault unlocked.")
	return nil
}

func runLock(v *keyforge.Vault, _ []string) error {
	if err := v.Lock(); err != nil {
		return err
	}
	termcolor.Green("Vault locked.")
	return nil
}

func runStatus(v *keyforge.Vault, _ []string) error {
	info := v.PlatformInfo()
	fmt.Printf("OS/Arch:    %s/%s\n", info.OS, info.Arch)
	fmt.Printf("Data dir:   %s\n", info.DataDir)
	fmt.Printf("Vault path: %s\n", info.VaultPath)
	if !info.Exists {
		termcolor.Yellow("Vault status: absent")
		return nil
	}
	if info.Locked {
		termcolor.Yellow("Vault status: locked")
	} else {
		termcolor.Green("Vault status: unlocked")
	}
	return nil
}
