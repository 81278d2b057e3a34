package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/i-wajidrashid/keyforge/internal/cryptoutil"
	"github.com/i-wajidrashid/keyforge/internal/keyforge"
	"github.com/i-wajidrashid/keyforge/internal/termcolor"
)

func runExport(v *keyforge.Vault, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	encrypted := fs.Bool("encrypted", false, "produce a password-encrypted blob instead of a plaintext URI list")
	out := fs.String("out", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ctx := context.Background()

	if !*encrypted {
		uris, err := v.ExportURIs(ctx)
		if err != nil {
			return err
		}
		data := []byte(strings.Join(uris, "\n") + "\n")
		return writeExport(*out, data)
	}

	password, err := readPassphraseConfirm(os.Stdout)
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(password)

	blob, err := v.ExportEncrypted(ctx, password)
	if err != nil {
		return err
	}
	return writeExport(*out, blob)
}

func writeExport(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return err
	}
	termcolor.Green("Wrote %s", path)
	return nil
}

func runImport(v *keyforge.Vault, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	encrypted := fs.Bool("encrypted", false, "the input file is a password-encrypted blob")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		return fmt.Errorf("usage: keyforge import [--encrypted] <file>")
	}
	data, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	ctx := context.Background()

	if !*encrypted {
		uris := strings.Split(strings.TrimSpace(string(data)), "\n")
		count, err := v.ImportURIs(ctx, uris)
		if err != nil {
			return err
		}
		termcolor.Green("Imported %d tokens", count)
		return nil
	}

	password, err := readPassphrase(os.Stdout, "Enter backup passphrase: ")
	if err != nil {
		return err
	}
	defer cryptoutil.Zero(password)

	count, err := v.ImportEncrypted(ctx, data, password)
	if err != nil {
		return err
	}
	termcolor.Green("Imported %d tokens", count)
	return nil
}
