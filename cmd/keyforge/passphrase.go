package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

func readPassphrase(w io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(w, prompt)
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w) // newline after hidden input
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return passBytes, nil
}

// readPassphraseConfirm reads and confirms a new passphrase, enforcing an
// 8-character minimum. readPassphrase, used for existing passphrases, applies
// no minimum.
func readPassphraseConfirm(w io.Writer) ([]byte, error) {
	pass1, err := readPassphrase(w, "Enter passphrase: ")
	if err != nil {
		return nil, err
	}
	if len(pass1) < 8 {
		return nil, fmt.Errorf("passphrase must be at least 8 characters")
	}
	pass2, err := readPassphrase(w, "Confirm passphrase: ")
	if err != nil {
		return nil, err
	}
	if string(pass1) != string(pass2) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return pass1, nil
}
