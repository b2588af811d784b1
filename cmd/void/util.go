package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/acristoffers/void/internal/store"
)

// storePath resolves the store location from the -s flag or VOID_STORE.
func storePath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("store")
	if err != nil {
		return "", err
	}
	if path == "" {
		path = os.Getenv("VOID_STORE")
	}
	if path == "" {
		return "", fmt.Errorf("no store given: use -s or set VOID_STORE")
	}
	return path, nil
}

// password resolves the password from the -p flag, VOID_PSWD, or an
// interactive prompt.
func password(cmd *cobra.Command) (string, error) {
	pswd, err := cmd.Flags().GetString("password")
	if err != nil {
		return "", err
	}
	if pswd == "" {
		pswd = os.Getenv("VOID_PSWD")
	}
	if pswd == "" {
		return promptPassword("Password: ")
	}
	return pswd, nil
}

// newPassword resolves the password for store creation, prompting twice
// when interactive.
func newPassword(cmd *cobra.Command) (string, error) {
	pswd, err := cmd.Flags().GetString("password")
	if err != nil {
		return "", err
	}
	if pswd == "" {
		pswd = os.Getenv("VOID_PSWD")
	}
	if pswd != "" {
		return pswd, nil
	}
	first, err := promptPassword("Password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	return first, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// openStore opens the store addressed by the global flags.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, err := storePath(cmd)
	if err != nil {
		return nil, err
	}
	pswd, err := password(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(path, pswd)
}
