package wallet

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

func PromptPassword(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr) // best-effort newline

	if err != nil {
		ZeroBytes(pw)
		return nil, fmt.Errorf("password input failed: %w", err)
	}
	if len(pw) < 8 {
		ZeroBytes(pw)
		return nil, fmt.Errorf("password must be at least 8 characters long")
	}
	return pw, nil
}

// PasswordFromEnvOrPrompt prefers the env value so the agent can run headless.
func PasswordFromEnvOrPrompt(env string) ([]byte, error) {
	if env != "" {
		return []byte(env), nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, fmt.Errorf("no wallet password: set TICKER_WALLET_PASSWORD or run interactively")
	}
	return PromptPassword("Wallet password: ")
}

func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
