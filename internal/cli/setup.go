// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/parley-tui/internal/settings"
)

// =============================================================================
// SETUP WIZARD
// =============================================================================

// RunSetup interactively configures the completion endpoint: base URL,
// model, and API key. Existing values are shown as defaults; the key is
// read without echo and stored encrypted.
func RunSetup(sets *settings.Settings) error {
	if !IsStdinTTY() {
		return fmt.Errorf("setup requires an interactive terminal")
	}

	fmt.Println("parley setup")
	fmt.Println()

	baseURL := promptString("Base URL", sets.BaseURL())
	if baseURL != "" {
		if err := sets.SetBaseURL(baseURL); err != nil {
			return fmt.Errorf("saving base URL: %w", err)
		}
	}

	model := promptString("Model", sets.Model())
	if model != "" {
		if err := sets.SetModel(model); err != nil {
			return fmt.Errorf("saving model: %w", err)
		}
	}

	current := "not set"
	if masked := sets.CredentialMasked(); masked != "" {
		current = masked
	}
	fmt.Printf("API key [%s]: ", current)
	key := promptSecure("")
	if key != "" {
		if err := sets.SetCredential(key); err != nil {
			return fmt.Errorf("saving API key: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Configuration saved.")
	fmt.Printf("  Base URL: %s\n", sets.BaseURL())
	fmt.Printf("  Model:    %s\n", sets.Model())
	if masked := sets.CredentialMasked(); masked != "" {
		fmt.Printf("  API key:  %s (encrypted at rest)\n", masked)
	} else {
		fmt.Println("  API key:  not set - requests will fail until configured")
	}
	return nil
}

// promptString prompts for a line of input, returning "" to keep the
// shown default.
func promptString(prompt, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}

// promptSecure reads sensitive input (API keys) without echoing.
func promptSecure(prompt string) string {
	if prompt != "" {
		fmt.Print(prompt)
	}
	keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(keyBytes))
}
