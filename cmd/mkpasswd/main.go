package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/edanalytica/gradelens-backend/internal/config"
)

// mkpasswd hashes an analyst password for the ANALYST_PASSWORD_HASH
// environment variable. The service stores no credentials, so this is the
// whole account-management story.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── CLI Input ─────────────────────────────────────────────────────
	fmt.Println("=== Generate Analyst Password Hash ===")

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after password input
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	password := string(bytePassword)
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		os.Exit(1)
	}

	fmt.Print("Confirm Password: ")
	byteConfirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	if password != string(byteConfirm) {
		fmt.Println("Error: Passwords do not match")
		os.Exit(1)
	}

	// ─── Hash ──────────────────────────────────────────────────────────
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error: Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nANALYST_PASSWORD_HASH=%s\n", string(hashed))
}
