// Package main is the entry point for the reminder engine.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
