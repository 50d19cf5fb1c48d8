// Package main точка входа фонового агента Idle Forest.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
)

func main() {
	// .env необязателен, переменные окружения могут быть заданы снаружи
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
