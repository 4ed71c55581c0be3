// modelproxy — утилита командной строки для modelproxy API.
//
// Использование:
//
//	modelproxy [--api-url URL] [--json] [--app APP] [--branch BRANCH] <command> <subcommand> [flags]
//
// Команды:
//
//	module     Модули приложения
//	entity     Сущности доменной модели
//	microflow  Микрофлоу
//	session    Сессии working copies
//	change     Журнал изменений
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ebstat/sdkmendixtest/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		apiURL     string
		jsonOutput bool
		app        string
		branch     string
	)

	rootCmd := &cobra.Command{
		Use:           "modelproxy",
		Short:         "modelproxy CLI: inspect and edit application models",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiURL, "api-url", envOr("MODELPROXY_API_URL", "http://localhost:8080"), "API server URL")
	flags.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	flags.StringVar(&app, "app", os.Getenv("MODELPROXY_APP"), "Application ID")
	flags.StringVar(&branch, "branch", "", "Branch (default: server default branch)")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, app, branch) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewModuleCmd(clientFn, outputFn),
		cli.NewEntityCmd(clientFn, outputFn),
		cli.NewMicroflowCmd(clientFn, outputFn),
		cli.NewSessionCmd(clientFn, outputFn),
		cli.NewChangeCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
