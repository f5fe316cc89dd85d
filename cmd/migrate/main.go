// Command migrate aplica as migrações goose embutidas (pasta migrations/).
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"goprice/config"
	"goprice/internal/pkg/database"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "migrações do banco do GoPrice",
		Commands: []*cli.Command{
			gooseCommand("up", "aplica todas as migrações pendentes"),
			gooseCommand("down", "desfaz a última migração"),
			gooseCommand("redo", "desfaz e reaplica a última migração"),
			gooseCommand("status", "lista as migrações e seu estado"),
			gooseCommand("version", "mostra a versão atual do banco"),
			{
				Name:      "up-to",
				Usage:     "aplica as migrações até a versão informada",
				ArgsUsage: "VERSION",
				Action:    runGoose("up-to"),
			},
			{
				Name:      "down-to",
				Usage:     "desfaz as migrações até a versão informada",
				ArgsUsage: "VERSION",
				Action:    runGoose("down-to"),
			},
		},
		// Sem subcomando: up.
		Action: runGoose("up"),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func gooseCommand(name, usage string) *cli.Command {
	return &cli.Command{Name: name, Usage: usage, Action: runGoose(name)}
}

func runGoose(command string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		ctx := c.Context
		if ctx == nil {
			ctx = context.Background()
		}

		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(ctx, db, command, c.Args().Slice()...); err != nil {
			return err
		}
		fmt.Printf("goose %s: ok\n", command)
		return nil
	}
}
