// Command seed grava o catálogo de exemplo (produtos e regras) no banco.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"goprice/config"
	"goprice/internal/pkg/database"
	"goprice/internal/pkg/logger"
	"goprice/internal/repository/productrepo"
	"goprice/internal/repository/rulerepo"
	"goprice/internal/seed"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "grava o catálogo de exemplo do GoPrice",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "catálogo YAML (padrão: o embutido)"},
			&cli.BoolFlag{Name: "reset-rules", Usage: "apaga as regras existentes antes de gravar"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	appLog := logger.NewLogger(cfg.LogLevel)

	catalog, err := loadCatalog(c.String("file"))
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

	// Sem cache: o seed escreve direto no banco.
	products := productrepo.NewProductRepository(db, nil, cfg.DBTimeout, cfg.CacheTTL, appLog)
	rules := rulerepo.NewRuleRepository(db, cfg.DBTimeout, appLog)

	res, err := seed.NewSeeder(products, rules, appLog).Apply(ctx, catalog, c.Bool("reset-rules"))
	if err != nil {
		return err
	}

	fmt.Printf("%d produtos criados (%d já existiam), %d regras criadas (%d removidas)\n",
		res.ProductsCreated, res.ProductsSkipped, res.RulesCreated, res.RulesDeleted)
	return nil
}

func loadCatalog(path string) (seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Catalog{}, err
	}
	defer f.Close()
	return seed.Load(f)
}
