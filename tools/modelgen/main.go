package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// Regenerates internal/adapter/repo/gorm/model from a migrated database.
// Only the farm tables are generated; goose's bookkeeping table is skipped.
func main() {
	var dsn, out string
	flag.StringVar(&dsn, "dsn", os.Getenv("FARMSTEAD_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or FARMSTEAD_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext,
	})
	g.UseDB(db)
	g.ApplyBasic(
		g.GenerateModelAs("owners", "Owner"),
		g.GenerateModelAs("plots", "Plot"),
	)
	g.Execute()

	fmt.Printf("generated gorm models at %s\n", out)
}
