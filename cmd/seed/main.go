package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/poshaakwala/storefront-backend/config"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	"github.com/poshaakwala/storefront-backend/internal/db"
)

// Imports a product workbook in the layout written by the admin export.
func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run ./cmd/seed [-y] <xlsx_file_path>")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	gdb, err := db.Open(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	inputs, skipped, err := service.ReadProductSheet(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	for _, s := range skipped {
		fmt.Printf("Skipping row %d: %s\n", s.Row, s.Reason)
	}
	fmt.Printf("Total products to import: %d (skipped %d)\n", len(inputs), len(skipped))
	if len(inputs) == 0 {
		return
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	// rows carry no image payloads, so no object store is needed
	productService := service.NewProductService(repository.NewProductRepository(gdb), nil, nil, nil)

	ctx := context.Background()
	imported := 0
	for i, input := range inputs {
		if _, err := productService.CreateProduct(ctx, input, nil, nil); err != nil {
			fmt.Printf("Failed to import product %d (%s): %v\n", i+1, input.Title, err)
			continue
		}
		imported++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}
