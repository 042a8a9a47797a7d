package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pasteldream/pastel-backend/config"
	"github.com/pasteldream/pastel-backend/internal/backend"
	"github.com/pasteldream/pastel-backend/internal/report"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

const usage = `Usage:
  go run ./cmd/seed products <xlsx_file_path>
  go run ./cmd/seed admin <user_id>`

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "warn", Format: "console"})

	ctx := context.Background()
	client, err := backend.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to backend:", err)
	}
	defer client.Close()

	switch os.Args[1] {
	case "products":
		importProducts(ctx, client, os.Args[2])
	case "admin":
		if err := client.Repos.Admins.Grant(ctx, os.Args[2]); err != nil {
			log.Fatal("Failed to grant admin:", err)
		}
		fmt.Printf("User %s is now an admin\n", os.Args[2])
	default:
		log.Fatal(usage)
	}
}

func importProducts(ctx context.Context, client *backend.Client, path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("Failed to open XLSX file:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", path)
	inputs, skipped, err := report.ReadProducts(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	for _, rowErr := range skipped {
		fmt.Printf("Skipping %s\n", rowErr.Error())
	}

	fmt.Printf("Total products to import: %d\n", len(inputs))
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	created := 0
	for _, in := range inputs {
		if _, err := client.Services.Products.CreateProduct(ctx, in); err != nil {
			fmt.Printf("Failed to create %q: %v\n", in.Name, err)
			continue
		}
		created++
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", created)
}
