package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"familysafe/internal/config"
	"familysafe/internal/database"
	"familysafe/internal/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: backup <command> [flags]

Commands:
  export -out <file>   write a full JSON snapshot of the database
  import -in <file>    load a JSON snapshot into an empty database
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	backup := service.NewBackupService(db)

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		out := fs.String("out", "familysafe-backup.json", "output file")
		fs.Parse(os.Args[2:])

		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *out, err)
		}
		defer f.Close()

		if err := backup.Export(f); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		log.Printf("Exported snapshot to %s", *out)

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		in := fs.String("in", "", "snapshot file")
		fs.Parse(os.Args[2:])
		if *in == "" {
			usage()
		}

		if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		f, err := os.Open(*in)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *in, err)
		}
		defer f.Close()

		if err := backup.Import(f); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported snapshot from %s", *in)

	default:
		usage()
	}
}
