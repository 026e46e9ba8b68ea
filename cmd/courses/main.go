package main

import (
	"os"

	"github.com/baxromumarov/catalog-scraper/internal/cli"
)

func main() {
	os.Exit(cli.Scrape("courses"))
}
