// Command dbinspect opens the store read-only and prints a summary of
// its contents. Useful when debugging a live data directory.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/paperdeckapp/paperdeck-server/internal/domain"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Cannot determine home directory: %v", err)
		}
		dataPath = filepath.Join(home, "paperdeck")
	}
	dbPath := filepath.Join(dataPath, "db")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database at %s: %v", dbPath, err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	counts := map[string]int{}
	prefixes := []string{"user:", "paper:", "tag:", "list:", "lib:", "session:", "idx:"}

	paperCount := 0
	shown := 0

	err = db.View(func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			iterOpts := badger.DefaultIteratorOptions
			iterOpts.Prefix = []byte(prefix)
			iterOpts.PrefetchValues = false
			it := txn.NewIterator(iterOpts)
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				counts[strings.TrimSuffix(prefix, ":")]++
			}
			it.Close()
		}

		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = []byte("paper:")
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek([]byte("paper:")); it.ValidForPrefix([]byte("paper:")); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var paper domain.Paper
				if err := json.Unmarshal(val, &paper); err != nil {
					return err
				}
				paperCount++
				if shown < 5 {
					shown++
					fmt.Printf("Paper: %s\n", paper.Title)
					fmt.Printf("  ID: %d\n", paper.ID)
					fmt.Printf("  arXiv: %s\n", paper.ArxivID)
					fmt.Printf("  Category: %s\n", paper.PrimaryCategory())
					fmt.Printf("  Published: %s\n", paper.PublishedAt.Format("2006-01-02"))
					fmt.Println()
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading %s: %v", it.Item().Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	if paperCount > shown {
		fmt.Printf("... and %d more papers\n\n", paperCount-shown)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Users:           %d\n", counts["user"])
	fmt.Printf("Papers:          %d\n", counts["paper"])
	fmt.Printf("Tags:            %d\n", counts["tag"])
	fmt.Printf("Lists:           %d\n", counts["list"])
	fmt.Printf("Library entries: %d\n", counts["lib"])
	fmt.Printf("Sessions:        %d\n", counts["session"])
	fmt.Printf("Index keys:      %d\n", counts["idx"])
}
