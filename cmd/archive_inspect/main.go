package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"quick-chat/repositories"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Dumps the sent-message archive without going through the console.
// Opens the database read-only so it can run next to a live session.
func main() {
	dbPath := flag.String("db", ".quickchat/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Sent At", "Message ID", "Hash", "Recipient", "Hash OK", "Session"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			// Secondary indexes only hold keys
			if strings.HasPrefix(string(item.Key()), "idx:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				var archived repositories.ArchivedMessage
				if err := json.Unmarshal(v, &archived); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				message := archived.Message()
				table.Append([]string{
					string(item.Key()),
					archived.At.Format("2006-01-02 15:04:05"),
					message.ID(),
					message.Hash(),
					message.Recipient(),
					fmt.Sprintf("%t", message.HashMatches()),
					archived.SessionID.String()[:8],
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	return badger.Open(opts)
}
