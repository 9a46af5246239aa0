// guardctl inspects the guard's persisted state without touching the
// running process: the lock record out of BadgerDB and the corpus file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"groupguard/repositories"
)

func main() {
	dbPath := flag.String("db", "guard.db", "Path to the badger DB")
	corpusPath := flag.String("corpus", "messages.txt", "Path to the corpus file")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	record, err := repositories.NewLockRepository(db).Load()
	if err != nil {
		log.Fatal("Error while reading lock record: ", err)
	}
	if record == nil {
		color.Yellow.Println("No lock record persisted yet.")
	} else {
		printRecord(*record)
	}

	entries, err := repositories.NewCorpusRepository(*corpusPath).Load()
	if err != nil {
		log.Fatal("Error while reading corpus: ", err)
	}
	printCorpus(entries)
}

func printRecord(record repositories.LockRecord) {
	color.Green.Println("Guard state")
	fmt.Printf("Admin:  %s\nPrefix: %s\n\n", record.Admin, record.Prefix)

	color.Green.Println("Title locks")
	table := newTable([]string{"Group", "Title"})
	for _, group := range sortedKeys(record.Titles) {
		table.Append([]string{group, record.Titles[group]})
	}
	table.Render()
	fmt.Println()

	color.Green.Println("Nickname locks")
	table = newTable([]string{"Group", "Member", "Nickname"})
	for _, group := range sortedKeys(record.Nicknames) {
		members := record.Nicknames[group]
		for _, member := range sortedKeys(members) {
			table.Append([]string{group, member, members[member]})
		}
	}
	table.Render()
	fmt.Println()
}

func printCorpus(entries []string) {
	color.Green.Println("Message corpus")
	table := newTable([]string{"#", "Message"})
	for i, entry := range entries {
		table.Append([]string{fmt.Sprintf("%d", i+1), entry})
	}
	table.Render()
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
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
	return table
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
