package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/0xd34d10cc/dumbdb/internal/dumbdb"
	"github.com/0xd34d10cc/dumbdb/internal/parser"
	"github.com/0xd34d10cc/dumbdb/internal/pkg/logging"
	"github.com/0xd34d10cc/dumbdb/internal/pkg/util"
)

const cliName string = "dumbdb"

func printPrompt() {
	fmt.Print(cliName, "> ")
}

type metaCommand int

const (
	Unknown metaCommand = iota + 1
	Help
	Exit
)

func isMetaCommand(inputBuffer string) bool {
	return len(inputBuffer) > 0 && inputBuffer[:1] == "."
}

func doMetaCommand(inputBuffer string) metaCommand {
	switch inputBuffer {
	case "help":
		return Help
	case "exit":
		return Exit
	default:
		return Unknown
	}
}

func main() {
	var (
		dbPath      = flag.String("db", "data.bin", "path to the database file")
		cachedPages = flag.Int("cached-pages", 128, "maximum number of pages held in memory")
	)
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // flushes buffer, if any

	dbFile, err := os.OpenFile(*dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		panic(err)
	}

	aSchema, err := dumbdb.NewSchema(
		dumbdb.Column{Kind: dumbdb.Int4, Size: 4, Name: "id"},
		dumbdb.Column{Kind: dumbdb.Varchar, Size: 16, Name: "username"},
		dumbdb.Column{Kind: dumbdb.Varchar, Size: 16, Name: "email"},
	)
	if err != nil {
		panic(err)
	}

	aPager := dumbdb.NewPager(dbFile, aSchema, *cachedPages, logger)
	aTable, err := dumbdb.OpenTable(ctx, aSchema, aPager, logger)
	if err != nil {
		panic(err)
	}

	var closeOnce sync.Once
	closeTable := func() {
		closeOnce.Do(func() {
			if err := aTable.Close(ctx); err != nil {
				fmt.Printf("error closing table: %s\n", err)
			}
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		closeTable()
		cancel()
		os.Exit(0)
	}()

	aParser := parser.New()

	reader := bufio.NewScanner(os.Stdin)
	printPrompt()

	// REPL (Read-eval-print loop) start
	for reader.Scan() {
		inputBuffer := strings.TrimSpace(reader.Text())
		if isMetaCommand(inputBuffer) {
			switch doMetaCommand(inputBuffer[1:]) {
			case Help:
				fmt.Println(".help    - Show available commands")
				fmt.Println(".exit    - Closes program")
			case Exit:
				closeTable()
				return
			case Unknown:
				fmt.Printf("Unrecognized meta command: %s\n", inputBuffer)
			}
		} else if inputBuffer != "" {
			stmt, err := aParser.Parse(ctx, inputBuffer)
			if err != nil {
				fmt.Println(err)
			} else {
				aResult, err := aTable.Execute(ctx, stmt)
				if err != nil {
					fmt.Printf("Error executing statement: %s\n", err)
				} else if stmt.Kind == dumbdb.Insert {
					fmt.Printf("Rows affected: %d\n", aResult.RowsAffected)
				} else {
					util.PrintTableHeader(os.Stdout, aResult.Columns)
					for _, aRow := range aResult.Rows {
						util.PrintTableRow(os.Stdout, aResult.Columns, aRow)
					}
					util.PrintTableEnd(os.Stdout, aResult.Columns)
				}
			}
		}
		printPrompt()
	}
	// Print an additional line if we encountered an EOF character
	fmt.Println()

	closeTable()
}
