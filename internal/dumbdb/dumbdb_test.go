package dumbdb

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/0xd34d10cc/dumbdb/internal/pkg/logging"
)

var testLogger *zap.Logger

func init() {
	var err error
	testLogger, err = logging.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		panic(err)
	}
}

func testSchema(t *testing.T) *Schema {
	t.Helper()

	aSchema, err := NewSchema(
		Column{Kind: Int4, Size: 4, Name: "id"},
		Column{Kind: Varchar, Size: 16, Name: "username"},
		Column{Kind: Varchar, Size: 16, Name: "email"},
	)
	require.NoError(t, err)

	return aSchema
}

func testDBFile(t *testing.T) *os.File {
	t.Helper()

	dbFile, err := os.CreateTemp(t.TempDir(), "testdb")
	require.NoError(t, err)

	return dbFile
}

func reopenDBFile(t *testing.T, name string) *os.File {
	t.Helper()

	dbFile, err := os.OpenFile(name, os.O_RDWR, 0600)
	require.NoError(t, err)

	return dbFile
}

type dataGen struct {
	*gofakeit.Faker
}

func newDataGen(seed int64) *dataGen {
	return &dataGen{
		Faker: gofakeit.New(seed),
	}
}

func (g *dataGen) Row() Row {
	return Row{
		int32(g.IntRange(0, 1<<30)),
		g.LetterN(8),
		fmt.Sprintf("%s@%s.com", g.LetterN(5), g.LetterN(5)),
	}
}

func (g *dataGen) Rows(number int) []Row {
	rows := make([]Row, 0, number)
	for i := 0; i < number; i++ {
		rows = append(rows, g.Row())
	}
	return rows
}

var gen = newDataGen(time.Now().Unix())
