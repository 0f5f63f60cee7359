package dumbdb

type StatementKind int

const (
	Insert StatementKind = iota + 1
	Select
)

func (k StatementKind) String() string {
	switch k {
	case Insert:
		return "INSERT"
	case Select:
		return "SELECT"
	default:
		return "UNKNOWN"
	}
}

// Statement is a structured command produced by the parser. Insert
// carries the values to append, Select has no payload.
type Statement struct {
	Kind   StatementKind
	Values Row
}

type Result struct {
	Columns      []Column
	Rows         []Row
	RowsAffected int
}
