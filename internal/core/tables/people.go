package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

// Person is one row of the people layout:
//
//	id,first_name,last_name,email,state,birth_date
//
// A birth date that cannot be read is stored as NULL instead of failing
// the row.
type Person struct {
	ID        int64       `csv:"0" json:"id"`
	FirstName string      `csv:"1" json:"firstName"`
	LastName  string      `csv:"2" json:"lastName"`
	Email     pgtype.Text `csv:"3" json:"email"`
	State     pgtype.Text `json:"state"`
	BirthDate pgtype.Date `csv:"5,ignoreerrors" json:"birthDate"`
}

var peopleColumns = []string{"id", "first_name", "last_name", "email", "state", "birth_date"}

func registerPeople() {
	core.Register(core.Define(core.Definition[Person]{
		Info: core.SchemaInfo{
			Key:     "people",
			Group:   "Builtin",
			Label:   "People",
			Table:   "people",
			Columns: peopleColumns,
		},
		Mapper: func([]string) (*mapping.Mapper[Person], error) {
			fields, err := mapping.FromTags[Person](typeconv.Default())
			if err != nil {
				return nil, err
			}
			fields = append(fields, mapping.Bind(4, "State", usState, func(p *Person, v pgtype.Text) {
				p.State = v
			}))
			return mapping.New(fields)
		},
		CopyColumns: peopleColumns,
		CopyRow: func(p Person) []any {
			return []any{p.ID, p.FirstName, p.LastName, p.Email, p.State, p.BirthDate}
		},
	}))
}
