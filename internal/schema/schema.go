// Package schema describes the database objects a dump reproduces.
package schema

// ObjectType is the kind of a schema object.
type ObjectType string

const (
	TypeTable   ObjectType = "table"
	TypeIndex   ObjectType = "index"
	TypeView    ObjectType = "view"
	TypeTrigger ObjectType = "trigger"
)

// Object is one schema object together with the statement that creates it.
// SQL carries no trailing semicolon.
type Object struct {
	Type  ObjectType
	Name  string
	Table string
	SQL   string
}

// Column represents a table column, used where the source database has no
// stored CREATE statement and one has to be rebuilt.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	IsPK     bool
}

// Tables returns the table objects of objs in their original order.
func Tables(objs []Object) []Object {
	var out []Object
	for _, o := range objs {
		if o.Type == TypeTable {
			out = append(out, o)
		}
	}
	return out
}

// Others returns every non-table object of objs in their original order.
func Others(objs []Object) []Object {
	var out []Object
	for _, o := range objs {
		if o.Type != TypeTable {
			out = append(out, o)
		}
	}
	return out
}
