package dbx

// RowConvertibleEntity is implemented by structs that can be bulk inserted.
//
// ToRow returns the field values in the order of the struct's `db` tags, the same order
// DeriveColumnNamesFromTags returns the column names in.
//
// Example:
//
//	type Account struct {
//	    ID    int64  `db:"id"`
//	    Owner string `db:"owner"`
//	}
//
//	func (a Account) ToRow() []any {
//	    return []any{a.ID, a.Owner}
//	}
type RowConvertibleEntity interface {
	ToRow() []any
}
