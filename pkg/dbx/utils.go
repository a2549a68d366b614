package dbx

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	"reflect"
	"time"

	"github.com/marcodd23/go-micro-dbpool/pkg/errorx"
	"github.com/pkg/errors"
)

// GenerateRandomInt64Id generates a random, non-zero 64-bit ID.
//
// It is used to tag transactions in log lines so that begin, commit and rollback of the
// same transaction can be correlated.
func GenerateRandomInt64Id() int64 {
	var idNum uint64

	for idNum == 0 {
		if err := binary.Read(rand.Reader, binary.BigEndian, &idNum); err != nil {
			continue
		}

		idNum %= uint64(math.MaxInt64)
	}

	return int64(idNum)
}

// DeriveColumnNamesFromTags extracts column names from a struct's tags.
// It uses reflection over the fields of a struct and retrieves the tag values
// specified by `tagKey` (e.g., "db"). Only exported fields that contain a non-empty
// tag and are not marked with `"-"` will be included in the returned slice.
//
// Example:
//
//	type Example struct {
//	    ID   int    `db:"id"`
//	    Name string `db:"name"`
//	    Age  int    `db:"age"`
//	}
//	columns, _ := DeriveColumnNamesFromTags(Example{}, "db")
//	// columns would be: []string{"id", "name", "age"}
func DeriveColumnNamesFromTags[T any](entity T, tagKey string) ([]string, error) {
	var columnNames []string

	t, err := structType(reflect.TypeOf(entity))
	if err != nil {
		return nil, err
	}

	// Iterate over each field of the struct
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if name, ok := columnName(field, tagKey); ok {
			columnNames = append(columnNames, name)
		}
	}

	return columnNames, nil
}

// ScanRow maps a Row onto a new T, matching columns to the fields tagged with tagKey.
//
// Columns without a matching field are ignored, fields without a matching column keep
// their zero value. NULL sets the field to its zero value (nil for pointer fields).
func ScanRow[T any](row Row, tagKey string) (T, error) {
	var target T

	v := reflect.ValueOf(&target).Elem()
	if v.Kind() != reflect.Struct {
		return target, errors.New("expected a struct type")
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, ok := columnName(t.Field(i), tagKey)
		if !ok {
			continue
		}

		value, found := row.Get(name)
		if !found {
			continue
		}

		if err := assignValue(v.Field(i), value); err != nil {
			return target, errors.WithMessagef(err, "column %s", name)
		}
	}

	return target, nil
}

// ScanRows maps every row with ScanRow.
func ScanRows[T any](rows []Row, tagKey string) ([]T, error) {
	results := make([]T, 0, len(rows))
	for _, row := range rows {
		item, err := ScanRow[T](row, tagKey)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	return results, nil
}

func structType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, errors.New("expected a struct type")
	}

	// Check if it's a pointer, and dereference if necessary
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, errors.New("expected a struct type")
	}

	return t, nil
}

func columnName(field reflect.StructField, tagKey string) (string, bool) {
	// Skip unexported fields
	if field.PkgPath != "" {
		return "", false
	}

	tag := field.Tag.Get(tagKey)
	if tag == "" || tag == "-" {
		return "", false
	}

	return tag, true
}

var timeType = reflect.TypeOf(time.Time{})

func assignValue(dest reflect.Value, value Value) error {
	if value.IsNull() {
		dest.Set(reflect.Zero(dest.Type()))
		return nil
	}

	// Handle pointer types
	if dest.Kind() == reflect.Ptr {
		elem := reflect.New(dest.Type().Elem())
		if err := assignValue(elem.Elem(), value); err != nil {
			return err
		}
		dest.Set(elem)

		return nil
	}

	if dest.Type() == reflect.TypeOf(Value{}) {
		dest.Set(reflect.ValueOf(value))
		return nil
	}

	// Text columns read as bytes by some drivers
	if dest.Kind() == reflect.String {
		dest.SetString(value.String())
		return nil
	}

	// Booleans stored as integers (MySQL TINYINT(1), SQLite)
	if dest.Kind() == reflect.Bool {
		if i, ok := value.Int(); ok {
			dest.SetBool(i != 0)
			return nil
		}
	}

	src := reflect.ValueOf(value.Interface())
	if dest.Type() == timeType && src.Type() != timeType {
		return errorx.NewDatabaseError("cannot convert %v to %v", src.Type(), dest.Type())
	}

	if src.Type().ConvertibleTo(dest.Type()) {
		dest.Set(src.Convert(dest.Type()))
		return nil
	}

	return errorx.NewDatabaseError("cannot convert %v to %v", src.Type(), dest.Type())
}
