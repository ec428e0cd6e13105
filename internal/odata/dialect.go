// Package odata compiles a DataRequest into OData v3/v4 query strings and
// maps OData collection responses back into pages.
package odata

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/format"
)

// ErrUnknownDialect is returned for protocol versions other than 3 and 4
var ErrUnknownDialect = errors.New("unknown odata dialect")

// Version is an OData protocol version
type Version int

const (
	Version3 Version = 3
	Version4 Version = 4
)

type param struct {
	name  string
	value string
}

func (p param) String() string {
	return p.name + "=" + p.value
}

// Dialect holds everything that differs between protocol versions. Pick one
// with DialectFor or ParseDialect and pass it down.
type Dialect struct {
	Version Version

	dateTemplate string
	wrapDate     func(formatted string) string
	contains     func(field, literal string) string
	countParam   param
	countKey     string
}

// V3 is the OData version 3 dialect
var V3 = Dialect{
	Version:      Version3,
	dateTemplate: "YYYY-MM-DDTHH:mm:ss",
	wrapDate: func(formatted string) string {
		return "DateTime'" + formatted + "'"
	},
	contains: func(field, literal string) string {
		return fmt.Sprintf("substringof(%s, %s)", literal, field)
	},
	countParam: param{name: "$inlinecount", value: "allpages"},
	countKey:   "odata.count",
}

// V4 is the OData version 4 dialect.
// The trailing z of the date template is emitted literally after the local time.
var V4 = Dialect{
	Version:      Version4,
	dateTemplate: "YYYY-MM-DDTHH:mm:ssz",
	wrapDate: func(formatted string) string {
		return formatted
	},
	contains: func(field, literal string) string {
		return fmt.Sprintf("contains(%s, %s)", field, literal)
	},
	countParam: param{name: "$count", value: "true"},
	countKey:   "@odata.count",
}

// DialectFor returns the dialect of a protocol version
func DialectFor(v Version) (Dialect, error) {
	switch v {
	case Version3:
		return V3, nil
	case Version4:
		return V4, nil
	}
	return Dialect{}, fmt.Errorf("%w: %d", ErrUnknownDialect, int(v))
}

// ParseDialect accepts "3", "v3", "odata3", "4", "v4", "odata4" and "odata",
// which means version 4.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3", "v3", "odata3":
		return V3, nil
	case "4", "v4", "odata4", "odata":
		return V4, nil
	}
	return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
}

// String returns the canonical name of the dialect
func (d Dialect) String() string {
	return fmt.Sprintf("odata%d", int(d.Version))
}

// CountKey is the response property holding the total row count
func (d Dialect) CountKey() string {
	return d.countKey
}

// formatDate renders a timestamp literal in local time
func (d Dialect) formatDate(t time.Time) string {
	return d.wrapDate(format.FormatDate(t, d.dateTemplate))
}
