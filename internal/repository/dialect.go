package repository

import (
	"strconv"
	"strings"
)

// Dialect covers the SQL differences between the supported databases.
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
)

// DialectFor maps a configured driver name to its Dialect.
func DialectFor(driver string) Dialect {
	if strings.EqualFold(driver, "postgres") || strings.EqualFold(driver, "pgx") {
		return Postgres
	}
	return MySQL
}

// Quote quotes an identifier that has already been validated as plain.
func (d Dialect) Quote(ident string) string {
	if d == Postgres {
		return `"` + ident + `"`
	}
	return "`" + ident + "`"
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "mysql"
}
