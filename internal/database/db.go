package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Params identifies the database the readings are stored in.
type Params struct {
	Driver  string // "mysql" or "postgres"
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
	SSLMode string
}

// DSN returns the database/sql driver name and data source name for p.
func DSN(p Params) (driver, dsn string, err error) {
	switch p.Driver {
	case "", "mysql":
		auth := p.User
		if p.Pass != "" {
			auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return "mysql", fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, p.Host, p.Port, p.Name), nil
	case "postgres":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.User, p.Pass),
			Host:   p.Host + ":" + p.Port,
			Path:   "/" + p.Name,
		}
		if p.Pass == "" {
			u.User = url.User(p.User)
		}
		q := url.Values{}
		q.Set("sslmode", p.SSLMode)
		if p.SSLMode == "" {
			q.Set("sslmode", "disable")
		}
		u.RawQuery = q.Encode()
		// the pgx stdlib adapter registers itself as "pgx"
		return "pgx", u.String(), nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", p.Driver)
	}
}

// Open connects to the readings database and verifies the connection.
func Open(ctx context.Context, p Params) (*sql.DB, error) {
	driver, dsn, err := DSN(p)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
