// Package dbadmin provisions and backs up the MySQL databases that
// WordPress sites run on. Statements go through go-sql-driver/mysql with
// client-side parameter interpolation; dumps and imports run the mysql
// client tools from argument vectors.
package dbadmin

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

const defaultDialTimeout = 10 * time.Second

// Open connects to the MySQL server described by the administrative DSN.
// Parameter interpolation is forced on because account management
// statements cannot be server-side prepared with placeholders.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.InterpolateParams = true
	cfg.DBName = ""
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultDialTimeout
	}

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// ClientConn holds the connection flags and environment for the mysql and
// mysqldump command line tools. The password travels in MYSQL_PWD so it
// never appears in a process listing.
type ClientConn struct {
	Args []string
	Env  []string
}

// ClientConnFromDSN derives command line connection settings from a DSN.
func ClientConnFromDSN(dsn string) (ClientConn, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return ClientConn{}, fmt.Errorf("parse mysql dsn: %w", err)
	}

	var conn ClientConn
	if cfg.User != "" {
		conn.Args = append(conn.Args, "--user="+cfg.User)
	}
	switch cfg.Net {
	case "unix":
		conn.Args = append(conn.Args, "--socket="+cfg.Addr)
	default:
		host, port, err := net.SplitHostPort(cfg.Addr)
		if err != nil {
			conn.Args = append(conn.Args, "--host="+cfg.Addr)
		} else {
			conn.Args = append(conn.Args, "--host="+host, "--port="+port, "--protocol=tcp")
		}
	}
	if cfg.Passwd != "" {
		conn.Env = append(conn.Env, "MYSQL_PWD="+cfg.Passwd)
	}
	return conn, nil
}
