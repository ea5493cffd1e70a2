package dbadmin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/fault"
	"github.com/edvin/wppanel/internal/saga"
)

// validNameRe matches only alphanumeric characters and underscores. Names
// are also backtick quoted wherever they appear as identifiers.
var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateName(kind, name string) error {
	if name == "" {
		return fault.Validation("%s name is required", kind)
	}
	if !validNameRe.MatchString(name) {
		return fault.Validation("invalid %s name %q: only alphanumeric characters and underscores are allowed", kind, name)
	}
	return nil
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// Provisioner creates and drops site databases and their users. Every
// statement runs under its own deadline.
type Provisioner struct {
	db       *sqlx.DB
	userHost string
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewProvisioner creates a Provisioner. Users are created for userHost
// (usually "localhost"). A zero timeout leaves statements bounded only by
// the caller's context.
func NewProvisioner(logger zerolog.Logger, db *sqlx.DB, userHost string, timeout time.Duration) *Provisioner {
	return &Provisioner{
		db:       db,
		userHost: userHost,
		timeout:  timeout,
		logger:   logger.With().Str("component", "db-provisioner").Logger(),
	}
}

// Provisioned reports what a Provision call created.
type Provisioned struct {
	Database        string
	User            string
	CreatedDatabase bool
	CreatedUser     bool
}

// Fresh reports whether both the database and the user were created by the
// call rather than found in place.
func (p *Provisioned) Fresh() bool {
	return p.CreatedDatabase && p.CreatedUser
}

// Provision creates the database and user if they do not exist, grants the
// user all privileges on the database and flushes privileges. If a step
// fails, the database and user created by this call are dropped again;
// ones that already existed are left alone. Calling Provision again with
// the same arguments succeeds.
func (p *Provisioner) Provision(ctx context.Context, dbName, dbUser, dbPassword string) (*Provisioned, error) {
	if err := validateName("database", dbName); err != nil {
		return nil, err
	}
	if err := validateName("user", dbUser); err != nil {
		return nil, err
	}
	if dbPassword == "" {
		return nil, fault.Validation("database password is required")
	}

	var dbExists, userExists int
	if err := p.get(ctx, &dbExists,
		`SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?`, dbName); err != nil {
		return nil, wrap(err, "check database %s", dbName)
	}
	if err := p.get(ctx, &userExists,
		`SELECT COUNT(*) FROM mysql.user WHERE User = ? AND Host = ?`, dbUser, p.userHost); err != nil {
		return nil, wrap(err, "check user %s", dbUser)
	}

	res := &Provisioned{
		Database:        dbName,
		User:            dbUser,
		CreatedDatabase: dbExists == 0,
		CreatedUser:     userExists == 0,
	}
	p.logger.Info().Str("database", dbName).Str("user", dbUser).
		Bool("new_database", res.CreatedDatabase).Bool("new_user", res.CreatedUser).
		Msg("provisioning database")

	s := saga.New("provision-database", p.logger).
		Add("create database", func(ctx context.Context) error {
			return p.exec(ctx, "CREATE DATABASE IF NOT EXISTS "+quoteIdent(dbName)+" CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci")
		}, func(ctx context.Context) error {
			if !res.CreatedDatabase {
				return nil
			}
			return p.exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(dbName))
		}).
		Add("create user", func(ctx context.Context) error {
			return p.exec(ctx, "CREATE USER IF NOT EXISTS ?@? IDENTIFIED BY ?", dbUser, p.userHost, dbPassword)
		}, func(ctx context.Context) error {
			if !res.CreatedUser {
				return nil
			}
			return p.exec(ctx, "DROP USER IF EXISTS ?@?", dbUser, p.userHost)
		}).
		Add("grant privileges", func(ctx context.Context) error {
			return p.exec(ctx, "GRANT ALL PRIVILEGES ON "+quoteIdent(dbName)+".* TO ?@?", dbUser, p.userHost)
		}, nil).
		Add("flush privileges", func(ctx context.Context) error {
			return p.exec(ctx, "FLUSH PRIVILEGES")
		}, nil)

	if err := s.Run(ctx); err != nil {
		return nil, wrap(err, "provision database %s", dbName)
	}
	return res, nil
}

// Undo drops the database and user that res records as created. Objects
// that existed before the Provision call are kept.
func (p *Provisioner) Undo(ctx context.Context, res *Provisioned) error {
	if res == nil {
		return nil
	}
	if res.CreatedUser {
		if err := validateName("user", res.User); err != nil {
			return err
		}
		p.logger.Info().Str("user", res.User).Msg("dropping provisioned user")
		if err := p.exec(ctx, "DROP USER IF EXISTS ?@?", res.User, p.userHost); err != nil {
			return wrap(err, "drop user %s", res.User)
		}
	}
	if res.CreatedDatabase {
		if err := validateName("database", res.Database); err != nil {
			return err
		}
		p.logger.Info().Str("database", res.Database).Msg("dropping provisioned database")
		if err := p.exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(res.Database)); err != nil {
			return wrap(err, "drop database %s", res.Database)
		}
	}
	return nil
}

// Drop removes the user and the database. Missing objects are ignored.
func (p *Provisioner) Drop(ctx context.Context, dbName, dbUser string) error {
	if err := validateName("database", dbName); err != nil {
		return err
	}
	if err := validateName("user", dbUser); err != nil {
		return err
	}

	p.logger.Info().Str("database", dbName).Str("user", dbUser).Msg("dropping database")

	if err := p.exec(ctx, "DROP USER IF EXISTS ?@?", dbUser, p.userHost); err != nil {
		return wrap(err, "drop user %s", dbUser)
	}
	if err := p.exec(ctx, "DROP DATABASE IF EXISTS "+quoteIdent(dbName)); err != nil {
		return wrap(err, "drop database %s", dbName)
	}
	return nil
}

// Ping checks the server connection.
func (p *Provisioner) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Provisioner) exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := p.statementContext(ctx)
	defer cancel()
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return p.statementError(ctx, err)
	}
	return nil
}

func (p *Provisioner) get(ctx context.Context, dest any, query string, args ...any) error {
	ctx, cancel := p.statementContext(ctx)
	defer cancel()
	if err := p.db.GetContext(ctx, dest, query, args...); err != nil {
		return p.statementError(ctx, err)
	}
	return nil
}

func (p *Provisioner) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.timeout)
}

// statementError tags errors of statements that ran past their deadline
// with the timeout kind. Drivers report these in different ways, so the
// statement context decides.
func (p *Provisioner) statementError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fault.Wrap(fault.KindTimeout, err, "mysql statement timed out after %s", p.timeout)
	}
	return fmt.Errorf("mysql: %w", err)
}

// wrap keeps the timeout kind of a failed statement and reports anything
// else as a command failure.
func wrap(err error, format string, args ...any) error {
	kind := fault.KindCommand
	if fault.Is(err, fault.KindTimeout) {
		kind = fault.KindTimeout
	}
	return fault.Wrap(kind, err, format, args...)
}
