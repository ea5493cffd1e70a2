package dbadmin

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/edvin/wppanel/internal/command"
	"github.com/edvin/wppanel/internal/fault"
)

// Dumper exports and imports databases with mysqldump and mysql.
type Dumper struct {
	runner command.Runner
	conn   ClientConn
	logger zerolog.Logger
}

// NewDumper creates a Dumper that runs the mysql client tools through runner
// with the connection settings in conn.
func NewDumper(logger zerolog.Logger, runner command.Runner, conn ClientConn) *Dumper {
	return &Dumper{
		runner: runner,
		conn:   conn,
		logger: logger.With().Str("component", "db-dumper").Logger(),
	}
}

// Dump writes an SQL dump of dbName to destPath. A failed dump leaves no
// file behind.
func (d *Dumper) Dump(ctx context.Context, dbName, destPath string) error {
	if err := validateName("database", dbName); err != nil {
		return err
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "create dump file")
	}

	args := append(append([]string{}, d.conn.Args...),
		"--single-transaction", "--routines", "--triggers", dbName)
	_, err = d.runner.Run(ctx, command.Cmd{Name: "mysqldump", Args: args, Env: d.conn.Env, Stdout: out})
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fault.Wrap(fault.KindFilesystem, cerr, "close dump file")
	}
	if err != nil {
		os.Remove(destPath)
		return err
	}

	d.logger.Info().Str("database", dbName).Str("path", destPath).Msg("database dumped")
	return nil
}

// Restore feeds the SQL file at srcPath into dbName.
func (d *Dumper) Restore(ctx context.Context, dbName, srcPath string) error {
	if err := validateName("database", dbName); err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return fault.Wrap(fault.KindFilesystem, err, "open dump file")
	}
	defer in.Close()

	args := append(append([]string{}, d.conn.Args...), dbName)
	if _, err := d.runner.Run(ctx, command.Cmd{Name: "mysql", Args: args, Env: d.conn.Env, Stdin: in}); err != nil {
		return err
	}

	d.logger.Info().Str("database", dbName).Str("path", srcPath).Msg("database restored")
	return nil
}
