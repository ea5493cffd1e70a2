package wordpress

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/edvin/wppanel/internal/crypto"
	"github.com/edvin/wppanel/internal/fault"
)

const (
	// ConfigFile is the generated WordPress configuration.
	ConfigFile = "wp-config.php"
	// TemplateFile is the sample configuration shipped with each release.
	TemplateFile = "wp-config-sample.php"

	secretLength = 64
	defaultHost  = "localhost"
)

// SecretKeys are the authentication keys and salts WordPress expects.
var SecretKeys = []string{
	"AUTH_KEY",
	"SECURE_AUTH_KEY",
	"LOGGED_IN_KEY",
	"NONCE_KEY",
	"AUTH_SALT",
	"SECURE_AUTH_SALT",
	"LOGGED_IN_SALT",
	"NONCE_SALT",
}

const (
	keysMarker     = "/* Add any other values to this file. */"
	fallbackMarker = "/* That's all, stop editing!"
)

// placeholderKeyRe matches the sample's define() lines for the secret keys
// so they can be replaced instead of defined twice.
var placeholderKeyRe = regexp.MustCompile(`(?m)^[ \t]*define\(\s*'(?:` + strings.Join(SecretKeys, "|") + `)'\s*,[^;]*\);[ \t]*\r?\n?`)

var dbHostRe = regexp.MustCompile(`define\(\s*'DB_HOST'\s*,\s*'localhost'\s*\);`)

// Credentials are the database settings written into the configuration.
type Credentials struct {
	Name     string
	User     string
	Password string
	// Host defaults to localhost.
	Host string
}

// WriteConfig renders wp-config.php next to templatePath and returns its
// path. The file is written atomically with mode 0600, and the template is
// removed once the configuration is in place.
func WriteConfig(templatePath string, creds Credentials) (string, error) {
	tmpl, err := os.ReadFile(templatePath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fault.New(fault.KindFilesystem, "template not found: %s", templatePath)
	}
	if err != nil {
		return "", fault.Wrap(fault.KindFilesystem, err, "read template")
	}

	content := RenderConfig(string(tmpl), creds)

	dir := filepath.Dir(templatePath)
	configPath := filepath.Join(dir, ConfigFile)
	if err := writeAtomic(configPath, []byte(content), 0o600); err != nil {
		return "", fault.Wrap(fault.KindFilesystem, err, "write %s", ConfigFile)
	}

	if err := os.Remove(templatePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fault.Wrap(fault.KindFilesystem, err, "remove template")
	}
	return configPath, nil
}

// RenderConfig substitutes credentials into the sample configuration and
// inserts freshly generated keys and salts.
func RenderConfig(tmpl string, creds Credentials) string {
	content := strings.NewReplacer(
		"'database_name_here'", quote(creds.Name),
		"'username_here'", quote(creds.User),
		"'password_here'", quote(creds.Password),
	).Replace(tmpl)

	if creds.Host != "" && creds.Host != defaultHost {
		content = dbHostRe.ReplaceAllLiteralString(content, fmt.Sprintf("define( 'DB_HOST', %s );", quote(creds.Host)))
	}

	content = placeholderKeyRe.ReplaceAllString(content, "")

	var b strings.Builder
	for _, key := range SecretKeys {
		fmt.Fprintf(&b, "define( '%s', '%s' );\n", key, crypto.GenerateSecret(secretLength))
	}
	keys := b.String()

	for _, marker := range []string{keysMarker, fallbackMarker} {
		if i := strings.Index(content, marker); i >= 0 {
			return content[:i] + keys + "\n" + content[i:]
		}
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + keys
}

// quote renders s as a single-quoted PHP string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	err = tmp.Chmod(perm)
	if err == nil {
		_, err = tmp.Write(data)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		os.Remove(name)
	}
	return err
}
