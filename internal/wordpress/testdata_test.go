package wordpress

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `<?php
define( 'DB_NAME', 'database_name_here' );
define( 'DB_USER', 'username_here' );
define( 'DB_PASSWORD', 'password_here' );
define( 'DB_HOST', 'localhost' );
define( 'DB_CHARSET', 'utf8' );

define( 'AUTH_KEY',         'put your unique phrase here' );
define( 'SECURE_AUTH_KEY',  'put your unique phrase here' );
define( 'LOGGED_IN_KEY',    'put your unique phrase here' );
define( 'NONCE_KEY',        'put your unique phrase here' );
define( 'AUTH_SALT',        'put your unique phrase here' );
define( 'SECURE_AUTH_SALT', 'put your unique phrase here' );
define( 'LOGGED_IN_SALT',   'put your unique phrase here' );
define( 'NONCE_SALT',       'put your unique phrase here' );

$table_prefix = 'wp_';

/* Add any other values to this file. */

/* That's all, stop editing! Happy publishing. */
require_once ABSPATH . 'wp-settings.php';
`

// releaseZip builds an archive shaped like an official release, with every
// file under a single "wordpress/" directory.
func releaseZip(t *testing.T, version string) []byte {
	t.Helper()
	files := map[string]string{
		"wordpress/index.php":                     "<?php // " + version,
		"wordpress/wp-config-sample.php":          sampleConfig,
		"wordpress/wp-includes/version.php":       "<?php\n$wp_version = '" + version + "';\n",
		"wordpress/wp-admin/admin.php":            "<?php // admin " + version,
		"wordpress/wp-content/themes/default.css": "/* bundled " + version + " */",
		"wordpress/wp-content/plugins/hello.php":  "<?php // hello " + version,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// releaseServer serves releaseZip(version) on every path.
func releaseServer(t *testing.T, version string) *httptest.Server {
	t.Helper()
	body := releaseZip(t, version)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}
