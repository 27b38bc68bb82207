package contract

// file: internal/contract/resolve.go
//
// Resolution order for the schema bundle directory, per §4.3: (1) an
// explicit override path, (2) the APP_SERVER_SCHEMA_DIR environment
// variable, (3) ./schemadata under the process current working directory,
// (4) the package-embedded fallback.

import (
	"io/fs"
	"os"

	"github.com/dkoosis/appserversdk/internal/apperrors"
)

// SchemaEnvVar is the environment variable consulted in resolution step 2.
const SchemaEnvVar = "APP_SERVER_SCHEMA_DIR"

const cwdSchemaDir = "schemadata"

// bundleSource is an io/fs.FS rooted at the schema bundle directory, plus a
// human-readable origin for error messages.
type bundleSource struct {
	fsys   fs.FS
	origin string
}

// resolveBundle applies the four-step precedence and validates that the
// chosen source exists and is a directory (for on-disk sources).
func resolveBundle(overridePath string) (bundleSource, error) {
	if overridePath != "" {
		return openDir(overridePath)
	}
	if envPath := os.Getenv(SchemaEnvVar); envPath != "" {
		return openDir(envPath)
	}
	if info, err := os.Stat(cwdSchemaDir); err == nil && info.IsDir() {
		return openDir(cwdSchemaDir)
	}
	fsys, root := embeddedFS()
	sub, err := fs.Sub(fsys, root)
	if err != nil {
		return bundleSource{}, apperrors.NewInternal("failed to root embedded schema bundle", err, nil)
	}
	return bundleSource{fsys: sub, origin: "embedded"}, nil
}

func openDir(path string) (bundleSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return bundleSource{}, apperrors.NewSchemaDirNotFound(path)
		}
		return bundleSource{}, apperrors.NewInternal("failed to stat schema directory", err,
			map[string]interface{}{"path": path})
	}
	if !info.IsDir() {
		return bundleSource{}, apperrors.NewSchemaDirNotDirectory(path)
	}
	return bundleSource{fsys: os.DirFS(path), origin: path}, nil
}
