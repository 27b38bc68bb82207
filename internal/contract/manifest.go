// Package contract implements the schema/manifest fail-fast startup gate and
// the per-call params/result validator for known app-server methods.
package contract

// file: internal/contract/manifest.go

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/dkoosis/appserversdk/internal/apperrors"
)

// manifestEntry is one parsed line of manifest.sha256: a hex digest and the
// relative path it covers.
type manifestEntry struct {
	Digest string
	Path   string
}

// parseManifest reads "<sha256>  <relative path>" lines, sorted by path,
// matching the sha256sum default two-space format.
func parseManifest(r io.Reader) ([]manifestEntry, error) {
	scanner := bufio.NewScanner(r)
	var entries []manifestEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 {
			// tolerate a single space separator too
			fields = strings.Fields(line)
			if len(fields) != 2 {
				return nil, apperrors.NewSchemaManifestMismatch("malformed manifest line",
					map[string]interface{}{"line": line})
			}
		}
		entries = append(entries, manifestEntry{Digest: fields[0], Path: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewInternal("failed to read manifest", err, nil)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// verifyManifest recomputes SHA-256 over every file in manifest and compares
// against fsys, failing with SchemaManifestMismatch on any digest mismatch,
// missing file, or extra file present in the directory but not the manifest.
func verifyManifest(fsys fs.FS, entries []manifestEntry) error {
	want := make(map[string]string, len(entries))
	for _, e := range entries {
		want[e.Path] = e.Digest
	}

	seen := make(map[string]bool, len(entries))
	walkErr := fs.WalkDir(fsys, "json-schema", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		seen[p] = true
		digest, ok := want[p]
		if !ok {
			return apperrors.NewSchemaManifestMismatch("file present but not listed in manifest",
				map[string]interface{}{"path": p})
		}
		actual, err := hashFile(fsys, p)
		if err != nil {
			return err
		}
		if actual != digest {
			return apperrors.NewSchemaManifestMismatch("digest mismatch",
				map[string]interface{}{"path": p, "want": digest, "got": actual})
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	for p := range want {
		if !seen[p] {
			return apperrors.NewSchemaManifestMismatch("file listed in manifest but missing on disk",
				map[string]interface{}{"path": p})
		}
	}
	return nil
}

func hashFile(fsys fs.FS, p string) (string, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return "", apperrors.NewInternal("failed to open schema file for hashing", err,
			map[string]interface{}{"path": p})
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", apperrors.NewInternal("failed to hash schema file", err, map[string]interface{}{"path": p})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// schemaFilePath builds the json-schema/-relative path for a schema id.
func schemaFilePath(id string) string {
	return path.Join("json-schema", id+".json")
}
