// Package scope defines the isolation boundary for search indexes.
//
// A Scope identifies one index namespace: the shared global corpus, a whole
// tenant, or a single user's private documents inside a tenant. Scopes map
// one-to-one onto directories in the upload tree and onto cache keys in the
// index registry.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind discriminates scope variants.
type Kind int

const (
	// KindGlobal is the shared corpus visible to every tenant.
	KindGlobal Kind = iota
	// KindTenant covers all documents under one tenant's upload root.
	KindTenant
	// KindTenantUser covers a single user's private folder inside a tenant.
	KindTenantUser
)

// Scope identifies an isolated index namespace. The zero value is the
// global scope.
type Scope struct {
	kind     Kind
	tenantID string
	username string
}

// Global returns the shared-corpus scope.
func Global() Scope {
	return Scope{kind: KindGlobal}
}

// Tenant returns a tenant-wide scope.
func Tenant(tenantID string) Scope {
	return Scope{kind: KindTenant, tenantID: tenantID}
}

// TenantUser returns a per-user scope nested inside a tenant.
func TenantUser(tenantID, username string) Scope {
	return Scope{kind: KindTenantUser, tenantID: tenantID, username: username}
}

// Kind returns the scope variant.
func (s Scope) Kind() Kind {
	return s.kind
}

// TenantID returns the tenant identifier, empty for the global scope.
func (s Scope) TenantID() string {
	return s.tenantID
}

// Username returns the username, empty unless KindTenantUser.
func (s Scope) Username() string {
	return s.username
}

// IsGlobal reports whether this is the shared-corpus scope.
func (s Scope) IsGlobal() bool {
	return s.kind == KindGlobal
}

// GlobalKey is the cache key of the shared corpus. The id is reserved:
// Validate rejects tenants named after it.
const GlobalKey = "global"

// Key returns the registry cache key for this scope: "global", "<tid>",
// or "<tid>_<user>". Validate keeps the forms disjoint by rejecting the
// reserved id and underscores in tenant IDs, so a tenant key never
// contains "_" and can never alias a tenant-user key.
func (s Scope) Key() string {
	switch s.kind {
	case KindTenant:
		return s.tenantID
	case KindTenantUser:
		return s.tenantID + "_" + s.username
	default:
		return GlobalKey
	}
}

// String implements fmt.Stringer for log output.
func (s Scope) String() string {
	switch s.kind {
	case KindTenant:
		return fmt.Sprintf("tenant(%s)", s.tenantID)
	case KindTenantUser:
		return fmt.Sprintf("tenant(%s)/user(%s)", s.tenantID, s.username)
	default:
		return "global"
	}
}

// Validate checks that the scope's identifiers are present, free of path
// traversal, and cannot alias another scope's cache key. Violations are
// caller bugs.
func (s Scope) Validate() error {
	switch s.kind {
	case KindGlobal:
		return nil
	case KindTenant:
		if s.tenantID == "" {
			return fmt.Errorf("tenant scope requires a tenant id")
		}
	case KindTenantUser:
		if s.tenantID == "" || s.username == "" {
			return fmt.Errorf("tenant-user scope requires tenant id and username")
		}
	default:
		return fmt.Errorf("unknown scope kind %d", s.kind)
	}
	if s.tenantID == GlobalKey {
		return fmt.Errorf("tenant id %q is reserved for the shared corpus", GlobalKey)
	}
	if strings.Contains(s.tenantID, "_") {
		return fmt.Errorf("tenant id %q must not contain underscores", s.tenantID)
	}
	for _, part := range []string{s.tenantID, s.username} {
		if strings.ContainsAny(part, `/\`) || strings.Contains(part, "..") {
			return fmt.Errorf("scope identifier %q contains path separators", part)
		}
	}
	return nil
}

// Layout describes where scope directories live on disk.
type Layout struct {
	// DocsDir holds the global corpus.
	DocsDir string
	// UploadsDir holds one directory per tenant, named "<tid>" or
	// "<tid>_<slug>" when the tenant has a display name.
	UploadsDir string
}

// Dir resolves the source directory for the scope. The directory may not
// exist yet; loading treats a missing directory as an empty corpus.
func (s Scope) Dir(l Layout) string {
	switch s.kind {
	case KindTenant:
		return tenantDir(l.UploadsDir, s.tenantID)
	case KindTenantUser:
		return filepath.Join(tenantDir(l.UploadsDir, s.tenantID), s.username)
	default:
		return l.DocsDir
	}
}

// tenantDir finds the tenant's upload directory. Directories are created as
// "<tid>_<slug>" at registration time, so an existing "<tid>" or "<tid>_*"
// entry wins over the bare fallback.
func tenantDir(uploadsDir, tenantID string) string {
	entries, err := os.ReadDir(uploadsDir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := e.Name()
			if name == tenantID || strings.HasPrefix(name, tenantID+"_") {
				return filepath.Join(uploadsDir, name)
			}
		}
	}
	return filepath.Join(uploadsDir, tenantID)
}

// DirFor returns the directory for a tenant that may not have a folder yet,
// using the display name to build the "<tid>_<slug>" form.
func DirFor(l Layout, tenantID, tenantName string) string {
	existing := tenantDir(l.UploadsDir, tenantID)
	if _, err := os.Stat(existing); err == nil {
		return existing
	}
	if tenantName != "" {
		return filepath.Join(l.UploadsDir, tenantID+"_"+Slugify(tenantName))
	}
	return filepath.Join(l.UploadsDir, tenantID)
}
