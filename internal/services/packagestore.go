package services

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/repos"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/types"
)

const (
	// MaxPackageBytes is the hard upload ceiling, checked before any
	// extraction work begins.
	MaxPackageBytes = 100 << 20

	// manifestEntryName is the required manifest location at the archive
	// root.
	manifestEntryName = "imsmanifest.xml"
)

var (
	ErrNotArchive      = errors.New("upload is not a .zip archive")
	ErrPackageTooLarge = fmt.Errorf("package exceeds the %d MiB ceiling", MaxPackageBytes>>20)
	ErrManifestMissing = errors.New("imsmanifest.xml not found at package root")
	ErrNoOrganizations = errors.New("manifest declares no organizations")
)

// PackageSummary is one catalog row; Degraded marks packages that survived
// only in the fallback tier and therefore cannot serve file bytes.
type PackageSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	SizeBytes  int64     `json:"size_bytes"`
	Degraded   bool      `json:"degraded"`
}

type PackageStore interface {
	Ingest(ctx context.Context, filename string, data []byte) (*types.Package, error)
	Get(ctx context.Context, id string) (*types.Package, bool, error)
	List(ctx context.Context) ([]PackageSummary, error)
	GetFile(ctx context.Context, id, path string) (*types.PackageFile, error)
	ListFiles(ctx context.Context, id string) ([]string, error)
	GetFileWithVariants(ctx context.Context, id, href string) (*types.PackageFile, error)
	Delete(ctx context.Context, id string) error
}

type packageStore struct {
	db       *gorm.DB
	log      *logger.Logger
	packages repos.PackageRepo
	files    repos.PackageFileRepo
	fallback *FallbackCatalog
}

func NewPackageStore(
	db *gorm.DB,
	baseLog *logger.Logger,
	packageRepo repos.PackageRepo,
	fileRepo repos.PackageFileRepo,
	fallback *FallbackCatalog,
) PackageStore {
	return &packageStore{
		db:       db,
		log:      baseLog.With("service", "PackageStore"),
		packages: packageRepo,
		files:    fileRepo,
		fallback: fallback,
	}
}

// Ingest validates, extracts, and durably stores one uploaded archive.
// Validation failures surface to the caller; storage failures do not — they
// degrade transparently to the fallback tier.
func (s *packageStore) Ingest(ctx context.Context, filename string, data []byte) (*types.Package, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".zip") {
		return nil, ErrNotArchive
	}
	if int64(len(data)) > MaxPackageBytes {
		return nil, ErrPackageTooLarge
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var manifestEntry *zip.File
	for _, f := range archive.File {
		if f.Name == manifestEntryName {
			manifestEntry = f
			break
		}
	}
	if manifestEntry == nil {
		return nil, ErrManifestMissing
	}
	manifestRaw, err := readZipEntry(manifestEntry)
	if err != nil {
		return nil, fmt.Errorf("read manifest entry: %w", err)
	}
	manifest, err := scorm.ParseManifest(manifestRaw)
	if err != nil {
		return nil, err
	}
	if len(manifest.Organizations) == 0 {
		return nil, ErrNoOrganizations
	}

	extracted, err := extractAll(ctx, archive)
	if err != nil {
		return nil, err
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	pkg := &types.Package{
		ID:         newPackageID(),
		Name:       packageDisplayName(filename),
		UploadedAt: time.Now().UTC(),
		Manifest:   manifestJSON,
		SizeBytes:  int64(len(data)),
	}

	s.store(ctx, pkg, extracted)
	return pkg, nil
}

// extractAll decompresses every non-directory entry, one task per entry, and
// waits for the whole group before returning.
func extractAll(ctx context.Context, archive *zip.Reader) (map[string][]byte, error) {
	out := make(map[string][]byte, len(archive.File))
	var mu sync.Mutex
	g, _ := errgroup.WithContext(ctx)
	for _, entry := range archive.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		g.Go(func() error {
			payload, err := readZipEntry(entry)
			if err != nil {
				return fmt.Errorf("extract %s: %w", entry.Name, err)
			}
			mu.Lock()
			out[entry.Name] = payload
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// store writes metadata and every member file as one transactional unit on
// the primary substrate, degrading to the metadata-only catalog on any
// failure. It never raises past this boundary.
func (s *packageStore) store(ctx context.Context, pkg *types.Package, files map[string][]byte) {
	if s.db != nil {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.packages.Create(ctx, tx, pkg); err != nil {
				return err
			}
			rows := make([]*types.PackageFile, 0, len(files))
			for path, payload := range files {
				rows = append(rows, &types.PackageFile{
					ID:        uuid.New(),
					PackageID: pkg.ID,
					Path:      path,
					Payload:   payload,
				})
			}
			return s.files.Create(ctx, tx, rows)
		})
		if err == nil {
			return
		}
		s.log.Warn("primary store write failed, degrading to fallback catalog",
			"error", err,
			"package_id", pkg.ID,
		)
	} else {
		s.log.Warn("primary store unavailable, degrading to fallback catalog",
			"package_id", pkg.ID,
		)
	}
	if err := s.fallback.Save(CatalogEntry{
		ID:         pkg.ID,
		Name:       pkg.Name,
		UploadedAt: pkg.UploadedAt,
		SizeBytes:  pkg.SizeBytes,
	}); err != nil {
		s.log.Error("fallback catalog write failed, package metadata lost",
			"error", err,
			"package_id", pkg.ID,
		)
	}
}

// Get returns the package metadata without loading file payloads. The bool
// result marks a degraded (fallback-tier) package. Absence everywhere is
// (nil, false, nil).
func (s *packageStore) Get(ctx context.Context, id string) (*types.Package, bool, error) {
	if s.db != nil {
		pkg, err := s.packages.GetByID(ctx, nil, id)
		if err != nil {
			s.log.Warn("primary store read failed, checking fallback catalog", "error", err, "package_id", id)
		} else if pkg != nil {
			return pkg, false, nil
		}
	}
	entry, err := s.fallback.Get(id)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	return &types.Package{
		ID:         entry.ID,
		Name:       entry.Name,
		UploadedAt: entry.UploadedAt,
		SizeBytes:  entry.SizeBytes,
	}, true, nil
}

func (s *packageStore) List(ctx context.Context) ([]PackageSummary, error) {
	var out []PackageSummary
	seen := make(map[string]struct{})
	if s.db != nil {
		pkgs, err := s.packages.List(ctx, nil)
		if err != nil {
			s.log.Warn("primary store list failed, serving fallback catalog only", "error", err)
		} else {
			for _, p := range pkgs {
				out = append(out, PackageSummary{
					ID:         p.ID,
					Name:       p.Name,
					UploadedAt: p.UploadedAt,
					SizeBytes:  p.SizeBytes,
				})
				seen[p.ID] = struct{}{}
			}
		}
	}
	entries, err := s.fallback.List()
	if err != nil {
		return out, err
	}
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		out = append(out, PackageSummary{
			ID:         e.ID,
			Name:       e.Name,
			UploadedAt: e.UploadedAt,
			SizeBytes:  e.SizeBytes,
			Degraded:   true,
		})
	}
	return out, nil
}

// GetFile returns (nil, nil) when the path is absent; callers retry with
// path variants. Degraded packages have no file rows, so absence is the
// correct answer for them too.
func (s *packageStore) GetFile(ctx context.Context, id, path string) (*types.PackageFile, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.files.GetByPackageIDAndPath(ctx, nil, id, path)
}

// ListFiles returns the stored member paths in lexical order. Degraded
// packages have none.
func (s *packageStore) ListFiles(ctx context.Context, id string) ([]string, error) {
	if s.db == nil {
		return nil, nil
	}
	return s.files.ListPathsByPackageID(ctx, nil, id)
}

// GetFileWithVariants applies the store's path-variant addressing policy:
// verbatim, leading slashes stripped, leading slash added, lowercased, and
// .htm/.html swaps, stopping at the first hit.
func (s *packageStore) GetFileWithVariants(ctx context.Context, id, href string) (*types.PackageFile, error) {
	for _, candidate := range CandidatePaths(href) {
		file, err := s.GetFile(ctx, id, candidate)
		if err != nil {
			return nil, err
		}
		if file != nil {
			return file, nil
		}
	}
	return nil, nil
}

func (s *packageStore) Delete(ctx context.Context, id string) error {
	if s.db != nil {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.files.DeleteByPackageID(ctx, tx, id); err != nil {
				return err
			}
			return s.packages.DeleteByID(ctx, tx, id)
		})
		if err == nil {
			// The same id may also sit in the catalog from an earlier
			// degraded write.
			return s.fallback.Remove(id)
		}
		s.log.Warn("primary store delete failed, removing catalog entry only", "error", err, "package_id", id)
	}
	return s.fallback.Remove(id)
}

// CandidatePaths returns the ordered retrieval variants for a requested
// href. Manifests routinely disagree with their archive about casing and
// leading slashes; this ordering tolerates the common mismatches.
func CandidatePaths(href string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if p == "" {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	add(href)
	add(strings.TrimLeft(href, "/"))
	add("/" + strings.TrimLeft(href, "/"))
	add(strings.ToLower(href))

	for _, p := range append([]string(nil), out...) {
		switch {
		case strings.HasSuffix(strings.ToLower(p), ".html"):
			add(p[:len(p)-len(".html")] + ".htm")
		case strings.HasSuffix(strings.ToLower(p), ".htm"):
			add(p[:len(p)-len(".htm")] + ".html")
		}
	}
	return out
}

// newPackageID builds a globally unique id from the upload instant plus a
// random suffix; collision probability is negligible for this workload.
func newPackageID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		// Fall back to the clock alone; uniqueness still holds for
		// non-adversarial upload rates.
		return "pkg-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return "pkg-" + strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + hex.EncodeToString(suffix)
}

// packageDisplayName derives a safe display name from the uploaded
// filename.
func packageDisplayName(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	name := scorm.StripTags(base)
	if name == "" {
		name = "Untitled package"
	}
	return name
}
