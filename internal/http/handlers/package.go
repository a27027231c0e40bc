package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/scormlite-backend/internal/http/response"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/services"
)

type PackageHandler struct {
	log      *logger.Logger
	packages services.PackageStore
}

func NewPackageHandler(log *logger.Logger, packages services.PackageStore) *PackageHandler {
	return &PackageHandler{log: log.With("handler", "PackageHandler"), packages: packages}
}

func (ph *PackageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxPackageBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "upload_read_failed", err)
		return
	}

	pkg, err := ph.packages.Ingest(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrPackageTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		response.RespondError(c, status, "ingest_failed", err)
		return
	}
	response.RespondOK(c, pkg)
}

func (ph *PackageHandler) List(c *gin.Context) {
	list, err := ph.packages.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	if list == nil {
		list = []services.PackageSummary{}
	}
	response.RespondOK(c, gin.H{"packages": list})
}

func (ph *PackageHandler) Get(c *gin.Context) {
	id := c.Param("id")
	pkg, degraded, err := ph.packages.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if pkg == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", services.ErrPackageNotFound)
		return
	}
	files, err := ph.packages.ListFiles(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if files == nil {
		files = []string{}
	}
	response.RespondOK(c, gin.H{"package": pkg, "degraded": degraded, "files": files})
}

func (ph *PackageHandler) Delete(c *gin.Context) {
	if err := ph.packages.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// Outline returns the resolved play-list for one package: what a shell
// renders as the course menu.
func (ph *PackageHandler) Outline(c *gin.Context) {
	id := c.Param("id")
	pkg, degraded, err := ph.packages.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_failed", err)
		return
	}
	if pkg == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", services.ErrPackageNotFound)
		return
	}
	if degraded {
		response.RespondError(c, http.StatusConflict, "degraded", services.ErrPackageDegraded)
		return
	}
	var manifest scorm.Manifest
	if err := json.Unmarshal(pkg.Manifest, &manifest); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "manifest_decode_failed", err)
		return
	}
	entries := manifest.Resolve().Flatten()
	if entries == nil {
		entries = []scorm.PlaylistEntry{}
	}
	response.RespondOK(c, gin.H{
		"package_id": pkg.ID,
		"title":      manifest.Title,
		"entries":    entries,
	})
}
