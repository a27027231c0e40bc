package handlers

import (
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coursekit/scormlite-backend/internal/http/response"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/services"
)

type ContentHandler struct {
	log      *logger.Logger
	packages services.PackageStore
	bridge   *scorm.Bridge
}

func NewContentHandler(log *logger.Logger, packages services.PackageStore) *ContentHandler {
	return &ContentHandler{
		log:      log.With("handler", "ContentHandler"),
		packages: packages,
		bridge:   scorm.NewBridge(),
	}
}

// Serve streams one member file of a package. HTML documents requested with a
// session_id get the runtime bootstrap injected so the page can discover the
// protocol API; every other file is served verbatim.
func (ch *ContentHandler) Serve(c *gin.Context) {
	packageID := c.Param("id")
	href := strings.TrimPrefix(c.Param("path"), "/")

	file, err := ch.packages.GetFileWithVariants(c.Request.Context(), packageID, href)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "content_read_failed", err)
		return
	}
	if file == nil {
		c.String(http.StatusNotFound, "not found")
		return
	}

	payload := file.Payload
	contentType := mime.TypeByExtension(path.Ext(file.Path))
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}

	if isHTMLPath(file.Path) {
		// Without a session the bootstrap still goes in with an empty
		// invoke URL: sub-frame navigations that drop the query string
		// keep ancestor-chain discovery, just not the proxy fallback.
		invokeURL := ""
		if sessionID := c.Query("session_id"); sessionID != "" {
			invokeURL = "/api/sessions/" + sessionID + "/invoke"
		}
		payload = ch.bridge.InjectBootstrap(payload, invokeURL, c.Query("token"))
	}

	c.Data(http.StatusOK, contentType, payload)
}

func isHTMLPath(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
