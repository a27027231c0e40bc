package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/types"
)

var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrPackageDegraded   = errors.New("package survives only in the degraded tier and cannot be played")
	ErrItemNotLaunchable = errors.New("item index outside the play-list")
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownMethod     = errors.New("unknown protocol method")
)

// LaunchResult is what the shell needs to open one play-list item.
type LaunchResult struct {
	SessionID uuid.UUID `json:"session_id"`
	PackageID string    `json:"package_id"`
	Href      string    `json:"href"`
	Title     string    `json:"title"`
}

// SessionService owns the live runtime sessions. Each launch builds a fresh
// RuntimeDataStore, publishes it through the bridge's context chain, and
// registers the content-side context; every invoke rediscovers the API from
// there, so content never holds a direct reference to the store.
type SessionService interface {
	Launch(ctx context.Context, learner *types.User, packageID string, itemIndex int) (*LaunchResult, error)
	Invoke(sessionID uuid.UUID, method string, args []string) (string, error)
	End(sessionID uuid.UUID) error
}

type liveSession struct {
	id        uuid.UUID
	packageID string
	store     *scorm.RuntimeDataStore
	content   *scorm.WindowContext
}

type sessionService struct {
	log      *logger.Logger
	packages PackageStore
	bridge   *scorm.Bridge

	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
}

func NewSessionService(baseLog *logger.Logger, packages PackageStore, bridge *scorm.Bridge) SessionService {
	return &sessionService{
		log:      baseLog.With("service", "SessionService"),
		packages: packages,
		bridge:   bridge,
		sessions: make(map[uuid.UUID]*liveSession),
	}
}

func (s *sessionService) Launch(ctx context.Context, learner *types.User, packageID string, itemIndex int) (*LaunchResult, error) {
	pkg, degraded, err := s.packages.Get(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	if pkg == nil {
		return nil, ErrPackageNotFound
	}
	if degraded {
		return nil, ErrPackageDegraded
	}

	var manifest scorm.Manifest
	if err := json.Unmarshal(pkg.Manifest, &manifest); err != nil {
		return nil, fmt.Errorf("decode stored manifest: %w", err)
	}
	playlist := manifest.Resolve().Flatten()
	if itemIndex < 0 || itemIndex >= len(playlist) {
		return nil, ErrItemNotLaunchable
	}
	entry := playlist[itemIndex]

	store := scorm.NewRuntimeDataStore(s.log)
	seedSessionElements(store, learner, entry)

	sessionID := uuid.New()
	store.CommitFunc = func(values map[string]string) error {
		s.log.Info("session committed",
			"session_id", sessionID,
			"package_id", packageID,
			"elements", len(values),
		)
		return nil
	}

	api := scorm.NewAPI(store)
	content := s.bridge.WireSession(api, 1)

	session := &liveSession{
		id:        sessionID,
		packageID: packageID,
		store:     store,
		content:   content,
	}
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	s.log.Info("session launched",
		"session_id", session.id,
		"package_id", packageID,
		"item", entry.ItemIdentifier,
	)
	return &LaunchResult{
		SessionID: session.id,
		PackageID: packageID,
		Href:      entry.Href,
		Title:     entry.Title,
	}, nil
}

func (s *sessionService) Invoke(sessionID uuid.UUID, method string, args []string) (string, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	if !scorm.KnownMethod(method) {
		return "", ErrUnknownMethod
	}
	api, found := scorm.Discover(session.content)
	if !found {
		// The chain was wired at launch; a missing binding means the
		// session object is gone and content must treat it as unavailable.
		return "", ErrSessionNotFound
	}
	return scorm.Invoke(api, method, args...), nil
}

// End discards the session. Values are not persisted; the commit hook is
// the only place a host could have captured them.
func (s *sessionService) End(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// seedSessionElements installs the host-owned elements before Initialize so
// content can read identity, credit, and launch data but never write them.
func seedSessionElements(store *scorm.RuntimeDataStore, learner *types.User, entry scorm.PlaylistEntry) {
	learnerID := ""
	learnerName := ""
	if learner != nil {
		learnerID = learner.ID.String()
		learnerName = learner.Name
	}
	store.Seed("cmi.core.student_id", learnerID)
	store.Seed("cmi.core.student_name", learnerName)
	store.Seed("cmi.core.credit", "credit")
	store.Seed("cmi.core.entry", "ab-initio")
	store.Seed("cmi.core.lesson_mode", "normal")
	store.Seed("cmi.core.total_time", "0000:00:00")
	store.Seed("cmi.launch_data", entry.DataFromLMS)

	store.Seed("cmi.learner_id", learnerID)
	store.Seed("cmi.learner_name", learnerName)
	store.Seed("cmi.credit", "credit")
	store.Seed("cmi.entry", "ab-initio")
	store.Seed("cmi.mode", "normal")
	store.Seed("cmi.total_time", "0000:00:00")

	if entry.MasteryScore != nil {
		store.Seed("cmi.student_data.mastery_score", fmt.Sprintf("%g", *entry.MasteryScore))
	}
}
