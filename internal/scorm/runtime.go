package scorm

import (
	"regexp"
	"strings"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
)

// MaxValueLength caps every stored element value, in code units, before and
// after sanitization.
const MaxValueLength = 4096

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateActive
	stateTerminated
)

// Elements the content object may read but never write. Their values are
// seeded by the host at launch time.
var readOnlyElements = map[string]struct{}{
	"cmi.core.student_id":          {},
	"cmi.core.student_name":        {},
	"cmi.core.credit":              {},
	"cmi.core.entry":               {},
	"cmi.core.total_time":          {},
	"cmi.core.lesson_mode":         {},
	"cmi.launch_data":              {},
	"cmi.comments_from_lms":        {},
	"cmi.learner_id":               {},
	"cmi.learner_name":             {},
	"cmi.credit":                   {},
	"cmi.entry":                    {},
	"cmi.mode":                     {},
	"cmi.total_time":               {},
	"cmi.comments_from_lms._count": {},
}

var (
	lessonStatusValues = map[string]struct{}{
		"passed":        {},
		"completed":     {},
		"failed":        {},
		"incomplete":    {},
		"browsed":       {},
		"not attempted": {},
	}
	exitValues = map[string]struct{}{
		"time-out": {},
		"suspend":  {},
		"logout":   {},
		"normal":   {},
		"":         {},
	}
	// Signed decimal: optional leading minus, digits, optional single
	// fractional part.
	scoreRE = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	// 2-4 digit hour field, exactly 2-digit minute/second fields, optional
	// 1-2 digit fractional seconds. Digit counts only; 61 minutes passes.
	timespanRE = regexp.MustCompile(`^\d{2,4}:\d{2}:\d{2}(\.\d{1,2})?$`)
)

// RuntimeDataStore holds one learner's session state for one loaded content
// object. It is owned by exactly one live session and is never shared, so it
// carries no internal locking.
type RuntimeDataStore struct {
	state     sessionState
	values    map[string]string
	order     []string
	lastError string
	log       *logger.Logger

	// CommitFunc is an optional host persistence hook invoked on Commit and
	// on the commit that precedes Terminate. Hook failures are logged and do
	// not fail the protocol call.
	CommitFunc func(values map[string]string) error
}

func NewRuntimeDataStore(log *logger.Logger) *RuntimeDataStore {
	if log != nil {
		log = log.With("component", "RuntimeDataStore")
	}
	return &RuntimeDataStore{
		state:     stateUninitialized,
		values:    make(map[string]string),
		lastError: ErrCodeNoError,
		log:       log,
	}
}

// Seed installs a value outside the protocol surface, bypassing the
// read-only check. The host uses it before Initialize to populate identity
// and launch elements.
func (s *RuntimeDataStore) Seed(element, value string) {
	s.put(element, value)
}

func (s *RuntimeDataStore) Initialize() bool {
	if s.state == stateActive {
		s.lastError = ErrCodeAlreadyInitialized
		return false
	}
	if s.state == stateTerminated {
		s.lastError = ErrCodeGeneralException
		return false
	}
	s.state = stateActive
	s.lastError = ErrCodeNoError
	return true
}

func (s *RuntimeDataStore) Terminate() bool {
	if s.state != stateActive {
		s.lastError = ErrCodeNotInitialized
		return false
	}
	s.state = stateTerminated
	s.lastError = ErrCodeNoError
	return true
}

func (s *RuntimeDataStore) GetValue(element string) string {
	if s.state != stateActive {
		s.lastError = ErrCodeNotInitialized
		return ""
	}
	s.lastError = ErrCodeNoError
	return s.values[element]
}

func (s *RuntimeDataStore) SetValue(element, value string) bool {
	if s.state != stateActive {
		s.lastError = ErrCodeNotInitialized
		return false
	}
	if _, ro := readOnlyElements[element]; ro {
		s.lastError = ErrCodeReadOnly
		return false
	}
	if !validElementValue(element, value) {
		s.lastError = ErrCodeInvalidData
		return false
	}
	s.put(element, SanitizeValue(value))
	s.lastError = ErrCodeNoError
	return true
}

func (s *RuntimeDataStore) Commit() bool {
	if s.state != stateActive {
		s.lastError = ErrCodeNotInitialized
		return false
	}
	if s.CommitFunc != nil {
		if err := s.CommitFunc(s.Snapshot()); err != nil && s.log != nil {
			s.log.Warn("commit hook failed", "error", err)
		}
	}
	s.lastError = ErrCodeNoError
	return true
}

func (s *RuntimeDataStore) LastError() string {
	return s.lastError
}

func (s *RuntimeDataStore) ErrorString(code string) string {
	return ErrorString(code)
}

// Snapshot returns a copy of the element map in insertion order via Elements.
func (s *RuntimeDataStore) Snapshot() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Elements returns element names in first-set order.
func (s *RuntimeDataStore) Elements() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *RuntimeDataStore) put(element, value string) {
	if _, seen := s.values[element]; !seen {
		s.order = append(s.order, element)
	}
	s.values[element] = value
}

func validElementValue(element, value string) bool {
	if len(value) > MaxValueLength {
		return false
	}
	switch {
	case isLessonStatusElement(element):
		_, ok := lessonStatusValues[value]
		return ok
	case isExitElement(element):
		_, ok := exitValues[value]
		return ok
	case isScoreElement(element):
		return len(value) <= 10 && scoreRE.MatchString(value)
	case isTimespanElement(element):
		return timespanRE.MatchString(value)
	default:
		return true
	}
}

func isLessonStatusElement(element string) bool {
	return element == "cmi.core.lesson_status"
}

func isExitElement(element string) bool {
	return element == "cmi.core.exit" || element == "cmi.exit"
}

func isScoreElement(element string) bool {
	if !strings.Contains(element, ".score.") {
		return false
	}
	switch {
	case strings.HasSuffix(element, ".raw"),
		strings.HasSuffix(element, ".max"),
		strings.HasSuffix(element, ".min"):
		return true
	default:
		return false
	}
}

func isTimespanElement(element string) bool {
	return element == "cmi.core.session_time" || element == "cmi.session_time"
}
