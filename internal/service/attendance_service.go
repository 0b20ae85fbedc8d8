package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/pkg/config"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// quickMarkNote is attached to entries written by QuickMarkAllPresent.
const quickMarkNote = "auto-marked present"

type attendanceRepository interface {
	FindByClassroomAndDate(ctx context.Context, classroomID string, date time.Time) (*models.AttendanceRecord, error)
	UpsertRecord(ctx context.Context, classroomID string, date time.Time, entries []models.AttendanceEntry) (*models.AttendanceRecord, error)
}

type rosterLoader interface {
	Roster(ctx context.Context, classroomID string) ([]models.RosterEntry, error)
}

// sessionKey scopes staged edits to one schedule's view of one
// classroom on one date. Commit and discard operate on the whole
// (classroom, date) pair since that is the persistence key.
type sessionKey struct {
	classroomID string
	scheduleID  string
	date        string
}

func (k sessionKey) sameSession(classroomID, date string) bool {
	return k.classroomID == classroomID && k.date == date
}

type stagedEntry struct {
	status   models.AttendanceStatus
	notes    *string
	stagedAt time.Time
}

// AttendanceService is the reconciliation engine for attendance
// records. Edits are staged in memory per (classroom, date) and only
// persisted on commit; the commit merges staged values over the latest
// stored record (last-write-wins per student) and upserts, so
// repeating a commit never duplicates a session.
type AttendanceService struct {
	repo      attendanceRepository
	roster    rosterLoader
	cache     *CacheService
	cfg       config.AttendanceConfig
	validator *validator.Validate
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[sessionKey]map[string]stagedEntry

	now func() time.Time
}

// NewAttendanceService constructs the attendance engine.
func NewAttendanceService(repo attendanceRepository, roster rosterLoader, cache *CacheService, cfg config.AttendanceConfig, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		roster:    roster,
		cache:     cache,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		pending:   make(map[sessionKey]map[string]stagedEntry),
		now:       time.Now,
	}
}

// LoadSession fetches the record for an exact (classroom, date) pair.
// Returns nil when no session exists yet.
func (s *AttendanceService) LoadSession(ctx context.Context, classroomID, date string) (*models.AttendanceRecord, error) {
	parsed, err := parseSessionDate(date)
	if err != nil {
		return nil, err
	}
	record, err := s.repo.FindByClassroomAndDate(ctx, classroomID, parsed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance session")
	}
	return record, nil
}

// Summarize aggregates a record's entries against the roster size. A
// nil record or empty entry map is a session that has not started.
func Summarize(record *models.AttendanceRecord, rosterSize int) models.SessionSummary {
	summary := models.SessionSummary{State: models.SessionNotStarted, RosterSize: rosterSize}
	if record == nil || len(record.Entries) == 0 {
		return summary
	}

	for _, entry := range record.Entries {
		summary.AttendedCount++
		switch entry.Status {
		case models.AttendanceStatusPresent:
			summary.PresentCount++
		case models.AttendanceStatusLate:
			summary.LateCount++
		case models.AttendanceStatusAbsent:
			summary.AbsentCount++
		case models.AttendanceStatusExcused:
			summary.ExcusedCount++
		}
	}

	if summary.AttendedCount < rosterSize {
		summary.State = models.SessionIncomplete
	} else {
		summary.State = models.SessionComplete
	}
	return summary
}

// StageChange stages one student's status in memory. The session date
// must be today; edits outside the window are rejected before anything
// touches the network.
func (s *AttendanceService) StageChange(classroomID, scheduleID, date, studentID string, status models.AttendanceStatus, notes *string) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown attendance status %q", status))
	}
	if _, err := parseSessionDate(date); err != nil {
		return err
	}
	if err := s.ensureEditable(date); err != nil {
		return err
	}

	key := sessionKey{classroomID: classroomID, scheduleID: scheduleID, date: date}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.pending[key]
	if !ok {
		set = make(map[string]stagedEntry)
		s.pending[key] = set
	}
	set[studentID] = stagedEntry{status: status, notes: notes, stagedAt: s.now()}
	return nil
}

// Pending returns the staged statuses for a session, merged across
// every schedule that staged edits for it. When the same student was
// staged under more than one schedule, the most recent edit wins.
func (s *AttendanceService) Pending(classroomID, date string) map[string]models.AttendanceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := make(map[string]stagedEntry)
	for key, set := range s.pending {
		if !key.sameSession(classroomID, date) {
			continue
		}
		for studentID, entry := range set {
			if current, ok := merged[studentID]; !ok || entry.stagedAt.After(current.stagedAt) {
				merged[studentID] = entry
			}
		}
	}
	staged := make(map[string]models.AttendanceStatus, len(merged))
	for studentID, entry := range merged {
		staged[studentID] = entry.status
	}
	return staged
}

// Discard drops all staged edits for a session (view closed without
// saving), regardless of which schedule staged them.
func (s *AttendanceService) Discard(classroomID, date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.pending {
		if key.sameSession(classroomID, date) {
			delete(s.pending, key)
		}
	}
}

// Commit merges the staged changes over the latest stored record and
// upserts the session. Staged values override stored values per
// student; students without staged edits are untouched. An empty
// staged set is a no-op. On failure the staged set is left intact so
// the caller can retry; on success only the entries that were part of
// this commit are cleared, so edits staged mid-flight survive.
func (s *AttendanceService) Commit(ctx context.Context, classroomID, date string) (*models.AttendanceRecord, error) {
	parsed, err := parseSessionDate(date)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	snapshot := make(map[sessionKey]map[string]stagedEntry)
	merged := make(map[string]stagedEntry)
	for key, set := range s.pending {
		if !key.sameSession(classroomID, date) {
			continue
		}
		copied := make(map[string]stagedEntry, len(set))
		for studentID, entry := range set {
			copied[studentID] = entry
			if current, ok := merged[studentID]; !ok || entry.stagedAt.After(current.stagedAt) {
				merged[studentID] = entry
			}
		}
		snapshot[key] = copied
	}
	if len(merged) == 0 {
		s.mu.Unlock()
		return s.LoadSession(ctx, classroomID, date)
	}
	s.mu.Unlock()

	entries := make([]models.AttendanceEntry, 0, len(merged))
	for studentID, staged := range merged {
		entries = append(entries, models.AttendanceEntry{
			StudentID:  studentID,
			Status:     staged.status,
			Notes:      staged.notes,
			RecordedAt: staged.stagedAt,
		})
	}

	record, err := s.repo.UpsertRecord(ctx, classroomID, parsed, entries)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	s.mu.Lock()
	for key, committed := range snapshot {
		current, ok := s.pending[key]
		if !ok {
			continue
		}
		for studentID, entry := range committed {
			if live, ok := current[studentID]; ok && live.stagedAt.Equal(entry.stagedAt) {
				delete(current, studentID)
			}
		}
		if len(current) == 0 {
			delete(s.pending, key)
		}
	}
	s.mu.Unlock()

	s.invalidateSummaries(ctx, classroomID)
	return record, nil
}

// QuickMarkAllPresent stages every roster student as present with a
// fixed note and commits immediately. It runs through the same edit
// window gate as any other staged change.
func (s *AttendanceService) QuickMarkAllPresent(ctx context.Context, classroomID, date string, roster []models.RosterEntry) (*models.AttendanceRecord, error) {
	if len(roster) == 0 {
		loaded, err := s.roster.Roster(ctx, classroomID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
		}
		roster = loaded
	}
	if len(roster) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classroom has no enrolled students")
	}

	note := quickMarkNote
	for _, entry := range roster {
		if err := s.StageChange(classroomID, "", date, entry.StudentID, models.AttendanceStatusPresent, &note); err != nil {
			return nil, err
		}
	}
	return s.Commit(ctx, classroomID, date)
}

// Overview returns the stored record plus its roster summary, cached
// per (classroom, date) until the next commit.
func (s *AttendanceService) Overview(ctx context.Context, classroomID, date string) (*models.AttendanceRecord, models.SessionSummary, error) {
	cacheKey := fmt.Sprintf("attendance:summary:%s:%s", classroomID, date)
	record, err := s.LoadSession(ctx, classroomID, date)
	if err != nil {
		return nil, models.SessionSummary{}, err
	}

	var summary models.SessionSummary
	if s.cache.Enabled() {
		if hit, err := s.cache.Get(ctx, cacheKey, &summary); err == nil && hit {
			return record, summary, nil
		}
	}

	roster, err := s.roster.Roster(ctx, classroomID)
	if err != nil {
		return nil, models.SessionSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	summary = Summarize(record, len(roster))
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cfg.SummaryCacheTTL); err != nil {
			s.logger.Warn("failed to cache attendance summary", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return record, summary, nil
}

func (s *AttendanceService) ensureEditable(date string) error {
	if !s.cfg.EditWindowToday {
		return nil
	}
	if date != s.now().Format(dateLayout) {
		return appErrors.Clone(appErrors.ErrEditWindowClosed, "")
	}
	return nil
}

func (s *AttendanceService) invalidateSummaries(ctx context.Context, classroomID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("attendance:summary:%s:*", classroomID)); err != nil {
		s.logger.Warn("failed to invalidate attendance summaries", zap.String("classroom_id", classroomID), zap.Error(err))
	}
}

func parseSessionDate(date string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return parsed, nil
}
