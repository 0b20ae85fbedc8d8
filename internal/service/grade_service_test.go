package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

type mockGradeRepo struct {
	grades map[string]models.GradeEntry
	recap  []models.StudentGradeRecap
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeEntry, int, error) {
	out := make([]models.GradeEntry, 0, len(m.grades))
	for _, g := range m.grades {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.GradeEntry, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.GradeEntry) error {
	if m.grades == nil {
		m.grades = make(map[string]models.GradeEntry)
	}
	if grade.ID == "" {
		grade.ID = "generated"
	}
	m.grades[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.GradeEntry) error {
	m.grades[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	delete(m.grades, id)
	return nil
}

func (m *mockGradeRepo) ClassroomRecap(ctx context.Context, classroomID, term string) ([]models.StudentGradeRecap, error) {
	return m.recap, nil
}

func TestGradeServiceCreate(t *testing.T) {
	repo := &mockGradeRepo{}
	svc := NewGradeService(repo, validator.New(), zap.NewNop())

	grade, err := svc.Create(context.Background(), GradeRequest{
		StudentID: "s1", ClassroomID: "class-1", Subject: "Math",
		Term: "2026-1", Assessment: "midterm", Score: 87.5, Weight: 2,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, grade.ID)
	assert.Len(t, repo.grades, 1)
}

func TestGradeServiceRejectsScoreOutOfRange(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), GradeRequest{
		StudentID: "s1", ClassroomID: "class-1", Subject: "Math",
		Term: "2026-1", Assessment: "midterm", Score: 105, Weight: 1,
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), GradeRequest{
		StudentID: "s1", ClassroomID: "class-1", Subject: "Math",
		Term: "2026-1", Assessment: "midterm", Score: 80, Weight: 0,
	})
	require.Error(t, err)
}

func TestGradeServiceUpdateMissing(t *testing.T) {
	svc := NewGradeService(&mockGradeRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", GradeRequest{
		StudentID: "s1", ClassroomID: "class-1", Subject: "Math",
		Term: "2026-1", Assessment: "midterm", Score: 80, Weight: 1,
	})
	require.Error(t, err)
}

func TestGradeServiceClassroomRecap(t *testing.T) {
	repo := &mockGradeRepo{recap: []models.StudentGradeRecap{
		{StudentID: "s1", StudentName: "Student One", Subject: "Math", Entries: 3, Average: 84.2},
	}}
	svc := NewGradeService(repo, validator.New(), zap.NewNop())

	recap, err := svc.ClassroomRecap(context.Background(), "class-1", "2026-1")
	require.NoError(t, err)
	require.Len(t, recap, 1)
	assert.InDelta(t, 84.2, recap[0].Average, 0.001)

	_, err = svc.ClassroomRecap(context.Background(), "", "2026-1")
	require.Error(t, err)
}
