package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func TestStudentServiceListScopesTeachers(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewStudentService(d, nil, nil)
	ctx := context.Background()

	students, pagination, err := svc.List(ctx, adminViewer(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, pagination.TotalCount)
	assert.Equal(t, []string{"s1", "s2", "s3"}, studentIDs(students))

	students, _, err = svc.List(ctx, teacherFixtureViewer(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, studentIDs(students))

	students, _, err = svc.List(ctx, adminViewer(), models.StudentFilter{Search: "bud"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, studentIDs(students))

	students, pagination, err = svc.List(ctx, adminViewer(), models.StudentFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, studentIDs(students))
	assert.Equal(t, 2, pagination.Page)

	_, _, err = svc.List(ctx, teacherFixtureViewer(), models.StudentFilter{ClassName: "7B"})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestStudentServiceGet(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewStudentService(d, nil, nil)
	ctx := context.Background()

	student, err := svc.Get(ctx, studentFixtureViewer(t, d, "s1"), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", student.Name)

	_, err = svc.Get(ctx, studentFixtureViewer(t, d, "s1"), "s2")
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.Get(ctx, teacherFixtureViewer(), "s3")
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.Get(ctx, adminViewer(), "ghost")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestStudentServiceCreateUpdateDelete(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewStudentService(d, nil, nil)
	ctx := context.Background()

	created, result, err := svc.Create(ctx, adminViewer(), StudentRequest{RollNumber: "3", RegNumber: "R9", Name: " Dodi ", ClassName: "7A", Gender: "m"})
	require.NoError(t, err)
	assert.Equal(t, models.MutationAddStudent, result.Action)
	assert.Equal(t, "Dodi", created.Name)
	assert.Equal(t, "M", created.Gender)
	assert.Nil(t, created.Grades.Odd.KTS)

	_, _, err = svc.Create(ctx, adminViewer(), StudentRequest{RegNumber: "r1", Name: "Copy", ClassName: "7A"})
	requireCode(t, err, appErrors.ErrDuplicate.Code)

	_, _, err = svc.Create(ctx, adminViewer(), StudentRequest{Name: "No class"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, _, err = svc.Create(ctx, teacherFixtureViewer(), StudentRequest{Name: "X", ClassName: "7A"})
	requireCode(t, err, appErrors.ErrForbidden.Code)

	updated, _, err := svc.Update(ctx, adminViewer(), "s1", StudentRequest{RollNumber: "1", RegNumber: "R1", Name: "Ana Putri", ClassName: "7A", Gender: "F"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", updated.Name)
	require.NotNil(t, updated.Grades.Odd.KTS)
	assert.Equal(t, 90.0, *updated.Grades.Odd.KTS)

	_, err = svc.Delete(ctx, adminViewer(), created.ID)
	require.NoError(t, err)
	_, ok := d.Snapshot().Student(created.ID)
	assert.False(t, ok)
}

func TestSortStudentsNumericRoll(t *testing.T) {
	students := []models.Student{
		models.NewStudent("a", "10", "", "Zed", "7A", ""),
		models.NewStudent("b", "2", "", "Yan", "7A", ""),
		models.NewStudent("c", "1", "", "Xia", "7B", ""),
	}
	SortStudents(students)
	assert.Equal(t, []string{"b", "a", "c"}, studentIDs(students))
}

func studentIDs(students []models.Student) []string {
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
