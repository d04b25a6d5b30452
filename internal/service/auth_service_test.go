package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func newAuthService(d *Dispatcher) *AuthService {
	return NewAuthService(d, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "gradebook-test",
		AdminUsername:     "admin",
		AdminPassword:     "admin-pass",
	})
}

func TestAuthServiceLoginKinds(t *testing.T) {
	d := newTestDispatcher(t)
	svc := newAuthService(d)
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Kind: models.ViewerAdmin, Username: "Admin", Password: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.ViewerAdmin, resp.Viewer.Kind)
	assert.True(t, resp.Viewer.Can(models.CapManageTeachers))
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	resp, err = svc.Login(ctx, models.LoginRequest{Kind: models.ViewerTeacher, Username: "sari", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, []string{"7A"}, resp.Viewer.Classes)
	assert.False(t, resp.Viewer.Can(models.CapManageStudents))

	resp, err = svc.Login(ctx, models.LoginRequest{Kind: models.ViewerStudent, Username: "r1", Password: "1"})
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Viewer.ID)
	assert.Equal(t, "7A", resp.Viewer.ClassName)
	assert.Equal(t, []models.Capability{models.CapViewOwnGrades}, resp.Viewer.Capabilities)
}

func TestAuthServiceLoginRejects(t *testing.T) {
	d := newTestDispatcher(t)
	svc := newAuthService(d)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Kind: models.ViewerAdmin, Username: "admin", Password: "nope"})
	requireCode(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(ctx, models.LoginRequest{Kind: models.ViewerTeacher, Username: "admin", Password: "admin-pass"})
	requireCode(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(ctx, models.LoginRequest{Kind: models.ViewerStudent, Username: "R1", Password: "2"})
	requireCode(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(ctx, models.LoginRequest{Kind: "parent", Username: "x", Password: "y"})
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestAuthServiceTokenRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)
	svc := newAuthService(d)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Kind: models.ViewerTeacher, Username: "sari", Password: "secret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t1", claims.Viewer.ID)
	assert.Equal(t, models.CapabilitiesFor(models.ViewerTeacher), claims.Viewer.Capabilities)

	other := NewAuthService(d, nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "gradebook-test"})
	_, err = other.ValidateToken(resp.AccessToken)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.ValidateToken("not-a-token")
	requireCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestAuthServiceResolveFollowsCurrentData(t *testing.T) {
	d := newTestDispatcher(t)
	svc := newAuthService(d)
	teachers := NewTeacherService(d, nil, nil)

	viewer, err := svc.Resolve(teacherFixtureViewer())
	require.NoError(t, err)
	assert.Equal(t, []string{"7A"}, viewer.Classes)

	_, _, err = teachers.Update(context.Background(), adminViewer(), "t1", TeacherRequest{Name: "Sari", Username: "sari", Classes: []string{"7B"}})
	require.NoError(t, err)
	viewer, err = svc.Resolve(teacherFixtureViewer())
	require.NoError(t, err)
	assert.Equal(t, []string{"7B"}, viewer.Classes)

	_, err = teachers.Delete(context.Background(), adminViewer(), "t1")
	require.NoError(t, err)
	_, err = svc.Resolve(teacherFixtureViewer())
	requireCode(t, err, appErrors.ErrUnauthorized.Code)
}

func TestPasswordMatches(t *testing.T) {
	assert.True(t, passwordMatches("plain", "plain"))
	assert.False(t, passwordMatches("plain", "Plain"))
	assert.False(t, passwordMatches("", ""))
}
