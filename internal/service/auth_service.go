package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type stateReader interface {
	Snapshot() state.State
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AdminUsername     string
	AdminPassword     string
}

// AuthService resolves credentials into a Viewer and issues access tokens carrying it.
type AuthService struct {
	state     stateReader
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(state stateReader, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{state: state, validator: validate, logger: logger, config: config}
}

// Login authenticates an admin, teacher or student and returns a signed token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	viewer, ok := s.authenticate(req)
	if !ok {
		s.logger.Info("login rejected", zap.String("kind", string(req.Kind)), zap.String("username", req.Username))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	token, issuedAt, err := s.generateAccessToken(viewer)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("login succeeded", zap.String("kind", string(viewer.Kind)), zap.String("viewer_id", viewer.ID))
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    issuedAt,
		Viewer:      viewer,
	}, nil
}

// Resolve refreshes a token's viewer against current data so removed accounts lose access and
// changed class assignments take effect without a new login.
func (s *AuthService) Resolve(viewer models.Viewer) (models.Viewer, error) {
	snapshot := s.state.Snapshot()
	switch viewer.Kind {
	case models.ViewerAdmin:
		return models.NewViewer(models.ViewerAdmin, viewer.ID, viewer.Name), nil
	case models.ViewerTeacher:
		teacher, ok := snapshot.Teacher(viewer.ID)
		if !ok {
			return models.Viewer{}, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return teacherViewer(teacher), nil
	case models.ViewerStudent:
		student, ok := snapshot.Student(viewer.ID)
		if !ok {
			return models.Viewer{}, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists")
		}
		return studentViewer(student), nil
	default:
		return models.Viewer{}, appErrors.Clone(appErrors.ErrUnauthorized, "unknown viewer")
	}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, jwt.WithIssuer(s.config.Issuer))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.Viewer.Kind == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	claims.Viewer.Capabilities = models.CapabilitiesFor(claims.Viewer.Kind)
	return claims, nil
}

func (s *AuthService) authenticate(req models.LoginRequest) (models.Viewer, bool) {
	username := strings.TrimSpace(req.Username)
	switch req.Kind {
	case models.ViewerAdmin:
		if s.config.AdminUsername == "" || !strings.EqualFold(username, s.config.AdminUsername) {
			return models.Viewer{}, false
		}
		if !passwordMatches(s.config.AdminPassword, req.Password) {
			return models.Viewer{}, false
		}
		return models.NewViewer(models.ViewerAdmin, "admin", s.config.AdminUsername), true
	case models.ViewerTeacher:
		for _, teacher := range s.state.Snapshot().Teachers {
			if strings.EqualFold(teacher.Username, username) && passwordMatches(teacher.Password, req.Password) {
				return teacherViewer(teacher), true
			}
		}
	case models.ViewerStudent:
		for _, student := range s.state.Snapshot().Students {
			if student.RegNumber != "" && strings.EqualFold(student.RegNumber, username) &&
				strings.TrimSpace(student.RollNumber) == strings.TrimSpace(req.Password) {
				return studentViewer(student), true
			}
		}
	}
	return models.Viewer{}, false
}

func (s *AuthService) generateAccessToken(viewer models.Viewer) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		Viewer: viewer,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   string(viewer.Kind) + ":" + viewer.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, issuedAt, nil
}

func teacherViewer(t models.Teacher) models.Viewer {
	viewer := models.NewViewer(models.ViewerTeacher, t.ID, t.Name)
	viewer.Classes = append([]string(nil), t.Classes...)
	viewer.Subjects = append([]string(nil), t.Subjects...)
	return viewer
}

func studentViewer(st models.Student) models.Viewer {
	viewer := models.NewViewer(models.ViewerStudent, st.ID, st.Name)
	viewer.ClassName = st.ClassName
	return viewer
}

// passwordMatches accepts bcrypt hashes and, for legacy spreadsheet rows, plaintext.
func passwordMatches(stored, given string) bool {
	if stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcryptHash(v string) bool {
	return len(v) == 60 && (strings.HasPrefix(v, "$2a$") || strings.HasPrefix(v, "$2b$") || strings.HasPrefix(v, "$2y$"))
}
