package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"autodealer/internal/models"
	"autodealer/internal/repositories"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Claims is the JWT payload issued to admins.
type Claims struct {
	AdminID   int64  `json:"admin_id"`
	ProjectID string `json:"project_id"`
	jwt.RegisteredClaims
}

type AuthService struct {
	admins repositories.AdminRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(admins repositories.AdminRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{admins: admins, secret: []byte(secret), ttl: ttl, now: time.Now}
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Login checks the password and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.Admin, error) {
	email = strings.TrimSpace(email)
	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		logrus.WithField("email", email).Info("[auth][login] unknown email")
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		logrus.WithField("admin_id", admin.ID).Info("[auth][login] password mismatch")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(admin)
	if err != nil {
		return "", nil, err
	}
	logrus.WithField("admin_id", admin.ID).Info("[auth][login] ok")
	return token, admin, nil
}

func (s *AuthService) IssueToken(admin *models.Admin) (string, error) {
	now := s.now()
	claims := Claims{
		AdminID:   admin.ID,
		ProjectID: admin.ProjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates signature and expiry and returns the admin id.
func (s *AuthService) ParseToken(tokenStr string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithLeeway(2*time.Minute), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	if claims.AdminID == 0 {
		return 0, errors.New("invalid token: no admin id")
	}
	return claims.AdminID, nil
}

// EnsureBootstrapAdmin creates a super admin with the given credentials when
// no admin uses that email yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password, projectID string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.admins.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.Admin{
		Email:          email,
		PasswordHash:   hash,
		IsSuper:        true,
		ProjectID:      projectID,
		NotifyTelegram: true,
	}
	if err := s.admins.Create(ctx, admin); err != nil && !errors.Is(err, repositories.ErrDuplicate) {
		return err
	}
	logrus.WithField("email", email).Info("[auth][bootstrap] super admin created")
	return nil
}

type NewAdminInput struct {
	Email       string
	Password    string
	ProjectID   string
	IsSuper     bool
	Permissions models.AdminPermissions
}

var knownProjects = map[string]bool{
	models.ProjectOffice1: true,
	models.ProjectOffice2: true,
}

// CreateAdmin registers a back-office account. Emails are unique
// case-insensitively.
func (s *AuthService) CreateAdmin(ctx context.Context, in NewAdminInput) (*models.Admin, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !strings.Contains(email, "@") {
		return nil, validationError("invalid email %q", in.Email)
	}
	if len(in.Password) < 8 {
		return nil, validationError("password must be at least 8 characters")
	}
	if !knownProjects[in.ProjectID] {
		return nil, validationError("unknown project %q", in.ProjectID)
	}
	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: admin %s already exists", ErrConflict, email)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		Email:        email,
		PasswordHash: hash,
		IsSuper:      in.IsSuper,
		ProjectID:    in.ProjectID,
		Permissions:  in.Permissions,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("%w: admin %s already exists", ErrConflict, email)
		}
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"admin_id": admin.ID, "project_id": admin.ProjectID}).Info("[auth][create_admin] ok")
	return admin, nil
}
