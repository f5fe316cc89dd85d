package userservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"goprice/internal/domain"
	apperror "goprice/internal/errors"
	"goprice/internal/pkg/logger"
)

// minPasswordLength é o tamanho mínimo de senha aceito no registro.
const minPasswordLength = 8

type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, userRole string) (string, error)
}

// UserService cuida do registro e do login dos operadores.
type UserService struct {
	repo     UserRepository
	tokenSvc TokenService
	logger   logger.Logger
}

func NewService(repo UserRepository, tokenSvc TokenService, log logger.Logger) *UserService {
	return &UserService{repo: repo, tokenSvc: tokenSvc, logger: log}
}

// Register cria um usuário comum com a senha em bcrypt.
func (s *UserService) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, apperror.NewValidationError("e-mail inválido")
	}
	if len(reg.Password) < minPasswordLength {
		return domain.User{}, apperror.NewValidationError("a senha deve ter pelo menos 8 caracteres")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, apperror.NewInternalError("falha ao gerar hash da senha", err)
	}

	now := time.Now().UTC()
	return s.repo.Save(ctx, domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Login confere as credenciais e devolve um JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperror.NewUnauthorizedError("e-mail e senha são obrigatórios")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// Usuário inexistente e senha errada respondem igual.
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return "", apperror.NewUnauthorizedError("credenciais inválidas")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperror.NewUnauthorizedError("credenciais inválidas")
	}

	tok, err := s.tokenSvc.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", apperror.NewInternalError("falha ao gerar token de autenticação", err)
	}

	s.logger.Info("login", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return tok, nil
}
