package user

import (
	"context"
	"net/http"

	"goprice/internal/api/response"
	"goprice/internal/domain"
	"goprice/internal/pkg/logger"
)

// UserService define o contrato para as operações de registro e login.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carrega o JWT emitido.
type LoginResponse struct {
	Token string `json:"token"`
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// RegisterUserHandler lida com a requisição POST /api/register.
// @Summary Registra um novo usuário
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Credenciais de registro (email e senha)"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Router /api/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := response.Decode(r, &reg); err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusCreated)
		return
	}

	user, err := h.Service.Register(r.Context(), reg)
	response.Handle(w, r, h.Logger, user, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /api/login.
// @Summary Autentica um usuário
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "E-mail e senha"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} domain.ErrorResponse
// @Router /api/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.Decode(r, &req); err != nil {
		response.Handle(w, r, h.Logger, nil, err, http.StatusOK)
		return
	}

	tok, err := h.Service.Login(r.Context(), req.Email, req.Password)
	response.Handle(w, r, h.Logger, LoginResponse{Token: tok}, err, http.StatusOK)
}
