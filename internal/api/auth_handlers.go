package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gafdot/backend-consumo-energetico/internal/auth"
)

// credentialsRequest is the request body for POST /register and POST /login.
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /login.
type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// handleRegister creates a new account.
// A taken username fails with 400; the stored hash of an existing account
// is never touched by a failed duplicate registration.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "corpo JSON inválido")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username e password são obrigatórios")
		return
	}

	if _, err := s.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeBadRequest(w, "usuário já existe")
			return
		}
		s.logger.Error("registering account failed", "error", err)
		writeInternalError(w, "erro ao cadastrar usuário")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "usuário cadastrado com sucesso",
	})
}

// handleLogin verifies credentials and returns a session token.
// Unknown usernames and wrong passwords produce the same 400 response.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "corpo JSON inválido")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeBadRequest(w, "usuário ou senha incorretos")
			return
		}
		s.logger.Error("login failed", "error", err)
		writeInternalError(w, "erro ao processar o login")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message: "login realizado com sucesso",
		Token:   token,
	})
}
