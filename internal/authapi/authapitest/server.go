// Package authapitest is an in-memory stand-in for the remote auth API.
// Unit tests mount it on httptest; cmd/stubapi runs it standalone so the
// gateway can be exercised without the real backend.
package authapitest

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Account is a seeded upstream user. UserType follows the real backend's
// vocabulary: superuser | staff | client_cli | client_com | client.
type Account struct {
	ID           int
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	UserType     string
	RedirectTo   string

	Telefono        *string
	FechaNacimiento *string
	Genero          *string
	Direccion       *string
	Ciudad          *string
}

// Server holds the account table and issued tokens.
type Server struct {
	mu      sync.Mutex
	nextID  int
	secret  []byte
	byEmail map[string]*Account
	byToken map[string]*Account

	engine *gin.Engine
}

// NewServer builds an empty fake upstream. Seed accounts with SeedAccount.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		nextID:  1,
		secret:  []byte("stub-upstream-secret"),
		byEmail: make(map[string]*Account),
		byToken: make(map[string]*Account),
	}
	r := gin.New()
	r.POST("/login", s.handleLogin)
	r.POST("/register", s.handleRegister)
	r.POST("/logout", s.handleLogout)
	r.GET("/profile", s.handleProfile)
	r.PUT("/profile", s.handleProfileUpdate)
	s.engine = r
	return s
}

// Handler returns the HTTP handler, for httptest.NewServer or ListenAndServe.
func (s *Server) Handler() http.Handler { return s.engine }

// SeedAccount hashes password with bcrypt and registers the account.
// Email lookup is case-insensitive, as in the real backend.
func (s *Server) SeedAccount(email, password, firstName, lastName, userType, redirectTo string) *Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &Account{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		UserType:     userType,
		RedirectTo:   redirectTo,
	}
	s.nextID++
	s.byEmail[strings.ToLower(email)] = acc
	return acc
}

// TokenCount reports how many tokens are currently live (logout assertions).
func (s *Server) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byToken)
}

func (s *Server) isSuperuser(a *Account) bool { return a.UserType == "superuser" }
func (s *Server) isStaff(a *Account) bool {
	return a.UserType == "superuser" || a.UserType == "staff"
}

// issueToken mints an HS256 JWT. The gateway treats it as an opaque string;
// signing it keeps the fake close to what the real backend hands out.
func (s *Server) issueToken(a *Account) string {
	claims := jwt.MapClaims{
		"user_id": a.ID,
		"email":   a.Email,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(8 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	s.byToken[tok] = a
	return tok
}

func (s *Server) accountForToken(c *gin.Context) *Account {
	header := c.GetHeader("Authorization")
	for _, prefix := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, prefix) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.byToken[strings.TrimPrefix(header, prefix)]
		}
	}
	return nil
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON invalido"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.byEmail[strings.ToLower(req.Email)]
	if !ok || bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Credenciales invalidas"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":        s.issueToken(acc),
		"user_id":      acc.ID,
		"email":        acc.Email,
		"first_name":   acc.FirstName,
		"last_name":    acc.LastName,
		"is_staff":     s.isStaff(acc),
		"is_superuser": s.isSuperuser(acc),
		"user_type":    acc.UserType,
		"redirect_to":  acc.RedirectTo,
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON invalido"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email y password son obligatorios"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[strings.ToLower(req.Email)]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "El email ya esta registrado"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "error interno"})
		return
	}
	acc := &Account{
		ID:           s.nextID,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		UserType:     "client",
	}
	s.nextID++
	s.byEmail[strings.ToLower(req.Email)] = acc

	c.JSON(http.StatusCreated, gin.H{
		"token":   s.issueToken(acc),
		"user_id": acc.ID,
		"email":   acc.Email,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, prefix := range []string{"Token ", "Bearer "} {
		if strings.HasPrefix(header, prefix) {
			delete(s.byToken, strings.TrimPrefix(header, prefix))
			c.JSON(http.StatusOK, gin.H{"detail": "sesion cerrada"})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"detail": "token requerido"})
}

func (s *Server) profilePayload(acc *Account) gin.H {
	return gin.H{
		"id":               acc.ID,
		"email":            acc.Email,
		"first_name":       acc.FirstName,
		"last_name":        acc.LastName,
		"is_superuser":     s.isSuperuser(acc),
		"is_staff":         s.isStaff(acc),
		"is_active":        true,
		"telefono":         acc.Telefono,
		"fecha_nacimiento": acc.FechaNacimiento,
		"genero":           acc.Genero,
		"direccion":        acc.Direccion,
		"ciudad":           acc.Ciudad,
	}
}

func (s *Server) handleProfile(c *gin.Context) {
	acc := s.accountForToken(c)
	if acc == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "token invalido"})
		return
	}
	s.mu.Lock()
	payload := s.profilePayload(acc)
	s.mu.Unlock()
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleProfileUpdate(c *gin.Context) {
	acc := s.accountForToken(c)
	if acc == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "token invalido"})
		return
	}
	var req struct {
		FirstName       *string `json:"first_name"`
		LastName        *string `json:"last_name"`
		Telefono        *string `json:"telefono"`
		FechaNacimiento *string `json:"fecha_nacimiento"`
		Genero          *string `json:"genero"`
		Direccion       *string `json:"direccion"`
		Ciudad          *string `json:"ciudad"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "JSON invalido"})
		return
	}

	s.mu.Lock()
	if req.FirstName != nil {
		acc.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		acc.LastName = *req.LastName
	}
	if req.Telefono != nil {
		acc.Telefono = req.Telefono
	}
	if req.FechaNacimiento != nil {
		acc.FechaNacimiento = req.FechaNacimiento
	}
	if req.Genero != nil {
		acc.Genero = req.Genero
	}
	if req.Direccion != nil {
		acc.Direccion = req.Direccion
	}
	if req.Ciudad != nil {
		acc.Ciudad = req.Ciudad
	}
	// Build the payload before releasing the lock so concurrent requests
	// never read the account mid-update.
	payload := s.profilePayload(acc)
	s.mu.Unlock()

	c.JSON(http.StatusOK, payload)
}
