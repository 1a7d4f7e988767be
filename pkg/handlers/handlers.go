package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"minitube/pkg/auth"
	"minitube/pkg/models"
	"minitube/pkg/pipeline"
	"minitube/pkg/store"
)

// Handler carries the store and pipeline into every endpoint, so tests can
// build the whole HTTP surface against a temp directory.
type Handler struct {
	Store    *store.Store
	Pipeline *pipeline.Pipeline
}

func New(st *store.Store, p *pipeline.Pipeline) *Handler {
	return &Handler{Store: st, Pipeline: p}
}

type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var creds Credentials
	if err := c.BindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	user := &models.User{
		ID:          time.Now().UnixMilli(),
		Username:    creds.Username,
		Password:    string(hashedPassword),
		Subscribers: []string{},
	}
	if err := h.Store.AddUser(user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Login(c *gin.Context) {
	var creds Credentials
	if err := c.BindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.Store.FindUserByName(creds.Username)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login"})
		return
	}

	token, err := auth.GenerateJWT(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating token"})
		return
	}
	auth.SetSession(c, token)

	c.JSON(http.StatusOK, gin.H{"success": true, "username": user.Username})
}

func (h *Handler) Logout(c *gin.Context) {
	auth.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
