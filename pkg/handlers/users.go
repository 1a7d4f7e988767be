package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"minitube/pkg/auth"
	"minitube/pkg/models"
	"minitube/pkg/store"
)

func (h *Handler) UserPage(c *gin.Context) {
	user, err := h.Store.FindUserByName(c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":    user.Username,
		"subscribers": len(user.Subscribers),
		"videos":      h.Store.VideosBy(user.Username),
	})
}

func (h *Handler) Subscribe(c *gin.Context) {
	me := auth.Username(c)

	// Toggling a subscription to yourself is allowed.
	var subscribers int
	err := h.Store.MutateUser(c.Param("username"), func(u *models.User) error {
		for i, s := range u.Subscribers {
			if s == me {
				u.Subscribers = append(u.Subscribers[:i], u.Subscribers[i+1:]...)
				subscribers = len(u.Subscribers)
				return nil
			}
		}
		u.Subscribers = append(u.Subscribers, me)
		subscribers = len(u.Subscribers)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save subscription"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "subscribers": subscribers})
}
