package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pagesmith-backend/internal/chat"
)

// ListMessages returns one page of the caller's history, newest first,
// optionally filtered by a prompt substring.
func (h *Handler) ListMessages(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	search := c.Query("search")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	msgs, total, err := h.ChatSvc.ListMessages(c.Request.Context(), uid, search, page, limit)
	if err != nil {
		log.Printf("list messages failed user_id=%d err=%v", uid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
		return
	}
	if msgs == nil {
		// empty page marshals as [] rather than null
		msgs = []chat.Message{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": msgs,
		"pagination": gin.H{
			"page":    page,
			"limit":   limit,
			"total":   total,
			"hasMore": int64(page*limit) < total,
		},
	})
}

// DeleteMessage removes one owned message; a foreign or unknown id reports
// not found without revealing which.
func (h *Handler) DeleteMessage(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	idStr := c.Query("id")
	if idStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message ID is required"})
		return
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message ID is required"})
		return
	}

	deleted, err := h.ChatSvc.DeleteMessage(c.Request.Context(), uid, id)
	if err != nil {
		log.Printf("delete message failed user_id=%d id=%d err=%v", uid, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "message not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Message deleted successfully"})
}
