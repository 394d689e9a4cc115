package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pagesmith-backend/internal/chat"
)

type generateReq struct {
	Messages []chat.Turn `json:"messages"`
}

// Generate relays one chat turn as a chunked plain-text stream. The
// concatenated body is the complete assistant turn; the service persists the
// same bytes after the stream ends.
func (h *Handler) Generate(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messages are required"})
		return
	}
	switch chat.ValidateTurns(req.Messages) {
	case nil:
	case chat.ErrEmptyTurns:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messages are required"})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Last message must be from user"})
		return
	}

	flusher, okk := c.Writer.(http.Flusher)
	if !okk {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	// the saved channel is for tests; the response must not wait on persistence
	chunks, _, errs := h.ChatSvc.GenerateStream(c.Request.Context(), uid, req.Messages)

	clientGone := c.Request.Context().Done()
	forwarding := true
	wrote := false

	writeChunk := func(chunk string) {
		if !wrote {
			// headers are committed lazily so an early failure can still
			// answer with a JSON error and a real status code
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
			c.Status(http.StatusOK)
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			forwarding = false
			return
		}
		flusher.Flush()
		wrote = true
	}

	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// the relay buffers its error before closing the stream, so
				// a failed generation is visible here without blocking
				select {
				case err, live := <-errs:
					if live && err != nil && !wrote {
						c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
						return
					}
				default:
				}
				// stream ended; persistence (if any) proceeds in the background
				return
			}
			if forwarding {
				writeChunk(chunk)
			}

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err == nil {
				continue
			}
			if !wrote {
				// failed outright: discard any buffered chunks, answer with
				// a real status code instead of a partial body
				for range chunks {
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
				return
			}
			// mid-stream failure: flush what arrived before the error, then
			// the truncated body is all we can say
			for chunk := range chunks {
				if forwarding {
					writeChunk(chunk)
				}
			}
			return

		case <-clientGone:
			// generation continues server-side; stop writing but keep
			// draining so the relay never blocks
			forwarding = false
			clientGone = nil
		}
	}
}
