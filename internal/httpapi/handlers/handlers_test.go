package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pagesmith-backend/internal/ai"
	"pagesmith-backend/internal/chat"
	"pagesmith-backend/internal/config"
	"pagesmith-backend/internal/httpapi/middleware"
	"pagesmith-backend/internal/models"
)

type scriptedProvider struct {
	chunks []string
	err    error
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	return "", p.err
}

func (p *scriptedProvider) StreamChat(ctx context.Context, messages []ai.Message) (<-chan string, <-chan error) {
	out := make(chan string, len(p.chunks))
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, c := range p.chunks {
			out <- c
		}
		if p.err != nil {
			errs <- p.err
		}
	}()
	return out, errs
}

func newTestRouter(t *testing.T, prov ai.Provider) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(gormsqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}, &chat.Message{}))

	cfg := config.Config{JWTSecret: "test-secret"}
	h := &Handler{
		DB:      gdb,
		Cfg:     cfg,
		ChatSvc: chat.NewService(chat.NewRepo(gdb), prov, nil, nil, nil),
	}

	r := gin.New()
	r.POST("/api/auth/signup", h.Signup)
	r.POST("/api/auth/signin", h.Signin)
	authGroup := r.Group("/api")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)
	authGroup.POST("/chat", h.Generate)
	authGroup.GET("/messages", h.ListMessages)
	authGroup.DELETE("/messages", h.DeleteMessage)
	return r, gdb
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupAndSignin(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/auth/signup", "", gin.H{"email": email, "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/auth/signin", "", gin.H{"email": email, "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestSignup(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedProvider{})

	w := doJSON(r, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "a@example.com", "password": "pw123456"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Message string `json:"message"`
		User    struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "User created successfully", resp.Message)
	assert.Equal(t, "a@example.com", resp.User.Email)
	assert.NotZero(t, resp.User.ID)

	// duplicate email
	w = doJSON(r, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "a@example.com", "password": "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// missing fields
	w = doJSON(r, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "b@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// not an email
	w = doJSON(r, http.MethodPost, "/api/auth/signup", "", gin.H{"email": "nope", "password": "pw123456"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSigninAndMe(t *testing.T) {
	r, _ := newTestRouter(t, &scriptedProvider{})
	token := signupAndSignin(t, r, "c@example.com")

	w := doJSON(r, http.MethodPost, "/api/auth/signin", "", gin.H{"email": "c@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "c@example.com")

	w = doJSON(r, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerate_AuthAndValidation(t *testing.T) {
	r, gdb := newTestRouter(t, &scriptedProvider{chunks: []string{"x"}})
	token := signupAndSignin(t, r, "d@example.com")

	countRows := func() int64 {
		var n int64
		require.NoError(t, gdb.Model(&chat.Message{}).Count(&n).Error)
		return n
	}

	// no session: 401, no writes
	w := doJSON(r, http.MethodPost, "/api/chat", "", gin.H{"messages": []chat.Turn{{Role: "user", Content: "x"}}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, countRows())

	// empty turn list: 400, no writes
	w = doJSON(r, http.MethodPost, "/api/chat", token, gin.H{"messages": []chat.Turn{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, countRows())

	// last turn from the assistant: 400, no writes
	w = doJSON(r, http.MethodPost, "/api/chat", token, gin.H{"messages": []chat.Turn{
		{Role: "user", Content: "a"},
		{Role: "assistant", Content: "b"},
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, countRows())
}

func TestGenerate_StreamsAndPersists(t *testing.T) {
	r, gdb := newTestRouter(t, &scriptedProvider{chunks: []string{"<html>", "<body></body>", "</html>"}})
	token := signupAndSignin(t, r, "e@example.com")

	w := doJSON(r, http.MethodPost, "/api/chat", token, gin.H{"messages": []chat.Turn{
		{Role: "user", Content: "blank page"},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html><body></body></html>", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	// persistence is fire and forget; wait for it
	assert.Eventually(t, func() bool {
		var m chat.Message
		if err := gdb.Where("prompt = ?", "blank page").First(&m).Error; err != nil {
			return false
		}
		return m.Response == "<html><body></body></html>"
	}, 5*time.Second, 10*time.Millisecond, "response row never updated")

	var n int64
	require.NoError(t, gdb.Model(&chat.Message{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestGenerate_ProviderFailureBeforeFirstByte(t *testing.T) {
	r, gdb := newTestRouter(t, &scriptedProvider{err: fmt.Errorf("upstream down")})
	token := signupAndSignin(t, r, "f@example.com")

	w := doJSON(r, http.MethodPost, "/api/chat", token, gin.H{"messages": []chat.Turn{
		{Role: "user", Content: "navbar"},
	}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "generation failed")

	// the row from generation start remains, permanently empty
	var m chat.Message
	require.NoError(t, gdb.Where("prompt = ?", "navbar").First(&m).Error)
	assert.Empty(t, m.Response)
}

func TestMessagesListAndDelete(t *testing.T) {
	r, gdb := newTestRouter(t, &scriptedProvider{})
	token := signupAndSignin(t, r, "g@example.com")
	otherToken := signupAndSignin(t, r, "h@example.com")

	var me models.User
	require.NoError(t, gdb.Where("email = ?", "g@example.com").First(&me).Error)

	for i := 0; i < 25; i++ {
		require.NoError(t, gdb.Create(&chat.Message{
			UserID:    me.ID,
			Prompt:    fmt.Sprintf("navbar idea %02d", i),
			Response:  "<html></html>",
			CreatedAt: time.Now().Add(-time.Duration(25-i) * time.Minute),
		}).Error)
	}

	w := doJSON(r, http.MethodGet, "/api/messages?search=navbar&page=2&limit=10", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success    bool           `json:"success"`
		Messages   []chat.Message `json:"messages"`
		Pagination struct {
			Page    int   `json:"page"`
			Limit   int   `json:"limit"`
			Total   int64 `json:"total"`
			HasMore bool  `json:"hasMore"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Messages, 10)
	assert.EqualValues(t, 25, resp.Pagination.Total)
	assert.True(t, resp.Pagination.HasMore)
	assert.Equal(t, 2, resp.Pagination.Page)

	// delete with someone else's credentials: not found, row stays
	target := resp.Messages[0].ID
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/messages?id=%d", target), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	var still chat.Message
	assert.NoError(t, gdb.First(&still, target).Error)

	// owner delete succeeds
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/messages?id=%d", target), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.ErrorIs(t, gdb.First(&still, target).Error, gorm.ErrRecordNotFound)

	// missing id
	w = doJSON(r, http.MethodDelete, "/api/messages", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
