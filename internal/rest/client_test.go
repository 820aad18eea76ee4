package rest

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const sessionCookie = "wirechat_session"

// startFakeServer wires a minimal gin rendition of the server's REST
// contract: cookie session, 401 everywhere without it.
func startFakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.POST("/auth/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Password != "secret" {
			c.JSON(stdhttp.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.SetCookie(sessionCookie, "session-1", 3600, "/", "", false, true)
		c.Status(stdhttp.StatusNoContent)
	})

	authed := router.Group("/", func(c *gin.Context) {
		if cookie, err := c.Cookie(sessionCookie); err != nil || cookie == "" {
			c.AbortWithStatusJSON(stdhttp.StatusUnauthorized, gin.H{"error": "unauthorized"})
		}
	})

	authed.POST("/auth/logout", func(c *gin.Context) {
		c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
		c.Status(stdhttp.StatusNoContent)
	})
	authed.GET("/auth/me", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{"id": "u1", "name": "alice", "email": "alice@example.com"})
	})
	authed.GET("/channels", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, []gin.H{
			{"id": "c1", "name": "general", "is_private": false},
			{"id": "c2", "name": "ops", "is_private": true},
		})
	})
	authed.GET("/users/", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, []gin.H{
			{"id": "u1", "name": "alice"},
			{"id": "u2", "name": "bob"},
		})
	})
	authed.GET("/dms/recipients", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, []gin.H{
			{"id": "u2", "name": "bob"},
		})
	})
	authed.POST("/dms/:userId", func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, gin.H{
			"id":         "dm-" + c.Param("userId"),
			"name":       "dm",
			"is_private": true,
		})
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server) *Client {
	t.Helper()

	logger := zerolog.Nop()
	client, err := New(ts.URL, &logger)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLoginAndMe(t *testing.T) {
	ts := startFakeServer(t)
	client := newTestClient(t, ts)
	ctx := context.Background()

	if err := client.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	me, err := client.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != "u1" || me.Name != "alice" {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestBadCredentials(t *testing.T) {
	ts := startFakeServer(t)
	client := newTestClient(t, ts)

	err := client.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestUnauthenticatedRequestsMapTo401Sentinel(t *testing.T) {
	ts := startFakeServer(t)
	client := newTestClient(t, ts)
	ctx := context.Background()

	if _, err := client.Me(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("me: expected ErrUnauthorized, got %v", err)
	}
	if _, err := client.Channels(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("channels: expected ErrUnauthorized, got %v", err)
	}
}

func TestChannelsAndDirectMessages(t *testing.T) {
	ts := startFakeServer(t)
	client := newTestClient(t, ts)
	ctx := context.Background()

	if err := client.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}

	channels, err := client.Channels(ctx)
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ID != "c1" || channels[0].Private {
		t.Fatalf("unexpected first channel: %+v", channels[0])
	}
	if channels[1].ID != "c2" || !channels[1].Private {
		t.Fatalf("unexpected second channel: %+v", channels[1])
	}

	recipients, err := client.DMRecipients(ctx)
	if err != nil {
		t.Fatalf("dm recipients: %v", err)
	}
	if len(recipients) != 1 || recipients[0].ID != "u2" {
		t.Fatalf("unexpected recipients: %+v", recipients)
	}

	dm, err := client.OpenDM(ctx, recipients[0].ID)
	if err != nil {
		t.Fatalf("open dm: %v", err)
	}
	if dm.ID != "dm-u2" || !dm.Private {
		t.Fatalf("unexpected dm channel: %+v", dm)
	}
}

func TestLogoutDropsSession(t *testing.T) {
	ts := startFakeServer(t)
	client := newTestClient(t, ts)
	ctx := context.Background()

	if err := client.Login(ctx, "alice@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := client.Me(ctx); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}
