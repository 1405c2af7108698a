package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"skillswap-backend/internal/api/handlers"
	"skillswap-backend/internal/api/identity"
	"skillswap-backend/internal/ws"
)

type Dependencies struct {
	UserHandler      *handlers.UserHandler
	BarterHandler    *handlers.BarterHandler
	ChatHandler      *handlers.ChatHandler
	ReviewHandler    *handlers.ReviewHandler
	CommunityHandler *handlers.CommunityHandler
	AdminHandler     *handlers.AdminHandler
	WSManager        *ws.Manager
}

func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	// CORS for the browser frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-User-ID, X-User-Role")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"skillswap-backend"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Registration is the only call without an identity.
		r.Post("/users", deps.UserHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware)

			// Profiles and matching
			r.Get("/users", deps.UserHandler.Search)
			r.Get("/users/me", deps.UserHandler.Me)
			r.Put("/users/me", deps.UserHandler.UpdateMe)
			r.Get("/users/{userID}", deps.UserHandler.GetByID)
			r.Get("/matches", deps.UserHandler.Matches)

			// Barter sessions
			r.Post("/barters", deps.BarterHandler.Propose)
			r.Get("/barters", deps.BarterHandler.List)
			r.Get("/barters/{sessionID}", deps.BarterHandler.Get)
			r.Post("/barters/{sessionID}/accept", deps.BarterHandler.Accept)
			r.Post("/barters/{sessionID}/reject", deps.BarterHandler.Reject)
			r.Post("/barters/{sessionID}/complete", deps.BarterHandler.Complete)

			// Messaging; conversations and unread counts are poll endpoints
			r.Post("/messages", deps.ChatHandler.SendMessage)
			r.Put("/messages/{messageID}", deps.ChatHandler.EditMessage)
			r.Delete("/messages/{messageID}", deps.ChatHandler.DeleteMessage)
			r.Get("/messages/unread-count", deps.ChatHandler.UnreadCount)
			r.Get("/conversations", deps.ChatHandler.ListConversations)
			r.Get("/conversations/{partnerID}/messages", deps.ChatHandler.History)
			r.Post("/conversations/{partnerID}/read", deps.ChatHandler.MarkRead)

			// Reviews
			r.Post("/reviews", deps.ReviewHandler.Submit)
			r.Get("/users/{userID}/reviews", deps.ReviewHandler.ListForUser)

			// Communities
			r.Post("/communities", deps.CommunityHandler.Create)
			r.Get("/communities", deps.CommunityHandler.List)
			r.Get("/communities/{communityID}", deps.CommunityHandler.Get)
			r.Post("/communities/{communityID}/join", deps.CommunityHandler.Join)
			r.Post("/communities/{communityID}/leave", deps.CommunityHandler.Leave)

			// Moderation
			r.Post("/users/{userID}/report", deps.AdminHandler.Report)
			r.Route("/admin", func(r chi.Router) {
				r.Use(identity.RequireAdmin)
				r.Get("/reported", deps.AdminHandler.ListReported)
				r.Post("/users/{userID}/block", deps.AdminHandler.Block)
				r.Post("/users/{userID}/unblock", deps.AdminHandler.Unblock)
				r.Post("/users/{userID}/verify", deps.AdminHandler.Verify)
				r.Delete("/users/{userID}", deps.AdminHandler.DeleteUser)
			})
		})
	})

	// WebSocket nudge channel
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware)
		r.Get("/ws", deps.WSManager.HandleUserWebSocket)
	})

	return r
}
