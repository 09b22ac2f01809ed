package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/AdamBeresnev/arena-manager/internal/bracket"
	"github.com/AdamBeresnev/arena-manager/internal/httputil"
	"github.com/AdamBeresnev/arena-manager/internal/middleware"
	"github.com/AdamBeresnev/arena-manager/internal/realtime"
	"github.com/AdamBeresnev/arena-manager/internal/service"
	"github.com/AdamBeresnev/arena-manager/internal/sweep"
	"github.com/AdamBeresnev/arena-manager/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

// Sweeper runs the billing jobs behind the /functions endpoints.
type Sweeper interface {
	RunOverdue(ctx context.Context) (sweep.Summary, error)
	RunReminders(ctx context.Context) (sweep.Summary, error)
}

type app struct {
	sessionManager *scs.SessionManager
	users          *service.UserService
	tournaments    *service.TournamentService
	registrations  *service.RegistrationService
	brackets       *service.BracketService
	matches        *service.MatchService
	sweeper        Sweeper
	hub            *realtime.Hub
	cronSecret     string
	allowedOrigins []string
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Scheduled jobs authenticate with the shared secret, not a session
	r.Route("/functions", func(r chi.Router) {
		r.Use(a.requireCronSecret)
		r.Post("/overdue-sweep", a.runSweep(a.sweeper.RunOverdue))
		r.Post("/reminder-sweep", a.runSweep(a.sweeper.RunReminders))
	})

	// Websocket upgrades need the raw connection, so the session is only read
	r.Group(func(r chi.Router) {
		r.Use(middleware.LoadSessionReadOnly(a.sessionManager))
		r.Use(middleware.LoadSession(a.sessionManager, a.users))
		r.Use(middleware.RequireAuth)
		r.Get("/ws/tournaments/{id}", a.serveWs)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.sessionManager.LoadAndSave)
		r.Use(middleware.LoadSession(a.sessionManager, a.users))

		fileServer := http.FileServer(http.Dir("./static"))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

		r.Get("/login", func(w http.ResponseWriter, r *http.Request) {
			if err := views.Render(w, r, views.LoginPage()); err != nil {
				httputil.InternalServerError(w, "Failed to render login page", err)
			}
		})
		r.Get("/auth/{provider}", a.beginAuth)
		r.Get("/auth/{provider}/callback", a.completeAuth)
		r.Post("/logout", a.logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/api/tournaments", http.StatusFound)
			})
			r.Post("/session/arena", a.selectArena)
			r.Get("/tournaments/{id}", a.tournamentPage)
		})

		// Preflight requests carry no cookies, so CORS answers them before the auth check
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   a.allowedOrigins,
				AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Use(middleware.RequireAuth)

			r.Get("/tournaments", a.listTournaments)
			r.Post("/tournaments", a.createTournament)
			r.Get("/tournaments/{id}", a.getTournament)
			r.Patch("/tournaments/{id}/status", a.updateTournamentStatus)
			r.Post("/tournaments/{id}/registrations", a.register)
			r.Get("/tournaments/{id}/registrations/paid", a.listPaidRegistrations)
			r.Post("/tournaments/{id}/bracket", a.generateBracket)
			r.Patch("/registrations/{id}/payment", a.updatePayment)
			r.Post("/matches/{id}/score", a.recordScore)
			r.Patch("/matches/{id}/schedule", a.scheduleMatch)
		})
	})

	return r
}

func urlID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := httputil.DecodeJSON(w, r, v); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (a *app) requireCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.cronSecret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.cronSecret)) != 1 {
			httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *app) runSweep(run func(context.Context) (sweep.Summary, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := run(r.Context())
		if err != nil {
			summary.Success = false
			httputil.WriteJSON(w, http.StatusInternalServerError, summary)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, summary)
	}
}

func (a *app) beginAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))
	gothic.BeginAuthHandler(w, r)
}

func (a *app) completeAuth(w http.ResponseWriter, r *http.Request) {
	r = gothic.GetContextWithProvider(r, chi.URLParam(r, "provider"))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := a.users.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	if err := a.sessionManager.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	a.sessionManager.Put(r.Context(), middleware.SessionUserIDKey, user.ID.String())

	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessionManager.Destroy(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to destroy session", err)
		return
	}
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (a *app) selectArena(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ArenaID uuid.UUID `json:"arena_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	sess := middleware.SessionFrom(r.Context())
	memberships, err := a.users.GetMemberships(r.Context(), sess)
	if err != nil {
		httputil.Error(w, "Failed to get memberships", err)
		return
	}
	for _, m := range memberships {
		if m.ArenaID == body.ArenaID {
			a.sessionManager.Put(r.Context(), middleware.SessionArenaIDKey, body.ArenaID.String())
			httputil.WriteJSON(w, http.StatusOK, m)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "not a member of this arena"})
}

func (a *app) tournamentPage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}

	data, err := a.tournaments.GetTournamentData(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		if httputil.StatusFor(err) == http.StatusNotFound {
			httputil.NotFound(w, "Torneio não encontrado", err)
			return
		}
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	if err := views.Render(w, r, views.TournamentView(data.Tournament, data.Registrations, data.Matches, data.NextMatchID)); err != nil {
		httputil.InternalServerError(w, "Failed to render tournament", err)
	}
}

func (a *app) serveWs(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	if _, err := a.tournaments.GetTournament(r.Context(), middleware.SessionFrom(r.Context()), id); err != nil {
		httputil.Error(w, "Failed to authorize change feed", err)
		return
	}
	a.hub.ServeWs(w, r, id)
}

func (a *app) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := a.tournaments.ListTournaments(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		httputil.Error(w, "Failed to list tournaments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournaments)
}

func (a *app) createTournament(w http.ResponseWriter, r *http.Request) {
	var in service.TournamentInput
	if !decode(w, r, &in) {
		return
	}
	tournament, err := a.tournaments.CreateTournament(r.Context(), middleware.SessionFrom(r.Context()), in)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, tournament)
}

func (a *app) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	data, err := a.tournaments.GetTournamentData(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (a *app) updateTournamentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body struct {
		Status bracket.TournamentStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	tournament, err := a.tournaments.UpdateStatus(r.Context(), middleware.SessionFrom(r.Context()), id, body.Status)
	if err != nil {
		httputil.Error(w, "Failed to update tournament status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tournament)
}

func (a *app) register(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var in service.RegistrationInput
	if !decode(w, r, &in) {
		return
	}
	registration, err := a.registrations.Register(r.Context(), middleware.SessionFrom(r.Context()), id, in)
	if err != nil {
		httputil.Error(w, "Failed to register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registration)
}

func (a *app) listPaidRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	registrations, err := a.registrations.ListPaidRegistrations(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		httputil.Error(w, "Failed to list paid registrations", err)
		return
	}
	if registrations == nil {
		registrations = []bracket.Registration{}
	}
	httputil.WriteJSON(w, http.StatusOK, registrations)
}

func (a *app) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body struct {
		PaymentStatus bracket.PaymentStatus `json:"payment_status"`
	}
	if !decode(w, r, &body) {
		return
	}
	registration, err := a.registrations.UpdatePaymentStatus(r.Context(), middleware.SessionFrom(r.Context()), id, body.PaymentStatus)
	if err != nil {
		httputil.Error(w, "Failed to update payment status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, registration)
}

func (a *app) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	matches, err := a.brackets.GenerateBracket(r.Context(), middleware.SessionFrom(r.Context()), id)
	if err != nil {
		httputil.Error(w, "Failed to generate bracket", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, matches)
}

func (a *app) recordScore(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body struct {
		Score1 *int `json:"score_1"`
		Score2 *int `json:"score_2"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Score1 == nil || body.Score2 == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "score_1 and score_2 are required"})
		return
	}
	result, err := a.matches.RecordScore(r.Context(), middleware.SessionFrom(r.Context()), id, *body.Score1, *body.Score2)
	if err != nil {
		httputil.Error(w, "Failed to record score", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (a *app) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r)
	if !ok {
		return
	}
	var body struct {
		Court       string     `json:"court"`
		ScheduledAt *time.Time `json:"scheduled_at"`
	}
	if !decode(w, r, &body) {
		return
	}
	match, err := a.matches.ScheduleMatch(r.Context(), middleware.SessionFrom(r.Context()), id, body.Court, body.ScheduledAt)
	if err != nil {
		httputil.Error(w, "Failed to schedule match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}
