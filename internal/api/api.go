// Package api exposes the session service over a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
	"github.com/cory-johannsen/levelup/internal/game/quest"
	"github.com/cory-johannsen/levelup/internal/game/session"
	"github.com/cory-johannsen/levelup/internal/questgen"
)

// Service is the session surface the API drives.
type Service interface {
	Character() *character.Character
	AllocateStat(ctx context.Context, stat string) error
	DeallocateStat(ctx context.Context, stat string) error
	AddExperience(ctx context.Context, amount int) ([]progression.Event, error)
	Quests() []quest.Quest
	AddQuest(ctx context.Context, d quest.Draft) (quest.Quest, error)
	UpdateQuest(ctx context.Context, id string, p quest.Patch) (quest.Quest, error)
	UpdateQuestProgress(ctx context.Context, id string, progress int) (quest.Quest, error)
	DeleteQuest(ctx context.Context, id string) error
	CompleteQuest(ctx context.Context, id string) (progression.Result, error)
	DraftQuest(ctx context.Context, task string) (quest.Draft, error)
	Inventory() inventory.Inventory
	AddItem(ctx context.Context, spec inventory.ItemSpec) (inventory.ItemStack, error)
	RemoveItem(ctx context.Context, id string, quantity int) error
	UseItem(ctx context.Context, id string) (inventory.Effect, error)
	Enemies() []*enemy.Enemy
	Skills() []*combat.Skill
	Combat() (*combat.Session, bool)
	StartCombat(ctx context.Context, enemyID string) ([]combat.Event, error)
	Attack(ctx context.Context) ([]combat.Event, error)
	Defend(ctx context.Context) ([]combat.Event, error)
	Flee(ctx context.Context) ([]combat.Event, error)
	UseSkill(ctx context.Context, name string) ([]combat.Event, error)
	UseCombatItem(ctx context.Context, id string) ([]combat.Event, error)
	ResolveEnemyTurn(ctx context.Context) ([]combat.Event, error)
	ClaimRewards(ctx context.Context) (character.Rewards, []progression.Event, error)
}

// Handler routes HTTP requests to a Service.
type Handler struct {
	svc    Service
	router *mux.Router
	logger *zap.Logger
}

// NewHandler builds the router.
//
// Precondition: svc and logger must be non-nil.
func NewHandler(svc Service, allowedOrigins []string, logger *zap.Logger) *Handler {
	if svc == nil || logger == nil {
		panic("api.NewHandler: svc and logger must not be nil")
	}
	h := &Handler{svc: svc, router: mux.NewRouter(), logger: logger}
	h.routes(allowedOrigins)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes(allowedOrigins []string) {
	h.router.Use(h.logRequests, corsMiddleware(allowedOrigins))
	h.router.HandleFunc("/health", h.handleHealth).Methods("GET", "OPTIONS")

	api := h.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/character", h.handleGetCharacter).Methods("GET", "OPTIONS")
	api.HandleFunc("/character/experience", h.handleAddExperience).Methods("POST", "OPTIONS")
	api.HandleFunc("/character/stats/{stat}/{op:allocate|deallocate}", h.handleStat).Methods("POST", "OPTIONS")

	api.HandleFunc("/quests", h.handleListQuests).Methods("GET", "OPTIONS")
	api.HandleFunc("/quests", h.handleAddQuest).Methods("POST", "OPTIONS")
	api.HandleFunc("/quests/draft", h.handleDraftQuest).Methods("POST", "OPTIONS")
	api.HandleFunc("/quests/{id}", h.handleUpdateQuest).Methods("PATCH", "OPTIONS")
	api.HandleFunc("/quests/{id}", h.handleDeleteQuest).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/quests/{id}/complete", h.handleCompleteQuest).Methods("POST", "OPTIONS")
	api.HandleFunc("/quests/{id}/progress", h.handleQuestProgress).Methods("POST", "OPTIONS")

	api.HandleFunc("/inventory", h.handleListInventory).Methods("GET", "OPTIONS")
	api.HandleFunc("/inventory", h.handleAddItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/inventory/{id}/use", h.handleUseItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/inventory/{id}", h.handleRemoveItem).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/enemies", h.handleListEnemies).Methods("GET", "OPTIONS")
	api.HandleFunc("/skills", h.handleListSkills).Methods("GET", "OPTIONS")
	api.HandleFunc("/combat", h.handleGetCombat).Methods("GET", "OPTIONS")
	api.HandleFunc("/combat", h.handleStartCombat).Methods("POST", "OPTIONS")
	api.HandleFunc("/combat/{action}", h.handleCombatAction).Methods("POST", "OPTIONS")
	api.HandleFunc("/rewards/claim", h.handleClaimRewards).Methods("POST", "OPTIONS")
}

// corsMiddleware allows browser clients from allowedOrigins.
func corsMiddleware(allowedOrigins []string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
					break
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, progression.ErrQuestNotFound),
		errors.Is(err, enemy.ErrUnknownEnemy),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, combat.ErrUnknownSkill):
		return http.StatusNotFound
	case errors.Is(err, combat.ErrNotInCombat),
		errors.Is(err, combat.ErrAlreadyInCombat),
		errors.Is(err, combat.ErrNotPlayerTurn),
		errors.Is(err, combat.ErrNotEnemyTurn),
		errors.Is(err, combat.ErrCombatOver),
		errors.Is(err, combat.ErrRewardsPending),
		errors.Is(err, combat.ErrNoPendingRewards),
		errors.Is(err, session.ErrInCombat),
		errors.Is(err, progression.ErrQuestCompleted):
		return http.StatusConflict
	case errors.Is(err, combat.ErrInsufficientMP),
		errors.Is(err, combat.ErrSkillOnCooldown),
		errors.Is(err, combat.ErrSkillLocked),
		errors.Is(err, inventory.ErrNotConsumable),
		errors.Is(err, inventory.ErrUnknownEffect),
		errors.Is(err, inventory.ErrInvalidItemSpec),
		errors.Is(err, session.ErrNoStatPoints),
		errors.Is(err, session.ErrStatAtBase),
		errors.Is(err, session.ErrInvalidAmount),
		errors.Is(err, character.ErrUnknownStat),
		errors.Is(err, quest.ErrInvalidDraft),
		errors.Is(err, questgen.ErrEmptyInput),
		errors.Is(err, errBadRequest):
		return http.StatusUnprocessableEntity
	case errors.Is(err, questgen.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, questgen.ErrBadResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
