package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/quest"
)

var errBadRequest = errors.New("api: bad request")

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

type combatResponse struct {
	Events  []combat.Event  `json:"events"`
	Session *combat.Session `json:"session,omitempty"`
}

func (h *Handler) combatReply(w http.ResponseWriter, status int, events []combat.Event, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	sess, _ := h.svc.Combat()
	writeJSON(w, status, combatResponse{Events: events, Session: sess})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Character())
}

func (h *Handler) handleAddExperience(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int `json:"amount"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	events, err := h.svc.AddExperience(r.Context(), body.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "character": h.svc.Character()})
}

func (h *Handler) handleStat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var err error
	if vars["op"] == "allocate" {
		err = h.svc.AllocateStat(r.Context(), vars["stat"])
	} else {
		err = h.svc.DeallocateStat(r.Context(), vars["stat"])
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Character())
}

func (h *Handler) handleListQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Quests())
}

func (h *Handler) handleAddQuest(w http.ResponseWriter, r *http.Request) {
	var d quest.Draft
	if err := decode(r, &d); err != nil {
		h.writeError(w, err)
		return
	}
	q, err := h.svc.AddQuest(r.Context(), d)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handler) handleDraftQuest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Task string `json:"task"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	d, err := h.svc.DraftQuest(r.Context(), body.Task)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleUpdateQuest(w http.ResponseWriter, r *http.Request) {
	var p quest.Patch
	if err := decode(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	q, err := h.svc.UpdateQuest(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleDeleteQuest(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteQuest(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCompleteQuest(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.CompleteQuest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleQuestProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Progress int `json:"progress"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	q, err := h.svc.UpdateQuestProgress(r.Context(), mux.Vars(r)["id"], body.Progress)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) handleListInventory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Inventory())
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var spec inventory.ItemSpec
	if err := decode(r, &spec); err != nil {
		h.writeError(w, err)
		return
	}
	stack, err := h.svc.AddItem(r.Context(), spec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stack)
}

func (h *Handler) handleUseItem(w http.ResponseWriter, r *http.Request) {
	eff, err := h.svc.UseItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"effect": eff.Kind.String(), "character": h.svc.Character()})
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	qty := 1
	if q := r.URL.Query().Get("quantity"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: quantity %q", errBadRequest, q))
			return
		}
		qty = n
	}
	if err := h.svc.RemoveItem(r.Context(), mux.Vars(r)["id"], qty); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListEnemies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Enemies())
}

func (h *Handler) handleListSkills(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Skills())
}

func (h *Handler) handleGetCombat(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.svc.Combat()
	if !ok {
		h.writeError(w, combat.ErrNotInCombat)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleStartCombat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EnemyID string `json:"enemyId"`
	}
	if err := decode(r, &body); err != nil {
		h.writeError(w, err)
		return
	}
	events, err := h.svc.StartCombat(r.Context(), body.EnemyID)
	h.combatReply(w, http.StatusCreated, events, err)
}

func (h *Handler) handleCombatAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		events []combat.Event
		err    error
	)
	switch action := mux.Vars(r)["action"]; action {
	case "attack":
		events, err = h.svc.Attack(ctx)
	case "defend":
		events, err = h.svc.Defend(ctx)
	case "flee":
		events, err = h.svc.Flee(ctx)
	case "enemy-turn":
		events, err = h.svc.ResolveEnemyTurn(ctx)
	case "skill", "item":
		var body struct {
			Name string `json:"name"`
			ID   string `json:"id"`
		}
		if err = decode(r, &body); err != nil {
			break
		}
		if action == "skill" {
			events, err = h.svc.UseSkill(ctx, body.Name)
		} else {
			events, err = h.svc.UseCombatItem(ctx, body.ID)
		}
	default:
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("unknown combat action %q", action)})
		return
	}
	h.combatReply(w, http.StatusOK, events, err)
}

func (h *Handler) handleClaimRewards(w http.ResponseWriter, r *http.Request) {
	rewards, events, err := h.svc.ClaimRewards(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": rewards, "events": events})
}
