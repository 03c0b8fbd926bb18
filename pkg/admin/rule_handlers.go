package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fakegate/fakegate/internal/storage"
	"github.com/fakegate/fakegate/pkg/httputil"
	"github.com/fakegate/fakegate/pkg/rule"
)

func (a *AdminAPI) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]string{
		"status":  "ok",
		"version": a.version,
	})
}

func (a *AdminAPI) handleListRules(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, map[string]any{
		"rules": a.rules.List(),
		"count": a.rules.Count(),
	})
}

func (a *AdminAPI) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", "request body is not valid JSON")
		return
	}

	req.ID = ""
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteBadRequest(w, "invalid_rule", err.Error())
		return
	}

	if err := a.rules.Add(&req); err != nil {
		if errors.Is(err, storage.ErrDuplicateRule) {
			httputil.WriteConflict(w, "duplicate_rule", err.Error())
			return
		}
		httputil.WriteInternalError(w, "store_error", err.Error())
		return
	}

	a.log.Info("rule created", "id", req.ID, "baseUrl", req.BaseURL, "path", req.Path)
	httputil.WriteCreated(w, &req)
}

func (a *AdminAPI) handleGetRule(w http.ResponseWriter, r *http.Request) {
	found := a.rules.Get(r.PathValue("id"))
	if found == nil {
		httputil.WriteNotFound(w, "rule_not_found", "no rule with that id")
		return
	}
	httputil.WriteOK(w, found)
}

func (a *AdminAPI) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var req rule.Rule
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", "request body is not valid JSON")
		return
	}

	req.ID = r.PathValue("id")
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteBadRequest(w, "invalid_rule", err.Error())
		return
	}

	if err := a.rules.Update(&req); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httputil.WriteNotFound(w, "rule_not_found", "no rule with that id")
		case errors.Is(err, storage.ErrDuplicateRule):
			httputil.WriteConflict(w, "duplicate_rule", err.Error())
		default:
			httputil.WriteInternalError(w, "store_error", err.Error())
		}
		return
	}

	a.log.Info("rule updated", "id", req.ID)
	httputil.WriteOK(w, &req)
}

func (a *AdminAPI) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !a.rules.Delete(id) {
		httputil.WriteNotFound(w, "rule_not_found", "no rule with that id")
		return
	}
	a.log.Info("rule deleted", "id", id)
	httputil.WriteNoContent(w)
}

func (a *AdminAPI) handleActivateResponse(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	name := r.PathValue("name")

	updated, err := a.rules.ActivateResponse(id, name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httputil.WriteNotFound(w, "rule_not_found", "no rule with that id")
		case errors.Is(err, storage.ErrVariantNotFound):
			httputil.WriteNotFound(w, "response_not_found", "no response variant with that name")
		default:
			httputil.WriteInternalError(w, "store_error", err.Error())
		}
		return
	}

	a.log.Info("response variant activated", "rule", id, "variant", name)
	httputil.WriteOK(w, updated)
}
