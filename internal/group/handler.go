package group

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sebuszqo/ezwallet/internal/api"
	"github.com/sebuszqo/ezwallet/internal/auth"
	"github.com/sebuszqo/ezwallet/internal/logger"
)

type Handler struct {
	groupService Service
}

func NewHandler(groupService Service) *Handler {
	return &Handler{groupService: groupService}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidEmails),
		errors.Is(err, ErrGroupExists),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrNoMembers),
		errors.Is(err, ErrNoneAdded),
		errors.Is(err, ErrNoneRemoved),
		errors.Is(err, ErrLastMember):
		api.Message(w, http.StatusBadRequest, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("group request failed")
		api.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		return
	}

	var req struct {
		Name         string   `json:"name"`
		MemberEmails []string `json:"memberEmails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.groupService.CreateGroup(r.Context(), identity.Email, req.Name, req.MemberEmails)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, result)
}

func (h *Handler) HandleGetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupService.GetGroups(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, groups)
}

// memberOrAdmin loads the group of the path and lets members and admins through.
// Membership can only be checked once the group is loaded, so the policy is evaluated here
// rather than in the route guard.
func (h *Handler) memberOrAdmin(w http.ResponseWriter, r *http.Request) (*Group, bool) {
	group, err := h.groupService.GetGroup(r.Context(), r.PathValue("name"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return nil, false
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	decision := auth.AuthorizeAny(identity, auth.GroupPolicy(group.MemberEmails()), auth.AdminPolicy())
	if !decision.Allowed {
		api.Error(w, http.StatusUnauthorized, decision.Reason)
		return nil, false
	}
	return group, true
}

func (h *Handler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberOrAdmin(w, r)
	if !ok {
		return
	}
	api.Data(w, r, http.StatusOK, group)
}

type membersRequest struct {
	Emails []string `json:"emails"`
}

func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberOrAdmin(w, r)
	if !ok {
		return
	}
	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, _ := auth.IdentityFromContext(r.Context())
	result, err := h.groupService.AddMembers(r.Context(), identity.Username, group.Name, req.Emails)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, result)
}

func (h *Handler) HandleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	group, ok := h.memberOrAdmin(w, r)
	if !ok {
		return
	}
	var req membersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.groupService.RemoveMembers(r.Context(), group.Name, req.Emails)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, result)
}

func (h *Handler) HandleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.groupService.DeleteGroup(r.Context(), req.Name); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	api.Data(w, r, http.StatusOK, map[string]string{"message": "Group has been deleted"})
}
