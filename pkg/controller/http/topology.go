package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/utils/errutil"
)

type basketResponse struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Active      bool     `json:"active"`
	GroupIDs    []string `json:"groupIds"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func toBasketResponse(b *model.WorkBasket) basketResponse {
	groupIDs := make([]string, len(b.GroupIDs))
	for i, gid := range b.GroupIDs {
		groupIDs[i] = gid.String()
	}
	return basketResponse{
		ID:          b.ID.String(),
		Code:        b.Code,
		Name:        b.Name,
		Description: b.Description,
		Active:      b.Active,
		GroupIDs:    groupIDs,
		CreatedAt:   b.CreatedAt.Format(timeFormat),
		UpdatedAt:   b.UpdatedAt.Format(timeFormat),
	}
}

type groupResponse struct {
	ID            string   `json:"id"`
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	FaxSourced    bool     `json:"faxSourced"`
	PortalSourced bool     `json:"portalSourced"`
	Active        bool     `json:"active"`
	Members       []string `json:"members"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

func toGroupResponse(g *model.WorkGroup) groupResponse {
	members := make([]string, len(g.Members))
	for i, m := range g.Members {
		members[i] = m.String()
	}
	return groupResponse{
		ID:            g.ID.String(),
		Code:          g.Code,
		Name:          g.Name,
		Description:   g.Description,
		FaxSourced:    g.FaxSourced,
		PortalSourced: g.PortalSourced,
		Active:        g.Active,
		Members:       members,
		CreatedAt:     g.CreatedAt.Format(timeFormat),
		UpdatedAt:     g.UpdatedAt.Format(timeFormat),
	}
}

type basketRequest struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	GroupIDs    []string `json:"groupIds"`
	ActorID     string   `json:"actorId"`
}

func (req *basketRequest) groupIDs() []types.WorkGroupID {
	ids := make([]types.WorkGroupID, len(req.GroupIDs))
	for i, raw := range req.GroupIDs {
		ids[i] = types.WorkGroupID(raw)
	}
	return ids
}

func (s *Server) createBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req basketRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("code and name are required"), http.StatusBadRequest)
		return
	}

	created, err := s.uc.Topology.CreateBasket(ctx, types.UserID(req.ActorID),
		req.Code, req.Name, req.Description, req.groupIDs())
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toBasketResponse(created))
}

func (s *Server) listBaskets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	baskets, err := s.uc.Topology.ListBaskets(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]basketResponse, len(baskets))
	for i, b := range baskets {
		resp[i] = toBasketResponse(b)
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) getBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := s.uc.Topology.GetBasket(ctx, types.WorkBasketID(chi.URLParam(r, "id")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toBasketResponse(b))
}

func (s *Server) updateBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req basketRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("code and name are required"), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.Topology.UpdateBasket(ctx, types.UserID(req.ActorID),
		types.WorkBasketID(chi.URLParam(r, "id")),
		req.Code, req.Name, req.Description, req.groupIDs())
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toBasketResponse(updated))
}

func (s *Server) softDeleteBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Topology.SoftDeleteBasket(ctx, types.WorkBasketID(chi.URLParam(r, "id")), types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Topology.RestoreBasket(ctx, types.WorkBasketID(chi.URLParam(r, "id")), types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) purgeBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Topology.HardDeleteBasket(ctx, types.WorkBasketID(chi.URLParam(r, "id"))); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type groupRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	FaxSourced    bool   `json:"faxSourced"`
	PortalSourced bool   `json:"portalSourced"`
	ActorID       string `json:"actorId"`
}

func (s *Server) createGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("code and name are required"), http.StatusBadRequest)
		return
	}

	created, err := s.uc.Topology.CreateGroup(ctx, types.UserID(req.ActorID),
		req.Code, req.Name, req.Description, req.FaxSourced, req.PortalSourced)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toGroupResponse(created))
}

func (s *Server) listGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := s.uc.Topology.ListGroups(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]groupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toGroupResponse(g)
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) getGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	g, err := s.uc.Topology.GetGroup(ctx, types.WorkGroupID(chi.URLParam(r, "id")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toGroupResponse(g))
}

func (s *Server) updateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req groupRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Name == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("code and name are required"), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.Topology.UpdateGroup(ctx, types.UserID(req.ActorID),
		types.WorkGroupID(chi.URLParam(r, "id")),
		req.Code, req.Name, req.Description, req.FaxSourced, req.PortalSourced)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toGroupResponse(updated))
}

func (s *Server) softDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Topology.SoftDeleteGroup(ctx, types.WorkGroupID(chi.URLParam(r, "id")), types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Topology.RestoreGroup(ctx, types.WorkGroupID(chi.URLParam(r, "id")), types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) purgeGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.uc.Topology.HardDeleteGroup(ctx, types.WorkGroupID(chi.URLParam(r, "id"))); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listGroupMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	members, err := s.uc.Topology.ResolveEligibleUsers(ctx, types.WorkGroupID(chi.URLParam(r, "id")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]string, len(members))
	for i, m := range members {
		resp[i] = m.String()
	}
	respondJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) addGroupMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.Topology.AddGroupMember(ctx, types.UserID(actor),
		types.WorkGroupID(chi.URLParam(r, "id")),
		types.UserID(chi.URLParam(r, "userID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toGroupResponse(updated))
}

func (s *Server) removeGroupMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	updated, err := s.uc.Topology.RemoveGroupMember(ctx, types.UserID(actor),
		types.WorkGroupID(chi.URLParam(r, "id")),
		types.UserID(chi.URLParam(r, "userID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toGroupResponse(updated))
}
