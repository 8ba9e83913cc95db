package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/model"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/usecase"
	"github.com/caseops/workbasket/pkg/utils/errutil"
)

type activityResponse struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	CaseID      int64   `json:"caseId,omitempty"`
	MemberID    int64   `json:"memberId,omitempty"`
	Level       string  `json:"level,omitempty"`
	AssigneeID  string  `json:"assigneeId,omitempty"`
	WorkGroupID string  `json:"workGroupId,omitempty"`
	ReferTo     string  `json:"referTo,omitempty"`
	Status      string  `json:"status"`
	Comment     string  `json:"comment,omitempty"`
	CreatedBy   string  `json:"createdBy"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedBy   string  `json:"updatedBy"`
	UpdatedAt   string  `json:"updatedAt"`
	DeletedAt   *string `json:"deletedAt,omitempty"`
}

func toActivityResponse(a *model.Activity) activityResponse {
	resp := activityResponse{
		ID:        a.ID,
		Kind:      string(a.Kind),
		CaseID:    a.CaseID,
		MemberID:  a.MemberID,
		Level:     a.Level,
		Status:    string(a.Status),
		Comment:   a.Comment,
		CreatedBy: a.CreatedBy.String(),
		CreatedAt: a.CreatedAt.Format(timeFormat),
		UpdatedBy: a.UpdatedBy.String(),
		UpdatedAt: a.UpdatedAt.Format(timeFormat),
	}
	if a.AssigneeID != nil {
		resp.AssigneeID = a.AssigneeID.String()
	}
	if a.WorkGroupID != nil {
		resp.WorkGroupID = a.WorkGroupID.String()
	}
	if a.ReferTo != nil {
		resp.ReferTo = a.ReferTo.String()
	}
	if a.DeletedAt != nil {
		t := a.DeletedAt.Format(timeFormat)
		resp.DeletedAt = &t
	}
	return resp
}

func toActivityListResponse(activities []*model.Activity) []activityResponse {
	resp := make([]activityResponse, len(activities))
	for i, a := range activities {
		resp[i] = toActivityResponse(a)
	}
	return resp
}

type decisionResponse struct {
	ID         string `json:"id"`
	ActivityID int64  `json:"activityId"`
	UserID     string `json:"userId"`
	Kind       string `json:"kind"`
	Comment    string `json:"comment,omitempty"`
	DecidedAt  string `json:"decidedAt"`
}

// activityIDParam parses the {id} path segment
func activityIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid activity ID", goerr.V("id", raw))
	}
	return id, nil
}

type createActivityRequest struct {
	Kind        string `json:"kind"`
	CaseID      int64  `json:"caseId"`
	MemberID    int64  `json:"memberId"`
	Level       string `json:"level"`
	Comment     string `json:"comment"`
	AssigneeID  string `json:"assigneeId"`
	WorkGroupID string `json:"workGroupId"`
	ActorID     string `json:"actorId"`
}

func (s *Server) createActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createActivityRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ActorID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	input := usecase.CreateActivityInput{
		Kind:     types.ActivityKind(req.Kind),
		CaseID:   req.CaseID,
		MemberID: req.MemberID,
		Level:    req.Level,
		Comment:  req.Comment,
	}
	if req.AssigneeID != "" {
		assignee := types.UserID(req.AssigneeID)
		input.AssigneeID = &assignee
	}
	if req.WorkGroupID != "" {
		groupID := types.WorkGroupID(req.WorkGroupID)
		input.WorkGroupID = &groupID
	}

	created, err := s.uc.Claim.CreateActivity(ctx, types.UserID(req.ActorID), input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toActivityResponse(created))
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opts, err := queueFilterOptions(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseActivityStatus(raw)
		if err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid status"), http.StatusBadRequest)
			return
		}
		opts = append(opts, interfaces.WithStatus(status))
	}
	if r.URL.Query().Get("deleted") == "true" {
		opts = append(opts, interfaces.WithDeleted())
	}

	activities, err := s.uc.Claim.ListActivities(ctx, opts...)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityListResponse(activities))
}

func (s *Server) getActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	a, err := s.uc.Claim.GetActivity(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityResponse(a))
}

type decisionRequest struct {
	UserID  string `json:"userId"`
	Comment string `json:"comment"`
}

func (s *Server) acceptActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("userId is required"), http.StatusBadRequest)
		return
	}

	claimed, err := s.uc.Claim.Accept(ctx, id, types.UserID(req.UserID), req.Comment)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityResponse(claimed))
}

func (s *Server) rejectActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("userId is required"), http.StatusBadRequest)
		return
	}

	a, err := s.uc.Claim.Reject(ctx, id, types.UserID(req.UserID), req.Comment)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityResponse(a))
}

func (s *Server) completeActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	var req decisionRequest
	if err := decodeJSON(r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("userId is required"), http.StatusBadRequest)
		return
	}

	a, err := s.uc.Claim.Complete(ctx, id, types.UserID(req.UserID))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityResponse(a))
}

// queueFilterOptions translates query parameters shared by the queue views
func queueFilterOptions(r *http.Request) ([]interfaces.ListActivityOption, error) {
	var opts []interfaces.ListActivityOption

	if raw := r.URL.Query().Get("caseId"); raw != "" {
		caseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid caseId", goerr.V("caseId", raw))
		}
		opts = append(opts, interfaces.WithCaseID(caseID))
	}
	if raw := r.URL.Query().Get("memberId"); raw != "" {
		memberID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid memberId", goerr.V("memberId", raw))
		}
		opts = append(opts, interfaces.WithMemberID(memberID))
	}
	if level := r.URL.Query().Get("level"); level != "" {
		opts = append(opts, interfaces.WithLevel(level))
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		opts = append(opts, interfaces.WithKind(types.ActivityKind(kind)))
	}

	return opts, nil
}

func (s *Server) pendingActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("userId is required"), http.StatusBadRequest)
		return
	}

	opts, err := queueFilterOptions(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	pending, err := s.uc.Queue.PendingForUser(ctx, types.UserID(userID), opts...)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityListResponse(pending))
}

func (s *Server) acceptedActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("userId is required"), http.StatusBadRequest)
		return
	}

	opts, err := queueFilterOptions(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	accepted, err := s.uc.Queue.AcceptedForUser(ctx, types.UserID(userID), opts...)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, toActivityListResponse(accepted))
}

func (s *Server) softDeleteActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Claim.SoftDeleteActivity(ctx, id, types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	actor := r.URL.Query().Get("actorId")
	if actor == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("actorId is required"), http.StatusBadRequest)
		return
	}

	if err := s.uc.Claim.RestoreActivity(ctx, id, types.UserID(actor)); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) purgeActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	if err := s.uc.Claim.HardDeleteActivity(ctx, id); err != nil {
		handleError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDecisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := activityIDParam(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	decisions, err := s.uc.Claim.GetDecisions(ctx, id)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]decisionResponse, len(decisions))
	for i, d := range decisions {
		resp[i] = decisionResponse{
			ID:         d.ID.String(),
			ActivityID: d.ActivityID,
			UserID:     d.UserID.String(),
			Kind:       string(d.Kind),
			Comment:    d.Comment,
			DecidedAt:  d.DecidedAt.Format(timeFormat),
		}
	}

	respondJSON(ctx, w, http.StatusOK, resp)
}
