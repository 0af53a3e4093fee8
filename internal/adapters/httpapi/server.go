package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ifiscoder/CommunityApp/internal/app/adminflow"
	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
	"github.com/ifiscoder/CommunityApp/internal/app/photos"
	"github.com/ifiscoder/CommunityApp/internal/app/register"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
	idempotencyport "github.com/ifiscoder/CommunityApp/internal/ports/out/idempotency"
	profilestoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

const maxBodyBytes = 1 << 20

// Server exposes the controller and workflows over HTTP. The process embeds
// a single controller, so the gateway speaks for one signed-in principal.
type Server struct {
	ctl       *authctl.Controller
	wizards   *wizardRegistry
	actions   *adminflow.Actions
	directory *adminflow.Directory
	photos    *photos.Service
	profiles  profilestoreport.Store
	idem      idempotencyport.Store
	logger    *log.Logger
}

func NewServer(
	ctl *authctl.Controller,
	actions *adminflow.Actions,
	directory *adminflow.Directory,
	photoSvc *photos.Service,
	profiles profilestoreport.Store,
	idem idempotencyport.Store,
	logger *log.Logger,
) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		ctl:       ctl,
		wizards:   newWizardRegistry(ctl),
		actions:   actions,
		directory: directory,
		photos:    photoSvc,
		profiles:  profiles,
		idem:      idem,
		logger:    logger,
	}
}

// --- session & profile ---

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stateDTO())
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.ctl.SignIn(r.Context(), req.Email, req.Password); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stateDTO())
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.ctl.SignOut(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.ctl.RefreshProfile(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.stateDTO())
}

func (s *Server) handlePatchMe(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.ctl.UpdateProfile(r.Context(), req.toPatch())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(&updated))
}

// --- photos ---

func (s *Server) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "expected multipart form with a photo field", nil)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing photo field", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBodyBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "unreadable photo upload", nil)
		return
	}

	url, err := s.photos.Upload(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photoUrl": url})
}

func (s *Server) handlePhotoDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.photos.Remove(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- registration wizard ---

type wizardFieldsRequest struct {
	Fields map[string]string `json:"fields"`
}

type wizardStateDTO struct {
	WizardID   string            `json:"wizardId"`
	Step       string            `json:"step"`
	Draft      map[string]string `json:"draft"`
	Errors     map[string]string `json:"errors"`
	Submission string            `json:"submission"`
	FailureMsg string            `json:"failureMsg,omitempty"`
}

func (s *Server) handleRegisterStart(w http.ResponseWriter, r *http.Request) {
	id, wiz := s.wizards.create()
	writeJSON(w, http.StatusCreated, toWizardDTO(id, wiz.Snapshot()))
}

func (s *Server) handleRegisterNext(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}
	var req wizardFieldsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Fields) > 0 {
		if _, err := wiz.SetFields(req.Fields); err != nil {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, toWizardDTO(id, wiz.Next()))
}

func (s *Server) handleRegisterBack(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toWizardDTO(id, wiz.Back()))
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	id, wiz, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
		return
	}

	// A retried submit with the same body replays the recorded response so
	// at most one account/profile pair is ever created per wizard.
	sum := sha256.Sum256(body)
	fp := idempotencyport.Fingerprint{WizardID: id, BodyHash: hex.EncodeToString(sum[:])}
	if rec, found, err := s.idem.Get(r.Context(), fp); err == nil && found {
		w.Header().Set("Content-Type", rec.ContentType)
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return
	} else if err != nil {
		s.logger.Printf("httpapi: idempotency lookup: %v", err)
	}

	if len(body) > 0 {
		var req wizardFieldsRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
			return
		}
		if len(req.Fields) > 0 {
			if _, err := wiz.SetFields(req.Fields); err != nil {
				writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
				return
			}
		}
	}

	state := wiz.Submit(r.Context())
	status := http.StatusOK
	if state.Submission == register.SubmissionDone {
		status = http.StatusCreated
		s.wizards.remove(id)
	}

	payload, err := json.Marshal(toWizardDTO(id, state))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if state.Submission == register.SubmissionDone {
		if err := s.idem.Put(r.Context(), fp, idempotencyport.Record{
			StatusCode:  status,
			ContentType: "application/json",
			Body:        payload,
		}); err != nil {
			s.logger.Printf("httpapi: idempotency record: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func (s *Server) lookupWizard(w http.ResponseWriter, r *http.Request) (string, *register.Wizard, bool) {
	id := chi.URLParam(r, "id")
	wiz, ok := s.wizards.get(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "WIZARD_NOT_FOUND", "no registration in progress with this id", nil)
		return "", nil, false
	}
	return id, wiz, true
}

// --- admin ---

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := s.ctl.Snapshot()
		if state.User == nil {
			writeError(w, r, http.StatusUnauthorized, "NOT_SIGNED_IN", "Not signed in.", nil)
			return
		}
		if !state.User.IsAdmin() {
			writeError(w, r, http.StatusForbidden, "FORBIDDEN", "Admin role required.", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type directoryResponse struct {
	Members []profileDTO `json:"members"`
	Stats   struct {
		Total    int `json:"total"`
		Approved int `json:"approved"`
		Pending  int `json:"pending"`
	} `json:"stats"`
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	// The directory re-fetches wholesale; a list request is also a refresh.
	if err := s.directory.Refresh(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	filter := adminflow.ParseFilter(r.URL.Query().Get("filter"))
	view, stats := s.directory.View(filter, r.URL.Query().Get("q"))

	var resp directoryResponse
	resp.Members = make([]profileDTO, 0, len(view))
	for i := range view {
		resp.Members = append(resp.Members, *toProfileDTO(&view[i]))
	}
	resp.Stats.Total = stats.Total
	resp.Stats.Approved = stats.Approved
	resp.Stats.Pending = stats.Pending
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	id := domain.MemberID(chi.URLParam(r, "id"))
	p, err := s.profiles.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if p == nil {
		writeError(w, r, http.StatusNotFound, "MEMBER_NOT_FOUND", "No member with this id.", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(p))
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

func (s *Server) handleAdminApprove(w http.ResponseWriter, r *http.Request) {
	s.runAdminAction(w, r, s.actions.RequestApprove)
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	s.runAdminAction(w, r, s.actions.RequestDelete)
}

// runAdminAction enforces the confirmation gate: the body must carry
// {"confirm":true} or nothing fires.
func (s *Server) runAdminAction(w http.ResponseWriter, r *http.Request, request func(domain.MemberID) error) {
	id := domain.MemberID(chi.URLParam(r, "id"))

	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Confirm {
		writeError(w, r, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "This action requires explicit confirmation.", nil)
		return
	}

	if err := request(id); err != nil {
		writeActionError(w, r, err)
		return
	}
	out, err := s.actions.Confirm(r.Context(), id)
	if err != nil {
		writeActionError(w, r, err)
		return
	}

	if out.Deleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(out.Profile))
}

func writeActionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, adminflow.ErrActionInFlight):
		writeError(w, r, http.StatusConflict, "ACTION_IN_FLIGHT", "Another action on this member is still running.", nil)
	case errors.Is(err, profilestoreport.ErrNotFound), errors.Is(err, deletionport.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "MEMBER_NOT_FOUND", "No member with this id.", nil)
	case errors.Is(err, deletionport.ErrUnauthorized):
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "The deletion service rejected the credential.", nil)
	default:
		writeAppError(w, r, err)
	}
}

// --- helpers ---

func (s *Server) stateDTO() stateDTO {
	state := s.ctl.Snapshot()
	return stateDTO{
		User:    toSessionDTO(state.User),
		Profile: toProfileDTO(state.Profile),
		Loading: state.Loading,
	}
}

func toWizardDTO(id string, st register.State) wizardStateDTO {
	draft := map[string]string{
		"email":         st.Draft.Email,
		"fullName":      st.Draft.FullName,
		"phone":         st.Draft.Phone,
		"addressStreet": st.Draft.AddressStreet,
		"addressCity":   st.Draft.AddressCity,
		"addressState":  st.Draft.AddressState,
		"addressPostal": st.Draft.AddressPostal,
	}
	return wizardStateDTO{
		WizardID:   id,
		Step:       stepName(st.Step),
		Draft:      draft,
		Errors:     st.Errors,
		Submission: submissionName(st.Submission),
		FailureMsg: st.FailureMsg,
	}
}

func stepName(s register.Step) string {
	switch s {
	case register.StepAccount:
		return "account"
	case register.StepPersonalInfo:
		return "personalInfo"
	default:
		return "address"
	}
}

func submissionName(s register.Submission) string {
	switch s {
	case register.SubmissionInFlight:
		return "inFlight"
	case register.SubmissionFailed:
		return "failed"
	case register.SubmissionDone:
		return "done"
	default:
		return "idle"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
		return false
	}
	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	return true
}
