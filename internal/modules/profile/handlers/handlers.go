// Package handlers provides HTTP handlers for the profile page and API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
)

// Handler provides HTTP handlers for profile endpoints
type Handler struct {
	service  *profile.Service
	renderer *web.Renderer
	log      zerolog.Logger
}

// NewHandler creates a new profile handler
func NewHandler(service *profile.Service, renderer *web.Renderer, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		log:      log.With().Str("handler", "profile").Logger(),
	}
}

// QuestionView is one survey row of the form.
type QuestionView struct {
	Field    string
	Text     string
	Selected string
}

// FormView is the profile page model.
type FormView struct {
	Name          string
	RiskOptions   []string
	RiskSelected  string
	Questions     []QuestionView
	LikertOptions []string
	Sectors       []string
	Preferred     []string
	Excluded      []string
	InvalidField  string
	Saved         *profile.Preference
}

func newFormView() FormView {
	return FormView{
		RiskOptions:   []string{profile.RiskLow.Label(), profile.RiskMedium.Label(), profile.RiskHigh.Label()},
		RiskSelected:  profile.RiskMedium.Label(),
		LikertOptions: profile.LikertOptions,
		Sectors:       domain.Sectors,
	}
}

func formFromPreference(p *profile.Preference) FormView {
	v := newFormView()
	v.Saved = p
	v.Name = p.Name
	v.RiskSelected = p.RiskTolerance.Label()
	v.Preferred = p.PreferredSectors
	v.Excluded = p.ExcludedSectors
	for _, q := range profile.Questions {
		selected := profile.LikertOptions[2]
		if a := p.Survey.Answer(q.Field); a >= 1 && a <= len(profile.LikertOptions) {
			selected = profile.LikertOptions[a-1]
		}
		v.Questions = append(v.Questions, QuestionView{Field: q.Field, Text: q.Text, Selected: selected})
	}
	return v
}

func formFromValues(form url.Values) FormView {
	v := newFormView()
	v.Name = form.Get("name")
	if r, ok := profile.ParseRiskTolerance(form.Get("risk_tolerance")); ok {
		v.RiskSelected = r.Label()
	}
	v.Preferred = form["preferred_sectors"]
	v.Excluded = form["excluded_sectors"]
	for _, q := range profile.Questions {
		v.Questions = append(v.Questions, QuestionView{Field: q.Field, Text: q.Text, Selected: form.Get(q.Field)})
	}
	return v
}

// HandleProfilePage handles GET /profile
func (h *Handler) HandleProfilePage(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	view := formFromValues(url.Values{})
	for i := range view.Questions {
		view.Questions[i].Selected = profile.LikertOptions[2]
	}

	pref, err := h.service.Get(r.Context(), sessionID)
	switch {
	case err == nil:
		view = formFromPreference(pref)
	case !errors.Is(err, profile.ErrNoProfile):
		h.log.Error().Err(err).Msg("Failed to load profile")
	}

	h.renderer.Render(w, http.StatusOK, "profile", web.Page{
		Title:  "Profile",
		Active: "profile",
		Data:   view,
	})
}

// HandleProfileSubmit handles POST /profile
func (h *Handler) HandleProfileSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, http.StatusBadRequest, "profile", web.Page{
			Title: "Profile", Active: "profile", Error: "Invalid form submission", Data: formFromValues(url.Values{}),
		})
		return
	}

	pref, err := profile.FromSurvey(r.PostForm)
	if err == nil {
		_, err = h.service.Submit(r.Context(), sessionID, *pref)
	}

	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		view := formFromValues(r.PostForm)
		view.InvalidField = verr.Field
		h.renderer.Render(w, http.StatusUnprocessableEntity, "profile", web.Page{
			Title: "Profile", Active: "profile", Error: verr.Error(), Data: view,
		})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save profile")
		h.renderer.Render(w, http.StatusInternalServerError, "profile", web.Page{
			Title: "Profile", Active: "profile", Error: "Could not save your profile, please try again", Data: formFromValues(r.PostForm),
		})
		return
	}

	http.Redirect(w, r, "/portfolio", http.StatusSeeOther)
}

// preferenceInput is the JSON body of PUT /api/profile. When weights are
// omitted they are derived from the survey's weight questions.
type preferenceInput struct {
	Name             string           `json:"name"`
	RiskTolerance    string           `json:"risk_tolerance"`
	Weights          *profile.Weights `json:"weights"`
	ExcludedSectors  []string         `json:"excluded_sectors"`
	PreferredSectors []string         `json:"preferred_sectors"`
	Survey           profile.Survey   `json:"survey"`
}

func (in preferenceInput) preference() profile.Preference {
	p := profile.Preference{
		Name:             in.Name,
		RiskTolerance:    profile.RiskTolerance(in.RiskTolerance),
		ExcludedSectors:  in.ExcludedSectors,
		PreferredSectors: in.PreferredSectors,
		Survey:           in.Survey,
	}
	if in.Weights != nil {
		p.Weights = *in.Weights
	} else {
		p.Weights = in.Survey.SurveyWeights()
	}
	return p
}

// HandleGetProfile handles GET /api/profile
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	pref, err := h.service.Get(r.Context(), sessionID)
	if errors.Is(err, profile.ErrNoProfile) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	h.writeJSON(w, http.StatusOK, pref)
}

// HandlePutProfile handles PUT /api/profile
func (h *Handler) HandlePutProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	var in preferenceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	saved, err := h.service.Submit(r.Context(), sessionID, in.preference())
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Message,
			"field": verr.Field,
		})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	h.writeJSON(w, http.StatusOK, saved)
}

// HandleDeleteProfile handles DELETE /api/profile
func (h *Handler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	if err := h.service.Clear(r.Context(), sessionID); err != nil {
		h.log.Error().Err(err).Msg("Failed to clear profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to clear profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
