package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/gramportal/internal/export"
	"github.com/zulandar/gramportal/internal/lifecycle"
	"github.com/zulandar/gramportal/internal/models"
	"github.com/zulandar/gramportal/internal/notify"
	"github.com/zulandar/gramportal/internal/portal"
	"github.com/zulandar/gramportal/internal/store"
)

const defaultActivity = 5

type handlers struct {
	opts   StartOpts
	p      *portal.Portal
	events *broker
	tokens *tokenLedger
}

func newHandlers(opts StartOpts) *handlers {
	return &handlers{
		opts:   opts,
		p:      opts.Portal,
		events: newBroker(),
		tokens: newTokenLedger(),
	}
}

// statusFor maps a portal error to an HTTP status.
func statusFor(err error) int {
	var ve *lifecycle.ValidationError
	var sf *store.StorageFault
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, portal.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &sf):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// respond writes entity with status, or the error. A storage fault still
// carries the entity since it exists in memory.
func respond(c *gin.Context, status int, entity any, err error) {
	if err == nil {
		c.JSON(status, entity)
		return
	}
	body := gin.H{"error": err.Error()}
	if entity != nil {
		body["entity"] = entity
	}
	c.JSON(statusFor(err), body)
}

// result converts a typed pointer into an untyped entity.
func result[T any](v *T, err error) (any, error) {
	if v == nil {
		return nil, err
	}
	return v, err
}

func bindInput[T any](c *gin.Context) (T, bool) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		respond(c, 0, nil, &lifecycle.ValidationError{Field: "body", Reason: "is not valid JSON: " + err.Error()})
		return in, false
	}
	return in, true
}

// --- Villages ---

// listVillages filters by ?q= (name substring), ?status= and ?progress=
// (a band such as 25-50). With no filters every village is returned.
func (h *handlers) listVillages(c *gin.Context) {
	q, err := portal.ParseVillageQuery(c.Query("q"), c.Query("status"), c.Query("progress"))
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	out := h.p.FindVillages(q)
	if out == nil {
		out = []models.Village{}
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) getVillage(c *gin.Context) {
	v, ok := h.p.Village(c.Param("id"))
	if !ok {
		respond(c, 0, nil, portal.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"village":  v,
		"label":    lifecycle.StatusLabel(string(v.Status)),
		"color":    lifecycle.StatusColor(v.Status),
		"progress": lifecycle.ProgressPercentage(string(v.Status), lifecycle.KindVillage),
	})
}

func (h *handlers) createVillage(c *gin.Context) {
	in, ok := bindInput[lifecycle.ProfileInput](c)
	if !ok {
		return
	}
	v, err := result(h.p.SubmitVillageProfile(in))
	respond(c, http.StatusCreated, v, err)
}

type advanceRequest struct {
	Status string `json:"status"` // empty means the next status
}

func (h *handlers) bindAdvance(c *gin.Context) (advanceRequest, bool) {
	if c.Request.ContentLength == 0 {
		return advanceRequest{}, true
	}
	return bindInput[advanceRequest](c)
}

func (h *handlers) advanceVillage(c *gin.Context) {
	req, ok := h.bindAdvance(c)
	if !ok {
		return
	}
	var next models.VillageStatus
	if req.Status != "" {
		s, err := lifecycle.ParseVillageStatus(req.Status)
		if err != nil {
			respond(c, 0, nil, err)
			return
		}
		next = s
	}
	v, err := result(h.p.AdvanceVillage(c.Param("id"), next))
	respond(c, http.StatusOK, v, err)
}

// --- Requirements ---

func (h *handlers) listRequirements(c *gin.Context) {
	c.JSON(http.StatusOK, h.p.Requirements())
}

func (h *handlers) getRequirement(c *gin.Context) {
	r, ok := h.p.Requirement(c.Param("id"))
	if !ok {
		respond(c, 0, nil, portal.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"requirement": r,
		"label":       lifecycle.StatusLabel(string(r.Status)),
		"progress":    lifecycle.ProgressPercentage(string(r.Status), lifecycle.KindRequirement),
	})
}

func (h *handlers) createRequirement(c *gin.Context) {
	in, ok := bindInput[lifecycle.RequirementInput](c)
	if !ok {
		return
	}
	r, err := result(h.p.SubmitRequirement(in))
	respond(c, http.StatusCreated, r, err)
}

func (h *handlers) createIssue(c *gin.Context) {
	in, ok := bindInput[lifecycle.RequirementInput](c)
	if !ok {
		return
	}
	r, err := result(h.p.SubmitIssueReport(in))
	respond(c, http.StatusCreated, r, err)
}

func (h *handlers) advanceRequirement(c *gin.Context) {
	req, ok := h.bindAdvance(c)
	if !ok {
		return
	}
	var next models.RequirementStatus
	if req.Status != "" {
		s, err := lifecycle.ParseRequirementStatus(req.Status)
		if err != nil {
			respond(c, 0, nil, err)
			return
		}
		next = s
	}
	r, err := result(h.p.AdvanceRequirement(c.Param("id"), next))
	respond(c, http.StatusOK, r, err)
}

// --- Surveys and assessments ---

func (h *handlers) listHouseholds(c *gin.Context) {
	c.JSON(http.StatusOK, h.p.Households())
}

func (h *handlers) createHousehold(c *gin.Context) {
	in, ok := bindInput[lifecycle.HouseholdInput](c)
	if !ok {
		return
	}
	hh, err := result(h.p.SubmitHouseholdSurvey(in))
	respond(c, http.StatusCreated, hh, err)
}

func (h *handlers) listSurveys(c *gin.Context) {
	c.JSON(http.StatusOK, h.p.Surveys())
}

func (h *handlers) createSurvey(c *gin.Context) {
	in, ok := bindInput[lifecycle.FileMeta](c)
	if !ok {
		return
	}
	s, err := result(h.p.SubmitSurveyUpload(in))
	respond(c, http.StatusCreated, s, err)
}

func (h *handlers) listProjects(c *gin.Context) {
	c.JSON(http.StatusOK, h.p.Projects())
}

func (h *handlers) createAssessment(c *gin.Context) {
	in, ok := bindInput[lifecycle.AssessmentInput](c)
	if !ok {
		return
	}
	pr, err := result(h.p.SubmitAssessment(in))
	respond(c, http.StatusCreated, pr, err)
}

// --- Aggregates and export ---

func (h *handlers) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.p.Stats())
}

func (h *handlers) activity(c *gin.Context) {
	n := defaultActivity
	if s := c.Query("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			respond(c, 0, nil, &lifecycle.ValidationError{Field: "n", Reason: "must be a whole number"})
			return
		}
		n = v
	}
	c.JSON(http.StatusOK, h.p.RecentActivity(n))
}

func (h *handlers) mapData() export.MapData {
	return export.NewMapData(h.p.Villages(), h.opts.Now())
}

func (h *handlers) exportJSON(c *gin.Context) {
	d := h.mapData()
	c.Header("Content-Disposition", `attachment; filename="`+d.FileName("json")+`"`)
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)
	if err := export.WriteJSON(c.Writer, d); err != nil {
		c.Error(err)
	}
}

func (h *handlers) exportXLSX(c *gin.Context) {
	d := h.mapData()
	c.Header("Content-Disposition", `attachment; filename="`+d.FileName("xlsx")+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, d); err != nil {
		c.Error(err)
	}
}

// --- Session and drafts ---

func (h *handlers) session(c *gin.Context) {
	user, _, err := h.p.CurrentUser()
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	body := gin.H{"user": user, "village": nil}
	v, ok, err := h.p.SelectedVillage()
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	if ok {
		body["village"] = v
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) login(c *gin.Context) {
	in, ok := bindInput[portal.LoginInput](c)
	if !ok {
		return
	}
	id, err := result(h.p.Login(in))
	respond(c, http.StatusOK, id, err)
}

func (h *handlers) logout(c *gin.Context) {
	if err := h.p.Logout(); err != nil {
		respond(c, 0, nil, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) selectVillage(c *gin.Context) {
	in, ok := bindInput[struct {
		ID string `json:"id"`
	}](c)
	if !ok {
		return
	}
	if err := h.p.SelectVillage(in.ID); err != nil {
		respond(c, 0, nil, err)
		return
	}
	v, _ := h.p.Village(in.ID)
	c.JSON(http.StatusOK, v)
}

func (h *handlers) loadDraft(c *gin.Context) {
	d, ok, err := h.p.LoadDraft(c.Param("form"))
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	if !ok {
		respond(c, 0, nil, portal.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) saveDraft(c *gin.Context) {
	in, ok := bindInput[store.Draft](c)
	if !ok {
		return
	}
	d, err := result(h.p.SaveDraft(c.Param("form"), in.Data, in.Step))
	respond(c, http.StatusOK, d, err)
}

// --- Delivery targets ---

func (h *handlers) push(c *gin.Context) {
	p, ok := bindInput[notify.Payload](c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.opts.Notifier.Push(c.Request.Context(), p))
}

func (h *handlers) cacheStatus(c *gin.Context) {
	if h.opts.Cache == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	versions, err := h.opts.Cache.Status(c.Request.Context())
	if err != nil {
		respond(c, 0, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":  true,
		"version":  h.opts.Cache.Version(),
		"state":    h.opts.Cache.State(),
		"versions": versions,
	})
}
