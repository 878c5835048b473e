package lifecycle

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/zulandar/gramportal/internal/models"
)

var epoch = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// testEnv returns an Env with a frozen clock and a fixed random seed.
func testEnv(t *testing.T) Env {
	t.Helper()
	now := func() time.Time { return epoch }
	return Env{Now: now, IDs: NewIDSource(now), Rand: rand.New(rand.NewPCG(1, 2))}
}

func validProfile() ProfileInput {
	return ProfileInput{
		Name:            "Rampur",
		GramPanchayat:   "Rampur GP",
		District:        "Sitapur",
		State:           "Uttar Pradesh",
		TotalPopulation: "1200",
		SCPopulation:    "650",
		SCPercentage:    "54.2",
		CensusCode:      "UP0001",
		VillageType:     "tribal",
	}
}

func TestIDSource_UniqueWithinMillisecond(t *testing.T) {
	ids := NewIDSource(func() time.Time { return epoch })
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		if seen[id] {
			t.Fatalf("duplicate ID %q on iteration %d", id, i)
		}
		seen[id] = true
	}
}

func TestIDSource_Monotonic(t *testing.T) {
	ids := NewIDSource(func() time.Time { return epoch })
	prev := int64(-1)
	for i := 0; i < 10; i++ {
		n, err := strconv.ParseInt(ids.Next(), 10, 64)
		if err != nil {
			t.Fatalf("ID is not numeric: %v", err)
		}
		if n <= prev {
			t.Fatalf("ID %d not greater than previous %d", n, prev)
		}
		prev = n
	}
	if first := epoch.UnixMilli(); prev != first+9 {
		t.Errorf("last ID = %d, want %d", prev, first+9)
	}
}

func TestIsImmediateSuccessor_Village(t *testing.T) {
	tests := []struct {
		from models.VillageStatus
		to   models.VillageStatus
		want bool
	}{
		{models.VillageRegistered, models.VillageAssessment, true},
		{models.VillageAssessment, models.VillageVDPApproved, true},
		{models.VillageVDPApproved, models.VillageImplementation, true},
		{models.VillageImplementation, models.VillageAdarshGram, true},
		{models.VillageRegistered, models.VillageVDPApproved, false},
		{models.VillageRegistered, models.VillageAdarshGram, false},
		{models.VillageAssessment, models.VillageRegistered, false},
		{models.VillageAdarshGram, models.VillageRegistered, false},
		{models.VillageRegistered, models.VillageRegistered, false},
		{"unknown", models.VillageAssessment, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := isImmediateSuccessor(VillageOrder, tt.from, tt.to); got != tt.want {
				t.Errorf("isImmediateSuccessor(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransitionVillage_AllPairs(t *testing.T) {
	for i, from := range VillageOrder {
		for j, to := range VillageOrder {
			v := &models.Village{ID: "v1", Status: from}
			got, err := TransitionVillage(v, to)
			if j == i+1 {
				if err != nil || got.Status != to {
					t.Errorf("%s -> %s = %v, %v; want accepted", from, to, got, err)
				}
			} else if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s error = %v, want ErrInvalidTransition", from, to, err)
			}
			if v.Status != from {
				t.Errorf("%s -> %s modified the input", from, to)
			}
		}
	}
}

func TestSuccessor_Terminal(t *testing.T) {
	if _, ok := VillageSuccessor(models.VillageAdarshGram); ok {
		t.Error("adarsh-gram should have no successor")
	}
	if _, ok := RequirementSuccessor(models.RequirementCompleted); ok {
		t.Error("completed should have no successor")
	}
	if next, ok := RequirementSuccessor(models.RequirementReview); !ok || next != models.RequirementApproved {
		t.Errorf("RequirementSuccessor(review) = %q, %v; want approved, true", next, ok)
	}
}

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		status string
		kind   Kind
		want   int
	}{
		{"registered", KindVillage, 25},
		{"assessment", KindVillage, 50},
		{"vdp-approved", KindVillage, 75},
		{"implementation", KindVillage, 90},
		{"adarsh-gram", KindVillage, 100},
		{"pending", KindRequirement, 25},
		{"review", KindRequirement, 50},
		{"approved", KindRequirement, 75},
		{"implementation", KindRequirement, 90},
		{"completed", KindRequirement, 100},
		{"pending", KindVillage, 0},
		{"adarsh-gram", KindRequirement, 0},
		{"archived", KindVillage, 0},
		{"", KindRequirement, 0},
		{"registered", Kind("household"), 0},
	}
	for _, tt := range tests {
		if got := ProgressPercentage(tt.status, tt.kind); got != tt.want {
			t.Errorf("ProgressPercentage(%q, %s) = %d, want %d", tt.status, tt.kind, got, tt.want)
		}
	}
}

func TestProgressPercentage_MonotonicAlongOrder(t *testing.T) {
	prev := 0
	for _, s := range VillageOrder {
		p := ProgressPercentage(string(s), KindVillage)
		if p <= prev {
			t.Errorf("village progress for %q = %d, not above %d", s, p, prev)
		}
		prev = p
	}
	prev = 0
	for _, s := range RequirementOrder {
		p := ProgressPercentage(string(s), KindRequirement)
		if p <= prev {
			t.Errorf("requirement progress for %q = %d, not above %d", s, p, prev)
		}
		prev = p
	}
}

func TestStatusLabelAndColor(t *testing.T) {
	if got := StatusLabel("vdp-approved"); got != "VDP Approved" {
		t.Errorf("StatusLabel(vdp-approved) = %q", got)
	}
	if got := StatusLabel("mystery"); got != "mystery" {
		t.Errorf("StatusLabel(mystery) = %q, want passthrough", got)
	}
	if got := StatusColor(models.VillageAdarshGram); got != "#2E7D32" {
		t.Errorf("StatusColor(adarsh-gram) = %q", got)
	}
	if got := StatusColor("mystery"); got != "#666" {
		t.Errorf("StatusColor(mystery) = %q, want #666", got)
	}
}

func TestParseEnums(t *testing.T) {
	if s, err := ParseVillageStatus(" VDP-Approved "); err != nil || s != models.VillageVDPApproved {
		t.Errorf("ParseVillageStatus = %q, %v", s, err)
	}
	if _, err := ParseVillageStatus("pending"); err == nil {
		t.Error("ParseVillageStatus(pending) should fail")
	}
	if s, err := ParseRequirementStatus("review"); err != nil || s != models.RequirementReview {
		t.Errorf("ParseRequirementStatus = %q, %v", s, err)
	}
	if c, err := ParseCategory(""); err != nil || c != models.CategoryOther {
		t.Errorf("ParseCategory(\"\") = %q, %v; want other", c, err)
	}
	if p, err := ParsePriority(""); err != nil || p != models.PriorityMedium {
		t.Errorf("ParsePriority(\"\") = %q, %v; want medium", p, err)
	}
	var ve *ValidationError
	if _, err := ParsePriority("critical"); !errors.As(err, &ve) || ve.Field != "priority" {
		t.Errorf("ParsePriority(critical) error = %v, want ValidationError on priority", err)
	}
}

func TestCreateVillage(t *testing.T) {
	env := testEnv(t)
	v, err := CreateVillage(validProfile(), env)
	if err != nil {
		t.Fatalf("CreateVillage: %v", err)
	}
	if v.Status != models.VillageRegistered {
		t.Errorf("Status = %q, want registered", v.Status)
	}
	if v.TotalPopulation != 1200 || v.SCPopulation != 650 || v.SCPercentage != 54.2 {
		t.Errorf("population = %d/%d/%v", v.TotalPopulation, v.SCPopulation, v.SCPercentage)
	}
	if v.VillageType != models.VillageTribal {
		t.Errorf("VillageType = %q, want tribal", v.VillageType)
	}
	if !v.RegisteredAt.Equal(epoch) {
		t.Errorf("RegisteredAt = %v, want %v", v.RegisteredAt, epoch)
	}
	if v.ID != strconv.FormatInt(epoch.UnixMilli(), 10) {
		t.Errorf("ID = %q", v.ID)
	}
}

func TestCreateVillage_RandomLocationInBounds(t *testing.T) {
	env := testEnv(t)
	for i := 0; i < 200; i++ {
		v, err := CreateVillage(validProfile(), env)
		if err != nil {
			t.Fatalf("CreateVillage: %v", err)
		}
		if v.Location.Lat < minLat || v.Location.Lat > maxLat {
			t.Fatalf("Lat %v outside [%v, %v]", v.Location.Lat, minLat, maxLat)
		}
		if v.Location.Lng < minLng || v.Location.Lng > maxLng {
			t.Fatalf("Lng %v outside [%v, %v]", v.Location.Lng, minLng, maxLng)
		}
	}
}

func TestCreateVillage_SuppliedLocation(t *testing.T) {
	in := validProfile()
	in.Location = &models.Location{Lat: 28.6139, Lng: 77.2090}
	v, err := CreateVillage(in, testEnv(t))
	if err != nil {
		t.Fatalf("CreateVillage: %v", err)
	}
	if v.Location != *in.Location {
		t.Errorf("Location = %+v, want %+v", v.Location, *in.Location)
	}
}

func TestCreateVillage_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProfileInput)
		field  string
	}{
		{"empty name", func(p *ProfileInput) { p.Name = "  " }, "villageName"},
		{"empty gp", func(p *ProfileInput) { p.GramPanchayat = "" }, "gramPanchayat"},
		{"empty district", func(p *ProfileInput) { p.District = "" }, "district"},
		{"empty state", func(p *ProfileInput) { p.State = "" }, "state"},
		{"empty census", func(p *ProfileInput) { p.CensusCode = "" }, "censusCode"},
		{"empty total", func(p *ProfileInput) { p.TotalPopulation = "" }, "totalPopulation"},
		{"non-numeric total", func(p *ProfileInput) { p.TotalPopulation = "many" }, "totalPopulation"},
		{"fractional sc", func(p *ProfileInput) { p.SCPopulation = "12.5" }, "scPopulation"},
		{"non-numeric pct", func(p *ProfileInput) { p.SCPercentage = "half" }, "scPercentage"},
		{"NaN pct", func(p *ProfileInput) { p.SCPercentage = "NaN" }, "scPercentage"},
		{"bad type", func(p *ProfileInput) { p.VillageType = "urban" }, "villageType"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validProfile()
			tt.mutate(&in)
			v, err := CreateVillage(in, testEnv(t))
			if v != nil {
				t.Error("expected nil village on validation failure")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestCreateVillage_SCAboveTotalAccepted(t *testing.T) {
	in := validProfile()
	in.SCPopulation = "5000"
	if _, err := CreateVillage(in, testEnv(t)); err != nil {
		t.Errorf("CreateVillage with SC above total: %v", err)
	}
}

func TestTransitionVillage(t *testing.T) {
	v, err := CreateVillage(validProfile(), testEnv(t))
	if err != nil {
		t.Fatalf("CreateVillage: %v", err)
	}
	next, err := TransitionVillage(v, models.VillageAssessment)
	if err != nil {
		t.Fatalf("TransitionVillage: %v", err)
	}
	if next.Status != models.VillageAssessment {
		t.Errorf("Status = %q, want assessment", next.Status)
	}
	if v.Status != models.VillageRegistered {
		t.Errorf("original mutated to %q", v.Status)
	}
	if next.ID != v.ID || next.Name != v.Name {
		t.Error("transition changed identity fields")
	}
}

func TestTransitionVillage_RejectsSkip(t *testing.T) {
	v, _ := CreateVillage(validProfile(), testEnv(t))
	_, err := TransitionVillage(v, models.VillageVDPApproved)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *InvalidTransitionError", err)
	}
	if te.Kind != KindVillage || te.From != "registered" || te.To != "vdp-approved" || te.Next != "assessment" {
		t.Errorf("error fields = %+v", te)
	}
	if v.Status != models.VillageRegistered {
		t.Errorf("status changed to %q after rejected transition", v.Status)
	}
}

func TestTransitionVillage_Terminal(t *testing.T) {
	v := &models.Village{ID: "1", Status: models.VillageAdarshGram}
	_, err := TransitionVillage(v, models.VillageRegistered)
	var te *InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *InvalidTransitionError", err)
	}
	if te.Next != "" {
		t.Errorf("Next = %q, want empty at terminal", te.Next)
	}
}

func TestCreateRequirement(t *testing.T) {
	r, err := CreateRequirement(RequirementInput{
		Title:       "Road repair",
		Category:    "road",
		Description: "Pothole on main road",
		Priority:    "high",
		VillageName: "Rampur",
	}, testEnv(t))
	if err != nil {
		t.Fatalf("CreateRequirement: %v", err)
	}
	if r.Status != models.RequirementPending {
		t.Errorf("Status = %q, want pending", r.Status)
	}
	if r.Category != models.CategoryRoad || r.Priority != models.PriorityHigh {
		t.Errorf("Category/Priority = %q/%q", r.Category, r.Priority)
	}
	if ProgressPercentage(string(r.Status), KindRequirement) != 25 {
		t.Error("new requirement should be at 25%")
	}
}

func TestCreateRequirement_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    RequirementInput
		field string
	}{
		{"empty title", RequirementInput{Description: "d"}, "title"},
		{"empty description", RequirementInput{Title: "t", Description: " "}, "description"},
		{"bad category", RequirementInput{Title: "t", Description: "d", Category: "parks"}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateRequirement(tt.in, testEnv(t))
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("error = %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
}

func TestTransitionRequirement_FullPath(t *testing.T) {
	r, _ := CreateRequirement(RequirementInput{Title: "t", Description: "d"}, testEnv(t))
	for _, next := range RequirementOrder[1:] {
		var err error
		r, err = TransitionRequirement(r, next)
		if err != nil {
			t.Fatalf("TransitionRequirement(%q): %v", next, err)
		}
	}
	if r.Status != models.RequirementCompleted {
		t.Errorf("Status = %q, want completed", r.Status)
	}
	if _, err := TransitionRequirement(r, models.RequirementPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("transition out of completed: %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionRequirement_AllPairs(t *testing.T) {
	for i, from := range RequirementOrder {
		for j, to := range RequirementOrder {
			r := &models.Requirement{ID: "r1", Status: from}
			got, err := TransitionRequirement(r, to)
			if j == i+1 {
				if err != nil || got.Status != to {
					t.Errorf("%s -> %s = %v, %v; want accepted", from, to, got, err)
				}
			} else if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s error = %v, want ErrInvalidTransition", from, to, err)
			}
			if r.Status != from {
				t.Errorf("%s -> %s modified the input", from, to)
			}
		}
	}
}

func TestCreateHousehold(t *testing.T) {
	h, err := CreateHousehold(HouseholdInput{VillageID: "v1", HouseholdID: "HH-01", HeadName: "Sita", FamilyMembers: "5"}, testEnv(t))
	if err != nil {
		t.Fatalf("CreateHousehold: %v", err)
	}
	if h.Members() != 5 {
		t.Errorf("Members() = %d, want 5", h.Members())
	}

	h, err = CreateHousehold(HouseholdInput{HouseholdID: "HH-02", HeadName: "Ram"}, testEnv(t))
	if err != nil {
		t.Fatalf("CreateHousehold without members: %v", err)
	}
	if h.FamilyMembers != nil {
		t.Errorf("FamilyMembers = %v, want nil", *h.FamilyMembers)
	}

	_, err = CreateHousehold(HouseholdInput{HouseholdID: "HH-03", HeadName: "X", FamilyMembers: "few"}, testEnv(t))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "familyMembers" {
		t.Errorf("error = %v, want ValidationError on familyMembers", err)
	}
}

func TestCreateSurveyUpload(t *testing.T) {
	s, err := CreateSurveyUpload(FileMeta{VillageID: "v1", FileName: "survey.pdf", Size: 2048}, testEnv(t))
	if err != nil {
		t.Fatalf("CreateSurveyUpload: %v", err)
	}
	if s.Status != models.SurveyUploaded || s.FileSize != 2048 {
		t.Errorf("survey = %+v", s)
	}
	if _, err := CreateSurveyUpload(FileMeta{}, testEnv(t)); err == nil {
		t.Error("expected error for missing file name")
	}
}

func TestCreateAssessment(t *testing.T) {
	data := map[string]string{"roads": "poor"}
	p, err := CreateAssessment(AssessmentInput{VillageID: "v1", Date: "2026-03-01", Officer: "A. Rao", Data: data}, testEnv(t))
	if err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}
	if p.Type != AssessmentProjectType || p.Status != models.RequirementCompleted {
		t.Errorf("project = %+v", p)
	}
	data["roads"] = "good"
	if p.Data["roads"] != "poor" {
		t.Error("assessment data aliases caller map")
	}
	if _, err := CreateAssessment(AssessmentInput{}, testEnv(t)); err == nil {
		t.Error("expected error for missing village")
	}
}
