package diagnosis

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/clinicd/internal/domain/record"
	"github.com/clinicops/clinicd/internal/platform/apperr"
)

type mockRepo struct {
	items map[uuid.UUID]*Diagnosis
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Diagnosis)}
}

func (m *mockRepo) Create(_ context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	cp := *d
	m.items[d.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Diagnosis, error) {
	d, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("diagnosis", id.String())
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, d *Diagnosis) error {
	if _, ok := m.items[d.ID]; !ok {
		return apperr.NotFound("diagnosis", d.ID.String())
	}
	cp := *d
	m.items[d.ID] = &cp
	return nil
}

func (m *mockRepo) ListByEpisode(_ context.Context, episodeID uuid.UUID) ([]*Diagnosis, error) {
	var result []*Diagnosis
	for _, d := range m.items {
		if d.EpisodeID == episodeID {
			cp := *d
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockRepo) ListByEpisodeForUpdate(ctx context.Context, episodeID uuid.UUID) ([]*Diagnosis, error) {
	return m.ListByEpisode(ctx, episodeID)
}

type mockCases struct {
	items map[uuid.UUID]*record.CaseContext
}

func newMockCases() *mockCases {
	return &mockCases{items: make(map[uuid.UUID]*record.CaseContext)}
}

func (m *mockCases) addEpisode(status string) uuid.UUID {
	id := uuid.New()
	m.items[id] = &record.CaseContext{ID: id, Kind: record.CaseEpisode, Status: status}
	return id
}

func (m *mockCases) GetCaseContext(_ context.Context, id uuid.UUID) (*record.CaseContext, error) {
	cc, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("case context", id.String())
	}
	return cc, nil
}

type nopTx struct{}

func (nopTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc   *Service
	repo  *mockRepo
	cases *mockCases
}

func newFixture() *fixture {
	repo := newMockRepo()
	cases := newMockCases()
	return &fixture{
		svc:   NewService(repo, cases, nopTx{}),
		repo:  repo,
		cases: cases,
	}
}

func (f *fixture) primaryCount(t *testing.T, episodeID uuid.UUID) int {
	t.Helper()
	list, err := f.repo.ListByEpisode(context.Background(), episodeID)
	if err != nil {
		t.Fatalf("listing diagnoses: %v", err)
	}
	n := 0
	for _, d := range list {
		if d.IsPrimary {
			n++
		}
	}
	return n
}

func sample(primary bool) *Diagnosis {
	return &Diagnosis{
		Code:        "J02.9",
		Description: "Acute pharyngitis",
		Certainty:   CertaintyPresumptive,
		IsPrimary:   primary,
	}
}

func TestCreate_FirstPrimaryAllowed(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")

	d, err := f.svc.Create(context.Background(), ep, sample(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsPrimary {
		t.Error("expected diagnosis to be primary")
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("expected exactly one primary")
	}
}

func TestCreate_SecondPrimaryConflicts(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	if _, err := f.svc.Create(context.Background(), ep, sample(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.Create(context.Background(), ep, sample(true))
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("invariant broken: more than one primary")
	}
}

func TestCreate_NonPrimaryAlwaysAllowed(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	if _, err := f.svc.Create(context.Background(), ep, sample(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Create(context.Background(), ep, sample(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("expected exactly one primary")
	}
}

func TestCreate_ClosedEpisodeDenied(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("closed")

	_, err := f.svc.Create(context.Background(), ep, sample(false))
	var gv *apperr.GuardViolation
	if !errors.As(err, &gv) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
}

func TestCreate_ValidatesFields(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")

	_, err := f.svc.Create(context.Background(), ep, &Diagnosis{Certainty: "suspected"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Fields) != 3 {
		t.Errorf("expected code, description, certainty flagged, got %v", ve.Fields)
	}
}

func TestUpdate_PrimaryGrabConflicts(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	if _, err := f.svc.Create(context.Background(), ep, sample(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	other, _ := f.svc.Create(context.Background(), ep, sample(false))

	yes := true
	_, err := f.svc.Update(context.Background(), other.ID, Patch{IsPrimary: &yes})
	var ce *apperr.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("invariant broken after rejected update")
	}
}

func TestUpdate_OverwritesFields(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d, _ := f.svc.Create(context.Background(), ep, sample(false))

	code := "J03.0"
	certainty := CertaintyDefinitive
	updated, err := f.svc.Update(context.Background(), d.ID, Patch{Code: &code, Certainty: &certainty})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Code != "J03.0" || updated.Certainty != CertaintyDefinitive {
		t.Errorf("patch not applied: %+v", updated)
	}
}

func TestUpdate_ClosedEpisodeDenied(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d, _ := f.svc.Create(context.Background(), ep, sample(false))

	f.cases.items[ep].Status = "closed"

	desc := "updated description"
	_, err := f.svc.Update(context.Background(), d.ID, Patch{Description: &desc})
	var gv *apperr.GuardViolation
	if !errors.As(err, &gv) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
}

func TestMakePrimary_TransfersFlag(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d1, _ := f.svc.Create(context.Background(), ep, sample(true))
	d2, _ := f.svc.Create(context.Background(), ep, sample(false))

	transfer, err := f.svc.MakePrimary(context.Background(), ep, d2.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.PreviousPrimary == nil || transfer.PreviousPrimary.ID != d1.ID {
		t.Errorf("expected previous primary %s, got %+v", d1.ID, transfer.PreviousPrimary)
	}
	if transfer.NewPrimary.ID != d2.ID || !transfer.NewPrimary.IsPrimary {
		t.Errorf("expected new primary %s, got %+v", d2.ID, transfer.NewPrimary)
	}

	demoted, _ := f.svc.Get(context.Background(), d1.ID)
	if demoted.IsPrimary {
		t.Error("previous primary was not demoted")
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("invariant broken after transfer")
	}
}

func TestMakePrimary_Idempotent(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d, _ := f.svc.Create(context.Background(), ep, sample(true))

	first, err := f.svc.MakePrimary(context.Background(), ep, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.svc.MakePrimary(context.Background(), ep, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tr := range []*PrimaryTransfer{first, second} {
		if tr.PreviousPrimary == nil || tr.PreviousPrimary.ID != d.ID || tr.NewPrimary.ID != d.ID {
			t.Errorf("expected no-op transfer pair, got %+v", tr)
		}
	}
	if f.primaryCount(t, ep) != 1 {
		t.Error("invariant broken after idempotent calls")
	}
}

func TestMakePrimary_FirstHolder(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d, _ := f.svc.Create(context.Background(), ep, sample(false))

	transfer, err := f.svc.MakePrimary(context.Background(), ep, d.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.PreviousPrimary != nil {
		t.Errorf("expected no previous primary, got %+v", transfer.PreviousPrimary)
	}
	if !transfer.NewPrimary.IsPrimary {
		t.Error("expected target promoted")
	}
}

func TestMakePrimary_TargetOutsideEpisode(t *testing.T) {
	f := newFixture()
	ep1 := f.cases.addEpisode("open")
	ep2 := f.cases.addEpisode("open")
	foreign, _ := f.svc.Create(context.Background(), ep2, sample(false))

	_, err := f.svc.MakePrimary(context.Background(), ep1, foreign.ID)
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMakePrimary_ClosedEpisodeDenied(t *testing.T) {
	f := newFixture()
	ep := f.cases.addEpisode("open")
	d, _ := f.svc.Create(context.Background(), ep, sample(false))

	f.cases.items[ep].Status = "closed"

	_, err := f.svc.MakePrimary(context.Background(), ep, d.ID)
	var gv *apperr.GuardViolation
	if !errors.As(err, &gv) {
		t.Fatalf("expected GuardViolation, got %v", err)
	}
}
