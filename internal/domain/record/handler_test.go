package record

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newHandlerFixture() (*Handler, *fixture) {
	f := newFixture()
	return NewHandler(f.svc), f
}

func TestHandler_CreateNote(t *testing.T) {
	h, f := newHandlerFixture()
	episodeID := f.cases.add(CaseEpisode, "open")

	body := `{"kind":"note","content":{
		"subjective":"patient reports headache",
		"objective":"blood pressure normal",
		"assessment":"tension headache likely",
		"plan":"rest and hydration advised"}}`

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("caseId")
	c.SetParamValues(episodeID.String())

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var doc Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if doc.CurrentVersionNumber != 1 {
		t.Errorf("expected version 1, got %d", doc.CurrentVersionNumber)
	}
}

func TestHandler_CreateOnClosedEpisodeIs409(t *testing.T) {
	h, f := newHandlerFixture()
	episodeID := f.cases.add(CaseEpisode, "closed")

	body := `{"kind":"note","content":{
		"subjective":"patient reports headache",
		"objective":"blood pressure normal",
		"assessment":"tension headache likely",
		"plan":"rest and hydration advised"}}`

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("caseId")
	c.SetParamValues(episodeID.String())

	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_CreateShortContentIs400(t *testing.T) {
	h, f := newHandlerFixture()
	orderID := f.cases.add(CaseOrder, "in-progress")

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"result","content":{"summary":"abc"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("caseId")
	c.SetParamValues(orderID.String())

	err := h.Create(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_AmendInvalidID(t *testing.T) {
	h, _ := newHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"content":{}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Amend(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_DeleteNoteIs409(t *testing.T) {
	h, f := newHandlerFixture()
	episodeID := f.cases.add(CaseEpisode, "open")
	doc, _ := f.svc.Create(context.Background(), episodeID, KindNote, noteContent("x"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID.String())

	err := h.Delete(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestHandler_CompareMissingParamsIs400(t *testing.T) {
	h, f := newHandlerFixture()
	episodeID := f.cases.add(CaseEpisode, "open")
	doc, _ := f.svc.Create(context.Background(), episodeID, KindNote, noteContent("x"))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID.String())

	err := h.Compare(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetUnknownDocumentIs404(t *testing.T) {
	h, _ := newHandlerFixture()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("9e8b4f9c-1b0a-4f44-a3a6-52a7d3e2a111")

	err := h.Get(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_HistoryReturnsAscending(t *testing.T) {
	h, f := newHandlerFixture()
	episodeID := f.cases.add(CaseEpisode, "open")
	doc, _ := f.svc.Create(context.Background(), episodeID, KindNote, noteContent("v1"))
	if _, err := f.svc.Amend(context.Background(), doc.ID, noteContent("v2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doc.ID.String())

	if err := h.History(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var versions []Version
	if err := json.Unmarshal(rec.Body.Bytes(), &versions); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(versions) != 2 || versions[0].Number != 1 || versions[1].Number != 2 {
		t.Errorf("expected versions 1,2 in order, got %+v", versions)
	}
}
