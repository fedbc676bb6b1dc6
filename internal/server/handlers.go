// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/draft"
	"github.com/pdiddy/solaris/internal/session"
	"github.com/pdiddy/solaris/pkg/types"
)

var errNoDraft = errors.New("session has no draft")

type handler struct {
	sessions *session.Service
	texts    draft.Texts
	logger   *zap.Logger
}

type askRequest struct {
	Question string `json:"question"`
}

type openResponse struct {
	Passage types.Passage `json:"passage"`
	Page    int           `json:"page"`
}

type draftResponse struct {
	Draft    types.Draft `json:"draft"`
	Document string      `json:"document"`
	Filename string      `json:"filename"`
}

func (h *handler) create(c echo.Context) error {
	sess, err := h.sessions.Create(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": sess.ID})
}

func (h *handler) get(c echo.Context) error {
	sess, err := h.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *handler) remove(c echo.Context) error {
	if err := h.sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question required")
	}
	ctx := c.Request().Context()

	var reply session.Reply
	_, err := h.sessions.Update(ctx, c.Param("id"), func(s *session.Session) error {
		var err error
		reply, err = h.sessions.Ask(ctx, s, req.Question)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"answer":   reply.Answer.Text,
		"sources":  reply.Sources,
		"degraded": reply.Degraded,
	})
}

func (h *handler) clearHistory(c echo.Context) error {
	_, err := h.sessions.Update(c.Request().Context(), c.Param("id"), func(s *session.Session) error {
		s.ClearHistory()
		return nil
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) openSource(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "citation number must be an integer")
	}
	var p types.Passage
	sess, err := h.sessions.Update(c.Request().Context(), c.Param("id"), func(s *session.Session) error {
		var err error
		p, err = s.OpenCitation(n)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, openResponse{Passage: p, Page: sess.Selection.OpenPage})
}

func (h *handler) closeSource(c echo.Context) error {
	_, err := h.sessions.Update(c.Request().Context(), c.Param("id"), func(s *session.Session) error {
		s.CloseSource()
		return nil
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) generateDraft(c echo.Context) error {
	var fields types.ProjectFields
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	var d types.Draft
	sess, err := h.sessions.Update(ctx, c.Param("id"), func(s *session.Session) error {
		var err error
		d, err = h.sessions.Draft(ctx, s, fields)
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, draftResponse{
		Draft:    d,
		Document: draft.Render(d, h.texts),
		Filename: draft.FileName(sess.Fields.ProjectName),
	})
}

func (h *handler) exportDraft(c echo.Context) error {
	sess, err := h.sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if sess.Draft == nil {
		return errNoDraft
	}
	name := draft.FileName(sess.Draft.Project)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(draft.Render(*sess.Draft, h.texts)))
}
