package httpapi

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/pixelcv-arcade/internal/adapter/arcadepresenter"
	"github.com/park285/pixelcv-arcade/internal/arcade"
	"github.com/park285/pixelcv-arcade/internal/game"
	"github.com/park285/pixelcv-arcade/pkg/arcadedto"
)

func (s *Server) handleHealth(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.svc.Sessions()),
	})
}

func (s *Server) handleGames(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.GamesResponse{Games: s.presenter.Formatter().GameInfos()})
}

func (s *Server) handleStart(ctx *fasthttp.RequestCtx) {
	var req arcadedto.StartSessionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, arcadedto.CodeBadRequest, "invalid json body")
		return
	}
	rctx, cancel := requestContext(ctx)
	defer cancel()
	v, err := s.svc.StartSession(rctx, req.UserID, req.GameID, req.Difficulty)
	if err != nil {
		s.fail(ctx, "start_session", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, arcadedto.SessionResponse{Session: s.presenter.Formatter().ToDTOSession(v, false)})
}

func (s *Server) handleGet(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	v, err := s.svc.GetSession(rctx, id)
	if err != nil {
		s.fail(ctx, "get_session", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.SessionResponse{Session: s.presenter.Formatter().ToDTOSession(v, false)})
}

// handleMove plays one move. A rejected move still answers 200 with
// accepted=false and the unchanged session.
func (s *Server) handleMove(ctx *fasthttp.RequestCtx, id string) {
	var req arcadedto.MoveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, arcadedto.CodeBadRequest, "invalid json body")
		return
	}
	if req.To == nil {
		writeError(ctx, fasthttp.StatusBadRequest, arcadedto.CodeBadRequest, "to is required")
		return
	}
	from := game.Placement
	if req.From != nil {
		from = *req.From
	}
	rctx, cancel := requestContext(ctx)
	defer cancel()
	v, err := s.svc.SubmitMove(rctx, id, from, *req.To)
	if err != nil {
		s.fail(ctx, "submit_move", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.SessionResponse{Session: s.presenter.Formatter().ToDTOSession(v, true)})
}

func (s *Server) handleReset(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	v, err := s.svc.ResetSession(rctx, id)
	if err != nil {
		s.fail(ctx, "reset_session", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.SessionResponse{Session: s.presenter.Formatter().ToDTOSession(v, false)})
}

func (s *Server) handleEnd(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	if err := s.svc.EndSession(rctx, id); err != nil {
		s.fail(ctx, "end_session", err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (s *Server) handleBoard(ctx *fasthttp.RequestCtx, id string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	v, err := s.svc.GetSession(rctx, id)
	if err != nil {
		s.fail(ctx, "board_png", err)
		return
	}
	size := ctx.QueryArgs().GetUintOrZero("size")
	if size > 128 {
		size = 128
	}
	data, err := s.presenter.BoardPNG(rctx, v, size)
	if err != nil {
		s.fail(ctx, "board_png", err)
		return
	}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(data)
}

func (s *Server) handleHistory(ctx *fasthttp.RequestCtx, userID string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	limit := ctx.QueryArgs().GetUintOrZero("limit")
	games, err := s.svc.History(rctx, userID, limit)
	if err != nil {
		s.fail(ctx, "history", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.HistoryResponse{UserID: userID, Games: arcadepresenter.ToDTOGames(games)})
}

func (s *Server) handleProfile(ctx *fasthttp.RequestCtx, userID string) {
	rctx, cancel := requestContext(ctx)
	defer cancel()
	p, err := s.svc.Profile(rctx, userID)
	if err != nil {
		s.fail(ctx, "profile", err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, arcadedto.ProfileResponse{Profile: arcadepresenter.ToDTOProfile(p)})
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, op string, err error) {
	status, code := classify(err)
	if status >= fasthttp.StatusInternalServerError {
		s.logger.Error("http_error", zap.String("op", op), zap.Error(err))
	}
	writeError(ctx, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, arcade.ErrSessionNotFound):
		return fasthttp.StatusNotFound, arcadedto.CodeNotFound
	case errors.Is(err, arcade.ErrUnknownGame):
		return fasthttp.StatusBadRequest, arcadedto.CodeUnknownGame
	case errors.Is(err, arcade.ErrUnknownDifficulty):
		return fasthttp.StatusBadRequest, arcadedto.CodeUnknownLevel
	case errors.Is(err, arcade.ErrInvalidUser):
		return fasthttp.StatusBadRequest, arcadedto.CodeBadRequest
	case errors.Is(err, arcade.ErrSessionLimit):
		return fasthttp.StatusTooManyRequests, arcadedto.CodeTooMany
	case errors.Is(err, arcade.ErrStaleSnapshot):
		return fasthttp.StatusConflict, arcadedto.CodeConflict
	case errors.Is(err, arcade.ErrServiceClosed):
		return fasthttp.StatusServiceUnavailable, arcadedto.CodeUnavailable
	}
	return fasthttp.StatusInternalServerError, arcadedto.CodeInternal
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, arcadedto.CodeInternal, "encode response")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, message string) {
	body, _ := json.Marshal(arcadedto.ErrorEnvelope{Error: arcadedto.DomainError{
		Code:      code,
		Message:   strings.TrimSpace(message),
		Retryable: status == fasthttp.StatusServiceUnavailable || status == fasthttp.StatusTooManyRequests,
	}})
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}
