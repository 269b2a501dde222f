package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"run-leaderboard-service/logger"
	"run-leaderboard-service/middleware"
	"run-leaderboard-service/services"

	"github.com/gofiber/fiber/v2"
)

type SessionHandler struct {
	Sessions *services.RunSessionService
	log      *logger.Logger
}

func NewSessionHandler(sessions *services.RunSessionService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{Sessions: sessions, log: log.With("component", "session_handler")}
}

// SetupSessionRoutes mounts the run session API. Every route needs a token
// issued to the game client.
func SetupSessionRoutes(app *fiber.App, h *SessionHandler, jwtSecret string) {
	session := app.Group("/api/v1/session", middleware.Auth(jwtSecret), middleware.RequireGameAuth())

	session.Post("/run", h.Start)
	session.Delete("/run", h.Delete)
	session.Post("/run/:sessionID", h.Checkpoint)
	session.Post("/run/:sessionID/end", h.End)
}

type startRequest struct {
	MapID    string `json:"mapID"`
	TrackNum int    `json:"trackNum"`
	ZoneNum  int    `json:"zoneNum"`
}

type checkpointRequest struct {
	ZoneNum int   `json:"zoneNum"`
	Tick    int64 `json:"tick"`
}

func (h *SessionHandler) Start(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var req startRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.MapID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "mapID is required"})
	}

	session, err := h.Sessions.Start(c.UserContext(), user.ID, req.MapID, req.TrackNum, req.ZoneNum)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(session)
}

func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	if err := h.Sessions.Delete(c.UserContext(), user.ID); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) Checkpoint(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var req checkpointRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	ts, err := h.Sessions.Checkpoint(c.UserContext(), user.ID, c.Params("sessionID"), req.ZoneNum, req.Tick)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ts)
}

// End hands whatever replay arrived to the service, so a missing or
// oversized upload still consumes the session and comes back as
// BAD_REPLAY_FILE.
func (h *SessionHandler) End(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var data []byte
	if file, err := c.FormFile("file"); err == nil {
		data, err = readUpload(file, h.Sessions.MaxReplayBytes)
		if err != nil {
			return h.fail(c, err)
		}
	}

	res, err := h.Sessions.End(c.UserContext(), user.ID, user.SteamID, c.Params("sessionID"), data)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// readUpload reads at most one byte past limit so the service can tell an
// oversized replay apart from one that fits.
func readUpload(file *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open replay upload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read replay upload: %w", err)
	}
	return data, nil
}

// fail maps service errors onto status codes. Validation rejections carry
// their code so the game client can branch on it.
func (h *SessionHandler) fail(c *fiber.Ctx, err error) error {
	var verr *services.RunValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Reason,
			"code":  verr.Code,
		})
	case errors.Is(err, services.ErrNotSessionOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrMapNotFound),
		errors.Is(err, services.ErrTrackNotFound),
		errors.Is(err, services.ErrZoneNotSupported),
		errors.Is(err, services.ErrActiveSessionExists),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrNoActiveSession),
		errors.Is(err, services.ErrInvalidCheckpoint):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Error("session request failed", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
