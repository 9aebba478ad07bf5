package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"userapi/src/models"
	"userapi/src/store"
	"userapi/src/validators"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

const (
	msgListFailed    = "Failed to fetch users"
	msgGetFailed     = "Failed to fetch user"
	msgCreateFailed  = "Failed to create user"
	msgInvalidID     = "Invalid user ID"
	msgUserNotFound  = "User not found"
	msgEmailInUse    = "Email address is already in use"
	msgMalformedBody = "Request body must be a JSON object"
	msgBodyTooLarge  = "Request body is too large"
)

type UserHandler struct {
	users   store.UserRepository
	timeout time.Duration
	logger  *slog.Logger
}

func NewUserHandler(users store.UserRepository, timeout time.Duration, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &UserHandler{users: users, timeout: timeout, logger: logger}
}

func (h *UserHandler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// GetAll lists users one page at a time.
func (h *UserHandler) GetAll(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	limit := parseLimit(c.Query("limit"))
	offset := parseOffset(c.Query("offset"))

	var (
		total int64
		users []models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := h.users.Count(gctx)
		total = n
		return err
	})
	g.Go(func() error {
		page, err := h.users.List(gctx, limit, offset)
		users = page
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.ErrorContext(ctx, "error fetching users", slog.String("error", err.Error()))
		respondError(c, models.Database(msgListFailed))
		return
	}
	if users == nil {
		users = []models.User{}
	}

	c.JSON(http.StatusOK, models.SuccessPage(users, models.NewPagination(total, limit, offset)))
}

// GetByID returns a single user.
func (h *UserHandler) GetByID(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, models.BadRequest(msgInvalidID))
		return
	}

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, models.NotFound(msgUserNotFound))
			return
		}
		h.logger.ErrorContext(ctx, "error fetching user", slog.Int64("id", id), slog.String("error", err.Error()))
		respondError(c, models.Database(msgGetFailed))
		return
	}

	c.JSON(http.StatusOK, models.Success(user))
}

// Create validates the payload, rejects duplicate emails, inserts the user
// and returns the stored row.
func (h *UserHandler) Create(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, models.BadRequest(msgBodyTooLarge))
			return
		}
		respondError(c, models.BadRequest(msgMalformedBody))
		return
	}

	in, verrs := validators.ValidateCreateUser(payload)
	if verrs != nil {
		respondError(c, models.Validation(verrs.Message()))
		return
	}

	// Advisory check for a friendly error; the unique index is authoritative.
	_, err := h.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		respondError(c, models.BadRequest(msgEmailInUse))
		return
	case !errors.Is(err, store.ErrNotFound):
		h.logger.ErrorContext(ctx, "error creating user", slog.String("step", "lookup"), slog.String("error", err.Error()))
		respondError(c, models.Database(msgCreateFailed))
		return
	}

	id, err := h.users.Create(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			respondError(c, models.BadRequest(msgEmailInUse))
			return
		}
		h.logger.ErrorContext(ctx, "error creating user", slog.String("step", "insert"), slog.String("error", err.Error()))
		respondError(c, models.Database(msgCreateFailed))
		return
	}

	user, err := h.users.FindByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "error creating user", slog.String("step", "reload"), slog.Int64("id", id), slog.String("error", err.Error()))
		respondError(c, models.Database(msgCreateFailed))
		return
	}

	c.JSON(http.StatusCreated, models.Success(user))
}

// parseLimit applies the list defaults: unparsable or non-positive values
// fall back to 20 and anything above 100 is clamped.
func parseLimit(raw string) uint64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return uint64(min(n, maxLimit))
}

func parseOffset(raw string) uint64 {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return uint64(n)
}

func respondError(c *gin.Context, err *models.APIError) {
	c.AbortWithStatusJSON(err.Status(), models.Failure(err))
}
