package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/drivesense/internal/common"
	"github.com/dmitrijs2005/drivesense/internal/server/classifier"
	"github.com/dmitrijs2005/drivesense/internal/server/models"
	"github.com/dmitrijs2005/drivesense/internal/server/repositories/events"
	"github.com/dmitrijs2005/drivesense/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, userName, password string) (string, error)
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type EventService interface {
	Record(ctx context.Context, user *models.User, in models.DrivingEventInput) (*models.DrivingEvent, error)
	ListFor(ctx context.Context, user *models.User, page events.Page) ([]*models.DrivingEvent, error)
	GetOne(ctx context.Context, user *models.User, id int64) (*models.DrivingEvent, error)
}

type StyleService interface {
	Save(ctx context.Context, user *models.User, in models.DrivingStyleInput) (*models.DrivingStyle, error)
	LatestFor(ctx context.Context, user *models.User) (*models.DrivingStyle, error)
	History(ctx context.Context, user *models.User) ([]*models.DrivingStyle, error)
}

type Classifier interface {
	ClassifyEvent(features []float64) (*classifier.Verdict, error)
	ClassifyStyle(features []float64) (*classifier.Verdict, error)
}

const defaultPageLimit = 100

type Handlers struct {
	users         UserService
	events        EventService
	styles        StyleService
	models        Classifier
	metrics       *Metrics
	validate      *validator.Validate
	enforceActive bool
}

// bind fills dst from the JSON body, or from the query string when the
// body is empty, and validates it.
func (h *Handlers) bind(c *fiber.Ctx, dst any) error {
	var err error
	if len(c.Body()) > 0 {
		err = c.BodyParser(dst)
	} else {
		err = c.QueryParser(dst)
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err)
	}
	return nil
}

func (h *Handlers) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), services.RegisterInput{
		Email:    req.Email,
		UserName: req.Username,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return err
	}

	return c.JSON(toUserResponse(user))
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	token, err := h.users.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrAuthentication) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid credentials")
		}
		return err
	}

	return c.JSON(tokenResponse{AccessToken: token, TokenType: common.TokenType})
}

func (h *Handlers) CreateEvent(c *fiber.Ctx) error {
	var req eventRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	e, err := h.events.Record(c.UserContext(), currentUser(c), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(toEventResponse(e))
}

func (h *Handlers) ListEvents(c *fiber.Ctx) error {
	q := pageQuery{Limit: defaultPageLimit}
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid paging parameters")
	}
	if err := h.validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err)
	}

	list, err := h.events.ListFor(c.UserContext(), currentUser(c), events.Page{Limit: q.Limit, Offset: q.Skip})
	if err != nil {
		return err
	}

	out := make([]eventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEventResponse(e))
	}
	return c.JSON(out)
}

func (h *Handlers) GetEvent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid event id")
	}

	e, err := h.events.GetOne(c.UserContext(), currentUser(c), int64(id))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Event not found")
		}
		return err
	}
	return c.JSON(toEventResponse(e))
}

func (h *Handlers) PredictEvent(c *fiber.Ctx) error {
	return h.predict(c, common.ModelTypeDrivingEvent, h.models.ClassifyEvent)
}

func (h *Handlers) PredictStyle(c *fiber.Ctx) error {
	return h.predict(c, common.ModelTypeDrivingStyle, h.models.ClassifyStyle)
}

func (h *Handlers) predict(c *fiber.Ctx, modelType string, classify func([]float64) (*classifier.Verdict, error)) error {
	var req predictionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	v, err := classify(req.Features)
	h.metrics.observePrediction(modelType, err)
	if err != nil {
		return err
	}
	return c.JSON(toPredictionResponse(v))
}

func (h *Handlers) SaveStyle(c *fiber.Ctx) error {
	var req styleSaveRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	st, err := h.styles.Save(c.UserContext(), currentUser(c), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(toStyleResponse(st))
}

func (h *Handlers) LatestStyle(c *fiber.Ctx) error {
	st, err := h.styles.LatestFor(c.UserContext(), currentUser(c))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "No style analysis found")
		}
		return err
	}
	return c.JSON(toStyleResponse(st))
}

func (h *Handlers) StyleHistory(c *fiber.Ctx) error {
	list, err := h.styles.History(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}

	out := make([]styleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toStyleResponse(s))
	}
	return c.JSON(out)
}

func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "healthy", "api_version": common.APIVersion})
}

func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Driving Behavior API",
		"version": common.APIVersion,
		"health":  "/health",
	})
}
