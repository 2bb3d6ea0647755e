package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"stream-resolver/internal/domain"
	"stream-resolver/internal/usecases"
)

// TopTenResponse is the body of a successful listing request.
type TopTenResponse struct {
	Success bool                `json:"success"`
	Items   []domain.TopTenItem `json:"items"`
}

// HealthResponse is the body of the liveness probe.
type HealthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Handlers contains the HTTP handlers of the service.
type Handlers struct {
	resolve *usecases.ResolveLinkUseCase
	topTen  *usecases.GetTopTenUseCase
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(resolve *usecases.ResolveLinkUseCase, topTen *usecases.GetTopTenUseCase) *Handlers {
	return &Handlers{
		resolve: resolve,
		topTen:  topTen,
	}
}

// Resolve redirects to the proxied playlist of ?service=&id=[&referer=].
func (h *Handlers) Resolve(c *fiber.Ctx) error {
	req := domain.ResolutionRequest{
		Service: utils.CopyString(c.Query("service")),
		ID:      utils.CopyString(c.Query("id")),
		Referer: utils.CopyString(c.Query("referer")),
	}

	link, err := h.resolve.Execute(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Redirect(link, fiber.StatusFound)
}

// TopTen returns the upstream top 10 row.
func (h *Handlers) TopTen(c *fiber.Ctx) error {
	items, err := h.topTen.Execute(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(TopTenResponse{Success: true, Items: items})
}

// Health answers the liveness probe.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{Success: true, Status: "ok"})
}
