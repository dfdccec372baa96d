package server

import (
	"time"

	"marketplace/internal/middleware"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
	"marketplace/internal/service"

	"github.com/gofiber/fiber/v2"
)

// submissionHandlers serves one moderated entity over HTTP.
type submissionHandlers[T any, P moderation.Entity[T]] struct {
	svc *service.SubmissionService[T, P]
}

// createMeta is the part of a create body that is not payload.
type createMeta struct {
	Status         string `json:"status"`
	CaptchaToken   string `json:"captcha_token"`
	RecaptchaToken string `json:"recaptcha_token"`
	OTPCode        string `json:"otp_code"`
}

type decisionRequest struct {
	RejectionReason string  `json:"rejection_reason"`
	AdminComments   *string `json:"admin_comments"`
}

type bulkRequest struct {
	IDs             []uint  `json:"ids"`
	RejectionReason string  `json:"rejection_reason"`
	AdminComments   *string `json:"admin_comments"`
}

// registerEntity mounts the user routes under /api/{plural} and the review
// routes under /api/admin/{plural}. Approve, reject and the bulk actions are
// also reachable under /api/{plural} for admins.
func registerEntity[T any, P moderation.Entity[T]](s *Server, api, admin fiber.Router, svc *service.SubmissionService[T, P]) {
	h := &submissionHandlers[T, P]{svc: svc}
	policy := svc.Policy()
	sanitize := middleware.SanitizeJSONBody()

	create := []fiber.Handler{s.AuthRequired()}
	if policy.RateLimitCreate && s.config.SubmissionRateLimit > 0 {
		window := time.Duration(s.config.SubmissionRateWindowMinutes) * time.Minute
		create = append(create, middleware.RateLimit(s.redis, s.config.SubmissionRateLimit, window, policy.Entity+"_create"))
	}
	create = append(create, h.create)

	public := api.Group("/"+policy.Plural, sanitize)
	public.Get("/", s.OptionalAuth(), h.list)
	public.Get("/my", s.AuthRequired(), h.listMine)
	public.Post("/", create...)
	public.Put("/bulk-approve", s.AuthRequired(), s.AdminRequired(), h.bulkApprove)
	public.Put("/bulk-reject", s.AuthRequired(), s.AdminRequired(), h.bulkReject)
	public.Get("/:id", s.OptionalAuth(), h.get)
	public.Put("/:id", s.AuthRequired(), h.update)
	public.Delete("/:id", s.AuthRequired(), h.softDelete)
	if policy.HasDraft() {
		public.Post("/:id/submit", s.AuthRequired(), h.submit)
	}
	public.Post("/:id/approve", s.AuthRequired(), s.AdminRequired(), h.approve)
	public.Post("/:id/reject", s.AuthRequired(), s.AdminRequired(), h.reject)

	review := admin.Group("/"+policy.Plural, sanitize)
	review.Get("/", h.list)
	review.Post("/", h.create)
	review.Put("/bulk-approve", h.bulkApprove)
	review.Put("/bulk-reject", h.bulkReject)
	review.Get("/:id", h.get)
	review.Put("/:id", h.update)
	review.Delete("/:id", h.softDelete)
	review.Post("/:id/restore", h.restore)
	review.Post("/:id/approve", h.approve)
	review.Post("/:id/reject", h.reject)
	if policy.AllowHardDelete {
		review.Delete("/:id/permanent", h.hardDelete)
	}
}

func (h *submissionHandlers[T, P]) list(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	q := moderation.ListQuery{
		Limit:       page.Limit,
		Offset:      page.Offset,
		Search:      c.Query("search"),
		Status:      moderation.NormalizeStatus(c.Query("status")),
		ShowDeleted: queryBool(c, "show_deleted"),
	}
	result, err := h.svc.List(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

func (h *submissionHandlers[T, P]) listMine(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	q := moderation.ListQuery{
		Limit:  page.Limit,
		Offset: page.Offset,
		Search: c.Query("search"),
		Status: moderation.NormalizeStatus(c.Query("status")),
	}
	result, err := h.svc.ListMine(c.UserContext(), actorFrom(c), q)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

func (h *submissionHandlers[T, P]) get(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	item, err := h.svc.Get(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

func (h *submissionHandlers[T, P]) create(c *fiber.Ctx) error {
	item := new(T)
	var meta createMeta
	if err := c.BodyParser(item); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := c.BodyParser(&meta); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	token := meta.CaptchaToken
	if token == "" {
		token = meta.RecaptchaToken
	}
	in := service.CreateInput{
		Status:       moderation.NormalizeStatus(meta.Status),
		CaptchaToken: token,
		OTPCode:      meta.OTPCode,
		RemoteIP:     c.IP(),
	}

	created, err := h.svc.Create(c.UserContext(), actorFrom(c), item, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *submissionHandlers[T, P]) update(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	updated, err := h.svc.Update(c.UserContext(), actorFrom(c), id, func(item *T) error {
		return c.BodyParser(item)
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(updated)
}

func (h *submissionHandlers[T, P]) softDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	if err := h.svc.Delete(c.UserContext(), actorFrom(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": h.svc.Policy().Label + " deleted"})
}

func (h *submissionHandlers[T, P]) restore(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	item, err := h.svc.Restore(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

func (h *submissionHandlers[T, P]) hardDelete(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	if err := h.svc.HardDelete(c.UserContext(), actorFrom(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": h.svc.Policy().Label + " permanently deleted"})
}

func (h *submissionHandlers[T, P]) submit(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	item, err := h.svc.Submit(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

func (h *submissionHandlers[T, P]) approve(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	var req decisionRequest
	if !parseOptionalBody(c, &req) {
		return nil
	}
	item, err := h.svc.Approve(c.UserContext(), actorFrom(c), id, req.AdminComments)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

func (h *submissionHandlers[T, P]) reject(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	var req decisionRequest
	if !parseOptionalBody(c, &req) {
		return nil
	}
	item, err := h.svc.Reject(c.UserContext(), actorFrom(c), id, req.RejectionReason, req.AdminComments)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(item)
}

func (h *submissionHandlers[T, P]) bulkApprove(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	result, err := h.svc.BulkApprove(c.UserContext(), actorFrom(c), req.IDs, req.AdminComments)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

func (h *submissionHandlers[T, P]) bulkReject(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	result, err := h.svc.BulkReject(c.UserContext(), actorFrom(c), req.IDs, req.RejectionReason, req.AdminComments)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// parseOptionalBody decodes the body when one was sent. On a malformed body it
// writes a 400 response and returns false.
func parseOptionalBody(c *fiber.Ctx, dst any) bool {
	if len(c.Body()) == 0 {
		return true
	}
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return false
	}
	return true
}
