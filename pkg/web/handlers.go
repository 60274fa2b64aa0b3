// Package web provides HTTP handlers and REST API endpoints for flow and
// session management.
package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/jornadaflow/jornada/pkg/eventbus"
	"github.com/jornadaflow/jornada/pkg/events"
	"github.com/jornadaflow/jornada/pkg/flowstore"
	"github.com/jornadaflow/jornada/pkg/models"
	"github.com/jornadaflow/jornada/pkg/registry"
	"github.com/jornadaflow/jornada/pkg/services"
)

type APIHandlers struct {
	flowService    *flowstore.Service
	sessionService *services.Session
	validator      *validator.Validate
	registry       *registry.Registry
	eventBus       eventbus.EventPublisher
}

func NewAPIHandlers(
	flowService *flowstore.Service,
	sessionService *services.Session,
	validator *validator.Validate,
	registry *registry.Registry,
	eventBus eventbus.EventPublisher,
) *APIHandlers {
	return &APIHandlers{
		flowService:    flowService,
		sessionService: sessionService,
		validator:      validator,
		registry:       registry,
		eventBus:       eventBus,
	}
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.flowService.Flows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows":       flows,
		"total_count": len(flows),
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.flowService.FlowByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req SaveFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	flow := &models.Flow{
		Name:  req.Name,
		Nodes: req.Nodes,
		Edges: req.Edges,
	}

	created, err := h.flowService.SaveDraft(c.Context(), flow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var req SaveFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.flowService.FlowByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	existing.Name = req.Name
	existing.Nodes = req.Nodes
	existing.Edges = req.Edges

	updated, err := h.flowService.SaveDraft(c.Context(), existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.flowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	snapshot, err := h.flowService.Publish(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	event := events.FlowPublished{
		BaseEvent:  events.NewBaseEvent(events.FlowPublishedEvent, ""),
		FlowID:     id,
		SnapshotID: snapshot.ID,
	}
	// The snapshot is already stored; a lost announcement does not fail
	// the request.
	_ = h.eventBus.Publish(c.Context(), snapshot.ID, event)

	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

// GetNodeKinds lists the registered node kinds with their config schemas,
// for flow editors to render palettes and validate configs client-side.
func (h *APIHandlers) GetNodeKinds(c fiber.Ctx) error {
	factories := h.registry.Factories()

	kinds := make([]NodeKindResponse, 0, len(factories))
	for _, factory := range factories {
		kinds = append(kinds, NodeKindResponse{
			Kind:        string(factory.Kind()),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Kind < kinds[j].Kind })

	return c.JSON(fiber.Map{"node_kinds": kinds})
}

func (h *APIHandlers) StartSession(c fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := h.sessionService.Start(c.Context(), services.StartRequest{
		FlowID:            req.FlowID,
		ContactID:         req.ContactID,
		ChannelInstanceID: req.ChannelInstanceID,
		Variables:         req.Variables,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransformSessionResponse(session))
}

func (h *APIHandlers) GetSessions(c fiber.Ctx) error {
	sessions, err := h.sessionService.Sessions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	responses := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, TransformSessionResponse(session))
	}

	return c.JSON(fiber.Map{
		"sessions":    responses,
		"total_count": len(responses),
	})
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	session, err := h.sessionService.SessionByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(TransformSessionResponse(session))
}

// ForceAdvance pushes a waiting session down its response edge without
// contact input. This is the operator override for stuck conversations.
func (h *APIHandlers) ForceAdvance(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	if err := h.sessionService.ForceAdvance(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// InboundMessage is the channel webhook: one contact message routed into the
// contact's active session. The engine runs asynchronously; the handler only
// enqueues the invocation.
func (h *APIHandlers) InboundMessage(c fiber.Ctx) error {
	var req InboundMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	session, err := h.sessionService.HandleInbound(c.Context(), services.InboundRequest{
		ChannelInstanceID: req.ChannelInstanceID,
		ContactID:         req.ContactID,
		Text:              req.Text,
		Kind:              models.MessageKind(req.Kind),
		MediaRef:          req.MediaRef,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"session_id": session.ID,
		"status":     string(session.Status),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.flowService.HealthCheck(c.Context())

	status := "healthy"
	message := "Jornada API is healthy"
	httpStatus := http.StatusOK

	if repositoryErr != nil {
		status = "unhealthy"
		message = "Jornada API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryErr == nil,
			"node_kinds": len(h.registry.Kinds()),
		},
		"timestamp": time.Now().UTC(),
	})
}
