package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
)

// streamBuffer is the per-subscriber channel capacity for the event stream.
// A subscriber that falls further behind misses events rather than blocking
// mutations.
const streamBuffer = 64

// reportEmergencyRequest is the body of POST /api/emergencies.
type reportEmergencyRequest struct {
	Description string `json:"description"`
	Location    string `json:"location"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
}

// assignRespondersRequest is the body of POST /api/emergencies/:id/responders.
type assignRespondersRequest struct {
	ResponderIDs []string `json:"responder_ids"`
}

// allocateResourcesRequest is the body of POST /api/emergencies/:id/resources.
type allocateResourcesRequest struct {
	ResourceID uint64 `json:"resource_id"`
	Quantity   uint64 `json:"quantity"`
}

// updateStatusRequest is the body of PUT /api/emergencies/:id/status.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// registerResponderRequest is the body of POST /api/responders.
type registerResponderRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// addResourceRequest is the body of POST /api/resources.
type addResourceRequest struct {
	Name     string `json:"name"`
	Quantity uint64 `json:"quantity"`
	Location string `json:"location"`
}

// authorizePersonnelRequest is the body of POST /api/personnel.
type authorizePersonnelRequest struct {
	Identity string `json:"identity"`
}

// allocateResourcesResponse pairs the updated emergency with the
// resource it drew from.
type allocateResourcesResponse struct {
	Emergency *dispatch.Emergency `json:"emergency"`
	Resource  *dispatch.Resource  `json:"resource"`
}

// pathID parses the numeric :id path parameter.
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		writeInvalidInput(c, "id must be a positive integer")

		return 0, false
	}

	return id, true
}

func (s *Server) reportEmergency(c *gin.Context) {
	var request reportEmergencyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	emergency, err := s.service.ReportEmergency(c.Request.Context(), callerIdentity(c),
		dispatch.EmergencyReport{
			Description: request.Description,
			Location:    request.Location,
			Type:        dispatch.EmergencyType(request.Type),
			Priority:    request.Priority,
		})
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, emergency)
}

func (s *Server) assignResponders(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request assignRespondersRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	emergency, err := s.service.AssignResponders(c.Request.Context(), callerIdentity(c), id, request.ResponderIDs)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, emergency)
}

func (s *Server) allocateResources(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request allocateResourcesRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	emergency, resource, err := s.service.AllocateResources(c.Request.Context(), callerIdentity(c),
		id, request.ResourceID, request.Quantity)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, allocateResourcesResponse{
		Emergency: emergency,
		Resource:  resource,
	})
}

func (s *Server) updateEmergencyStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var request updateStatusRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	emergency, err := s.service.UpdateEmergencyStatus(c.Request.Context(), callerIdentity(c),
		id, dispatch.EmergencyStatus(request.Status))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, emergency)
}

func (s *Server) registerResponder(c *gin.Context) {
	var request registerResponderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	responder, err := s.service.RegisterResponder(c.Request.Context(), callerIdentity(c),
		dispatch.ResponderRegistration{
			ID:       request.ID,
			Name:     request.Name,
			Type:     dispatch.ResponderType(request.Type),
			Location: request.Location,
		})
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, responder)
}

func (s *Server) addResource(c *gin.Context) {
	var request addResourceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	resource, err := s.service.AddResource(c.Request.Context(), callerIdentity(c),
		request.Name, request.Quantity, request.Location)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, resource)
}

func (s *Server) authorizePersonnel(c *gin.Context) {
	var request authorizePersonnelRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		writeInvalidInput(c, "malformed request body")

		return
	}

	if err := s.service.AuthorizePersonnel(c.Request.Context(), callerIdentity(c), request.Identity); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"identity": request.Identity, "authorized": true})
}

func (s *Server) getEmergency(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	emergency, err := s.service.Emergency(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, emergency)
}

func (s *Server) getAssignedResponders(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	responders, err := s.service.AssignedResponders(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"responder_ids": responders})
}

func (s *Server) getResponder(c *gin.Context) {
	responder := s.service.Responder(c.Request.Context(), c.Param("id"))

	c.JSON(http.StatusOK, responder)
}

func (s *Server) getResource(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	resource, err := s.service.Resource(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resource)
}

func (s *Server) listEvents(c *gin.Context) {
	if !s.service.IsAuthorized(c.Request.Context(), callerIdentity(c)) {
		writeError(c, dispatch.ErrUnauthorized)

		return
	}

	limit := 0

	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeInvalidInput(c, "limit must be a non-negative integer")

			return
		}

		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"events": s.service.Events(c.Request.Context(), limit)})
}

// streamEvents pushes notifications to the client as server-sent events until
// the subscription ends or the client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	if !s.service.IsAuthorized(c.Request.Context(), callerIdentity(c)) {
		writeError(c, dispatch.ErrUnauthorized)

		return
	}

	stream, cancel := s.service.SubscribeEvents(c.Request.Context(), streamBuffer)
	defer cancel()

	c.Stream(func(io.Writer) bool {
		select {
		case event, ok := <-stream:
			if !ok {
				return false
			}

			c.SSEvent(string(event.Type), event)

			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
