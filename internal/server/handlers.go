package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/chatroom-go/internal/classify"
	"github.com/raphaelgruber/chatroom-go/internal/models"
)

const welcomeMessage = "Welcome to the chat room API"

type sendRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type classifyRequest struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

type moderationRequest struct {
	Text string `json:"text"`
}

func (s *Server) welcome(c *gin.Context) {
	c.String(http.StatusOK, welcomeMessage)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.version})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.collector.Snapshot())
}

func (s *Server) listRooms(c *gin.Context) {
	rooms, err := s.rooms.ListRooms(c.Request.Context(), c.Query("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	c.JSON(http.StatusOK, rooms)
}

func (s *Server) getRoom(c *gin.Context) {
	room, err := s.rooms.GetRoom(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) createRoom(c *gin.Context) {
	var in models.RoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	room, err := s.rooms.CreateRoom(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Location", "/api/rooms/"+room.ID)
	c.JSON(http.StatusCreated, room)
}

func (s *Server) updateRoom(c *gin.Context) {
	var patch models.RoomPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	room, err := s.rooms.UpdateRoom(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) deleteRoom(c *gin.Context) {
	if err := s.rooms.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	chat, err := s.rooms.SendMessage(c.Request.Context(), c.Param("id"), req.UserID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (s *Server) moderate(c *gin.Context) {
	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	res, err := s.rooms.Moderate(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse(res))
}

func (s *Server) classifyText(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	kind, err := classify.ParseKind(req.Kind)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "kind"})
		return
	}
	res, err := s.rooms.Classify(c.Request.Context(), req.Text, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resultResponse(res))
}

type labelResponse struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	*classify.Result
}

func resultResponse(r *classify.Result) labelResponse {
	return labelResponse{Kind: r.Kind.String(), Label: r.Label(), Result: r}
}
