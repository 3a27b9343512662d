package chat

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"carryconnect/internal/models"
	"carryconnect/pkg/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler exposes the chat room over WebSocket plus the history and
// attachment endpoints over plain HTTP.
type Handler struct {
	service   ServiceInterface
	hub       *Hub
	uploadDir string
}

func NewHandler(service ServiceInterface, hub *Hub, uploadDir string) *Handler {
	return &Handler{service: service, hub: hub, uploadDir: uploadDir}
}

// ServeWS handles GET /deliveries/:deliveryId/chat/ws. Authorization runs
// before the upgrade; a rejected user gets an HTTP error, not a socket.
func (h *Handler) ServeWS(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	if err := h.service.Authorize(c.Request().Context(), userID, deliveryID); err != nil {
		return utils.HandleServiceError(c, err)
	}

	conn, err := chatUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(h.hub, conn, h.service, userID, deliveryID)
	h.hub.Join(deliveryID, client)

	client.send <- Event{Type: EventJoined, Payload: map[string]int64{"delivery_id": deliveryID}}

	go client.writePump()
	go client.readPump()
	return nil
}

// GetHistory handles GET /deliveries/:deliveryId/chat/messages. The
// optional ?before=<messageId> param pages backwards through history.
func (h *Handler) GetHistory(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}

	var beforeID int64
	if raw := c.QueryParam("before"); raw != "" {
		beforeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || beforeID <= 0 {
			return utils.RespondWithError(c, http.StatusBadRequest, "Invalid before cursor")
		}
	}

	messages, err := h.service.GetHistory(c.Request().Context(), userID, deliveryID, beforeID)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	if messages == nil {
		messages = []*models.MessageWithSender{}
	}
	return utils.RespondWithJSON(c, http.StatusOK, messages)
}

// UploadAttachment handles POST /deliveries/:deliveryId/chat/attachments.
// The file lands in local storage under a random name and the returned
// path is what the client puts in a message's attachment_path.
func (h *Handler) UploadAttachment(c echo.Context) error {
	userID, _, err := utils.ExtractUserInfo(c)
	if err != nil {
		return err
	}
	deliveryID, err := utils.ParamInt64(c, "deliveryId")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid delivery ID")
	}
	if err := h.service.Authorize(c.Request().Context(), userID, deliveryID); err != nil {
		return utils.HandleServiceError(c, err)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Missing file")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Unreadable file")
	}
	defer src.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return utils.HandleServiceError(c, err)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	name := uuid.NewString() + ext
	dstPath := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(dstPath)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return utils.HandleServiceError(c, err)
	}

	attachmentType := fileHeader.Header.Get("Content-Type")
	return utils.RespondWithJSON(c, http.StatusCreated, map[string]string{
		"attachment_path": "/uploads/" + name,
		"attachment_type": attachmentType,
	})
}
