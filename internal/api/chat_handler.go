package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tiagocruz3/Brainiacodelab/internal/core"
	"github.com/Tiagocruz3/Brainiacodelab/internal/db"
	"github.com/Tiagocruz3/Brainiacodelab/internal/models"
	"github.com/Tiagocruz3/Brainiacodelab/internal/persistence"
)

// ChatHandler exposes chat persistence and the background sync queue.
type ChatHandler struct {
	sync    *persistence.Service
	storage core.StorageService
	log     *zap.Logger
}

func NewChatHandler(sync *persistence.Service, storage core.StorageService, log *zap.Logger) *ChatHandler {
	if sync == nil {
		panic("chat sync service cannot be nil for ChatHandler")
	}
	if storage == nil {
		panic("StorageService cannot be nil for ChatHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatHandler{sync: sync, storage: storage, log: log.Named("chat_handler")}
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	items, err := h.sync.LoadUserChats(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ChatListResponse{Chats: items})
}

func (h *ChatHandler) SaveChat(c *gin.Context) {
	var req models.SaveChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	chat, err := h.sync.SaveChat(c.Request.Context(), persistence.ChatInput{
		ChatID:      req.ChatID,
		Messages:    req.Messages,
		Description: req.Description,
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) SyncChat(c *gin.Context) {
	var req models.SyncChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	chat, err := h.sync.SyncChat(c.Request.Context(), syncInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// AutoSync queues the sync and answers before it runs.
func (h *ChatHandler) AutoSync(c *gin.Context) {
	var req models.SyncChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	opID, err := h.sync.AutoSync(syncInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, AutoSyncResponse{OperationID: opID})
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, ok := h.ownedChat(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chat, ok := h.ownedChat(c)
	if !ok {
		return
	}
	if err := h.sync.DeleteChat(c.Request.Context(), chat.ID); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) QueueStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.sync.QueueStatus())
}

func (h *ChatHandler) ownedChat(c *gin.Context) (*models.Chat, bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: core.ErrNotAuthenticated.Error()})
		return nil, false
	}

	chat, err := h.storage.GetChat(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		writeError(c, h.log, err)
		return nil, false
	}
	if chat == nil || chat.UserID != user.ID {
		writeError(c, h.log, db.ErrNotFound)
		return nil, false
	}
	return chat, true
}

func syncInput(req models.SyncChatRequest) persistence.ChatInput {
	return persistence.ChatInput{
		ChatID:      req.ChatID,
		Messages:    req.Messages,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		SupabaseID:  req.SupabaseID,
	}
}
