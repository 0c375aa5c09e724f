package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"sendit/messenger/internal/model"
	"sendit/messenger/internal/pkg/httputils"
	"sendit/messenger/internal/service"
)

type ChatHandler struct {
	conversations service.ConversationService
}

func NewChatHandler(conversations service.ConversationService) *ChatHandler {
	return &ChatHandler{conversations: conversations}
}

func (h *ChatHandler) RegisterRoutes(router *mux.Router, owner mux.MiddlewareFunc) {
	owned := router.PathPrefix("/{userId}").Subrouter()
	owned.Use(owner)
	owned.HandleFunc("/newConv", h.createConversation).Methods("POST", "OPTIONS")
	owned.HandleFunc("/createGroup", h.createGroup).Methods("POST", "OPTIONS")
	owned.HandleFunc("/{convId}/sendMsg", h.sendMessage).Methods("POST", "OPTIONS")
	owned.HandleFunc("/{convId}/addReaction", h.addReaction).Methods("POST", "OPTIONS")
	owned.HandleFunc("/{convId}", h.getConversation).Methods("GET", "OPTIONS")
}

type ConversationResponse struct {
	Message      string                  `json:"message,omitempty"`
	Conversation *model.ConversationView `json:"conversation"`
}

// @Summary Get conversation
// @ID get-conversation
// @Tags chats
// @Produce json
// @Param userId path string true "User ID"
// @Param convId path string true "Conversation ID"
// @Success 200 {object} ConversationResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{userId}/{convId} [get]
func (h *ChatHandler) getConversation(w http.ResponseWriter, r *http.Request) {
	view, err := h.conversations.GetConversation(r.Context(), mux.Vars(r)["convId"])
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, ConversationResponse{Conversation: view})
}

// @Summary Start a conversation
// @Description Creates a conversation between the user and the given phones with an initial message
// @ID new-conversation
// @Tags chats
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param conversation body service.CreateConversationInput true "Conversation"
// @Success 201 {object} service.CreatedConversation
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chats/{userId}/newConv [post]
func (h *ChatHandler) createConversation(w http.ResponseWriter, r *http.Request) {
	var request service.CreateConversationInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	created, err := h.conversations.CreateConversation(r.Context(), mux.Vars(r)["userId"], request)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, created)
}

// @Summary Create a group
// @ID create-group
// @Tags chats
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param group body service.CreateGroupInput true "Group"
// @Success 201 {object} service.CreatedConversation
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /chats/{userId}/createGroup [post]
func (h *ChatHandler) createGroup(w http.ResponseWriter, r *http.Request) {
	var request service.CreateGroupInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	created, err := h.conversations.CreateGroup(r.Context(), mux.Vars(r)["userId"], request)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, created)
}

// @Summary Send a message
// @ID send-message
// @Tags chats
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param convId path string true "Conversation ID"
// @Param message body service.AppendMessageInput true "Message"
// @Success 201 {object} ConversationResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chats/{userId}/{convId}/sendMsg [post]
func (h *ChatHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var request service.AppendMessageInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	vars := mux.Vars(r)
	view, err := h.conversations.AppendMessage(r.Context(), vars["convId"], vars["userId"], request)
	if err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, ConversationResponse{
		Message:      "Message sent",
		Conversation: view,
	})
}

type MessageResponse struct {
	Message string `json:"message"`
}

// @Summary React to a message
// @ID add-reaction
// @Tags chats
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param convId path string true "Conversation ID"
// @Param reaction body service.ReactionInput true "Reaction"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /chats/{userId}/{convId}/addReaction [post]
func (h *ChatHandler) addReaction(w http.ResponseWriter, r *http.Request) {
	var request service.ReactionInput
	if err := httputils.DecodeJSON(r, &request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	if err := h.conversations.ApplyReaction(r.Context(), mux.Vars(r)["convId"], request); err != nil {
		httputils.ResponseAppError(w, r, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, MessageResponse{Message: "Reaction added"})
}
