package common

import (
	"errors"
	"fmt"

	"wagerbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// ErrorKind classifies a failed command for logging and metrics
type ErrorKind string

const (
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindInvalidSlot       ErrorKind = "invalid_slot"
	ErrorKindInvalidArguments  ErrorKind = "invalid_arguments"
	ErrorKindForbidden         ErrorKind = "forbidden"
	ErrorKindPartialSettlement ErrorKind = "partial_settlement"
	ErrorKindPersistence       ErrorKind = "persistence"
	ErrorKindInternal          ErrorKind = "internal"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string    // Message shown to Discord user
	LogMessage  string    // Internal message for logging
	Kind        ErrorKind // Classification for metrics
	Err         error     // Underlying error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues
func NewUserError(kind ErrorKind, userMessage, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Kind:        kind,
	}
}

// NewSystemError creates an error for system issues
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: GenericUserMessage,
		LogMessage:  logMessage,
		Kind:        ErrorKindInternal,
		Err:         err,
	}
}

// UserMessageForError maps an error from the bet engine or stats service to
// the text shown to the user
func UserMessageForError(err error) (string, ErrorKind) {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr.UserMessage, botErr.Kind
	}

	var settleErr *service.SettlementError
	if errors.As(err, &settleErr) && settleErr.Partial() {
		return "The result was recorded and stats were updated, but the bet could not be removed from storage. It will be cleaned up on the next change.",
			ErrorKindPartialSettlement
	}

	switch {
	case errors.Is(err, service.ErrBetNotFound):
		return "Bet ID not found! Please provide a valid bet ID.", ErrorKindNotFound
	case errors.Is(err, service.ErrInvalidSlot):
		return "Invalid options for this bet.", ErrorKindInvalidSlot
	case errors.Is(err, service.ErrInvalidArguments):
		return "There seems to be a problem with the argument you've provided.", ErrorKindInvalidArguments
	case errors.Is(err, service.ErrPersistence):
		return "Could not save your change. Nothing was updated, please try again.", ErrorKindPersistence
	}
	return GenericUserMessage, ErrorKindInternal
}

// RespondWithError sends an error message as an ephemeral interaction response
func RespondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Error("Error sending error response")
	}
}

// FollowUpWithError sends an error message as a follow-up to a deferred interaction
func FollowUpWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: fmt.Sprintf("❌ %s", message),
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.WithError(err).Error("Error sending follow-up error message")
	}
}

// ErrorRecorder counts errors reported to users
type ErrorRecorder interface {
	RecordCommandError(command, errorKind string)
}

// HandleError logs err, records it and tells the user what went wrong
func HandleError(s *discordgo.Session, i *discordgo.InteractionCreate, recorder ErrorRecorder, command string, err error, deferred bool) {
	message, kind := UserMessageForError(err)

	fields := log.Fields{
		"command": command,
		"kind":    kind,
		"error":   err.Error(),
	}
	if user := InteractionUser(i); user != nil {
		fields["user_id"] = user.ID
	}
	if kind == ErrorKindInternal || kind == ErrorKindPersistence || kind == ErrorKindPartialSettlement {
		log.WithFields(fields).Error("Command failed")
	} else {
		log.WithFields(fields).Debug("Command rejected")
	}

	if recorder != nil {
		recorder.RecordCommandError(command, string(kind))
	}

	if deferred {
		FollowUpWithError(s, i, message)
	} else {
		RespondWithError(s, i, message)
	}
}

// RecoverInteraction recovers a panicking handler and apologises to the user.
// Use as: defer common.RecoverInteraction(s, i, "bet")
func RecoverInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, command string) {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"command": command,
			"panic":   r,
		}).Error("Interaction handler panicked")
		RespondWithError(s, i, GenericUserMessage)
	}
}
