package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportConversation(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	env.addUser(t, otherUserID, "bob")

	_, err := env.svc.SendUserMessage(env.ctx, userID, "   ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.svc.SendUserMessage(env.ctx, userID, strings.Repeat("я", maxSupportMessage+1))
	assert.ErrorIs(t, err, ErrValidation)

	first, err := env.svc.SendUserMessage(env.ctx, userID, "Where is my payout?")
	require.NoError(t, err)
	_, err = env.svc.SendUserMessage(env.ctx, userID, "Hello?")
	require.NoError(t, err)

	chat, err := env.svc.OpenChat(env.ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ChatID, chat.ID)
	assert.Equal(t, 2, chat.UnreadForAdmin)
	assert.Equal(t, "Hello?", chat.LastMessage)

	_, err = env.svc.SendAdminMessage(env.ctx, otherUserID, chat.ID, "hi")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = env.svc.SendAdminMessage(env.ctx, mainAdminID, 999, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	reply, err := env.svc.SendAdminMessage(env.ctx, mainAdminID, chat.ID, "Paid today")
	require.NoError(t, err)
	assert.True(t, reply.FromAdmin)

	_, err = env.svc.ListMessages(env.ctx, otherUserID, chat.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	msgs, err := env.svc.ListMessages(env.ctx, mainAdminID, chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "Where is my payout?", msgs[0].Body)
	assert.Equal(t, "Paid today", msgs[2].Body)

	chat, err = env.svc.OpenChat(env.ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, chat.UnreadForAdmin)
	assert.Equal(t, 1, chat.UnreadForUser)

	_, err = env.svc.ListMessages(env.ctx, userID, chat.ID)
	require.NoError(t, err)
	chat, err = env.svc.OpenChat(env.ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, chat.UnreadForUser)
}

func TestSupportArchive(t *testing.T) {
	env := setupTestEnv(t)
	env.addUser(t, userID, "alice")
	msg, err := env.svc.SendUserMessage(env.ctx, userID, "help")
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.ArchiveChat(env.ctx, userID, msg.ChatID), ErrPermissionDenied)
	require.NoError(t, env.svc.ArchiveChat(env.ctx, mainAdminID, msg.ChatID))

	open, err := env.svc.ListChats(env.ctx, mainAdminID, false)
	require.NoError(t, err)
	assert.Empty(t, open)
	archived, err := env.svc.ListChats(env.ctx, mainAdminID, true)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	// A new user message brings the chat back.
	_, err = env.svc.SendUserMessage(env.ctx, userID, "still need help")
	require.NoError(t, err)
	open, err = env.svc.ListChats(env.ctx, mainAdminID, false)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, env.svc.ArchiveChat(env.ctx, mainAdminID, msg.ChatID))
	require.NoError(t, env.svc.RestoreChat(env.ctx, mainAdminID, msg.ChatID))
	open, err = env.svc.ListChats(env.ctx, mainAdminID, false)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	require.NoError(t, env.svc.DeleteChat(env.ctx, mainAdminID, msg.ChatID))
	assert.ErrorIs(t, env.svc.DeleteChat(env.ctx, mainAdminID, msg.ChatID), ErrNotFound)
	_, err = env.svc.SendUserMessage(env.ctx, 404, "hi")
	assert.ErrorIs(t, err, ErrNotFound)
}
