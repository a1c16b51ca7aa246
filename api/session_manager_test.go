package api_test

import (
	"testing"

	"github.com/go-lc3/lc3sim/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_CreateSession_AssignsUniqueID(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())

	a, err := sm.CreateSession()
	require.NoError(t, err)
	b, err := sm.CreateSession()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, sm.Count())
}

func TestSessionManager_GetSession_UnknownIDIsAnError(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())
	_, err := sm.GetSession("nonexistent")
	assert.ErrorIs(t, err, api.ErrSessionNotFound)
}

func TestSessionManager_DestroySession_RemovesIt(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())
	session, err := sm.CreateSession()
	require.NoError(t, err)

	require.NoError(t, sm.DestroySession(session.ID))
	_, err = sm.GetSession(session.ID)
	assert.ErrorIs(t, err, api.ErrSessionNotFound)
}

func TestSessionManager_DestroySession_UnknownIDIsAnError(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())
	assert.ErrorIs(t, sm.DestroySession("nonexistent"), api.ErrSessionNotFound)
}

func TestSessionManager_ListSessions_ReturnsEveryActiveID(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())
	a, _ := sm.CreateSession()
	b, _ := sm.CreateSession()

	ids := sm.ListSessions()
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestSession_FreshSession_HasWorkingMMIOSinks(t *testing.T) {
	sm := api.NewSessionManager(api.NewBroadcaster())
	session, err := sm.CreateSession()
	require.NoError(t, err)

	require.NotNil(t, session.VM.Mem.Display)
	require.NotNil(t, session.VM.Mem.Keyboard)
	require.NotNil(t, session.Debugger)
}
