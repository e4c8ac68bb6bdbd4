package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jwebster45206/roleplay-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupsHandler(t *testing.T) {
	f := newFixture()
	f.store.AddSetup("tien-hiep", testSetup())
	other := testSetup()
	other.Name = "Kiếm hiệp"
	f.store.AddSetup("kiem-hiep", other)
	handler := NewSetupsHandler(f.engine, testLogger())

	rr := do(handler, http.MethodGet, "/v1/setups", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []SetupListing
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "kiem-hiep", list[0].ID)
	assert.Equal(t, "tien-hiep", list[1].ID)

	rr = do(handler, http.MethodGet, "/v1/setups/tien-hiep", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var setup state.StorySetup
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&setup))
	assert.Equal(t, "Lâm Phong", setup.Character.Name)

	assert.Equal(t, http.StatusNotFound, do(handler, http.MethodGet, "/v1/setups/missing", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(handler, http.MethodPost, "/v1/setups", "").Code)
}
