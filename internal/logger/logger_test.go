package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingplanner/weddingplanner/internal/model"
)

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json").WithComponent("booking_service").WithRequestID("req-1")

	log.Info().Str("booking_id", "bkg_1").Msg("booking created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "booking created", entry["message"])
	assert.Equal(t, "booking_service", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "bkg_1", entry["booking_id"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	userID, resType, resID := "usr_1", "vendor", "vnd_1"
	log.Audit(&model.AuditLog{
		ID:           "aud_1",
		UserID:       &userID,
		Action:       model.AuditActionVendorApproved,
		ResourceType: &resType,
		ResourceID:   &resID,
		Metadata:     map[string]interface{}{"business": "Blooms"},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, true, entry["audit"])
	assert.Equal(t, "vendor.approved", entry["action"])
	assert.Equal(t, "usr_1", entry["user_id"])
	assert.Equal(t, "vnd_1", entry["resource_id"])
}

func TestAudit_OmitsMissingFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.Audit(&model.AuditLog{ID: "aud_2", Action: model.AuditActionLoginFailed})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "user_id")
	assert.NotContains(t, entry, "metadata")
}

func TestHTTPRequest_ServerErrorsLogAtErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", "json")

	log.HTTPRequest("GET", "GET /api/v1/services/{id}", "/api/v1/services/svc_1", 503, time.Millisecond, "10.0.0.1")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "GET /api/v1/services/{id}", entry["route"])
}
