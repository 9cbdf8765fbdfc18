package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social-service/internal/models"
)

func TestFieldsRoundTrip(t *testing.T) {
	record := models.Presence{Online: true, LastSeen: 1717243200123, Location: "/home"}

	fields := fieldsFromRecord(record)
	stored := make(map[string]string, len(fields))
	for k, v := range fields {
		stored[k] = v.(string)
	}

	assert.Equal(t, record, recordFromFields(stored))
}

func TestMissingRecordReadsAsOffline(t *testing.T) {
	record := recordFromFields(nil)
	assert.False(t, record.Online)
	assert.Zero(t, record.LastSeen)
	assert.Empty(t, record.Location)
}

func TestOfflineRecordKeepsLastSeen(t *testing.T) {
	fields := fieldsFromRecord(models.Presence{Online: false, LastSeen: 42, Location: "/search"})
	stored := make(map[string]string, len(fields))
	for k, v := range fields {
		stored[k] = v.(string)
	}

	record := recordFromFields(stored)
	assert.False(t, record.Online)
	assert.EqualValues(t, 42, record.LastSeen)
	assert.Equal(t, "/search", record.Location)
}
