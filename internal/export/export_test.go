package export

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/wallet-profile/internal/models"
	"go.uber.org/zap"
)

func TestWriteUsers(t *testing.T) {
	e := NewExporter(t.TempDir(), time.Minute, zap.NewNop())
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	path, err := e.WriteUsers([]models.UserSummary{
		{Address: "0xabc", Nickname: "semi;colon", Email: "a@example.com", CreatedAt: created},
		{Address: "0xdef", Nickname: "plain", CreatedAt: created},
	})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"address", "nickname", "email", "created_at"}, rows[0])
	assert.Equal(t, []string{"0xabc", "semi;colon", "a@example.com", "2024-03-01T12:00:00Z"}, rows[1])
	assert.Equal(t, "", rows[2][2])
}

func TestWriteUsers_Empty(t *testing.T) {
	e := NewExporter(t.TempDir(), time.Minute, zap.NewNop())

	path, err := e.WriteUsers(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "address;nickname;email;created_at\n", string(data))
}

func TestScheduleRemoval(t *testing.T) {
	e := NewExporter(t.TempDir(), 10*time.Millisecond, zap.NewNop())

	path, err := e.WriteUsers(nil)
	require.NoError(t, err)

	e.ScheduleRemoval(path)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond)
}
