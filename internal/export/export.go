package export

import (
	"encoding/csv"
	"os"
	"time"

	"github.com/thereayou/wallet-profile/internal/models"
	"go.uber.org/zap"
)

var header = []string{"address", "nickname", "email", "created_at"}

// Exporter пишет выгрузки во временные файлы и удаляет их после отдачи клиенту
type Exporter struct {
	dir   string
	delay time.Duration
	log   *zap.Logger
}

func NewExporter(dir string, delay time.Duration, log *zap.Logger) *Exporter {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Exporter{dir: dir, delay: delay, log: log}
}

// WriteUsers сериализует пользователей в CSV с разделителем ';' и возвращает путь к файлу
func (e *Exporter) WriteUsers(users []models.UserSummary) (string, error) {
	f, err := os.CreateTemp(e.dir, "users-*.csv")
	if err != nil {
		return "", err
	}

	w := csv.NewWriter(f)
	w.Comma = ';'

	if err := w.Write(header); err != nil {
		return "", e.discard(f, err)
	}
	for _, u := range users {
		row := []string{u.Address, u.Nickname, u.Email, u.CreatedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(row); err != nil {
			return "", e.discard(f, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", e.discard(f, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// ScheduleRemoval удаляет файл через заданную задержку
func (e *Exporter) ScheduleRemoval(path string) *time.Timer {
	return time.AfterFunc(e.delay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.log.Warn("failed to remove export file", zap.String("path", path), zap.Error(err))
			return
		}
		e.log.Debug("export file removed", zap.String("path", path))
	})
}

func (e *Exporter) discard(f *os.File, err error) error {
	f.Close()
	os.Remove(f.Name())
	return err
}
