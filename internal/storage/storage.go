package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxParallelUploads = 4

type Object struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Result struct {
	Field string
	URL   string
	Err   error
}

// Uploader кладёт объект в бакет и возвращает итоговый ключ
type Uploader interface {
	Put(ctx context.Context, key string, obj Object) (string, error)
}

// Store собирает публичные ссылки вида <gateway>/<bucket>/<key>
type Store struct {
	uploader Uploader
	bucket   string
	gateway  string
}

func NewStore(uploader Uploader, bucket, gateway string) *Store {
	return &Store{uploader: uploader, bucket: bucket, gateway: strings.TrimRight(gateway, "/")}
}

func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.gateway, s.bucket, strings.TrimLeft(key, "/"))
}

func ObjectKey(owner string, obj Object) string {
	return fmt.Sprintf("%s/%s-%s%s", owner, obj.Field, uuid.NewString(), strings.ToLower(filepath.Ext(obj.Filename)))
}

// UploadAll грузит файлы параллельно. Ошибка одного файла попадает в его Result и не прерывает остальные.
func (s *Store) UploadAll(ctx context.Context, owner string, objects []Object) []Result {
	results := make([]Result, len(objects))

	var g errgroup.Group
	g.SetLimit(maxParallelUploads)
	for i, obj := range objects {
		i, obj := i, obj
		g.Go(func() error {
			results[i] = Result{Field: obj.Field}
			key, err := s.uploader.Put(ctx, ObjectKey(owner, obj), obj)
			if err != nil {
				results[i].Err = fmt.Errorf("upload %s: %w", obj.Field, err)
				return nil
			}
			results[i].URL = s.PublicURL(key)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
