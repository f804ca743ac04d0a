package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ecommerce-shop/services/shop-api/internal/repo"
	"ecommerce-shop/shared/pkg/apperr"
	"ecommerce-shop/shared/pkg/models"
)

type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Kinds accepted for upload. The first three are the premium requirements.
var documentKinds = map[string]bool{
	models.DocumentDNI:       true,
	models.DocumentCuenta:    true,
	models.DocumentDomicilio: true,
	"PROFILE":                true,
	"PRODUCT":                true,
}

type DocumentService struct {
	Store   repo.Store
	Objects ObjectStore
	Log     zerolog.Logger
}

func DocumentKey(userID, kind, filename string) string {
	return fmt.Sprintf("users/%s/documents/%s/%s-%s", userID, kind, uuid.NewString(), cleanFilename(filename))
}

func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if clean == "" || clean == "." || clean == ".." {
		return "file"
	}
	return clean
}

// Upload stores the files and appends one document per file to the user.
func (s *DocumentService) Upload(ctx context.Context, userID, kind string, files []Upload) ([]models.Document, error) {
	if err := checkID("user", userID); err != nil {
		return nil, err
	}
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if !documentKinds[kind] {
		return nil, apperr.Validation("unknown document kind", fmt.Sprintf("kind %q", kind))
	}
	if len(files) == 0 {
		return nil, apperr.Validation("no files uploaded", "")
	}
	if _, err := loadUser(ctx, s.Store, userID); err != nil {
		return nil, err
	}

	docs := make([]models.Document, 0, len(files))
	for _, f := range files {
		ref, err := s.Objects.Put(ctx, DocumentKey(userID, kind, f.Filename), f.Body, f.Size, f.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store document: %w", err)
		}
		docs = append(docs, models.Document{Kind: kind, Name: f.Filename, Reference: ref})
	}

	if err := s.Store.Users().AddDocuments(ctx, userID, docs); err != nil {
		s.Log.Error().Err(err).Str("user_id", userID).Int("objects", len(docs)).Msg("documents stored but not recorded")
		return nil, fmt.Errorf("record documents: %w", err)
	}
	s.Log.Info().Str("user_id", userID).Str("kind", kind).Int("files", len(docs)).Msg("documents uploaded")
	return docs, nil
}
