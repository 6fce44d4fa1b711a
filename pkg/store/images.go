package store

import (
	"context"
	"fmt"
	"time"
)

// Image is an uploaded image; the bytes live in blob storage under Key.
type Image struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

const imageColumns = `id, blob_key, url, name, content_type, size, created_by, created_at`

func scanImage(row interface{ Scan(...any) error }) (Image, error) {
	var im Image
	var created string
	if err := row.Scan(&im.ID, &im.Key, &im.URL, &im.Name, &im.ContentType, &im.Size, &im.CreatedBy, &created); err != nil {
		return Image{}, err
	}
	im.CreatedAt = parseTime(created)
	return im, nil
}

// CreateImage records an uploaded image. A caller-chosen ID is kept.
func (s *Store) CreateImage(ctx context.Context, im *Image) error {
	if im.Key == "" || im.URL == "" {
		return fmt.Errorf("store: image key and url required")
	}
	if im.ID == "" {
		im.ID = newID()
	}
	now := s.now()
	im.CreatedAt = now.UTC()
	_, err := s.db.ExecContext(ctx, `INSERT INTO images (`+imageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		im.ID, im.Key, im.URL, im.Name, im.ContentType, im.Size, im.CreatedBy, formatTime(now))
	if err != nil {
		return fmt.Errorf("store: create image: %w", err)
	}
	return nil
}

// GetImage returns the image with id.
func (s *Store) GetImage(ctx context.Context, id string) (Image, error) {
	im, err := scanImage(s.db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id))
	if err != nil {
		return Image{}, notFound(err)
	}
	return im, nil
}

// ListImages returns images, newest first.
func (s *Store) ListImages(ctx context.Context) ([]Image, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list images: %w", err)
	}
	defer rows.Close()
	var out []Image
	for rows.Next() {
		im, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// DeleteImage removes the image row; the caller deletes the blob.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	return affected(s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id))
}
