package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryReceiptStorage(t *testing.T) {
	s := NewMemoryReceiptStorage()
	require.NotNil(t, s)
	assert.Equal(t, "https://storage.example.com", s.BaseURL)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryReceiptStorage_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("stores bytes and content type", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		payload := []byte("%PDF-1.4 fake receipt")

		err := s.Upload(ctx, "receipts/exp-1/taxi.pdf", "application/pdf", bytes.NewReader(payload), int64(len(payload)))
		require.NoError(t, err)

		data, contentType, ok := s.Get("receipts/exp-1/taxi.pdf")
		require.True(t, ok)
		assert.Equal(t, payload, data)
		assert.Equal(t, "application/pdf", contentType)
	})

	t.Run("empty storage key", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		err := s.Upload(ctx, "", "image/jpeg", bytes.NewReader([]byte("x")), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})

	t.Run("size mismatch", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		err := s.Upload(ctx, "receipts/exp-1/short.jpg", "image/jpeg", bytes.NewReader([]byte("abc")), 10)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "size mismatch")
	})
}

func TestMemoryReceiptStorage_PresignedURL(t *testing.T) {
	ctx := context.Background()

	t.Run("link for stored receipt", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		require.NoError(t, s.Upload(ctx, "receipts/exp-2/hotel.jpg", "image/jpeg", bytes.NewReader([]byte("jpg")), 3))

		url, err := s.PresignedURL(ctx, "receipts/exp-2/hotel.jpg", time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/receipts/exp-2/hotel.jpg")
	})

	t.Run("missing receipt", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		_, err := s.PresignedURL(ctx, "receipts/nothing.jpg", time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("empty storage key", func(t *testing.T) {
		s := NewMemoryReceiptStorage()
		_, err := s.PresignedURL(ctx, "", time.Hour)
		require.Error(t, err)
	})
}

func TestMemoryReceiptStorage_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryReceiptStorage()
	require.NoError(t, s.Upload(ctx, "receipts/exp-3/meal.png", "image/png", bytes.NewReader([]byte("png")), 3))

	require.NoError(t, s.Delete(ctx, "receipts/exp-3/meal.png"))
	assert.Equal(t, 0, s.Len())

	_, _, ok := s.Get("receipts/exp-3/meal.png")
	assert.False(t, ok)

	require.Error(t, s.Delete(ctx, ""))
}
