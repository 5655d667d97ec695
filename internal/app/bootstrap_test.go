package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate/entities/models"
)

type flakySchemaClient struct {
	callCount int
	failUntil int
}

func (c *flakySchemaClient) ClassExists(ctx context.Context, className string) (bool, error) {
	c.callCount++
	if c.callCount <= c.failUntil {
		return false, errors.New("connection refused")
	}
	return true, nil
}

func (c *flakySchemaClient) CreateClass(ctx context.Context, class *models.Class) error {
	return nil
}

func (c *flakySchemaClient) GetClass(ctx context.Context, className string) (*models.Class, error) {
	return &models.Class{Class: className}, nil
}

func (c *flakySchemaClient) AddProperty(ctx context.Context, className string, property *models.Property) error {
	return nil
}

func TestEnsureSchemaWithRetry_Success(t *testing.T) {
	client := &flakySchemaClient{}
	err := ensureSchemaWithRetry(context.Background(), client, 1, time.Millisecond)
	assert.NoError(t, err)
}

func TestEnsureSchemaWithRetry_RecoversAfterFailures(t *testing.T) {
	client := &flakySchemaClient{failUntil: 2}
	err := ensureSchemaWithRetry(context.Background(), client, 5, time.Millisecond)
	assert.NoError(t, err)
}

func TestEnsureSchemaWithRetry_ExhaustsAttempts(t *testing.T) {
	client := &flakySchemaClient{failUntil: 100}
	err := ensureSchemaWithRetry(context.Background(), client, 3, time.Millisecond)
	assert.Error(t, err)
}
