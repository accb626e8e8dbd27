package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/internal/models"
	"padayatra/internal/services"
	"padayatra/internal/utils"
)

type stubTempleRepo struct {
	temples []*models.Temple
}

func (r *stubTempleRepo) Create(ctx context.Context, temple *models.Temple) error {
	temple.ID = primitive.NewObjectID()
	r.temples = append(r.temples, temple)
	return nil
}

func (r *stubTempleRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error) {
	for _, t := range r.temples {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, services.ErrTempleNotFound
}

func (r *stubTempleRepo) List(ctx context.Context) ([]*models.Temple, error) {
	out := append([]*models.Temple(nil), r.temples...)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *stubTempleRepo) FindNear(ctx context.Context, lat, lng, radiusM float64) ([]*models.Temple, error) {
	var out []*models.Temple
	for _, t := range r.temples {
		if utils.IsWithinRadius(lat, lng, t.Location.Latitude(), t.Location.Longitude(), radiusM) {
			out = append(out, t)
		}
	}
	return out, nil
}

func newTempleRouter(t *testing.T) (*gin.Engine, *stubTempleRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubTempleRepo{}
	handler := NewTempleHandler(repo)

	router := gin.New()
	group := router.Group("/api/v1/temples")
	group.GET("", handler.ListTemples)
	group.POST("", handler.CreateTemple)
	group.GET("/nearby", handler.GetNearby)
	group.GET("/:id", handler.GetTemple)

	return router, repo
}

func TestTempleCreateAndList(t *testing.T) {
	router, repo := newTempleRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/temples",
		`{"name":"Palani Murugan Temple","latitude":10.4397,"longitude":77.5217,"visit_radius_m":150,"order":1}`)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.temples, 1)
	assert.InDelta(t, 10.4397, repo.temples[0].Location.Latitude(), 1e-9)

	// Out-of-range coordinates are rejected.
	w = doRequest(router, http.MethodPost, "/api/v1/temples",
		`{"name":"Nowhere","latitude":95,"longitude":77,"order":2}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/temples", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Temple `json:"data"`
		Meta struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Meta.Count)
}

func TestTempleGetByID(t *testing.T) {
	router, repo := newTempleRouter(t)

	temple := &models.Temple{Name: "A", Location: models.NewLocation(10.1, 77.1), Order: 1}
	require.NoError(t, repo.Create(context.Background(), temple))

	w := doRequest(router, http.MethodGet, "/api/v1/temples/"+temple.ID.Hex(), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/temples/"+primitive.NewObjectID().Hex(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/temples/not-an-id", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTempleNearby(t *testing.T) {
	router, repo := newTempleRouter(t)

	near := &models.Temple{Name: "Near", Location: models.NewLocation(10.001, 77.001), Order: 1}
	far := &models.Temple{Name: "Far", Location: models.NewLocation(11.0, 78.0), Order: 2}
	require.NoError(t, repo.Create(context.Background(), near))
	require.NoError(t, repo.Create(context.Background(), far))

	w := doRequest(router, http.MethodGet, "/api/v1/temples/nearby?latitude=10.0&longitude=77.0&radius=500", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []models.Temple `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Near", list.Data[0].Name)

	w = doRequest(router, http.MethodGet, "/api/v1/temples/nearby?latitude=abc&longitude=77", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/temples/nearby?latitude=10&longitude=77&radius=-5", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
