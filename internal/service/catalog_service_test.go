package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/anchor-locator-go/internal/auth"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/repository"
)

const bssidB = "AA:BB:CC:00:00:02"

func TestAnchorUpdate(t *testing.T) {
	env := newTestEnv(t)
	b := env.building(t, "hq", nil, nil)
	env.upload(t, b, [3]float64{0, 0, 0}, 1000,
		models.ObservationUpload{BSSID: bssidA, RSSI: -50},
		models.ObservationUpload{BSSID: bssidB, RSSI: -50},
	)
	a := env.anchorByBSSID(t, bssidA)
	ctx := context.Background()

	got, err := env.anchors.Update(ctx, a.ID, models.AnchorUpdate{Label: ptr("lobby"), X: ptr(4.0), Accuracy: ptr(1.5)})
	require.NoError(t, err)
	assert.Equal(t, "lobby", got.Label)
	assert.Equal(t, 4.0, *got.X)
	assert.Equal(t, 0.0, *got.Y)
	assert.Equal(t, 1.5, got.Accuracy)

	_, err = env.anchors.Update(ctx, a.ID, models.AnchorUpdate{BSSID: ptr("aa-bb-cc-00-00-02")})
	assert.True(t, errors.Is(err, ErrConflict), "%v", err)

	_, err = env.anchors.Update(ctx, a.ID, models.AnchorUpdate{BSSID: ptr("nope")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = env.anchors.Update(ctx, a.ID+100, models.AnchorUpdate{Label: ptr("x")})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnchorListValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.anchors.List(ctx, models.AnchorFilter{OrderBy: "rssi; DROP TABLE anchors"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, _, err = env.anchors.List(ctx, models.AnchorFilter{OrderDir: "sideways"})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, _, err = env.anchors.List(ctx, models.AnchorFilter{Limit: -1})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAnchorRecalculateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	b := env.building(t, "hq", nil, nil)
	env.upload(t, b, [3]float64{0, 0, 0}, 1000, models.ObservationUpload{BSSID: bssidA, RSSI: -50})
	a := env.anchorByBSSID(t, bssidA)
	ctx := context.Background()

	out, got, err := env.anchors.Recalculate(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, observability.OutcomeInsufficient, out.Result)
	assert.False(t, out.Updated)
	assert.Equal(t, a.ID, got.ID)

	require.NoError(t, env.anchors.Delete(ctx, a.ID))
	assert.True(t, errors.Is(env.anchors.Delete(ctx, a.ID), ErrNotFound))

	_, _, err = env.anchors.Recalculate(ctx, a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func newBuildingService(env *testEnv) *BuildingService {
	return NewBuildingService(env.buildings, repository.NewFloorPolygonRepository(env.db))
}

var square = [][3]float64{{0, 0, 0}, {10, 0, 0}, {10, 10, 0}, {0, 10, 0}}

func TestBuildingCreate(t *testing.T) {
	env := newTestEnv(t)
	svc := newBuildingService(env)
	ctx := context.Background()

	b, err := svc.Create(ctx, models.BuildingCreate{Name: " hq ", Lat: ptr(1.0), Lon: ptr(2.0)})
	require.NoError(t, err)
	assert.Equal(t, "hq", b.Name)
	assert.NotZero(t, b.ID)

	_, err = svc.Create(ctx, models.BuildingCreate{Name: "hq"})
	assert.True(t, errors.Is(err, ErrConflict))
	_, err = svc.Create(ctx, models.BuildingCreate{Name: "annex", Lat: ptr(1.0)})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.Get(ctx, b.ID+1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFloorPolygonsAndLocate(t *testing.T) {
	env := newTestEnv(t)
	svc := newBuildingService(env)
	ctx := context.Background()
	b := env.building(t, "hq", nil, nil)

	p, err := svc.CreateFloorPolygon(ctx, b, models.FloorPolygonInput{Floor: 1, Points: square})
	require.NoError(t, err)
	_, err = svc.CreateFloorPolygon(ctx, b, models.FloorPolygonInput{Floor: 1, Points: square})
	assert.True(t, errors.Is(err, ErrConflict))
	_, err = svc.CreateFloorPolygon(ctx, b, models.FloorPolygonInput{Floor: 2, Points: square[:2]})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	res, err := svc.Locate(ctx, b, models.LocateQuery{Floor: 1, X: 5, Y: 2})
	require.NoError(t, err)
	assert.True(t, res.Inside)
	assert.InDelta(t, 100, res.Area, 1e-9)
	assert.InDelta(t, 5, res.Centroid[0], 1e-9)
	assert.InDelta(t, 2, res.Distance, 1e-9)
	assert.Equal(t, [2]float64{5, 0}, res.Nearest)

	res, err = svc.Locate(ctx, b, models.LocateQuery{Floor: 1, X: 13, Y: 5})
	require.NoError(t, err)
	assert.False(t, res.Inside)
	assert.InDelta(t, 3, res.Distance, 1e-9)

	_, err = svc.Locate(ctx, b, models.LocateQuery{Floor: 7})
	assert.True(t, errors.Is(err, ErrNotFound))

	triangle := [][3]float64{{0, 0, 3}, {4, 0, 3}, {0, 4, 3}}
	updated, err := svc.UpdateFloorPolygon(ctx, b, p.ID, models.FloorPolygonInput{Floor: 1, Points: triangle})
	require.NoError(t, err)
	assert.Equal(t, triangle, updated.Points)

	other := env.building(t, "annex", nil, nil)
	assert.True(t, errors.Is(svc.DeleteFloorPolygon(ctx, other, p.ID), ErrNotFound))
	require.NoError(t, svc.DeleteFloorPolygon(ctx, b, p.ID))

	list, err := svc.ListFloorPolygons(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func newPOIService(env *testEnv) *POIService {
	return NewPOIService(repository.NewPOIRepository(env.db), env.buildings,
		repository.NewFloorPolygonRepository(env.db), env.anchorRepo, DefaultFloorHeight)
}

func TestRouteAcrossFloors(t *testing.T) {
	env := newTestEnv(t)
	svc := newPOIService(env)
	ctx := context.Background()
	b := env.building(t, "hq", nil, nil)

	start, err := svc.Create(ctx, models.POIInput{BuildingID: b, Floor: 0, X: 0, Y: 0, Type: "entrance"})
	require.NoError(t, err)
	end, err := svc.Create(ctx, models.POIInput{BuildingID: b, Floor: 2, X: 3, Y: 4, Type: "room", Name: "201"})
	require.NoError(t, err)

	route, err := svc.Route(ctx, models.RouteQuery{BuildingID: b, StartPOIID: start.ID, EndPOIID: end.ID})
	require.NoError(t, err)
	want := [][3]float64{{0, 0, 0}, {0, 0, 6}, {3, 4, 6}}
	if diff := cmp.Diff(want, route.Path); diff != "" {
		t.Errorf("route path mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 11, route.Length, 1e-9)

	same, err := svc.Create(ctx, models.POIInput{BuildingID: b, Floor: 0, X: 3, Y: 4, Type: "desk"})
	require.NoError(t, err)
	route, err = svc.Route(ctx, models.RouteQuery{BuildingID: b, StartPOIID: start.ID, EndPOIID: same.ID})
	require.NoError(t, err)
	assert.Len(t, route.Path, 2)
	assert.InDelta(t, 5, route.Length, 1e-9)

	other := env.building(t, "annex", nil, nil)
	_, err = svc.Route(ctx, models.RouteQuery{BuildingID: other, StartPOIID: start.ID, EndPOIID: end.ID})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPOICrudAndMap(t *testing.T) {
	env := newTestEnv(t)
	svc := newPOIService(env)
	ctx := context.Background()
	b := env.building(t, "hq", nil, nil)
	env.upload(t, b, [3]float64{1, 1, 0}, 1000, models.ObservationUpload{BSSID: bssidA, RSSI: -50})

	_, err := svc.Create(ctx, models.POIInput{BuildingID: b + 10, Type: "room"})
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = svc.Create(ctx, models.POIInput{BuildingID: b, Type: " "})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	p, err := svc.Create(ctx, models.POIInput{BuildingID: b, X: 1, Y: 2, Type: "room"})
	require.NoError(t, err)
	p, err = svc.Update(ctx, p.ID, models.POIInput{BuildingID: b, X: 2, Y: 2, Type: "stairs"})
	require.NoError(t, err)
	assert.Equal(t, "stairs", p.Type)

	m, err := svc.Map(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "hq", m.Building.Name)
	assert.Len(t, m.Anchors, 1)
	assert.Len(t, m.POIs, 1)

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, p.ID), ErrNotFound))
	_, err = svc.Map(ctx, b+10)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAuthService(t *testing.T) {
	env := newTestEnv(t)
	issuer := auth.NewIssuer("test-secret", time.Hour)
	svc := NewAuthService(repository.NewUserRepository(env.db), issuer, nil)
	ctx := context.Background()

	admin, err := svc.Register(ctx, models.Credentials{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	assert.True(t, admin.IsSuperuser, "first user is a superuser")

	user, err := svc.Register(ctx, models.Credentials{Username: "surveyor", Password: "password123"})
	require.NoError(t, err)
	assert.False(t, user.IsSuperuser)

	_, err = svc.Register(ctx, models.Credentials{Username: "admin", Password: "password456"})
	assert.True(t, errors.Is(err, ErrConflict))
	_, err = svc.Register(ctx, models.Credentials{Username: "ab", Password: "short"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Login(ctx, models.Credentials{Username: "surveyor", Password: "wrong-password"})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	tok, err := svc.Login(ctx, models.Credentials{Username: "surveyor", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	got, err := svc.Authenticate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, tok.AccessToken+"x")
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestAnchorGetByBSSID(t *testing.T) {
	env := newTestEnv(t)
	b := env.building(t, "hq", nil, nil)
	env.upload(t, b, [3]float64{0, 0, 0}, 1000, models.ObservationUpload{BSSID: bssidA, RSSI: -50})
	ctx := context.Background()

	a, err := env.anchors.GetByBSSID(ctx, "aa-bb-cc-00-00-01")
	require.NoError(t, err)
	assert.Equal(t, bssidA, a.BSSID)

	_, err = env.anchors.GetByBSSID(ctx, bssidB)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = env.anchors.GetByBSSID(ctx, "garbage")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
