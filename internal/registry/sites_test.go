package registry

import (
	"context"
	"testing"

	"device-registry/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestCreateSiteGeneratesToken(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	site, err := r.CreateSite(ctx, &domain.SiteCreateRequest{Name: "Plant A"})
	require.NoError(t, err)
	require.NotEmpty(t, site.Token)
	require.False(t, site.CreatedDate.IsZero())
	require.Equal(t, site.CreatedDate, site.LastUpdatedDate)

	// Stored form must round-trip identically.
	fetched, err := r.GetSiteByToken(ctx, site.Token)
	require.NoError(t, err)
	require.Equal(t, site, fetched)
}

func TestCreateSiteDuplicateToken(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	createTestSite(t, r, "site-1")
	_, err := r.CreateSite(ctx, &domain.SiteCreateRequest{Token: "site-1", Name: "Other"})
	require.Error(t, err)
	require.True(t, domain.HasCode(err, domain.ErrDuplicateSiteToken))
}

func TestCreateSiteRequiresName(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.CreateSite(context.Background(), &domain.SiteCreateRequest{})
	require.Error(t, err)
}

func TestUpdateSitePartialFields(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	site := createTestSite(t, r, "site-1")
	updated, err := r.UpdateSite(ctx, "site-1", &domain.SiteCreateRequest{Description: "west wing"})
	require.NoError(t, err)
	require.Equal(t, site.Name, updated.Name)
	require.Equal(t, "west wing", updated.Description)
	require.False(t, updated.LastUpdatedDate.Before(site.LastUpdatedDate))
}

func TestUpdateSiteNotFound(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.UpdateSite(context.Background(), "ghost", &domain.SiteCreateRequest{Name: "x"})
	require.True(t, domain.HasCode(err, domain.ErrInvalidSiteToken))
}

func TestDeleteSiteSoftVsForce(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	createTestSite(t, r, "site-1")
	deleted, err := r.DeleteSite(ctx, "site-1", false)
	require.NoError(t, err)
	require.True(t, deleted.Deleted)

	// Soft delete keeps the document fetchable and its token reserved.
	fetched, err := r.GetSiteByToken(ctx, "site-1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.True(t, fetched.Deleted)
	_, err = r.CreateSite(ctx, &domain.SiteCreateRequest{Token: "site-1", Name: "Again"})
	require.True(t, domain.HasCode(err, domain.ErrDuplicateSiteToken))

	// Force delete frees it.
	_, err = r.DeleteSite(ctx, "site-1", true)
	require.NoError(t, err)
	fetched, err = r.GetSiteByToken(ctx, "site-1")
	require.NoError(t, err)
	require.Nil(t, fetched)
	_, err = r.CreateSite(ctx, &domain.SiteCreateRequest{Token: "site-1", Name: "Again"})
	require.NoError(t, err)
}

func TestListSitesSortedByName(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		_, err := r.CreateSite(ctx, &domain.SiteCreateRequest{Name: name})
		require.NoError(t, err)
	}
	results, err := r.ListSites(ctx, domain.NewSearchCriteria(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 3, results.Total)
	require.Equal(t, "Alpha", results.Items[0].Name)
	require.Equal(t, "Bravo", results.Items[1].Name)
	require.Equal(t, "Charlie", results.Items[2].Name)
}

func TestZoneLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.CreateZone(ctx, "no-such-site", &domain.ZoneCreateRequest{Name: "Z"})
	require.True(t, domain.HasCode(err, domain.ErrInvalidSiteReference))

	createTestSite(t, r, "site-1")
	zone, err := r.CreateZone(ctx, "site-1", &domain.ZoneCreateRequest{
		Name: "Loading Dock",
		Coordinates: []domain.Location{
			{Latitude: 33.75, Longitude: -84.39},
			{Latitude: 33.76, Longitude: -84.38},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, zone.Token)
	require.Equal(t, "site-1", zone.SiteToken)

	updated, err := r.UpdateZone(ctx, zone.Token, &domain.ZoneCreateRequest{Name: "Dock"})
	require.NoError(t, err)
	require.Equal(t, "Dock", updated.Name)
	require.Len(t, updated.Coordinates, 2)

	results, err := r.ListZones(ctx, "site-1", domain.NewSearchCriteria(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 1, results.Total)

	_, err = r.DeleteZone(ctx, zone.Token, true)
	require.NoError(t, err)
	fetched, err := r.GetZone(ctx, zone.Token)
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestUpdateZoneOpacityToZero(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	createTestSite(t, r, "site-1")
	opacity := 0.8
	zone, err := r.CreateZone(ctx, "site-1", &domain.ZoneCreateRequest{
		Name:    "Loading Dock",
		Opacity: &opacity,
	})
	require.NoError(t, err)
	require.Equal(t, 0.8, zone.Opacity)

	// An absent opacity leaves the stored value alone.
	updated, err := r.UpdateZone(ctx, zone.Token, &domain.ZoneCreateRequest{Name: "Dock"})
	require.NoError(t, err)
	require.Equal(t, 0.8, updated.Opacity)

	// An explicit zero is a real value, not "leave as is".
	zero := 0.0
	updated, err = r.UpdateZone(ctx, zone.Token, &domain.ZoneCreateRequest{Opacity: &zero})
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.Opacity)

	fetched, err := r.GetZone(ctx, zone.Token)
	require.NoError(t, err)
	require.Equal(t, 0.0, fetched.Opacity)
}
